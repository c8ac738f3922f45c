package kafka

import (
	"errors"
	"strings"
)

// Config holds Kafka connection parameters shared by producers and consumers.
type Config struct {
	Brokers       []string
	ConsumerGroup string
	ClientID      string

	TLS bool

	SASLEnabled   bool
	SASLMechanism string // "PLAIN", "SCRAM-SHA-256" or "SCRAM-SHA-512"
	SASLUsername  string
	SASLPassword  string
}

// ParseBrokers splits a comma-separated broker list, dropping blanks.
func ParseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Validate reports configuration that would only fail at dial time.
func (c Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka: at least one broker is required")
	}
	if c.SASLEnabled && c.SASLUsername == "" {
		return errors.New("kafka: SASL username is required when SASL is enabled")
	}
	return nil
}
