package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bibbank/loan-origination/pkg/events"
	pkgkafka "github.com/bibbank/loan-origination/pkg/kafka"
)

// EntryPublisher delivers stored outbox entries to the broker.
type EntryPublisher interface {
	PublishEntries(ctx context.Context, entries []events.OutboxEntry) error
}

// MessageProducer is the slice of pkg/kafka.Producer the publisher needs.
type MessageProducer interface {
	Publish(ctx context.Context, topic string, messages ...pkgkafka.Message) error
}

var _ EntryPublisher = (*Publisher)(nil)

// Publisher writes outbox entries to one Kafka topic. The aggregate ID is
// the message key, so every event of an application lands on one partition
// in the order it was recorded.
type Publisher struct {
	producer MessageProducer
	topic    string
}

func NewPublisher(producer MessageProducer, topic string) *Publisher {
	return &Publisher{producer: producer, topic: topic}
}

func (p *Publisher) PublishEntries(ctx context.Context, entries []events.OutboxEntry) error {
	if len(entries) == 0 {
		return nil
	}
	messages := make([]pkgkafka.Message, 0, len(entries))
	for _, e := range entries {
		messages = append(messages, pkgkafka.Message{
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: map[string]string{
				"event_type":     e.EventType,
				"aggregate_type": e.AggregateType,
				"event_id":       e.ID,
			},
		})
	}
	if err := p.producer.Publish(ctx, p.topic, messages...); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

var _ EntryPublisher = (*LogPublisher)(nil)

// LogPublisher stands in for Kafka when the broker is disabled: entries are
// logged and then marked published.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) PublishEntries(ctx context.Context, entries []events.OutboxEntry) error {
	for _, e := range entries {
		p.logger.DebugContext(ctx, "domain event",
			"event_type", e.EventType,
			"aggregate_id", e.AggregateID,
			"event_id", e.ID,
		)
	}
	return nil
}
