package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // embedded zone database for TIMEZONE

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/bibbank/loan-origination/pkg/auth"
	"github.com/bibbank/loan-origination/pkg/kafka"
	"github.com/bibbank/loan-origination/pkg/money"
	"github.com/bibbank/loan-origination/pkg/observability"
	"github.com/bibbank/loan-origination/pkg/postgres"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type StorageConfig struct {
	Driver     string
	SQLitePath string
	Postgres   postgres.Config
}

type KafkaConfig struct {
	Client        kafka.Config
	Enabled       bool
	EventsTopic   string
	CommandsTopic string
}

type WorkflowConfig struct {
	L1Threshold  decimal.Decimal
	L2Threshold  decimal.Decimal
	DailyLateFee decimal.Decimal
}

type SchedulerConfig struct {
	OverdueSweepInterval time.Duration
	OverdueBatchSize     int
	OutboxPollInterval   time.Duration
	OutboxBatchSize      int
}

// AuthConfig enables bearer-token staff identity when a key is set. The
// bootstrap admin is registered at startup so staff can be added over HTTP.
type AuthConfig struct {
	JWTSecret           string
	JWTPublicKeyFile    string
	Issuer              string
	TokenTTL            time.Duration
	BootstrapAdminEmail string
	BootstrapAdminName  string
}

// JWT maps the settings onto the token service config. The public key file
// is read by the caller.
func (a AuthConfig) JWT(publicKeyPEM string) auth.JWTConfig {
	return auth.JWTConfig{
		Secret:       a.JWTSecret,
		PublicKeyPEM: publicKeyPEM,
		Issuer:       a.Issuer,
		Expiration:   a.TokenTTL,
	}
}

func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || a.JWTPublicKeyFile != ""
}

type Config struct {
	HTTPPort        int
	ServiceName     string
	TimeZone        string
	ShutdownTimeout time.Duration
	Storage         StorageConfig
	Kafka           KafkaConfig
	Workflow        WorkflowConfig
	Scheduler       SchedulerConfig
	Auth            AuthConfig
	Log             observability.LogConfig
	Tracing         observability.TracingConfig
}

// Validate panics on settings the service cannot start without.
func (c Config) Validate() {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.Postgres.Password == "" {
			panic("DB_PASSWORD environment variable is required")
		}
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			panic("SQLITE_PATH environment variable is required")
		}
	default:
		panic(fmt.Sprintf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverSQLite, c.Storage.Driver))
	}
	if c.Kafka.Enabled {
		if err := c.Kafka.Client.Validate(); err != nil {
			panic(err.Error())
		}
	}
	if !c.Workflow.L1Threshold.IsPositive() || c.Workflow.L2Threshold.LessThan(c.Workflow.L1Threshold) {
		panic("L1_THRESHOLD and L2_THRESHOLD must satisfy 0 < L1 <= L2")
	}
	if c.Auth.JWTSecret != "" && len(c.Auth.JWTSecret) < 32 {
		panic("AUTH_JWT_SECRET must be at least 32 bytes")
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		panic(fmt.Sprintf("TIMEZONE: %v", err))
	}
}

// Load reads the environment, after loading .env from the working directory
// if present. Variables already set take precedence over the file.
func Load() Config {
	_ = godotenv.Load()

	serviceName := getEnv("SERVICE_NAME", "loan-origination")
	return Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 8090),
		ServiceName:     serviceName,
		TimeZone:        getEnv("TIMEZONE", "Asia/Kolkata"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		Storage: StorageConfig{
			Driver:     strings.ToLower(getEnv("STORAGE_DRIVER", DriverPostgres)),
			SQLitePath: getEnv("SQLITE_PATH", "origination.db"),
			Postgres: postgres.Config{
				Host:            getEnv("DB_HOST", "localhost"),
				Port:            getEnvInt("DB_PORT", 5432),
				User:            getEnv("DB_USER", "origination"),
				Password:        getEnv("DB_PASSWORD", ""),
				Database:        getEnv("DB_NAME", "loan_origination"),
				SSLMode:         getEnv("DB_SSLMODE", "require"),
				ApplicationName: serviceName,
				MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 10)),
				MinConns:        int32(getEnvInt("DB_MIN_CONNS", 2)),
			},
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", true),
			Client: kafka.Config{
				Brokers:       kafka.ParseBrokers(getEnv("KAFKA_BROKERS", "localhost:9092")),
				ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", serviceName),
				ClientID:      serviceName,
				TLS:           getEnvBool("KAFKA_TLS", false),
				SASLEnabled:   getEnvBool("KAFKA_SASL_ENABLED", false),
				SASLMechanism: getEnv("KAFKA_SASL_MECHANISM", "SCRAM-SHA-512"),
				SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
				SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
			},
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "origination.events"),
			CommandsTopic: getEnv("KAFKA_COMMANDS_TOPIC", "origination.commands"),
		},
		Workflow: WorkflowConfig{
			L1Threshold:  getEnvDecimal("L1_THRESHOLD", decimal.NewFromInt(1_000_000)),
			L2Threshold:  getEnvDecimal("L2_THRESHOLD", decimal.NewFromInt(5_000_000)),
			DailyLateFee: getEnvDecimal("DAILY_LATE_FEE", decimal.NewFromInt(100)),
		},
		Scheduler: SchedulerConfig{
			OverdueSweepInterval: getEnvDuration("OVERDUE_SWEEP_INTERVAL", time.Hour),
			OverdueBatchSize:     getEnvInt("OVERDUE_BATCH_SIZE", 500),
			OutboxPollInterval:   getEnvDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
			OutboxBatchSize:      getEnvInt("OUTBOX_BATCH_SIZE", 100),
		},
		Auth: AuthConfig{
			JWTSecret:           getEnv("AUTH_JWT_SECRET", ""),
			JWTPublicKeyFile:    getEnv("AUTH_JWT_PUBLIC_KEY_FILE", ""),
			Issuer:              getEnv("AUTH_JWT_ISSUER", "loan-origination"),
			TokenTTL:            getEnvDuration("AUTH_TOKEN_TTL", 8*time.Hour),
			BootstrapAdminEmail: getEnv("BOOTSTRAP_ADMIN_EMAIL", ""),
			BootstrapAdminName:  getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
		},
		Log: observability.LogConfig{
			Level:   getEnv("LOG_LEVEL", "info"),
			Format:  getEnv("LOG_FORMAT", "json"),
			Service: serviceName,
		},
		Tracing: observability.TracingConfig{
			ServiceName: serviceName,
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio: getEnvFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0),
		},
	}
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// Location is the business time zone for due dates and late fees.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if d, err := money.Parse(v); err == nil {
			return d
		}
	}
	return fallback
}
