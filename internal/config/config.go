package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// HTTP holds the front-door server settings.
type HTTP struct {
	Addr              string        `envconfig:"HTTP_ADDR" default:":8080"`
	ReadHeaderTimeout time.Duration `envconfig:"HTTP_READ_HEADER_TIMEOUT" default:"10s"`
	ShutdownTimeout   time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Redis holds connection settings for the queue backend.
type Redis struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Addr returns host:port for the Redis client.
func (r Redis) Addr() string {
	return r.Host + ":" + r.Port
}

// Kafka holds broker addresses and the topics the pipeline writes to.
type Kafka struct {
	Brokers         []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092" validate:"min=1"`
	DeadLetterTopic string   `envconfig:"KAFKA_DEAD_LETTER_TOPIC" default:"tasks.dead-letter" validate:"required"`
	CompletedTopic  string   `envconfig:"KAFKA_COMPLETED_TOPIC" default:"tasks.completed" validate:"required"`
}

// Queue holds the ordered-queue tuning knobs.
type Queue struct {
	Backend             string        `envconfig:"QUEUE_BACKEND" default:"redis" validate:"oneof=redis memory"`
	BatchSize           int           `envconfig:"QUEUE_BATCH_SIZE" default:"10" validate:"min=1"`
	MaxDeliveryAttempts int           `envconfig:"QUEUE_MAX_DELIVERY_ATTEMPTS" default:"3" validate:"min=1"`
	VisibilityTimeout   time.Duration `envconfig:"QUEUE_VISIBILITY_TIMEOUT" default:"5m"`
	LongPollWait        time.Duration `envconfig:"QUEUE_LONG_POLL_WAIT" default:"20s"`
	EnqueueTimeout      time.Duration `envconfig:"QUEUE_ENQUEUE_TIMEOUT" default:"5s"`
	PollInterval        time.Duration `envconfig:"QUEUE_POLL_INTERVAL" default:"1s"`
}

// Executor holds task-executor settings.
type Executor struct {
	Timeout        time.Duration `envconfig:"EXECUTOR_TIMEOUT" default:"30s"`
	IdempotencyTTL time.Duration `envconfig:"EXECUTOR_IDEMPOTENCY_TTL" default:"24h"`
}

// Metrics holds Prometheus naming.
type Metrics struct {
	Namespace string `envconfig:"METRICS_NAMESPACE" default:"taskpipe"`
	Subsystem string `envconfig:"METRICS_SUBSYSTEM" default:"pipeline"`
}

// Config holds all application configuration values.
type Config struct {
	HTTP     HTTP
	Redis    Redis
	Kafka    Kafka
	Queue    Queue
	Executor Executor
	Metrics  Metrics

	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
}

// New creates a Config populated from environment variables and rejects
// values that fail struct validation.
func New() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	for i, b := range cfg.Kafka.Brokers {
		cfg.Kafka.Brokers[i] = strings.TrimSpace(b)
	}

	return &cfg, nil
}
