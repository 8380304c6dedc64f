package main

import (
	"context"
	"net/http"

	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"
	"go.uber.org/zap"

	httphandler "taskpipe/internal/adapter/primary/http"
	"taskpipe/internal/adapter/primary/worker"
	"taskpipe/internal/adapter/secondary/deadletter"
	"taskpipe/internal/adapter/secondary/idempotency"
	"taskpipe/internal/adapter/secondary/kafkaproducer"
	"taskpipe/internal/adapter/secondary/memqueue"
	"taskpipe/internal/adapter/secondary/redisqueue"
	"taskpipe/internal/adapter/secondary/taskexec"
	"taskpipe/internal/config"
	"taskpipe/internal/domain/service"
	"taskpipe/internal/metrics"
	"taskpipe/internal/port/primary"
	"taskpipe/internal/port/secondary"
)

// cleanup releases queue-backend resources on shutdown.
type cleanup func() error

// queueBackend bundles everything the chosen backend contributes.
type queueBackend struct {
	dig.Out

	Producer secondary.QueueProducer
	Consumer secondary.QueueConsumer
	Registry secondary.IdempotencyRegistry
	Checks   []secondary.HealthChecker
	Close    cleanup
}

func buildContainer(ctx context.Context) (*dig.Container, error) {
	c := dig.New()

	// --- Configuration ---
	if err := c.Provide(config.New); err != nil {
		return nil, err
	}

	// --- Logger ---
	if err := c.Provide(newLogger); err != nil {
		return nil, err
	}

	// --- Metrics ---
	if err := c.Provide(func(cfg *config.Config) *metrics.Metrics {
		return metrics.New(cfg.Metrics.Namespace, cfg.Metrics.Subsystem)
	}); err != nil {
		return nil, err
	}

	// --- Secondary Adapters (infrastructure) ---

	// Kafka producer, shared by the dead-letter sink and the executor
	if err := c.Provide(func(cfg *config.Config, logger *zap.Logger) secondary.MessageProducer {
		return kafkaproducer.NewProducer(cfg.Kafka.Brokers, logger)
	}); err != nil {
		return nil, err
	}

	// Dead-letter sink
	if err := c.Provide(func(mp secondary.MessageProducer, cfg *config.Config, logger *zap.Logger) secondary.DeadLetterSink {
		return deadletter.NewKafkaSink(mp, cfg.Kafka.DeadLetterTopic, logger)
	}); err != nil {
		return nil, err
	}

	// Ordered queue backend (redis or memory) plus the idempotency
	// registry that shares its store
	if err := c.Provide(func(
		cfg *config.Config,
		sink secondary.DeadLetterSink,
		m *metrics.Metrics,
		logger *zap.Logger,
	) (queueBackend, error) {
		opts := redisqueue.Options{
			VisibilityTimeout:   cfg.Queue.VisibilityTimeout,
			MaxDeliveryAttempts: cfg.Queue.MaxDeliveryAttempts,
		}

		if cfg.Queue.Backend == "memory" {
			q := memqueue.New(memqueue.Options{
				VisibilityTimeout:   opts.VisibilityTimeout,
				MaxDeliveryAttempts: opts.MaxDeliveryAttempts,
			}, sink, m, logger)
			return queueBackend{
				Producer: q,
				Consumer: q,
				Registry: idempotency.NewMemoryRegistry(),
				Close:    func() error { return nil },
			}, nil
		}

		client, err := redisqueue.NewClient(ctx, cfg, logger)
		if err != nil {
			return queueBackend{}, err
		}
		q := redisqueue.New(client, opts, sink, m, logger)
		return queueBackend{
			Producer: q,
			Consumer: q,
			Registry: idempotency.NewRedisRegistry(client, cfg.Executor.IdempotencyTTL),
			Checks:   []secondary.HealthChecker{redisqueue.NewHealthCheck(client)},
			Close:    client.Close,
		}, nil
	}); err != nil {
		return nil, err
	}

	// Task executor
	if err := c.Provide(func(
		mp secondary.MessageProducer,
		registry secondary.IdempotencyRegistry,
		cfg *config.Config,
		logger *zap.Logger,
	) secondary.TaskExecutor {
		return taskexec.NewExecutor(mp, cfg.Kafka.CompletedTopic, registry, logger)
	}); err != nil {
		return nil, err
	}

	// --- Domain Services ---

	if err := c.Provide(func(
		producer secondary.QueueProducer,
		cfg *config.Config,
		m *metrics.Metrics,
		logger *zap.Logger,
	) *service.IngestService {
		return service.NewIngestService(producer, cfg.Queue.EnqueueTimeout, m, logger)
	}); err != nil {
		return nil, err
	}

	// Bind the concrete ingest service to the primary port, decorated with
	// request metrics
	if err := c.Provide(func(s *service.IngestService, cfg *config.Config) primary.IngestService {
		labels := []string{"method", "error"}
		reqCount := kitprometheus.NewCounterFrom(prometheus.CounterOpts{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
			Name:      "ingest_request_count",
			Help:      "ingest request count",
		}, labels)
		reqDuration := kitprometheus.NewSummaryFrom(prometheus.SummaryOpts{
			Namespace: cfg.Metrics.Namespace,
			Subsystem: cfg.Metrics.Subsystem,
			Name:      "ingest_request_duration",
			Help:      "ingest request duration",
		}, labels)
		return service.NewInstrumentingMiddleware(reqCount, reqDuration, s)
	}); err != nil {
		return nil, err
	}

	if err := c.Provide(func(
		executor secondary.TaskExecutor,
		cfg *config.Config,
		m *metrics.Metrics,
		logger *zap.Logger,
	) primary.BatchProcessor {
		return service.NewProcessor(executor, cfg.Executor.Timeout, m, logger)
	}); err != nil {
		return nil, err
	}

	// --- Primary Adapters ---

	// HTTP router
	if err := c.Provide(func(ingestSvc primary.IngestService, checks []secondary.HealthChecker, logger *zap.Logger) http.Handler {
		return httphandler.NewRouter(ingestSvc, checks, logger)
	}); err != nil {
		return nil, err
	}

	// Worker
	if err := c.Provide(func(
		consumer secondary.QueueConsumer,
		processor primary.BatchProcessor,
		cfg *config.Config,
		logger *zap.Logger,
	) *worker.Worker {
		return worker.NewWorker(consumer, processor, cfg.Queue.BatchSize, cfg.Queue.LongPollWait, cfg.Queue.PollInterval, logger)
	}); err != nil {
		return nil, err
	}

	return c, nil
}
