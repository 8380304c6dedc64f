// Package taskpipe exposes the ordered task pipeline as an embeddable
// library: an in-process ordered queue, the validation/ingestion front, and
// the batch-processing worker, wired against a caller-supplied executor.
package taskpipe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taskpipe/internal/adapter/primary/worker"
	"taskpipe/internal/adapter/secondary/deadletter"
	"taskpipe/internal/adapter/secondary/memqueue"
	"taskpipe/internal/domain"
	"taskpipe/internal/domain/entity"
	"taskpipe/internal/domain/service"
	"taskpipe/internal/metrics"
	"taskpipe/internal/port/primary"
	"taskpipe/internal/port/secondary"
)

// Submission is a raw task as received from the caller.
type Submission = entity.TaskSubmission

// Record is the canonical validated task.
type Record = entity.TaskRecord

// Executor performs the business action for one task. It must treat
// Record.TaskID as an idempotency key: the pipeline delivers at least once.
type Executor = secondary.TaskExecutor

// Config holds configuration for an embedded pipeline.
type Config struct {
	// Executor handles each task. Required.
	Executor Executor

	// BatchSize is the maximum entries processed per cycle (default 10).
	BatchSize int

	// MaxDeliveryAttempts before an entry is dead-lettered (default 3).
	MaxDeliveryAttempts int

	// VisibilityTimeout hides a delivered entry from redelivery (default 5m).
	VisibilityTimeout time.Duration

	// PollWait bounds how long an empty pull blocks (default 1s; the
	// service default of 20s is unhelpfully long in-process).
	PollWait time.Duration

	// PollInterval is the pause after a transport error (default 1s).
	PollInterval time.Duration

	// Logger (if nil, a no-op logger is used).
	Logger *zap.Logger
}

// Pipeline is an in-process ordered task pipeline.
type Pipeline struct {
	ingest      primary.IngestService
	worker      *worker.Worker
	queue       *memqueue.Queue
	deadLetters *deadletter.MemorySink
}

// New creates a Pipeline from the given configuration.
func New(cfg Config) (*Pipeline, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("taskpipe: Executor is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.PollWait <= 0 {
		cfg.PollWait = domain.DefaultPollInterval
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = domain.DefaultPollInterval
	}

	m := metrics.NewNop()
	sink := deadletter.NewMemorySink()
	queue := memqueue.New(memqueue.Options{
		VisibilityTimeout:   cfg.VisibilityTimeout,
		MaxDeliveryAttempts: cfg.MaxDeliveryAttempts,
	}, sink, m, logger)

	ingest := service.NewIngestService(queue, 0, m, logger)
	processor := service.NewProcessor(cfg.Executor, 0, m, logger)
	w := worker.NewWorker(queue, processor, cfg.BatchSize, cfg.PollWait, cfg.PollInterval, logger)

	return &Pipeline{
		ingest:      ingest,
		worker:      w,
		queue:       queue,
		deadLetters: sink,
	}, nil
}

// Submit validates a submission and enqueues it in arrival order.
func (p *Pipeline) Submit(ctx context.Context, sub Submission) (*Record, error) {
	return p.ingest.SubmitTask(ctx, sub)
}

// Run drives the processing loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.worker.Run(ctx)
}

// Pending reports how many entries are still queued or in flight.
func (p *Pipeline) Pending() int {
	return p.queue.Len()
}

// DeadLetters returns the entries that exhausted their delivery attempts.
func (p *Pipeline) DeadLetters() []entity.DeadLetter {
	return p.deadLetters.Entries()
}
