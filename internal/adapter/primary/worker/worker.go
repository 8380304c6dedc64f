package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskpipe/internal/port/primary"
	"taskpipe/internal/port/secondary"
)

// Worker drives the consume loop: long-poll a batch, process it in order,
// report per-entry outcomes. The queue's FIFO/visibility semantics are the
// serialization point; the worker holds no state of its own and respects
// context cancellation for graceful shutdown.
type Worker struct {
	consumer     secondary.QueueConsumer
	processor    primary.BatchProcessor
	batchSize    int
	pollWait     time.Duration
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewWorker creates a Worker pulling batches of up to batchSize entries.
func NewWorker(
	consumer secondary.QueueConsumer,
	processor primary.BatchProcessor,
	batchSize int,
	pollWait time.Duration,
	pollInterval time.Duration,
	logger *zap.Logger,
) *Worker {
	return &Worker{
		consumer:     consumer,
		processor:    processor,
		batchSize:    batchSize,
		pollWait:     pollWait,
		pollInterval: pollInterval,
		logger:       logger.Named("worker"),
	}
}

// Run starts the consume loop. It blocks until the context is cancelled.
// A failed pull or report means no batch processed this cycle, never a
// crash: the loop logs and retries after the poll interval.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started",
		zap.Int("batch_size", w.batchSize),
		zap.Duration("poll_wait", w.pollWait),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker shutting down")
			return ctx.Err()
		default:
		}

		entries, err := w.consumer.PullBatch(ctx, w.batchSize, w.pollWait)
		if err != nil {
			if ctx.Err() != nil {
				w.logger.Info("worker shutting down")
				return ctx.Err()
			}
			w.logger.Error("batch pull failed", zap.Error(err))
			if !w.pause(ctx) {
				return ctx.Err()
			}
			continue
		}

		if len(entries) == 0 {
			continue
		}

		// Once a batch is pulled the processor runs it to completion;
		// partial results are always reported.
		outcomes := w.processor.ProcessBatch(ctx, entries)

		if err := w.consumer.ReportOutcomes(ctx, outcomes); err != nil {
			// The visibility timeout redelivers anything left unreported.
			w.logger.Error("outcome report failed", zap.Error(err))
			if !w.pause(ctx) {
				return ctx.Err()
			}
		}
	}
}

func (w *Worker) pause(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(w.pollInterval):
		return true
	}
}
