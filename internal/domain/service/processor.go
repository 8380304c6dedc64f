package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taskpipe/internal/domain"
	"taskpipe/internal/domain/entity"
	"taskpipe/internal/metrics"
	"taskpipe/internal/port/secondary"
)

// Processor executes delivered batches strictly in order. Once an entry
// fails, every later entry in the batch is failed without being attempted:
// letting a later entry succeed while an earlier one is pending retry would
// break the global ordering guarantee. Correctness over throughput.
type Processor struct {
	executor    secondary.TaskExecutor
	execTimeout time.Duration
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewProcessor creates a Processor. execTimeout bounds each executor call;
// zero means no per-entry timeout.
func NewProcessor(
	executor secondary.TaskExecutor,
	execTimeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		executor:    executor,
		execTimeout: execTimeout,
		metrics:     m,
		logger:      logger.Named("batch-processor"),
	}
}

// ProcessBatch runs the entries sequentially and returns an outcome for
// every entry. Execution failures never escape: they are isolated to the
// entry level and reported, not propagated.
func (p *Processor) ProcessBatch(ctx context.Context, entries []entity.QueueEntry) []entity.EntryOutcome {
	outcomes := make([]entity.EntryOutcome, 0, len(entries))
	cascading := false

	for _, entry := range entries {
		if cascading {
			outcomes = append(outcomes, entity.EntryOutcome{EntryID: entry.EntryID, Outcome: entity.OutcomeFailure})
			p.metrics.EntriesFailed.Add(1)
			continue
		}

		if err := p.processEntry(ctx, entry); err != nil {
			p.logger.Warn("entry failed, failing remainder of batch to preserve order",
				zap.String("entry_id", entry.EntryID),
				zap.Int("attempt", entry.AttemptCount),
				zap.Error(err),
			)
			cascading = true
			outcomes = append(outcomes, entity.EntryOutcome{EntryID: entry.EntryID, Outcome: entity.OutcomeFailure})
			p.metrics.EntriesFailed.Add(1)
			continue
		}

		outcomes = append(outcomes, entity.EntryOutcome{EntryID: entry.EntryID, Outcome: entity.OutcomeSuccess})
		p.metrics.EntriesSucceeded.Add(1)
	}

	return outcomes
}

func (p *Processor) processEntry(ctx context.Context, entry entity.QueueEntry) error {
	var record entity.TaskRecord
	if err := json.Unmarshal(entry.Payload, &record); err != nil {
		return fmt.Errorf("%w: decoding payload: %w", domain.ErrExecutionFailed, err)
	}

	if p.execTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.execTimeout)
		defer cancel()
	}

	if err := p.execute(ctx, &record); err != nil {
		return fmt.Errorf("%w: task %s: %w", domain.ErrExecutionFailed, record.TaskID, err)
	}

	p.logger.Info("task executed",
		zap.String("task_id", record.TaskID),
		zap.String("entry_id", entry.EntryID),
	)
	return nil
}

// execute calls the executor and converts panics into errors so a
// misbehaving executor can never take down the processing loop.
func (p *Processor) execute(ctx context.Context, record *entity.TaskRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("executor panic: %v", r)
		}
	}()
	return p.executor.Execute(ctx, record)
}
