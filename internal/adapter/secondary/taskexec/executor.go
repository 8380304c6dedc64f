// Package taskexec supplies the production task executor: it publishes a
// completion event for each task record and uses the idempotency registry
// to collapse redeliveries onto one observable effect.
package taskexec

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taskpipe/internal/domain/entity"
	"taskpipe/internal/port/secondary"
)

// completionEvent is the wire form written to the completed-tasks topic.
type completionEvent struct {
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	Priority    string `json:"priority"`
	CompletedAt string `json:"completed_at"`
}

// Executor implements secondary.TaskExecutor, keyed on TaskID for
// idempotency.
type Executor struct {
	producer secondary.MessageProducer
	topic    string
	registry secondary.IdempotencyRegistry
	logger   *zap.Logger

	now func() time.Time
}

// NewExecutor creates an Executor publishing completion events to topic.
func NewExecutor(
	producer secondary.MessageProducer,
	topic string,
	registry secondary.IdempotencyRegistry,
	logger *zap.Logger,
) *Executor {
	return &Executor{
		producer: producer,
		topic:    topic,
		registry: registry,
		logger:   logger.Named("task-executor"),
		now:      time.Now,
	}
}

// Execute publishes the completion event for the record. A task ID already
// marked processed is a redelivery and returns success without a second
// publish. The mark is written after the publish succeeds, so a crash in
// between re-publishes on redelivery; downstream consumers key on task_id.
func (e *Executor) Execute(ctx context.Context, record *entity.TaskRecord) error {
	seen, err := e.registry.Seen(ctx, record.TaskID)
	if err != nil {
		return fmt.Errorf("checking idempotency: %w", err)
	}
	if seen {
		e.logger.Info("duplicate delivery collapsed",
			zap.String("task_id", record.TaskID),
		)
		return nil
	}

	body, err := json.Marshal(completionEvent{
		TaskID:      record.TaskID,
		Title:       record.Title,
		Priority:    string(record.Priority),
		CompletedAt: e.now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshaling completion event: %w", err)
	}

	if err := e.producer.Produce(ctx, e.topic, []byte(record.TaskID), body); err != nil {
		return fmt.Errorf("publishing completion event: %w", err)
	}

	if err := e.registry.Mark(ctx, record.TaskID); err != nil {
		return fmt.Errorf("marking task processed: %w", err)
	}

	e.logger.Info("task completed",
		zap.String("task_id", record.TaskID),
		zap.String("priority", string(record.Priority)),
	)
	return nil
}

var _ secondary.TaskExecutor = (*Executor)(nil)
