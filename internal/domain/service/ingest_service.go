package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"taskpipe/internal/domain"
	"taskpipe/internal/domain/entity"
	"taskpipe/internal/domain/validation"
	"taskpipe/internal/metrics"
	"taskpipe/internal/port/secondary"
)

// IngestService validates submissions and enqueues the resulting records
// onto the single ordering group. Invocations share no mutable state and
// are safe to run concurrently.
type IngestService struct {
	producer       secondary.QueueProducer
	enqueueTimeout time.Duration
	metrics        *metrics.Metrics
	logger         *zap.Logger

	now func() time.Time
}

// NewIngestService creates an IngestService with its dependencies injected.
// enqueueTimeout bounds the producer-side enqueue call; zero falls back to
// the domain default.
func NewIngestService(
	producer secondary.QueueProducer,
	enqueueTimeout time.Duration,
	m *metrics.Metrics,
	logger *zap.Logger,
) *IngestService {
	if enqueueTimeout <= 0 {
		enqueueTimeout = domain.DefaultEnqueueTimeout
	}
	return &IngestService{
		producer:       producer,
		enqueueTimeout: enqueueTimeout,
		metrics:        m,
		logger:         logger.Named("ingest-service"),
		now:            time.Now,
	}
}

// SubmitTask validates a submission, assigns it a fresh task ID, and issues
// exactly one enqueue call. A validation failure wraps domain.ErrInvalidTask
// and never reaches the queue; an enqueue failure wraps
// domain.ErrEnqueueFailed and has had no observable side effect, so the
// caller may safely retry the whole request.
func (s *IngestService) SubmitTask(ctx context.Context, sub entity.TaskSubmission) (*entity.TaskRecord, error) {
	record, err := validation.Validate(sub)
	if err != nil {
		s.metrics.RequestsRejected.Add(1)
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidTask, err)
	}

	record.TaskID = uuid.NewString()
	record.CreatedAt = s.now().UTC().Truncate(time.Second)

	payload, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("marshaling task record: %w", err)
	}

	enqueueCtx, cancel := context.WithTimeout(ctx, s.enqueueTimeout)
	defer cancel()

	messageID, err := s.producer.Enqueue(enqueueCtx, domain.OrderingGroup, contentHash(record), payload)
	if err != nil {
		s.metrics.EnqueueFailures.Add(1)
		return nil, fmt.Errorf("%w: %w", domain.ErrEnqueueFailed, err)
	}

	s.metrics.RequestsAccepted.Add(1)
	s.logger.Info("task enqueued",
		zap.String("task_id", record.TaskID),
		zap.String("message_id", messageID),
		zap.String("priority", string(record.Priority)),
	)

	return record, nil
}

// contentHash derives the dedupe key from the normalized submission
// content, so the same submission sent twice inside the dedupe window
// collapses onto one entry. TaskID and CreatedAt are deliberately excluded.
func contentHash(record *entity.TaskRecord) string {
	due := ""
	if record.DueDate != nil {
		due = record.DueDate.UTC().Format(validation.DueDateLayout)
	}
	sum := sha256.Sum256([]byte(strings.Join([]string{
		record.Title,
		record.Description,
		string(record.Priority),
		due,
	}, "\x00")))
	return hex.EncodeToString(sum[:])
}
