package primary

import (
	"context"

	"taskpipe/internal/domain/entity"
)

// IngestService defines the primary port for task ingestion exposed to
// driving adapters (HTTP handlers, embedded library use).
type IngestService interface {
	// SubmitTask validates a submission and enqueues the resulting record.
	// It returns only after the queue has durably accepted the entry.
	SubmitTask(ctx context.Context, sub entity.TaskSubmission) (*entity.TaskRecord, error)
}
