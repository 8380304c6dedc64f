package secondary

import (
	"context"

	"taskpipe/internal/domain/entity"
)

// TaskExecutor performs the business action for one task record.
//
// Because the queue delivers at least once, the same record may be executed
// more than once; implementations must treat TaskID as an idempotency key
// and produce one observable effect per task regardless of redelivery.
type TaskExecutor interface {
	Execute(ctx context.Context, record *entity.TaskRecord) error
}
