package secondary

import (
	"context"

	"taskpipe/internal/domain/entity"
)

// DeadLetterSink receives entries that exhausted their delivery attempts.
// Write-only from the pipeline's perspective.
type DeadLetterSink interface {
	Publish(ctx context.Context, dl entity.DeadLetter) error
}
