package secondary

import "context"

// IdempotencyRegistry records which task IDs have already been executed so
// redeliveries collapse to a no-op.
type IdempotencyRegistry interface {
	// Seen reports whether the task ID was already marked processed.
	Seen(ctx context.Context, taskID string) (bool, error)

	// Mark records the task ID as processed.
	Mark(ctx context.Context, taskID string) error
}
