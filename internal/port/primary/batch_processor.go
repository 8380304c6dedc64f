package primary

import (
	"context"

	"taskpipe/internal/domain/entity"
)

// BatchProcessor processes one delivered batch strictly in order and
// returns an outcome for every entry, always.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, entries []entity.QueueEntry) []entity.EntryOutcome
}
