package secondary

import (
	"context"
	"time"

	"taskpipe/internal/domain/entity"
)

// QueueProducer is the producer side of the ordered queue.
type QueueProducer interface {
	// Enqueue durably appends a payload to the given ordering group and
	// returns the queue-assigned message ID. Payloads with a dedupe key
	// already seen inside the dedupe window are collapsed onto the
	// original entry.
	Enqueue(ctx context.Context, group, dedupeKey string, payload []byte) (string, error)
}

// QueueConsumer is the consumer side of the ordered queue.
//
// Contract: entries within a group are delivered strictly in enqueue order,
// at least once. No entry is delivered while the one before it is in flight
// and still visible. Entries whose delivery count would exceed the attempt
// bound are routed to the dead-letter sink instead of being delivered.
type QueueConsumer interface {
	// PullBatch returns up to maxSize contiguous in-order entries,
	// long-polling up to wait when the queue is empty. Delivered entries
	// become invisible until reported or their visibility window elapses.
	PullBatch(ctx context.Context, maxSize int, wait time.Duration) ([]entity.QueueEntry, error)

	// ReportOutcomes acknowledges a delivered batch: succeeded entries are
	// deleted, failed entries are released for redelivery.
	ReportOutcomes(ctx context.Context, outcomes []entity.EntryOutcome) error
}
