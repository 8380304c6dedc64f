// Package memqueue is an in-process ordered queue implementing the same
// delivery contract as the Redis backend: strict FIFO within the group,
// at-least-once delivery, visibility timeouts, content-hash dedupe, and
// dead-lettering after the attempt bound. Used for tests, local runs, and
// embedded pipelines.
package memqueue

import (
	"context"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskpipe/internal/domain"
	"taskpipe/internal/domain/entity"
	"taskpipe/internal/metrics"
	"taskpipe/internal/port/secondary"
)

const pollTick = 20 * time.Millisecond

// Options tunes queue behavior; zero values fall back to the domain
// defaults.
type Options struct {
	VisibilityTimeout   time.Duration
	MaxDeliveryAttempts int
	DedupeWindow        time.Duration

	// Now is an injectable clock for tests.
	Now func() time.Time
}

type memEntry struct {
	id             string
	group          string
	dedupeKey      string
	payload        []byte
	attempts       int
	invisibleUntil time.Time
}

type dedupeRef struct {
	messageID string
	expiresAt time.Time
}

// Queue is a mutex-guarded ordered queue. The pending slice is the single
// source of entry order; in-flight entries stay in place so the head of the
// group blocks everything behind it until acked or expired.
type Queue struct {
	mu      sync.Mutex
	seq     int64
	pending []*memEntry
	dedupe  map[string]dedupeRef

	opts    Options
	sink    secondary.DeadLetterSink
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates an in-memory queue that routes exhausted entries to sink.
func New(opts Options, sink secondary.DeadLetterSink, m *metrics.Metrics, logger *zap.Logger) *Queue {
	if opts.VisibilityTimeout <= 0 {
		opts.VisibilityTimeout = domain.DefaultVisibilityTimeout
	}
	if opts.MaxDeliveryAttempts <= 0 {
		opts.MaxDeliveryAttempts = domain.MaxDeliveryAttempts
	}
	if opts.DedupeWindow <= 0 {
		opts.DedupeWindow = domain.DedupeWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Queue{
		dedupe:  make(map[string]dedupeRef),
		opts:    opts,
		sink:    sink,
		metrics: m,
		logger:  logger.Named("memqueue"),
	}
}

// Enqueue appends a payload in arrival order. A dedupe key seen within the
// dedupe window returns the original message ID without adding an entry.
func (q *Queue) Enqueue(_ context.Context, group, dedupeKey string, payload []byte) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.opts.Now()
	if ref, ok := q.dedupe[dedupeKey]; ok && now.Before(ref.expiresAt) {
		return ref.messageID, nil
	}

	q.seq++
	id := strconv.FormatInt(q.seq, 10)
	buf := make([]byte, len(payload))
	copy(buf, payload)

	q.pending = append(q.pending, &memEntry{
		id:        id,
		group:     group,
		dedupeKey: dedupeKey,
		payload:   buf,
	})
	q.dedupe[dedupeKey] = dedupeRef{messageID: id, expiresAt: now.Add(q.opts.DedupeWindow)}

	return id, nil
}

// PullBatch returns up to maxSize contiguous deliverable entries from the
// head of the queue, long-polling up to wait while the queue is empty.
// An in-flight, still-visible entry at the head blocks the whole group.
func (q *Queue) PullBatch(ctx context.Context, maxSize int, wait time.Duration) ([]entity.QueueEntry, error) {
	deadline := q.opts.Now().Add(wait)
	for {
		batch := q.tryPull(maxSize)
		if len(batch) > 0 || !q.opts.Now().Before(deadline) {
			return batch, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollTick):
		}
	}
}

func (q *Queue) tryPull(maxSize int) []entity.QueueEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := q.opts.Now()
	var batch []entity.QueueEntry

	i := 0
	for i < len(q.pending) && len(batch) < maxSize {
		e := q.pending[i]

		if e.invisibleUntil.After(now) {
			// Head still in flight: nothing behind it may be delivered.
			break
		}

		if e.attempts >= q.opts.MaxDeliveryAttempts {
			if !q.deadLetterLocked(e) {
				break
			}
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			continue
		}

		e.attempts++
		e.invisibleUntil = now.Add(q.opts.VisibilityTimeout)
		batch = append(batch, entity.QueueEntry{
			EntryID:      e.id,
			AttemptCount: e.attempts,
			Payload:      e.payload,
		})
		i++
	}

	return batch
}

// deadLetterLocked hands an exhausted entry to the sink. On sink failure
// the entry stays queued for the next cycle rather than being dropped.
func (q *Queue) deadLetterLocked(e *memEntry) bool {
	err := q.sink.Publish(context.Background(), entity.DeadLetter{
		EntryID:      e.id,
		AttemptCount: e.attempts,
		Payload:      e.payload,
		FailedAt:     q.opts.Now().UTC(),
	})
	if err != nil {
		q.logger.Error("dead-letter publish failed, entry retained",
			zap.String("entry_id", e.id),
			zap.Error(err),
		)
		return false
	}

	q.metrics.EntriesDeadLettered.Add(1)
	q.logger.Warn("entry dead-lettered",
		zap.String("entry_id", e.id),
		zap.Int("attempts", e.attempts),
	)
	return true
}

// ReportOutcomes deletes succeeded entries and makes failed ones
// immediately redeliverable. Unknown IDs are ignored; the visibility
// timeout already covers consumers that vanish mid-batch.
func (q *Queue) ReportOutcomes(_ context.Context, outcomes []entity.EntryOutcome) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, o := range outcomes {
		idx := q.indexLocked(o.EntryID)
		if idx < 0 {
			continue
		}
		switch o.Outcome {
		case entity.OutcomeSuccess:
			q.pending = append(q.pending[:idx], q.pending[idx+1:]...)
		case entity.OutcomeFailure:
			q.pending[idx].invisibleUntil = time.Time{}
		}
	}
	return nil
}

func (q *Queue) indexLocked(id string) int {
	for i, e := range q.pending {
		if e.id == id {
			return i
		}
	}
	return -1
}

// Len reports the number of entries still queued (pending or in flight).
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

var (
	_ secondary.QueueProducer = (*Queue)(nil)
	_ secondary.QueueConsumer = (*Queue)(nil)
)
