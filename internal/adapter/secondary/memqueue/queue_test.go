package memqueue

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"taskpipe/internal/adapter/secondary/deadletter"
	"taskpipe/internal/domain"
	"taskpipe/internal/domain/entity"
	"taskpipe/internal/metrics"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestQueue(t *testing.T, clock *fakeClock) (*Queue, *deadletter.MemorySink) {
	t.Helper()
	sink := deadletter.NewMemorySink()
	q := New(Options{
		VisibilityTimeout:   time.Minute,
		MaxDeliveryAttempts: domain.MaxDeliveryAttempts,
		Now:                 clock.Now,
	}, sink, metrics.NewNop(), zap.NewNop())
	return q, sink
}

func enqueueN(t *testing.T, q *Queue, n int) []string {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		id, err := q.Enqueue(ctx, domain.OrderingGroup, fmt.Sprintf("dedupe-%d", i), []byte(fmt.Sprintf("payload-%d", i)))
		if err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
		ids = append(ids, id)
	}
	return ids
}

func ackAll(t *testing.T, q *Queue, batch []entity.QueueEntry, outcome entity.Outcome) {
	t.Helper()
	outcomes := make([]entity.EntryOutcome, 0, len(batch))
	for _, e := range batch {
		outcomes = append(outcomes, entity.EntryOutcome{EntryID: e.EntryID, Outcome: outcome})
	}
	if err := q.ReportOutcomes(context.Background(), outcomes); err != nil {
		t.Fatalf("reporting outcomes: %v", err)
	}
}

func TestQueue_fifoOrder(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	q, _ := newTestQueue(t, clock)
	ids := enqueueN(t, q, 5)

	batch, err := q.PullBatch(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(batch) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(batch))
	}
	for i, e := range batch {
		if e.EntryID != ids[i] {
			t.Fatalf("expected entry %s at position %d, got %s", ids[i], i, e.EntryID)
		}
		if e.AttemptCount != 1 {
			t.Fatalf("expected first delivery, got attempt %d", e.AttemptCount)
		}
	}
}

func TestQueue_batchSizeLimit(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	q, _ := newTestQueue(t, clock)
	enqueueN(t, q, 15)

	batch, err := q.PullBatch(context.Background(), domain.DefaultBatchSize, 0)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(batch) != domain.DefaultBatchSize {
		t.Fatalf("expected %d entries, got %d", domain.DefaultBatchSize, len(batch))
	}
}

// While a delivered entry is unacked and visible, nothing behind it may be
// delivered: the head of the group blocks everything.
func TestQueue_headOfLineBlocking(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	q, _ := newTestQueue(t, clock)
	enqueueN(t, q, 3)

	first, err := q.PullBatch(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(first))
	}

	second, err := q.PullBatch(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(second) != 0 {
		t.Fatalf("expected head-of-line block, got %d entries", len(second))
	}

	ackAll(t, q, first, entity.OutcomeSuccess)

	third, err := q.PullBatch(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(third) != 2 {
		t.Fatalf("expected remaining 2 entries after ack, got %d", len(third))
	}
}

// A failed entry is released immediately and redelivered before anything
// that came after it.
func TestQueue_failureRedeliversInOrder(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	q, _ := newTestQueue(t, clock)
	ids := enqueueN(t, q, 2)

	batch, _ := q.PullBatch(context.Background(), 10, 0)
	ackAll(t, q, batch, entity.OutcomeFailure)

	redelivered, err := q.PullBatch(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("pull: %v", err)
	}
	if len(redelivered) != 2 {
		t.Fatalf("expected 2 redelivered entries, got %d", len(redelivered))
	}
	if redelivered[0].EntryID != ids[0] || redelivered[1].EntryID != ids[1] {
		t.Fatalf("expected original order %v, got %v", ids, redelivered)
	}
	if redelivered[0].AttemptCount != 2 {
		t.Fatalf("expected attempt 2 on redelivery, got %d", redelivered[0].AttemptCount)
	}
}

func TestQueue_visibilityTimeoutRedelivers(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	q, _ := newTestQueue(t, clock)
	enqueueN(t, q, 1)

	if batch, _ := q.PullBatch(context.Background(), 10, 0); len(batch) != 1 {
		t.Fatalf("expected initial delivery, got %d", len(batch))
	}

	// Unacked and still visible: no redelivery yet.
	if batch, _ := q.PullBatch(context.Background(), 10, 0); len(batch) != 0 {
		t.Fatalf("expected no redelivery before timeout, got %d", len(batch))
	}

	clock.Advance(time.Minute + time.Second)

	batch, _ := q.PullBatch(context.Background(), 10, 0)
	if len(batch) != 1 {
		t.Fatalf("expected redelivery after visibility timeout, got %d", len(batch))
	}
	if batch[0].AttemptCount != 2 {
		t.Fatalf("expected attempt 2, got %d", batch[0].AttemptCount)
	}
}

// Attempts 1, 2, 3 fail; the next delivery would exceed the bound, so the
// entry goes to the dead-letter sink instead — and not before.
func TestQueue_deadLetterAfterExhaustedAttempts(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	q, sink := newTestQueue(t, clock)
	ids := enqueueN(t, q, 1)

	for attempt := 1; attempt <= domain.MaxDeliveryAttempts; attempt++ {
		batch, _ := q.PullBatch(context.Background(), 10, 0)
		if len(batch) != 1 {
			t.Fatalf("attempt %d: expected delivery, got %d entries", attempt, len(batch))
		}
		if batch[0].AttemptCount != attempt {
			t.Fatalf("expected attempt %d, got %d", attempt, batch[0].AttemptCount)
		}
		if got := len(sink.Entries()); got != 0 {
			t.Fatalf("attempt %d: entry dead-lettered too early (%d)", attempt, got)
		}
		ackAll(t, q, batch, entity.OutcomeFailure)
	}

	batch, _ := q.PullBatch(context.Background(), 10, 0)
	if len(batch) != 0 {
		t.Fatalf("expected no delivery after exhaustion, got %d", len(batch))
	}

	dead := sink.Entries()
	if len(dead) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(dead))
	}
	if dead[0].EntryID != ids[0] {
		t.Fatalf("expected dead letter for %s, got %s", ids[0], dead[0].EntryID)
	}
	if dead[0].AttemptCount != domain.MaxDeliveryAttempts {
		t.Fatalf("expected %d recorded attempts, got %d", domain.MaxDeliveryAttempts, dead[0].AttemptCount)
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue after dead-lettering, got %d", q.Len())
	}
}

// A dead-lettered head must not block the entries behind it.
func TestQueue_deadLetterUnblocksSuccessors(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	q, sink := newTestQueue(t, clock)
	ids := enqueueN(t, q, 2)

	for attempt := 1; attempt <= domain.MaxDeliveryAttempts; attempt++ {
		batch, _ := q.PullBatch(context.Background(), 1, 0)
		ackAll(t, q, batch, entity.OutcomeFailure)
	}

	batch, _ := q.PullBatch(context.Background(), 10, 0)
	if len(batch) != 1 || batch[0].EntryID != ids[1] {
		t.Fatalf("expected second entry after head dead-lettered, got %v", batch)
	}
	if len(sink.Entries()) != 1 {
		t.Fatalf("expected 1 dead letter, got %d", len(sink.Entries()))
	}
}

func TestQueue_partialAcknowledgment(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	q, _ := newTestQueue(t, clock)
	ids := enqueueN(t, q, 3)

	batch, _ := q.PullBatch(context.Background(), 10, 0)
	if err := q.ReportOutcomes(context.Background(), []entity.EntryOutcome{
		{EntryID: batch[0].EntryID, Outcome: entity.OutcomeSuccess},
		{EntryID: batch[1].EntryID, Outcome: entity.OutcomeFailure},
		{EntryID: batch[2].EntryID, Outcome: entity.OutcomeFailure},
	}); err != nil {
		t.Fatalf("reporting outcomes: %v", err)
	}

	redelivered, _ := q.PullBatch(context.Background(), 10, 0)
	if len(redelivered) != 2 {
		t.Fatalf("expected 2 entries after partial ack, got %d", len(redelivered))
	}
	if redelivered[0].EntryID != ids[1] || redelivered[1].EntryID != ids[2] {
		t.Fatalf("expected failed entries in order, got %v", redelivered)
	}
}

// The same content enqueued twice inside the dedupe window collapses onto
// one entry.
func TestQueue_dedupe(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	q, _ := newTestQueue(t, clock)
	ctx := context.Background()

	first, err := q.Enqueue(ctx, domain.OrderingGroup, "same-hash", []byte("payload"))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	second, err := q.Enqueue(ctx, domain.OrderingGroup, "same-hash", []byte("payload"))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if first != second {
		t.Fatalf("expected duplicate to collapse onto %s, got %s", first, second)
	}
	if q.Len() != 1 {
		t.Fatalf("expected 1 queued entry, got %d", q.Len())
	}

	// After the window the same content is accepted again.
	clock.Advance(domain.DedupeWindow + time.Second)
	third, err := q.Enqueue(ctx, domain.OrderingGroup, "same-hash", []byte("payload"))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if third == first {
		t.Fatal("expected a new entry after the dedupe window expired")
	}
}

func TestQueue_longPollReturnsEarly(t *testing.T) {
	q, _ := newTestQueue(t, &fakeClock{now: time.Now()})

	done := make(chan struct{})
	go func() {
		defer close(done)
		batch, err := q.PullBatch(context.Background(), 10, 2*time.Second)
		if err != nil {
			t.Errorf("pull: %v", err)
			return
		}
		if len(batch) != 1 {
			t.Errorf("expected 1 entry, got %d", len(batch))
		}
	}()

	time.Sleep(30 * time.Millisecond)
	if _, err := q.Enqueue(context.Background(), domain.OrderingGroup, "k", []byte("p")); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("long poll did not return after enqueue")
	}
}
