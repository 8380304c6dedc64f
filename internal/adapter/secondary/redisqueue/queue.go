// Package redisqueue implements the ordered queue contract on Redis.
//
// Entry order lives in a sorted set scored by an enqueue sequence counter;
// visibility state lives in a second sorted set scored by deadline.
// The deployment runs a single consumer (the queue itself serializes the
// group), so pull/ack transitions do not need cross-process atomicity.
package redisqueue

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"taskpipe/internal/domain"
	"taskpipe/internal/domain/entity"
	"taskpipe/internal/metrics"
	"taskpipe/internal/port/secondary"
)

const (
	keyPrefix = "taskpipe:queue:"
	pollTick  = 500 * time.Millisecond
)

// Options tunes queue behavior; zero values fall back to the domain
// defaults.
type Options struct {
	VisibilityTimeout   time.Duration
	MaxDeliveryAttempts int
	DedupeWindow        time.Duration
}

// Queue implements both sides of the ordered queue port on a Redis client.
type Queue struct {
	client  *redis.Client
	opts    Options
	sink    secondary.DeadLetterSink
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a Redis-backed ordered queue that routes exhausted entries
// to sink.
func New(client *redis.Client, opts Options, sink secondary.DeadLetterSink, m *metrics.Metrics, logger *zap.Logger) *Queue {
	if opts.VisibilityTimeout <= 0 {
		opts.VisibilityTimeout = domain.DefaultVisibilityTimeout
	}
	if opts.MaxDeliveryAttempts <= 0 {
		opts.MaxDeliveryAttempts = domain.MaxDeliveryAttempts
	}
	if opts.DedupeWindow <= 0 {
		opts.DedupeWindow = domain.DedupeWindow
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &Queue{
		client:  client,
		opts:    opts,
		sink:    sink,
		metrics: m,
		logger:  logger.Named("redis-queue"),
	}
}

func (q *Queue) seqKey(group string) string      { return keyPrefix + group + ":seq" }
func (q *Queue) pendingKey(group string) string  { return keyPrefix + group + ":pending" }
func (q *Queue) inflightKey(group string) string { return keyPrefix + group + ":inflight" }
func (q *Queue) payloadKey(group string) string  { return keyPrefix + group + ":payload" }
func (q *Queue) attemptsKey(group string) string { return keyPrefix + group + ":attempts" }
func (q *Queue) dedupeKey(group, hash string) string {
	return keyPrefix + group + ":dedupe:" + hash
}

// Enqueue durably appends a payload to the group. The content-hash dedupe
// key is claimed with SETNX so a duplicate submission inside the window
// returns the original message ID instead of creating a second entry.
func (q *Queue) Enqueue(ctx context.Context, group, dedupeKey string, payload []byte) (string, error) {
	seq, err := q.client.Incr(ctx, q.seqKey(group)).Result()
	if err != nil {
		return "", fmt.Errorf("allocating sequence: %w", err)
	}
	id := strconv.FormatInt(seq, 10)

	claimed, err := q.client.SetNX(ctx, q.dedupeKey(group, dedupeKey), id, q.opts.DedupeWindow).Result()
	if err != nil {
		return "", fmt.Errorf("claiming dedupe key: %w", err)
	}
	if !claimed {
		existing, err := q.client.Get(ctx, q.dedupeKey(group, dedupeKey)).Result()
		if err != nil {
			return "", fmt.Errorf("resolving duplicate entry: %w", err)
		}
		q.logger.Debug("duplicate submission collapsed",
			zap.String("group", group),
			zap.String("message_id", existing),
		)
		return existing, nil
	}

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.payloadKey(group), id, payload)
	pipe.ZAdd(ctx, q.pendingKey(group), redis.Z{Score: float64(seq), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("appending entry: %w", err)
	}

	return id, nil
}

// PullBatch returns up to maxSize contiguous in-order entries from the
// group, long-polling up to wait while nothing is deliverable.
func (q *Queue) PullBatch(ctx context.Context, maxSize int, wait time.Duration) ([]entity.QueueEntry, error) {
	deadline := time.Now().Add(wait)
	for {
		batch, err := q.tryPull(ctx, maxSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrTransport, err)
		}
		if len(batch) > 0 || !time.Now().Before(deadline) {
			return batch, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollTick):
		}
	}
}

func (q *Queue) tryPull(ctx context.Context, maxSize int) ([]entity.QueueEntry, error) {
	group := domain.OrderingGroup
	now := time.Now()

	candidates, err := q.client.ZRange(ctx, q.pendingKey(group), 0, int64(maxSize-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading pending entries: %w", err)
	}

	var batch []entity.QueueEntry
	for _, id := range candidates {
		visible, err := q.releaseIfExpired(ctx, group, id, now)
		if err != nil {
			return batch, err
		}
		if !visible {
			// Head in flight and still hidden: the group is blocked.
			break
		}

		attempts, err := q.attempts(ctx, group, id)
		if err != nil {
			return batch, err
		}

		if attempts >= q.opts.MaxDeliveryAttempts {
			if err := q.deadLetter(ctx, group, id, attempts); err != nil {
				q.logger.Error("dead-letter publish failed, entry retained",
					zap.String("entry_id", id),
					zap.Error(err),
				)
				break
			}
			continue
		}

		incremented, err := q.client.HIncrBy(ctx, q.attemptsKey(group), id, 1).Result()
		if err != nil {
			return batch, fmt.Errorf("counting delivery attempt: %w", err)
		}
		attempts = int(incremented)

		payload, err := q.client.HGet(ctx, q.payloadKey(group), id).Result()
		if err != nil {
			return batch, fmt.Errorf("reading payload: %w", err)
		}

		deadlineAt := float64(now.Add(q.opts.VisibilityTimeout).UnixMilli())
		if err := q.client.ZAdd(ctx, q.inflightKey(group), redis.Z{Score: deadlineAt, Member: id}).Err(); err != nil {
			return batch, fmt.Errorf("marking entry in flight: %w", err)
		}

		batch = append(batch, entity.QueueEntry{
			EntryID:      id,
			AttemptCount: int(attempts),
			Payload:      []byte(payload),
		})
	}

	return batch, nil
}

// releaseIfExpired reports whether the entry is deliverable now, clearing
// its in-flight marker when the visibility window has elapsed.
func (q *Queue) releaseIfExpired(ctx context.Context, group, id string, now time.Time) (bool, error) {
	score, err := q.client.ZScore(ctx, q.inflightKey(group), id).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading in-flight state: %w", err)
	}

	if int64(score) > now.UnixMilli() {
		return false, nil
	}

	if err := q.client.ZRem(ctx, q.inflightKey(group), id).Err(); err != nil {
		return false, fmt.Errorf("releasing expired entry: %w", err)
	}
	return true, nil
}

func (q *Queue) attempts(ctx context.Context, group, id string) (int, error) {
	raw, err := q.client.HGet(ctx, q.attemptsKey(group), id).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading attempt count: %w", err)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("parsing attempt count %q: %w", raw, err)
	}
	return n, nil
}

// deadLetter hands an exhausted entry to the sink, then removes it from
// the queue. Sink first: a failed publish leaves the entry queued.
func (q *Queue) deadLetter(ctx context.Context, group, id string, attempts int) error {
	payload, err := q.client.HGet(ctx, q.payloadKey(group), id).Result()
	if err != nil {
		return fmt.Errorf("reading payload: %w", err)
	}

	if err := q.sink.Publish(ctx, entity.DeadLetter{
		EntryID:      id,
		AttemptCount: attempts,
		Payload:      []byte(payload),
		FailedAt:     time.Now().UTC(),
	}); err != nil {
		return err
	}

	if err := q.remove(ctx, group, id); err != nil {
		return err
	}

	q.metrics.EntriesDeadLettered.Add(1)
	q.logger.Warn("entry dead-lettered",
		zap.String("entry_id", id),
		zap.Int("attempts", attempts),
	)
	return nil
}

func (q *Queue) remove(ctx context.Context, group, id string) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.pendingKey(group), id)
	pipe.ZRem(ctx, q.inflightKey(group), id)
	pipe.HDel(ctx, q.payloadKey(group), id)
	pipe.HDel(ctx, q.attemptsKey(group), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("removing entry: %w", err)
	}
	return nil
}

// ReportOutcomes deletes succeeded entries and releases failed ones for
// immediate redelivery.
func (q *Queue) ReportOutcomes(ctx context.Context, outcomes []entity.EntryOutcome) error {
	group := domain.OrderingGroup
	for _, o := range outcomes {
		switch o.Outcome {
		case entity.OutcomeSuccess:
			if err := q.remove(ctx, group, o.EntryID); err != nil {
				return fmt.Errorf("%w: acking entry %s: %w", domain.ErrTransport, o.EntryID, err)
			}
		case entity.OutcomeFailure:
			if err := q.client.ZRem(ctx, q.inflightKey(group), o.EntryID).Err(); err != nil {
				return fmt.Errorf("%w: releasing entry %s: %w", domain.ErrTransport, o.EntryID, err)
			}
		}
	}
	return nil
}

var (
	_ secondary.QueueProducer = (*Queue)(nil)
	_ secondary.QueueConsumer = (*Queue)(nil)
)
