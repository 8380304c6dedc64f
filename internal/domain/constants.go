package domain

import "time"

const (
	// OrderingGroup is the single ordering domain every entry is enqueued
	// under. All submissions funnel through one group so the queue delivers
	// them in global FIFO order; sharding this would weaken ordering to
	// per-shard and is a semantic change, not a tuning knob.
	OrderingGroup = "task-processing"

	// DefaultBatchSize is the maximum number of entries pulled per batch.
	DefaultBatchSize = 10

	// MaxDeliveryAttempts is the number of deliveries an entry gets before
	// it is routed to the dead-letter sink.
	MaxDeliveryAttempts = 3

	// DefaultVisibilityTimeout is how long a delivered entry stays hidden
	// before it becomes redeliverable.
	DefaultVisibilityTimeout = 5 * time.Minute

	// DefaultLongPollWait bounds how long a batch pull blocks waiting for
	// entries to arrive.
	DefaultLongPollWait = 20 * time.Second

	// DefaultEnqueueTimeout bounds the producer-side enqueue call.
	DefaultEnqueueTimeout = 5 * time.Second

	// DefaultPollInterval is the pause between consumer cycles after an
	// empty pull or a transport error.
	DefaultPollInterval = 1 * time.Second

	// DedupeWindow is how long a content-hash dedupe key suppresses
	// duplicate submissions.
	DedupeWindow = 5 * time.Minute

	// MaxTitleLength and MaxDescriptionLength bound submission text fields.
	MaxTitleLength       = 200
	MaxDescriptionLength = 2000
)
