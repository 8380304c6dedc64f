package secondary

import "context"

// MessageProducer delivers opaque messages to an external topic
// (e.g. Kafka). Shared by the dead-letter sink and the task executor.
type MessageProducer interface {
	// Produce sends one message to the given topic.
	Produce(ctx context.Context, topic string, key, value []byte) error

	// Close releases any resources held by the producer.
	Close() error
}
