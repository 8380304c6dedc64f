package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"taskpipe/internal/domain/entity"
	"taskpipe/internal/port/secondary"
)

// deadLetterDTO is the wire form written to the dead-letter topic.
type deadLetterDTO struct {
	EntryID      string          `json:"entry_id"`
	AttemptCount int             `json:"attempt_count"`
	Payload      json.RawMessage `json:"payload"`
	FailedAt     string          `json:"failed_at"`
}

// KafkaSink publishes exhausted entries to a Kafka dead-letter topic.
type KafkaSink struct {
	producer secondary.MessageProducer
	topic    string
	logger   *zap.Logger
}

// NewKafkaSink creates a dead-letter sink writing to the given topic.
func NewKafkaSink(producer secondary.MessageProducer, topic string, logger *zap.Logger) secondary.DeadLetterSink {
	return &KafkaSink{
		producer: producer,
		topic:    topic,
		logger:   logger.Named("dead-letter-sink"),
	}
}

// Publish writes the entry, keyed by entry ID, to the dead-letter topic.
func (s *KafkaSink) Publish(ctx context.Context, dl entity.DeadLetter) error {
	body, err := json.Marshal(deadLetterDTO{
		EntryID:      dl.EntryID,
		AttemptCount: dl.AttemptCount,
		Payload:      json.RawMessage(dl.Payload),
		FailedAt:     dl.FailedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshaling dead letter: %w", err)
	}

	if err := s.producer.Produce(ctx, s.topic, []byte(dl.EntryID), body); err != nil {
		return fmt.Errorf("publishing dead letter: %w", err)
	}

	s.logger.Info("dead letter published",
		zap.String("entry_id", dl.EntryID),
		zap.Int("attempts", dl.AttemptCount),
	)
	return nil
}
