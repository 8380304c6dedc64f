package deadletter

import (
	"context"
	"sync"

	"taskpipe/internal/domain/entity"
	"taskpipe/internal/port/secondary"
)

// MemorySink collects dead letters in memory. Used by tests and embedded
// pipelines that have no broker.
type MemorySink struct {
	mu      sync.Mutex
	entries []entity.DeadLetter
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Publish records the dead letter.
func (s *MemorySink) Publish(_ context.Context, dl entity.DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, dl)
	return nil
}

// Entries returns a copy of everything published so far.
func (s *MemorySink) Entries() []entity.DeadLetter {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.DeadLetter, len(s.entries))
	copy(out, s.entries)
	return out
}

var _ secondary.DeadLetterSink = (*MemorySink)(nil)
