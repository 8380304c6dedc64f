package idempotency

import (
	"context"
	"sync"

	"taskpipe/internal/port/secondary"
)

// MemoryRegistry tracks processed task IDs in memory. For tests and
// embedded pipelines.
type MemoryRegistry struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewMemoryRegistry creates an empty in-memory registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{seen: make(map[string]struct{})}
}

// Seen reports whether the task ID has been marked processed.
func (r *MemoryRegistry) Seen(_ context.Context, taskID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.seen[taskID]
	return ok, nil
}

// Mark records the task ID as processed.
func (r *MemoryRegistry) Mark(_ context.Context, taskID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[taskID] = struct{}{}
	return nil
}

var _ secondary.IdempotencyRegistry = (*MemoryRegistry)(nil)
