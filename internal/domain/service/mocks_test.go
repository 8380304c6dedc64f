package service

import (
	"context"
	"sync"

	"taskpipe/internal/domain/entity"
	"taskpipe/internal/port/secondary"
)

// enqueueCall captures one producer invocation.
type enqueueCall struct {
	Group     string
	DedupeKey string
	Payload   []byte
}

// mockProducer implements secondary.QueueProducer for testing.
type mockProducer struct {
	mu         sync.Mutex
	calls      []enqueueCall
	enqueueErr error
}

func (m *mockProducer) Enqueue(_ context.Context, group, dedupeKey string, payload []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.enqueueErr != nil {
		return "", m.enqueueErr
	}
	m.calls = append(m.calls, enqueueCall{Group: group, DedupeKey: dedupeKey, Payload: payload})
	return "1", nil
}

// mockExecutor implements secondary.TaskExecutor with per-task results.
type mockExecutor struct {
	mu       sync.Mutex
	executed []string
	failOn   map[string]error
	panicOn  string
}

func (m *mockExecutor) Execute(_ context.Context, record *entity.TaskRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if record.TaskID == m.panicOn {
		panic("executor blew up")
	}
	m.executed = append(m.executed, record.TaskID)
	if err, ok := m.failOn[record.TaskID]; ok {
		return err
	}
	return nil
}

var (
	_ secondary.QueueProducer = (*mockProducer)(nil)
	_ secondary.TaskExecutor  = (*mockExecutor)(nil)
)
