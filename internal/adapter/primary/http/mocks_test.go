package http

import (
	"context"

	"taskpipe/internal/domain/entity"
	"taskpipe/internal/port/primary"
	"taskpipe/internal/port/secondary"
)

// mockIngestService implements primary.IngestService for testing.
type mockIngestService struct {
	record     *entity.TaskRecord
	submitErr  error
	submitted  []entity.TaskSubmission
}

func (m *mockIngestService) SubmitTask(_ context.Context, sub entity.TaskSubmission) (*entity.TaskRecord, error) {
	m.submitted = append(m.submitted, sub)
	if m.submitErr != nil {
		return nil, m.submitErr
	}
	return m.record, nil
}

var _ primary.IngestService = (*mockIngestService)(nil)

// mockHealthCheck is a test double for health checks.
type mockHealthCheck struct {
	name string
	err  error
}

func (m mockHealthCheck) Name() string {
	return m.name
}

func (m mockHealthCheck) Check(_ context.Context) error {
	return m.err
}

var _ secondary.HealthChecker = mockHealthCheck{}
