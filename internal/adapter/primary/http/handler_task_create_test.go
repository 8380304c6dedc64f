package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"taskpipe/internal/domain"
	"taskpipe/internal/domain/entity"
	"taskpipe/internal/domain/validation"
	"taskpipe/internal/port/secondary"
)

func TestCreateTaskHandler_ServeHTTP(t *testing.T) {
	queuedRecord := &entity.TaskRecord{
		TaskID:   "3f8a1c2e-0000-4000-8000-000000000001",
		Title:    "Review PR",
		Priority: entity.PriorityHigh,
	}

	tests := []struct {
		name           string
		method         string
		body           interface{}
		submitErr      error
		wantStatusCode int
		wantErrorPart  string
	}{
		{
			name:   "successful task creation",
			method: http.MethodPost,
			body: CreateTaskRequest{
				Title:       "Review PR",
				Description: "Review #123",
				Priority:    "HIGH",
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name:           "method not allowed",
			method:         http.MethodGet,
			body:           nil,
			wantStatusCode: http.StatusMethodNotAllowed,
		},
		{
			name:           "invalid JSON body",
			method:         http.MethodPost,
			body:           "not json",
			wantStatusCode: http.StatusBadRequest,
			wantErrorPart:  "JSON",
		},
		{
			name:   "empty title",
			method: http.MethodPost,
			body: CreateTaskRequest{
				Title:       "",
				Description: "x",
				Priority:    "low",
			},
			submitErr: fmt.Errorf("%w: %w", domain.ErrInvalidTask,
				&validation.Error{Field: "title", Message: "title cannot be empty"}),
			wantStatusCode: http.StatusBadRequest,
			wantErrorPart:  "title",
		},
		{
			name:   "unknown priority",
			method: http.MethodPost,
			body: CreateTaskRequest{
				Title:       "x",
				Description: "y",
				Priority:    "urgent",
			},
			submitErr: fmt.Errorf("%w: %w", domain.ErrInvalidTask,
				&validation.Error{Field: "priority", Message: "priority must be one of: low, medium, high"}),
			wantStatusCode: http.StatusBadRequest,
			wantErrorPart:  "priority",
		},
		{
			name:   "enqueue failure returns 500 with details",
			method: http.MethodPost,
			body: CreateTaskRequest{
				Title:       "Review PR",
				Description: "Review #123",
				Priority:    "low",
			},
			submitErr:      fmt.Errorf("%w: broker unavailable", domain.ErrEnqueueFailed),
			wantStatusCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := &mockIngestService{
				record:    queuedRecord,
				submitErr: tt.submitErr,
			}
			handler := NewCreateTaskHandler(mockSvc, zap.NewNop())

			var bodyBytes []byte
			if tt.body != nil {
				switch v := tt.body.(type) {
				case string:
					bodyBytes = []byte(v)
				default:
					bodyBytes, _ = json.Marshal(v)
				}
			}

			req := httptest.NewRequest(tt.method, "/tasks", bytes.NewReader(bodyBytes))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("expected status %d, got %d (body: %s)", tt.wantStatusCode, rec.Code, rec.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp CreateTaskResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.TaskID != queuedRecord.TaskID {
					t.Fatalf("expected task_id %q, got %q", queuedRecord.TaskID, resp.TaskID)
				}
				if resp.Status != "queued" {
					t.Fatalf("expected status queued, got %q", resp.Status)
				}
				return
			}

			var resp ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if tt.wantErrorPart != "" && !strings.Contains(resp.Error, tt.wantErrorPart) {
				t.Fatalf("expected error mentioning %q, got %q", tt.wantErrorPart, resp.Error)
			}
			if tt.wantStatusCode == http.StatusInternalServerError && resp.Details == "" {
				t.Fatal("expected details on 500 response")
			}
		})
	}
}

// Validation messages pass through to the client verbatim, without the
// internal error-chain prefix.
func TestCreateTaskHandler_validationMessageVerbatim(t *testing.T) {
	mockSvc := &mockIngestService{
		submitErr: fmt.Errorf("%w: %w", domain.ErrInvalidTask,
			&validation.Error{Field: "title", Message: "title cannot exceed 200 characters"}),
	}
	handler := NewCreateTaskHandler(mockSvc, zap.NewNop())

	body, _ := json.Marshal(CreateTaskRequest{Title: "x", Description: "y", Priority: "low"})
	req := httptest.NewRequest(http.MethodPost, "/tasks", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Error != "title cannot exceed 200 characters" {
		t.Fatalf("expected verbatim validation message, got %q", resp.Error)
	}
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name           string
		checks         []mockHealthCheck
		wantStatusCode int
		wantStatus     string
	}{
		{
			name:           "healthy with no checks",
			checks:         nil,
			wantStatusCode: http.StatusOK,
			wantStatus:     "healthy",
		},
		{
			name: "healthy with passing checks",
			checks: []mockHealthCheck{
				{name: "redis", err: nil},
			},
			wantStatusCode: http.StatusOK,
			wantStatus:     "healthy",
		},
		{
			name: "unhealthy with failing check",
			checks: []mockHealthCheck{
				{name: "redis", err: errors.New("connection refused")},
			},
			wantStatusCode: http.StatusServiceUnavailable,
			wantStatus:     "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var checks []secondary.HealthChecker
			for _, c := range tt.checks {
				checks = append(checks, c)
			}

			handler := NewHealthHandler(checks)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatusCode {
				t.Fatalf("expected status %d, got %d", tt.wantStatusCode, rec.Code)
			}

			var resp HealthResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Status != tt.wantStatus {
				t.Fatalf("expected status %q, got %q", tt.wantStatus, resp.Status)
			}
		})
	}
}
