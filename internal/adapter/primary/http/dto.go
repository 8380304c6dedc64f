package http

import "taskpipe/internal/domain/entity"

// CreateTaskRequest is the POST /tasks request body.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date,omitempty"`
}

// CreateTaskResponse is returned once a task is durably queued. The client
// is never told whether processing ultimately succeeded; this API is
// fire-and-forget ingestion with ordering guarantees.
type CreateTaskResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ErrorResponse is the standard error payload. Details is only set for
// infrastructure failures.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// toSubmission converts a CreateTaskRequest DTO to the domain submission.
func (r *CreateTaskRequest) toSubmission() entity.TaskSubmission {
	return entity.TaskSubmission{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		DueDate:     r.DueDate,
	}
}
