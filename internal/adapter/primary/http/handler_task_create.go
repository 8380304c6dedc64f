package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"taskpipe/internal/domain"
	"taskpipe/internal/domain/validation"
	"taskpipe/internal/port/primary"
)

// CreateTaskHandler handles POST /tasks requests.
type CreateTaskHandler struct {
	service primary.IngestService
	logger  *zap.Logger
}

// NewCreateTaskHandler creates a handler for task creation.
func NewCreateTaskHandler(service primary.IngestService, logger *zap.Logger) *CreateTaskHandler {
	return &CreateTaskHandler{
		service: service,
		logger:  logger.Named("create-task-handler"),
	}
}

// ServeHTTP processes the create task request. Validation failures surface
// the validator's message verbatim as a 400; enqueue failures surface as a
// 500 the caller may retry, since nothing was durably stored.
func (h *CreateTaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{
			Error: "method not allowed",
		})
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "invalid JSON in request body",
		})
		return
	}

	record, err := h.service.SubmitTask(r.Context(), req.toSubmission())
	if err != nil {
		var verr *validation.Error
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: verr.Message,
			})
			return
		}
		if errors.Is(err, domain.ErrInvalidTask) {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: err.Error(),
			})
			return
		}
		h.logger.Error("failed to enqueue task", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to process task",
			Details: err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, CreateTaskResponse{
		TaskID:  record.TaskID,
		Message: "Task created successfully",
		Status:  "queued",
	})
}
