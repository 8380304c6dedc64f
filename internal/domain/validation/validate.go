// Package validation turns raw task submissions into canonical task records.
// Validate is a pure function: rules run in a fixed order and short-circuit
// on the first failure, so identical inputs always produce the same error.
package validation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"taskpipe/internal/domain"
	"taskpipe/internal/domain/entity"
)

// DueDateLayout is the only accepted due date format: strict ISO-8601 UTC
// with a literal Z suffix. Offsets like +02:00 are rejected.
const DueDateLayout = "2006-01-02T15:04:05Z"

// Error is a validation failure naming the offending field. The message is
// surfaced to clients verbatim.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func fieldError(field, format string, args ...interface{}) *Error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Validate checks and normalizes a submission. Sanitization is trim-only:
// leading/trailing whitespace is stripped before length checks, priority is
// lowercased, nothing else is rewritten. On success the returned record has
// every content field populated; TaskID and CreatedAt are left for the
// ingestion layer to assign.
func Validate(sub entity.TaskSubmission) (*entity.TaskRecord, error) {
	title := strings.TrimSpace(sub.Title)
	if title == "" {
		return nil, fieldError("title", "title cannot be empty")
	}
	if utf8.RuneCountInString(title) > domain.MaxTitleLength {
		return nil, fieldError("title", "title cannot exceed %d characters", domain.MaxTitleLength)
	}

	description := strings.TrimSpace(sub.Description)
	if description == "" {
		return nil, fieldError("description", "description cannot be empty")
	}
	if utf8.RuneCountInString(description) > domain.MaxDescriptionLength {
		return nil, fieldError("description", "description cannot exceed %d characters", domain.MaxDescriptionLength)
	}

	priority, ok := entity.ParsePriority(sub.Priority)
	if !ok {
		return nil, fieldError("priority", "priority must be one of: low, medium, high")
	}

	var dueDate *time.Time
	if raw := strings.TrimSpace(sub.DueDate); raw != "" {
		parsed, err := time.Parse(DueDateLayout, raw)
		if err != nil {
			return nil, fieldError("due_date", "due_date must be in ISO 8601 format (YYYY-MM-DDTHH:MM:SSZ)")
		}
		utc := parsed.UTC()
		dueDate = &utc
	}

	return &entity.TaskRecord{
		Title:       title,
		Description: description,
		Priority:    priority,
		DueDate:     dueDate,
	}, nil
}
