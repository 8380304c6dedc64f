package entity

import (
	"strings"
	"time"
)

// Priority is the normalized urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority matches a raw priority string case-insensitively against
// the known levels and returns the normalized form.
func ParsePriority(raw string) (Priority, bool) {
	switch Priority(strings.ToLower(strings.TrimSpace(raw))) {
	case PriorityLow:
		return PriorityLow, true
	case PriorityMedium:
		return PriorityMedium, true
	case PriorityHigh:
		return PriorityHigh, true
	}
	return "", false
}

// TaskSubmission is a raw, unvalidated task as received from a client.
// It lives only for the duration of one ingestion call.
type TaskSubmission struct {
	Title       string
	Description string
	Priority    string
	DueDate     string
}

// TaskRecord is the canonical form of a task. Field values are only ever
// produced by validation (trimmed strings, lowercased priority, parsed due
// date); TaskID and CreatedAt are assigned at ingestion.
type TaskRecord struct {
	TaskID      string     `json:"task_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
