package domain

import "errors"

var (
	// ErrInvalidTask indicates the submission failed validation.
	ErrInvalidTask = errors.New("invalid task")

	// ErrEnqueueFailed indicates the queue did not durably accept an entry.
	ErrEnqueueFailed = errors.New("failed to enqueue task")

	// ErrTransport indicates a queue pull or acknowledgment call failed.
	ErrTransport = errors.New("queue transport error")

	// ErrExecutionFailed indicates the task executor could not complete a task.
	ErrExecutionFailed = errors.New("task execution failed")
)
