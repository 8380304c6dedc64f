package entity

import "time"

// QueueEntry is one delivered unit from the ordered queue. AttemptCount is
// the number of deliveries so far, including this one.
type QueueEntry struct {
	EntryID      string
	AttemptCount int
	Payload      []byte
}

// Outcome is the per-entry processing result reported back to the queue.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
)

// EntryOutcome pairs a delivered entry with its processing result.
// Succeeded entries are deleted by the queue; failed entries are released
// for redelivery.
type EntryOutcome struct {
	EntryID string
	Outcome Outcome
}

// DeadLetter is an entry that exhausted its delivery attempts and is being
// handed to the dead-letter sink.
type DeadLetter struct {
	EntryID      string
	AttemptCount int
	Payload      []byte
	FailedAt     time.Time
}
