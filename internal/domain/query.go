package domain

import "time"

// QueryStatus represents the lifecycle state of one query execution attempt.
type QueryStatus string

// Query lifecycle statuses. Transitions only move forward:
// PENDING → RUNNING → (SUCCESS | FAILED | TIMED_OUT | STOPPED).
const (
	QueryStatusPending  QueryStatus = "PENDING"
	QueryStatusRunning  QueryStatus = "RUNNING"
	QueryStatusSuccess  QueryStatus = "SUCCESS"
	QueryStatusFailed   QueryStatus = "FAILED"
	QueryStatusTimedOut QueryStatus = "TIMED_OUT"
	QueryStatusStopped  QueryStatus = "STOPPED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s QueryStatus) IsTerminal() bool {
	switch s {
	case QueryStatusSuccess, QueryStatusFailed, QueryStatusTimedOut, QueryStatusStopped:
		return true
	}
	return false
}

// CanTransitionTo reports whether moving from s to next is a legal forward
// transition. PENDING may jump straight to a terminal state only via RUNNING,
// except STOPPED, which an external stop operation may apply to a PENDING
// record that never started.
func (s QueryStatus) CanTransitionTo(next QueryStatus) bool {
	switch s {
	case QueryStatusPending:
		return next == QueryStatusRunning || next == QueryStatusStopped
	case QueryStatusRunning:
		return next.IsTerminal()
	}
	return false
}

// Query is the persistent record of one execution attempt. It is created by
// the dispatch command before execution starts so async workers can be
// tracked, mutated by the executor as state transitions occur, and read by
// the results retrieval path. This core never deletes records.
type Query struct {
	ID           string
	ClientID     string
	DatabaseID   string
	SchemaName   string
	SQLText      string // rendered SQL, as executed
	Status       QueryStatus
	SubmittedBy  string
	ResultsKey   string
	RowCount     *int64
	ErrorMessage *string
	StartedAt    *time.Time
	EndedAt      *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
