package domain

import "github.com/google/uuid"

// NewID generates a UUIDv7 string for application-owned entities.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewResultsKey generates an opaque token under which a result set is stored.
// Results keys are random rather than time-ordered so they carry no
// information about when or by whom the query was submitted.
func NewResultsKey() string {
	return uuid.NewString()
}
