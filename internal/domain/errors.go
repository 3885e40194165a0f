// Package domain defines core types, interfaces, and errors for the SQL
// execution service.
package domain

import "fmt"

// Error kinds reported in API error payloads.
const (
	ErrorKindValidation     = "VALIDATION"
	ErrorKindForbidden      = "FORBIDDEN"
	ErrorKindRender         = "RENDER"
	ErrorKindTimeout        = "TIMEOUT"
	ErrorKindNotFound       = "NOT_FOUND"
	ErrorKindGone           = "GONE"
	ErrorKindConflict       = "CONFLICT"
	ErrorKindResultsBackend = "RESULTS_BACKEND"
	ErrorKindUnexpected     = "UNEXPECTED"
)

// NotFoundError indicates a resource was not found.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

// ForbiddenError indicates the caller lacks permission on the target
// database, schema, or referenced datasets.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// ValidationError indicates invalid input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// RenderError indicates SQL template rendering failed. The SQL is never
// partially rendered when this error is returned.
type RenderError struct {
	Message string
}

func (e *RenderError) Error() string { return e.Message }

// TimeoutError indicates a synchronous execution exceeded its time budget.
type TimeoutError struct {
	Message string
}

func (e *TimeoutError) Error() string { return e.Message }

// GoneError indicates a stored result existed but has expired or been evicted.
type GoneError struct {
	Message string
}

func (e *GoneError) Error() string { return e.Message }

// ConflictError indicates a conflict, such as an illegal status transition.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// ResultsBackendError indicates the results backend is disabled, unavailable,
// or failed during a lookup or write.
type ResultsBackendError struct {
	Message string
}

func (e *ResultsBackendError) Error() string { return e.Message }

// ResultsBackendTimeoutError indicates a results backend access timed out.
type ResultsBackendTimeoutError struct {
	Message string
}

func (e *ResultsBackendTimeoutError) Error() string { return e.Message }

// ErrNotFound creates a NotFoundError with a formatted message.
func ErrNotFound(format string, args ...interface{}) *NotFoundError {
	return &NotFoundError{Message: fmt.Sprintf(format, args...)}
}

// ErrForbidden creates a ForbiddenError with a formatted message.
func ErrForbidden(format string, args ...interface{}) *ForbiddenError {
	return &ForbiddenError{Message: fmt.Sprintf(format, args...)}
}

// ErrValidation creates a ValidationError with a formatted message.
func ErrValidation(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ErrRender creates a RenderError with a formatted message.
func ErrRender(format string, args ...interface{}) *RenderError {
	return &RenderError{Message: fmt.Sprintf(format, args...)}
}

// ErrTimeout creates a TimeoutError with a formatted message.
func ErrTimeout(format string, args ...interface{}) *TimeoutError {
	return &TimeoutError{Message: fmt.Sprintf(format, args...)}
}

// ErrGone creates a GoneError with a formatted message.
func ErrGone(format string, args ...interface{}) *GoneError {
	return &GoneError{Message: fmt.Sprintf(format, args...)}
}

// ErrConflict creates a ConflictError with a formatted message.
func ErrConflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// ErrResultsBackend creates a ResultsBackendError with a formatted message.
func ErrResultsBackend(format string, args ...interface{}) *ResultsBackendError {
	return &ResultsBackendError{Message: fmt.Sprintf(format, args...)}
}

// ErrResultsBackendTimeout creates a ResultsBackendTimeoutError with a
// formatted message.
func ErrResultsBackendTimeout(format string, args ...interface{}) *ResultsBackendTimeoutError {
	return &ResultsBackendTimeoutError{Message: fmt.Sprintf(format, args...)}
}
