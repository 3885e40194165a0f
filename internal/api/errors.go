package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"sqldesk/internal/domain"
)

// errorResponse is the wire shape of every error payload.
type errorResponse struct {
	Errors []domain.ErrorDetail `json:"errors"`
}

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var (
		notFound       *domain.NotFoundError
		forbidden      *domain.ForbiddenError
		validation     *domain.ValidationError
		render         *domain.RenderError
		gone           *domain.GoneError
		conflict       *domain.ConflictError
		backendTimeout *domain.ResultsBackendTimeoutError
		backend        *domain.ResultsBackendError
	)

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &validation), errors.As(err, &render):
		return http.StatusBadRequest
	case errors.As(err, &gone):
		return http.StatusGone
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &backendTimeout), errors.As(err, &backend):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// errorKindFromDomainError maps domain errors to wire error kinds.
func errorKindFromDomainError(err error) string {
	var (
		notFound       *domain.NotFoundError
		forbidden      *domain.ForbiddenError
		validation     *domain.ValidationError
		render         *domain.RenderError
		gone           *domain.GoneError
		conflict       *domain.ConflictError
		backendTimeout *domain.ResultsBackendTimeoutError
		backend        *domain.ResultsBackendError
	)

	switch {
	case errors.As(err, &notFound):
		return domain.ErrorKindNotFound
	case errors.As(err, &forbidden):
		return domain.ErrorKindForbidden
	case errors.As(err, &validation):
		return domain.ErrorKindValidation
	case errors.As(err, &render):
		return domain.ErrorKindRender
	case errors.As(err, &gone):
		return domain.ErrorKindGone
	case errors.As(err, &conflict):
		return domain.ErrorKindConflict
	case errors.As(err, &backendTimeout), errors.As(err, &backend):
		return domain.ErrorKindResultsBackend
	default:
		return domain.ErrorKindUnexpected
	}
}

// writeDomainError writes a domain error as a JSON error payload with the
// mapped status code. Unexpected errors are reported without their message
// to avoid leaking internals.
func writeDomainError(w http.ResponseWriter, err error) {
	status := httpStatusFromDomainError(err)
	kind := errorKindFromDomainError(err)

	message := err.Error()
	if kind == domain.ErrorKindUnexpected {
		message = "internal server error"
	}

	writeJSON(w, status, errorResponse{
		Errors: []domain.ErrorDetail{{ErrorKind: kind, Message: message}},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
