// Package api provides the HTTP handlers for the SQL execution REST API.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sqldesk/internal/domain"
	"sqldesk/internal/middleware"
	"sqldesk/internal/service/sqllab"
)

// Handler holds the service dependencies for all API endpoints.
type Handler struct {
	dispatch  *sqllab.DispatchService
	results   *sqllab.ResultsService
	history   *sqllab.HistoryService
	databases domain.DatabaseRepository
	logger    *slog.Logger
}

// NewHandler creates a Handler with all required service dependencies.
func NewHandler(
	dispatch *sqllab.DispatchService,
	results *sqllab.ResultsService,
	history *sqllab.HistoryService,
	databases domain.DatabaseRepository,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		dispatch:  dispatch,
		results:   results,
		history:   history,
		databases: databases,
		logger:    logger,
	}
}

// Routes mounts every API endpoint on a fresh router. Authentication is
// applied by the caller; handlers assume a principal is in the context.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/sqllab", func(r chi.Router) {
		r.Post("/execute/", h.ExecuteSQL)
		r.Get("/results/{key}", h.GetResults)
	})

	r.Route("/queries", func(r chi.Router) {
		r.Get("/", h.ListQueries)
		r.Get("/{id}", h.GetQuery)
		r.Post("/{id}/stop", h.StopQuery)
	})

	r.Route("/databases", func(r chi.Router) {
		r.Get("/", h.ListDatabases)
		r.Post("/", h.CreateDatabase)
	})

	return r
}

// principal returns the authenticated principal or writes a 401.
func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (string, bool) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok || principal == "" {
		writeJSON(w, http.StatusUnauthorized, errorResponse{
			Errors: []domain.ErrorDetail{{
				ErrorKind: "UNAUTHORIZED",
				Message:   "no authenticated principal",
			}},
		})
		return "", false
	}
	return principal, true
}
