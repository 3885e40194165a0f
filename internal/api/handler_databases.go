package api

import (
	"encoding/json"
	"net/http"
	"time"

	"sqldesk/internal/domain"
)

// databaseResponse is the wire shape of one registered database. The DSN is
// deliberately omitted: it can carry credentials.
type databaseResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Driver    string    `json:"driver"`
	AllowCTAS bool      `json:"allow_ctas"`
	CreatedAt time.Time `json:"created_at"`
}

func toDatabaseResponse(d *domain.Database) databaseResponse {
	return databaseResponse{
		ID:        d.ID,
		Name:      d.Name,
		Driver:    d.Driver,
		AllowCTAS: d.AllowCTAS,
		CreatedAt: d.CreatedAt,
	}
}

// ListDatabases handles GET /databases.
func (h *Handler) ListDatabases(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	databases, err := h.databases.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]databaseResponse, 0, len(databases))
	for i := range databases {
		out = append(out, toDatabaseResponse(&databases[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": out,
		"count":  len(out),
	})
}

// createDatabaseRequest is the JSON body of POST /databases.
type createDatabaseRequest struct {
	Name      string `json:"name"`
	Driver    string `json:"driver"`
	DSN       string `json:"dsn"`
	AllowCTAS bool   `json:"allow_ctas"`
}

// CreateDatabase handles POST /databases: registers a new execution target.
func (h *Handler) CreateDatabase(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	var req createDatabaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	record := &domain.Database{
		Name:      req.Name,
		Driver:    req.Driver,
		DSN:       req.DSN,
		AllowCTAS: req.AllowCTAS,
	}
	if err := record.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := h.databases.Create(r.Context(), record)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDatabaseResponse(created))
}
