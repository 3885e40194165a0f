package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"sqldesk/internal/domain"
)

// executeRequest is the JSON body of POST /sqllab/execute/.
type executeRequest struct {
	DatabaseID     string            `json:"database_id"`
	SQL            string            `json:"sql"`
	Schema         string            `json:"schema,omitempty"`
	ClientID       string            `json:"client_id,omitempty"`
	RunAsync       bool              `json:"run_async,omitempty"`
	QueryLimit     int               `json:"query_limit,omitempty"`
	SelectAsCTA    bool              `json:"select_as_cta,omitempty"`
	CTASMethod     string            `json:"ctas_method,omitempty"`
	TmpTableName   string            `json:"tmp_table_name,omitempty"`
	TemplateParams map[string]string `json:"template_params,omitempty"`
	ExpandData     bool              `json:"expand_data,omitempty"`
}

// executeResponse is the JSON body of a successful or running execution.
type executeResponse struct {
	Status     domain.ExecutionStatus `json:"status"`
	Result     *domain.ResultSet      `json:"result,omitempty"`
	QueryID    string                 `json:"query_id,omitempty"`
	ResultsKey string                 `json:"results_key,omitempty"`
}

// ExecuteSQL handles POST /sqllab/execute/: dispatches one SQL statement for
// synchronous or asynchronous execution.
func (h *Handler) ExecuteSQL(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDomainError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	result, err := h.dispatch.Execute(r.Context(), &domain.ExecutionContext{
		SQLText:        req.SQL,
		DatabaseID:     req.DatabaseID,
		SchemaName:     req.Schema,
		ClientID:       req.ClientID,
		RunAsync:       req.RunAsync,
		ExpandData:     req.ExpandData,
		SelectAsCTA:    req.SelectAsCTA,
		CTASMethod:     domain.CTASMethod(req.CTASMethod),
		TmpTableName:   req.TmpTableName,
		QueryLimit:     req.QueryLimit,
		TemplateParams: req.TemplateParams,
		SubmittedBy:    principal,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeExecutionResult(w, result)
}

// GetResults handles GET /sqllab/results/{key}: retrieves a stored result
// set by its results key. The optional rows query parameter tightens the
// display cap for this fetch only.
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.principal(w, r); !ok {
		return
	}

	key := chi.URLParam(r, "key")
	rows := 0
	if v := r.URL.Query().Get("rows"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeDomainError(w, domain.ErrValidation("rows must be a non-negative integer, got %q", v))
			return
		}
		rows = n
	}

	result, err := h.results.Fetch(r.Context(), key, rows)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeExecutionResult(w, result)
}

// writeExecutionResult maps the three execution outcomes onto the wire:
// 200 with a result set, 202 with a running receipt, or the failure's own
// status with an error payload.
func writeExecutionResult(w http.ResponseWriter, result *domain.ExecutionResult) {
	switch result.Status {
	case domain.ExecutionStatusSuccess:
		writeJSON(w, http.StatusOK, executeResponse{
			Status: result.Status,
			Result: result.ResultSet,
		})
	case domain.ExecutionStatusRunning:
		writeJSON(w, http.StatusAccepted, executeResponse{
			Status:     result.Status,
			QueryID:    result.Receipt.QueryID,
			ResultsKey: result.Receipt.ResultsKey,
		})
	case domain.ExecutionStatusFailed:
		status := result.Error.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		writeJSON(w, status, errorResponse{Errors: []domain.ErrorDetail{*result.Error}})
	}
}

// queryResponse is the wire shape of one query log record.
type queryResponse struct {
	ID           string     `json:"id"`
	ClientID     string     `json:"client_id,omitempty"`
	DatabaseID   string     `json:"database_id"`
	Schema       string     `json:"schema,omitempty"`
	SQL          string     `json:"sql"`
	Status       string     `json:"status"`
	SubmittedBy  string     `json:"submitted_by"`
	ResultsKey   string     `json:"results_key"`
	RowCount     *int64     `json:"row_count,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func toQueryResponse(q *domain.Query) queryResponse {
	return queryResponse{
		ID:           q.ID,
		ClientID:     q.ClientID,
		DatabaseID:   q.DatabaseID,
		Schema:       q.SchemaName,
		SQL:          q.SQLText,
		Status:       string(q.Status),
		SubmittedBy:  q.SubmittedBy,
		ResultsKey:   q.ResultsKey,
		RowCount:     q.RowCount,
		ErrorMessage: q.ErrorMessage,
		StartedAt:    q.StartedAt,
		EndedAt:      q.EndedAt,
		CreatedAt:    q.CreatedAt,
	}
}

// ListQueries handles GET /queries: the caller's query history, newest
// first.
func (h *Handler) ListQueries(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	queries, total, err := h.history.List(r.Context(), principal, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]queryResponse, 0, len(queries))
	for i := range queries {
		out = append(out, toQueryResponse(&queries[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"result": out,
		"count":  total,
	})
}

// GetQuery handles GET /queries/{id}.
func (h *Handler) GetQuery(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	q, err := h.history.Get(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQueryResponse(q))
}

// StopQuery handles POST /queries/{id}/stop.
func (h *Handler) StopQuery(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	q, err := h.history.Stop(r.Context(), principal, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQueryResponse(q))
}
