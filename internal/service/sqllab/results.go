package sqllab

import (
	"context"
	"log/slog"

	"sqldesk/internal/config"
	"sqldesk/internal/domain"
)

// ResultsService serves stored result sets for completed asynchronous
// queries, keyed by the results key handed out at submission time.
type ResultsService struct {
	queries domain.QueryRepository
	backend domain.ResultsBackend
	cfg     config.SQLLabConfig
	logger  *slog.Logger
}

// NewResultsService wires the retrieval path.
func NewResultsService(queries domain.QueryRepository, backend domain.ResultsBackend, cfg config.SQLLabConfig, logger *slog.Logger) *ResultsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsService{queries: queries, backend: backend, cfg: cfg, logger: logger}
}

// Fetch retrieves the result set stored under key. An unknown key is a
// NotFoundError; a key whose payload has expired is a GoneError. A positive
// rows argument re-slices the stored payload without mutating it, so
// repeated fetches with different row counts stay independent.
func (s *ResultsService) Fetch(ctx context.Context, key string, rows int) (*domain.ExecutionResult, error) {
	if s.backend == nil {
		return nil, domain.ErrResultsBackend("results backend is not configured")
	}

	query, err := s.queries.GetByResultsKey(ctx, key)
	if err != nil {
		return nil, err
	}

	switch query.Status {
	case domain.QueryStatusPending, domain.QueryStatusRunning:
		return &domain.ExecutionResult{
			Status: domain.ExecutionStatusRunning,
			Receipt: &domain.RunningReceipt{
				QueryID:    query.ID,
				Status:     domain.ExecutionStatusRunning,
				ResultsKey: query.ResultsKey,
			},
		}, nil
	case domain.QueryStatusFailed, domain.QueryStatusTimedOut, domain.QueryStatusStopped:
		return &domain.ExecutionResult{
			Status: domain.ExecutionStatusFailed,
			Error:  terminalErrorDetail(query),
		}, nil
	}

	stored, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	maxRows := s.cfg.MaxDisplayRows
	if rows > 0 && (maxRows <= 0 || rows < maxRows) {
		maxRows = rows
	}
	return &domain.ExecutionResult{
		Status:    domain.ExecutionStatusSuccess,
		ResultSet: Normalize(stored, maxRows),
	}, nil
}

// terminalErrorDetail maps a terminally failed query record to its wire
// error. The recorded message wins; the kind follows the terminal status.
func terminalErrorDetail(q *domain.Query) *domain.ErrorDetail {
	kind := domain.ErrorKindUnexpected
	message := "query failed"
	switch q.Status {
	case domain.QueryStatusTimedOut:
		kind = domain.ErrorKindTimeout
		message = "query timed out"
	case domain.QueryStatusStopped:
		message = "query was stopped"
	}
	if q.ErrorMessage != nil && *q.ErrorMessage != "" {
		message = *q.ErrorMessage
	}
	return &domain.ErrorDetail{ErrorKind: kind, Message: message}
}
