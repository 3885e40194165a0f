// Package sqllab implements the query-execution dispatch core: validation,
// rendering, lifecycle tracking, sync/async execution, and result
// normalization for one SQL submission.
package sqllab

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"sqldesk/internal/config"
	"sqldesk/internal/domain"
)

// DispatchService orchestrates one query execution request end to end:
// validate → render → persist → execute → normalize. It is the single
// integration point; each dispatched request creates exactly one query
// record and exactly one executor invocation, and nothing here retries
// execution on the caller's behalf.
type DispatchService struct {
	validator *AccessValidator
	renderer  *Renderer
	queries   domain.QueryRepository
	provider  domain.ConnectionProvider
	sync      Executor
	async     Executor
	cfg       config.SQLLabConfig
	logger    *slog.Logger
}

// NewDispatchService wires the dispatch core.
func NewDispatchService(
	validator *AccessValidator,
	renderer *Renderer,
	queries domain.QueryRepository,
	provider domain.ConnectionProvider,
	syncExec, asyncExec Executor,
	cfg config.SQLLabConfig,
	logger *slog.Logger,
) *DispatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchService{
		validator: validator,
		renderer:  renderer,
		queries:   queries,
		provider:  provider,
		sync:      syncExec,
		async:     asyncExec,
		cfg:       cfg,
		logger:    logger,
	}
}

// Execute runs the dispatch state machine for one submission. Validation and
// access failures abort before any side effect: no query record exists for a
// forbidden or malformed request. Execution failures are recorded on the
// query record and surfaced in the returned result.
func (s *DispatchService) Execute(ctx context.Context, ec *domain.ExecutionContext) (*domain.ExecutionResult, error) {
	if err := s.validator.Validate(ctx, ec); err != nil {
		return nil, err
	}

	rendered, err := s.renderer.Render(ec.SQLText, ec.TemplateParams)
	if err != nil {
		return nil, err
	}

	pool, target, err := s.provider.Get(ctx, ec.DatabaseID)
	if err != nil {
		return nil, err
	}

	if ec.SelectAsCTA && !target.AllowCTAS {
		return nil, domain.ErrValidation("database %q does not allow CTAS", target.Name)
	}

	finalSQL := rendered
	if ec.SelectAsCTA {
		finalSQL = wrapCTAS(rendered, ec)
	} else if ec.QueryLimit > 0 {
		finalSQL = applyLimit(rendered, ec.QueryLimit)
	}

	record, err := s.queries.Create(ctx, &domain.Query{
		ClientID:    ec.ClientID,
		DatabaseID:  ec.DatabaseID,
		SchemaName:  ec.SchemaName,
		SQLText:     finalSQL,
		SubmittedBy: ec.SubmittedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("create query record: %w", err)
	}

	executor := s.sync
	if ec.RunAsync {
		executor = s.async
	}

	outcome, err := executor.Execute(ctx, pool, record)
	if err != nil {
		return nil, err
	}

	result := &domain.ExecutionResult{Status: outcome.Status}
	switch outcome.Status {
	case domain.ExecutionStatusSuccess:
		result.ResultSet = Normalize(outcome.Stored, s.displayCap(ec))
	case domain.ExecutionStatusRunning:
		result.Receipt = outcome.Receipt
	case domain.ExecutionStatusFailed:
		result.Error = outcome.Error
	}

	s.logger.Info("query dispatched",
		"query_id", record.ID,
		"database_id", ec.DatabaseID,
		"async", ec.RunAsync,
		"status", string(result.Status),
	)
	return result, nil
}

// displayCap returns the effective display row cap for one submission.
// A per-request limit below the configured cap tightens it; CTAS statements
// bypass the cap entirely when the no-limit flag is on.
func (s *DispatchService) displayCap(ec *domain.ExecutionContext) int {
	if ec.SelectAsCTA && s.cfg.CTASNoLimit {
		return 0
	}
	maxRows := s.cfg.MaxDisplayRows
	if ec.QueryLimit > 0 && ec.QueryLimit < maxRows {
		maxRows = ec.QueryLimit
	}
	return maxRows
}

// wrapCTAS turns a SELECT into a CREATE TABLE/VIEW ... AS statement
// targeting the context's temp table.
func wrapCTAS(sqlText string, ec *domain.ExecutionContext) string {
	object := "TABLE"
	if ec.CTASMethod == domain.CTASMethodView {
		object = "VIEW"
	}
	name := ec.TmpTableName
	if ec.SchemaName != "" {
		name = ec.SchemaName + "." + name
	}
	return fmt.Sprintf("CREATE %s %s AS %s", object, name, sqlText)
}

// applyLimit bounds how many rows the target database produces by wrapping
// the statement in a limited subselect. Only plain SELECTs are wrapped;
// other statements pass through untouched.
func applyLimit(sqlText string, limit int) string {
	trimmed := strings.TrimSpace(sqlText)
	upper := strings.ToUpper(trimmed)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return sqlText
	}
	return fmt.Sprintf("SELECT * FROM (%s) AS limited_subquery LIMIT %d", strings.TrimSuffix(trimmed, ";"), limit)
}
