package sqllab

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"sqldesk/internal/domain"
)

// Outcome is the raw result of one executor invocation, before the
// normalizer shapes it for the wire. Exactly one of Stored, Receipt, or
// Error is set, matching Status.
type Outcome struct {
	Status  domain.ExecutionStatus
	Stored  *domain.StoredResult
	Receipt *domain.RunningReceipt
	Error   *domain.ErrorDetail
}

// Executor runs one persisted query record against its target connection.
// The dispatch command selects the variant once, by the context's runAsync
// flag, and invokes it exactly once per record.
type Executor interface {
	Execute(ctx context.Context, pool *sql.DB, q *domain.Query) (*Outcome, error)
}

// SyncExecutor runs the query inline, blocking the request goroutine until
// completion or the configured time budget. Blocking here is deliberate
// backpressure: slow synchronous queries consume a request-handler slot.
type SyncExecutor struct {
	queries    domain.QueryRepository
	backend    domain.ResultsBackend
	timeout    time.Duration
	persist    bool
	resultsTTL time.Duration
	logger     *slog.Logger
}

var _ Executor = (*SyncExecutor)(nil)

// NewSyncExecutor creates a SyncExecutor. When persist is true, completed
// result sets are also written to the results backend under the query's
// results key so they can be re-fetched later.
func NewSyncExecutor(queries domain.QueryRepository, backend domain.ResultsBackend, timeout, resultsTTL time.Duration, persist bool, logger *slog.Logger) *SyncExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncExecutor{
		queries:    queries,
		backend:    backend,
		timeout:    timeout,
		persist:    persist,
		resultsTTL: resultsTTL,
		logger:     logger,
	}
}

// Execute runs q.SQLText inline. On timeout the underlying operation is
// canceled, the record moves to TIMED_OUT, and a failed outcome with kind
// TIMEOUT is returned. Executor failures are recorded on the query record
// and surfaced in the outcome, never swallowed.
func (e *SyncExecutor) Execute(ctx context.Context, pool *sql.DB, q *domain.Query) (*Outcome, error) {
	if err := e.queries.MarkRunning(ctx, q.ID); err != nil {
		return nil, err
	}

	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stored, err := runQuery(tctx, pool, q)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || tctx.Err() == context.DeadlineExceeded {
			msg := "query exceeded the " + e.timeout.String() + " execution budget"
			if markErr := e.queries.MarkTimedOut(ctx, q.ID, msg); markErr != nil {
				e.logger.Error("mark query timed out", "query_id", q.ID, "error", markErr)
			}
			return failedOutcome(domain.ErrorKindTimeout, msg, http.StatusOK), nil
		}
		if markErr := e.queries.MarkFailed(ctx, q.ID, err.Error()); markErr != nil {
			e.logger.Error("mark query failed", "query_id", q.ID, "error", markErr)
		}
		return failedOutcome(domain.ErrorKindUnexpected, err.Error(), http.StatusInternalServerError), nil
	}

	if err := e.queries.MarkSuccess(ctx, q.ID, int64(stored.RowCount)); err != nil {
		return nil, err
	}

	// Execution already completed, but persisting lets callers re-fetch a
	// synchronous result through the same retrieval path as async ones.
	if e.persist && e.backend != nil {
		if err := e.backend.Put(ctx, q.ResultsKey, stored, e.resultsTTL); err != nil {
			e.logger.Warn("persist sync result", "query_id", q.ID, "error", err)
		}
	}

	return &Outcome{Status: domain.ExecutionStatusSuccess, Stored: stored}, nil
}

// AsyncExecutor hands the query off to the task queue and returns a running
// receipt immediately. The query record transitions to RUNNING before
// Execute returns; the background worker stores the result set under the
// results key and moves the record to its terminal state.
type AsyncExecutor struct {
	queries    domain.QueryRepository
	backend    domain.ResultsBackend
	tasks      domain.TaskQueue
	resultsTTL time.Duration
	logger     *slog.Logger
}

var _ Executor = (*AsyncExecutor)(nil)

// NewAsyncExecutor creates an AsyncExecutor.
func NewAsyncExecutor(queries domain.QueryRepository, backend domain.ResultsBackend, tasks domain.TaskQueue, resultsTTL time.Duration, logger *slog.Logger) *AsyncExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &AsyncExecutor{
		queries:    queries,
		backend:    backend,
		tasks:      tasks,
		resultsTTL: resultsTTL,
		logger:     logger,
	}
}

// Execute enqueues background execution and returns a receipt carrying the
// results key. The request goroutine never blocks on the query itself.
func (e *AsyncExecutor) Execute(ctx context.Context, pool *sql.DB, q *domain.Query) (*Outcome, error) {
	if err := e.queries.MarkRunning(ctx, q.ID); err != nil {
		return nil, err
	}

	queryID := q.ID
	resultsKey := q.ResultsKey
	record := *q

	err := e.tasks.Enqueue(func(workerCtx context.Context) {
		e.runInBackground(workerCtx, pool, &record)
	})
	if err != nil {
		msg := "could not enqueue query: " + err.Error()
		if markErr := e.queries.MarkFailed(ctx, queryID, msg); markErr != nil {
			e.logger.Error("mark query failed", "query_id", queryID, "error", markErr)
		}
		return failedOutcome(domain.ErrorKindUnexpected, msg, http.StatusInternalServerError), nil
	}

	return &Outcome{
		Status: domain.ExecutionStatusRunning,
		Receipt: &domain.RunningReceipt{
			QueryID:    queryID,
			Status:     domain.ExecutionStatusRunning,
			ResultsKey: resultsKey,
		},
	}, nil
}

func (e *AsyncExecutor) runInBackground(ctx context.Context, pool *sql.DB, q *domain.Query) {
	stored, err := runQuery(ctx, pool, q)
	if err != nil {
		if markErr := e.queries.MarkFailed(ctx, q.ID, err.Error()); markErr != nil {
			e.logger.Error("mark async query failed", "query_id", q.ID, "error", markErr)
		}
		return
	}

	if err := e.backend.Put(ctx, q.ResultsKey, stored, e.resultsTTL); err != nil {
		e.logger.Error("store async result", "query_id", q.ID, "error", err)
		if markErr := e.queries.MarkFailed(ctx, q.ID, "storing results failed: "+err.Error()); markErr != nil {
			e.logger.Error("mark async query failed", "query_id", q.ID, "error", markErr)
		}
		return
	}

	if err := e.queries.MarkSuccess(ctx, q.ID, int64(stored.RowCount)); err != nil {
		e.logger.Error("mark async query succeeded", "query_id", q.ID, "error", err)
	}
}

// runQuery executes the rendered SQL and scans all produced rows into a
// StoredResult. Byte slices are converted to strings for JSON serialization.
func runQuery(ctx context.Context, pool *sql.DB, q *domain.Query) (*domain.StoredResult, error) {
	rows, err := pool.QueryContext(ctx, q.SQLText)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	columns := make([]domain.ColumnMeta, len(columnTypes))
	for i, ct := range columnTypes {
		columns[i] = domain.ColumnMeta{Name: ct.Name(), Type: ct.DatabaseTypeName()}
	}

	var resultRows [][]interface{}
	for rows.Next() {
		vals := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]interface{}, len(vals))
		for i, v := range vals {
			if b, ok := v.([]byte); ok {
				row[i] = string(b)
			} else {
				row[i] = v
			}
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.StoredResult{
		QueryID:  q.ID,
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}

func failedOutcome(kind, message string, httpStatus int) *Outcome {
	return &Outcome{
		Status: domain.ExecutionStatusFailed,
		Error: &domain.ErrorDetail{
			ErrorKind:  kind,
			Message:    message,
			HTTPStatus: httpStatus,
		},
	}
}
