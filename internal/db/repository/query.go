package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sqldesk/internal/domain"
)

var _ domain.QueryRepository = (*QueryRepo)(nil)

// QueryRepo stores query execution lifecycle records in SQLite. Status
// updates are guarded so transitions only ever move forward; an update whose
// source state is no longer current returns a ConflictError.
type QueryRepo struct {
	db *sql.DB
}

// NewQueryRepo creates a new QueryRepo.
func NewQueryRepo(db *sql.DB) *QueryRepo {
	return &QueryRepo{db: db}
}

const queryColumns = `
	id, client_id, database_id, schema_name, sql_text, status, submitted_by,
	results_key, row_count, error_message, started_at, ended_at, created_at, updated_at
`

// Create inserts a new query record in PENDING state.
func (r *QueryRepo) Create(ctx context.Context, q *domain.Query) (*domain.Query, error) {
	if q == nil {
		return nil, domain.ErrValidation("query record is required")
	}
	if q.ID == "" {
		q.ID = domain.NewID()
	}
	if q.ResultsKey == "" {
		q.ResultsKey = domain.NewResultsKey()
	}
	if q.Status == "" {
		q.Status = domain.QueryStatusPending
	}
	if q.Status != domain.QueryStatusPending {
		return nil, domain.ErrValidation("new query records must start in PENDING state")
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO queries (id, client_id, database_id, schema_name, sql_text, status, submitted_by, results_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, q.ID, q.ClientID, q.DatabaseID, q.SchemaName, q.SQLText, string(q.Status), q.SubmittedBy, q.ResultsKey)
	if err != nil {
		return nil, mapDBError(err)
	}

	return r.GetByID(ctx, q.ID)
}

// GetByID returns a query record by ID.
func (r *QueryRepo) GetByID(ctx context.Context, id string) (*domain.Query, error) {
	q, err := r.getOne(ctx, `SELECT `+queryColumns+` FROM queries WHERE id = ?`, id)
	if err != nil {
		if _, ok := err.(*domain.NotFoundError); ok {
			return nil, domain.ErrNotFound("query %q not found", id)
		}
		return nil, err
	}
	return q, nil
}

// GetByResultsKey returns the query record that owns the given results key.
func (r *QueryRepo) GetByResultsKey(ctx context.Context, key string) (*domain.Query, error) {
	q, err := r.getOne(ctx, `SELECT `+queryColumns+` FROM queries WHERE results_key = ?`, key)
	if err != nil {
		if _, ok := err.(*domain.NotFoundError); ok {
			return nil, domain.ErrNotFound("no query found for results key %q", key)
		}
		return nil, err
	}
	return q, nil
}

// ListForPrincipal returns the principal's query history, newest first.
func (r *QueryRepo) ListForPrincipal(ctx context.Context, principal string, limit, offset int) ([]domain.Query, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queries WHERE submitted_by = ?`, principal,
	).Scan(&total); err != nil {
		return nil, 0, mapDBError(err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+queryColumns+`
		FROM queries
		WHERE submitted_by = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`, principal, limit, offset)
	if err != nil {
		return nil, 0, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	var out []domain.Query
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, mapDBError(err)
	}
	return out, total, nil
}

// MarkRunning transitions PENDING → RUNNING and stamps started_at.
func (r *QueryRepo) MarkRunning(ctx context.Context, id string) error {
	return r.transition(ctx, id, domain.QueryStatusRunning, `
		UPDATE queries
		SET status = ?, started_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, string(domain.QueryStatusRunning), id, string(domain.QueryStatusPending))
}

// MarkSuccess transitions RUNNING → SUCCESS with the produced row count.
func (r *QueryRepo) MarkSuccess(ctx context.Context, id string, rowCount int64) error {
	return r.transition(ctx, id, domain.QueryStatusSuccess, `
		UPDATE queries
		SET status = ?, row_count = ?, error_message = NULL,
		    ended_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, string(domain.QueryStatusSuccess), rowCount, id, string(domain.QueryStatusRunning))
}

// MarkFailed transitions RUNNING → FAILED with an error message.
func (r *QueryRepo) MarkFailed(ctx context.Context, id string, message string) error {
	return r.transition(ctx, id, domain.QueryStatusFailed, `
		UPDATE queries
		SET status = ?, error_message = ?, ended_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, string(domain.QueryStatusFailed), message, id, string(domain.QueryStatusRunning))
}

// MarkTimedOut transitions RUNNING → TIMED_OUT with an error message.
func (r *QueryRepo) MarkTimedOut(ctx context.Context, id string, message string) error {
	return r.transition(ctx, id, domain.QueryStatusTimedOut, `
		UPDATE queries
		SET status = ?, error_message = ?, ended_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?
	`, string(domain.QueryStatusTimedOut), message, id, string(domain.QueryStatusRunning))
}

// MarkStopped transitions a PENDING or RUNNING record to STOPPED. This is
// only invoked by the external stop operation; in-flight work is not
// interrupted.
func (r *QueryRepo) MarkStopped(ctx context.Context, id string) error {
	return r.transition(ctx, id, domain.QueryStatusStopped, `
		UPDATE queries
		SET status = ?, ended_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status IN (?, ?)
	`, string(domain.QueryStatusStopped), id,
		string(domain.QueryStatusPending), string(domain.QueryStatusRunning))
}

// transition runs a guarded status UPDATE. Zero affected rows means either
// the record doesn't exist (NotFoundError) or its current status forbids the
// move (ConflictError).
func (r *QueryRepo) transition(ctx context.Context, id string, to domain.QueryStatus, stmt string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return mapDBError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return domain.ErrConflict("query %q cannot move from %s to %s", id, current.Status, to)
}

func (r *QueryRepo) getOne(ctx context.Context, stmt string, args ...interface{}) (*domain.Query, error) {
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, mapDBError(err)
	}
	defer rows.Close() //nolint:errcheck

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, mapDBError(err)
		}
		return nil, &domain.NotFoundError{Message: "resource not found"}
	}
	return scanQuery(rows)
}

func scanQuery(rows *sql.Rows) (*domain.Query, error) {
	var (
		q                    domain.Query
		status               string
		rowCount             sql.NullInt64
		errorMessage         sql.NullString
		startedAt, endedAt   sql.NullTime
		createdAt, updatedAt time.Time
	)

	err := rows.Scan(
		&q.ID,
		&q.ClientID,
		&q.DatabaseID,
		&q.SchemaName,
		&q.SQLText,
		&status,
		&q.SubmittedBy,
		&q.ResultsKey,
		&rowCount,
		&errorMessage,
		&startedAt,
		&endedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, mapDBError(err)
	}

	q.Status = domain.QueryStatus(status)
	q.CreatedAt = createdAt
	q.UpdatedAt = updatedAt
	if rowCount.Valid {
		n := rowCount.Int64
		q.RowCount = &n
	}
	if errorMessage.Valid {
		msg := errorMessage.String
		q.ErrorMessage = &msg
	}
	if startedAt.Valid {
		t := startedAt.Time
		q.StartedAt = &t
	}
	if endedAt.Valid {
		t := endedAt.Time
		q.EndedAt = &t
	}
	return &q, nil
}
