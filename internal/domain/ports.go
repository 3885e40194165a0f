package domain

import (
	"context"
	"database/sql"
	"time"
)

// QueryRepository persists Query lifecycle records. Implementations must
// enforce forward-only status transitions; an illegal transition returns a
// ConflictError.
type QueryRepository interface {
	Create(ctx context.Context, q *Query) (*Query, error)
	GetByID(ctx context.Context, id string) (*Query, error)
	GetByResultsKey(ctx context.Context, key string) (*Query, error)
	ListForPrincipal(ctx context.Context, principal string, limit, offset int) ([]Query, int64, error)
	MarkRunning(ctx context.Context, id string) error
	MarkSuccess(ctx context.Context, id string, rowCount int64) error
	MarkFailed(ctx context.Context, id string, message string) error
	MarkTimedOut(ctx context.Context, id string, message string) error
	MarkStopped(ctx context.Context, id string) error
}

// DatabaseRepository stores registered target databases.
type DatabaseRepository interface {
	Create(ctx context.Context, d *Database) (*Database, error)
	GetByID(ctx context.Context, id string) (*Database, error)
	List(ctx context.Context) ([]Database, error)
}

// ConnectionProvider resolves a registered database ID to a live connection
// pool. Pools are cached; callers must not close the returned handle.
type ConnectionProvider interface {
	Get(ctx context.Context, databaseID string) (*sql.DB, *Database, error)
}

// StoredResult is a raw result set as persisted in the results backend.
type StoredResult struct {
	QueryID  string          `json:"query_id"`
	Columns  []ColumnMeta    `json:"columns"`
	Rows     [][]interface{} `json:"rows"`
	RowCount int             `json:"row_count"`
}

// ResultsBackend is a shared key-value store for completed result sets.
// Keys are write-once: a second Put for the same key returns a
// ConflictError. Expired keys return a GoneError from Get; unknown keys a
// NotFoundError.
type ResultsBackend interface {
	Put(ctx context.Context, key string, result *StoredResult, ttl time.Duration) error
	Get(ctx context.Context, key string) (*StoredResult, error)
}

// TaskQueue hands query work off to background workers. Enqueue returns a
// ValidationError when the queue is full or shut down; it never blocks the
// caller beyond a bounded hand-off.
type TaskQueue interface {
	Enqueue(task func(ctx context.Context)) error
}

// AccessChecker decides whether a principal may run queries against a
// database/schema pair.
type AccessChecker interface {
	CanRunQuery(ctx context.Context, principal, databaseID, schemaName string) error
}
