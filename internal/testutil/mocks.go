// Package testutil provides shared mock implementations of domain interfaces
// for use in tests across the codebase. This follows the Go convention of a
// shared test utility package (like net/http/httptest).
package testutil

import (
	"context"
	"database/sql"
	"time"

	"sqldesk/internal/domain"
)

// === Query Repository Mock ===

// MockQueryRepo implements domain.QueryRepository for testing. Uses function
// fields so tests only need to set the methods they care about.
type MockQueryRepo struct {
	CreateFn           func(ctx context.Context, q *domain.Query) (*domain.Query, error)
	GetByIDFn          func(ctx context.Context, id string) (*domain.Query, error)
	GetByResultsKeyFn  func(ctx context.Context, key string) (*domain.Query, error)
	ListForPrincipalFn func(ctx context.Context, principal string, limit, offset int) ([]domain.Query, int64, error)
	MarkRunningFn      func(ctx context.Context, id string) error
	MarkSuccessFn      func(ctx context.Context, id string, rowCount int64) error
	MarkFailedFn       func(ctx context.Context, id string, message string) error
	MarkTimedOutFn     func(ctx context.Context, id string, message string) error
	MarkStoppedFn      func(ctx context.Context, id string) error
	Created            []*domain.Query // records created queries for assertions
}

// Create implements the interface method for testing.
func (m *MockQueryRepo) Create(ctx context.Context, q *domain.Query) (*domain.Query, error) {
	if m.CreateFn != nil {
		created, err := m.CreateFn(ctx, q)
		if err != nil {
			return nil, err
		}
		m.Created = append(m.Created, created)
		return created, nil
	}
	if q.ID == "" {
		q.ID = domain.NewID()
	}
	if q.ResultsKey == "" {
		q.ResultsKey = domain.NewResultsKey()
	}
	q.Status = domain.QueryStatusPending
	m.Created = append(m.Created, q)
	return q, nil
}

// GetByID implements the interface method for testing.
func (m *MockQueryRepo) GetByID(ctx context.Context, id string) (*domain.Query, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockQueryRepo.GetByID")
}

// GetByResultsKey implements the interface method for testing.
func (m *MockQueryRepo) GetByResultsKey(ctx context.Context, key string) (*domain.Query, error) {
	if m.GetByResultsKeyFn != nil {
		return m.GetByResultsKeyFn(ctx, key)
	}
	panic("unexpected call to MockQueryRepo.GetByResultsKey")
}

// ListForPrincipal implements the interface method for testing.
func (m *MockQueryRepo) ListForPrincipal(ctx context.Context, principal string, limit, offset int) ([]domain.Query, int64, error) {
	if m.ListForPrincipalFn != nil {
		return m.ListForPrincipalFn(ctx, principal, limit, offset)
	}
	panic("unexpected call to MockQueryRepo.ListForPrincipal")
}

// MarkRunning implements the interface method for testing.
func (m *MockQueryRepo) MarkRunning(ctx context.Context, id string) error {
	if m.MarkRunningFn != nil {
		return m.MarkRunningFn(ctx, id)
	}
	return nil // default no-op
}

// MarkSuccess implements the interface method for testing.
func (m *MockQueryRepo) MarkSuccess(ctx context.Context, id string, rowCount int64) error {
	if m.MarkSuccessFn != nil {
		return m.MarkSuccessFn(ctx, id, rowCount)
	}
	return nil // default no-op
}

// MarkFailed implements the interface method for testing.
func (m *MockQueryRepo) MarkFailed(ctx context.Context, id string, message string) error {
	if m.MarkFailedFn != nil {
		return m.MarkFailedFn(ctx, id, message)
	}
	return nil // default no-op
}

// MarkTimedOut implements the interface method for testing.
func (m *MockQueryRepo) MarkTimedOut(ctx context.Context, id string, message string) error {
	if m.MarkTimedOutFn != nil {
		return m.MarkTimedOutFn(ctx, id, message)
	}
	return nil // default no-op
}

// MarkStopped implements the interface method for testing.
func (m *MockQueryRepo) MarkStopped(ctx context.Context, id string) error {
	if m.MarkStoppedFn != nil {
		return m.MarkStoppedFn(ctx, id)
	}
	return nil // default no-op
}

var _ domain.QueryRepository = (*MockQueryRepo)(nil)

// === Database Repository Mock ===

// MockDatabaseRepo implements domain.DatabaseRepository for testing.
type MockDatabaseRepo struct {
	CreateFn  func(ctx context.Context, d *domain.Database) (*domain.Database, error)
	GetByIDFn func(ctx context.Context, id string) (*domain.Database, error)
	ListFn    func(ctx context.Context) ([]domain.Database, error)
}

// Create implements the interface method for testing.
func (m *MockDatabaseRepo) Create(ctx context.Context, d *domain.Database) (*domain.Database, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, d)
	}
	panic("unexpected call to MockDatabaseRepo.Create")
}

// GetByID implements the interface method for testing.
func (m *MockDatabaseRepo) GetByID(ctx context.Context, id string) (*domain.Database, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	panic("unexpected call to MockDatabaseRepo.GetByID")
}

// List implements the interface method for testing.
func (m *MockDatabaseRepo) List(ctx context.Context) ([]domain.Database, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	panic("unexpected call to MockDatabaseRepo.List")
}

var _ domain.DatabaseRepository = (*MockDatabaseRepo)(nil)

// === Access Checker Mock ===

// MockAccessChecker implements domain.AccessChecker for testing. The zero
// value allows everything.
type MockAccessChecker struct {
	CanRunQueryFn func(ctx context.Context, principal, databaseID, schemaName string) error
	Calls         int
}

// CanRunQuery implements the interface method for testing.
func (m *MockAccessChecker) CanRunQuery(ctx context.Context, principal, databaseID, schemaName string) error {
	m.Calls++
	if m.CanRunQueryFn != nil {
		return m.CanRunQueryFn(ctx, principal, databaseID, schemaName)
	}
	return nil
}

var _ domain.AccessChecker = (*MockAccessChecker)(nil)

// === Results Backend Mock ===

// MockResultsBackend implements domain.ResultsBackend for testing. The zero
// value stores payloads in memory and ignores TTLs.
type MockResultsBackend struct {
	PutFn  func(ctx context.Context, key string, result *domain.StoredResult, ttl time.Duration) error
	GetFn  func(ctx context.Context, key string) (*domain.StoredResult, error)
	stored map[string]*domain.StoredResult
}

// Put implements the interface method for testing.
func (m *MockResultsBackend) Put(ctx context.Context, key string, result *domain.StoredResult, ttl time.Duration) error {
	if m.PutFn != nil {
		return m.PutFn(ctx, key, result, ttl)
	}
	if m.stored == nil {
		m.stored = make(map[string]*domain.StoredResult)
	}
	if _, ok := m.stored[key]; ok {
		return domain.ErrConflict("results key %q already written", key)
	}
	m.stored[key] = result
	return nil
}

// Get implements the interface method for testing.
func (m *MockResultsBackend) Get(ctx context.Context, key string) (*domain.StoredResult, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	if r, ok := m.stored[key]; ok {
		return r, nil
	}
	return nil, domain.ErrNotFound("results key %q not found", key)
}

var _ domain.ResultsBackend = (*MockResultsBackend)(nil)

// === Task Queue Mocks ===

// InlineTaskQueue implements domain.TaskQueue by running every task
// synchronously on the calling goroutine, which makes async paths
// deterministic in tests.
type InlineTaskQueue struct {
	Tasks int
}

// Enqueue runs the task immediately.
func (q *InlineTaskQueue) Enqueue(task func(ctx context.Context)) error {
	q.Tasks++
	task(context.Background())
	return nil
}

var _ domain.TaskQueue = (*InlineTaskQueue)(nil)

// FailingTaskQueue implements domain.TaskQueue and rejects every hand-off,
// as a full or shut-down queue would.
type FailingTaskQueue struct{}

// Enqueue always fails.
func (q *FailingTaskQueue) Enqueue(task func(ctx context.Context)) error {
	return domain.ErrValidation("task queue is full")
}

var _ domain.TaskQueue = (*FailingTaskQueue)(nil)

// === Connection Provider Mock ===

// MockConnectionProvider implements domain.ConnectionProvider over a fixed
// pool and database record.
type MockConnectionProvider struct {
	GetFn    func(ctx context.Context, databaseID string) (*sql.DB, *domain.Database, error)
	Pool     *sql.DB
	Database *domain.Database
}

// Get implements the interface method for testing.
func (m *MockConnectionProvider) Get(ctx context.Context, databaseID string) (*sql.DB, *domain.Database, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, databaseID)
	}
	return m.Pool, m.Database, nil
}

var _ domain.ConnectionProvider = (*MockConnectionProvider)(nil)
