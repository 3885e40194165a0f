package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqldesk/internal/db"
	"sqldesk/internal/domain"

	_ "github.com/mattn/go-sqlite3"
)

func newTestRepos(t *testing.T) (*QueryRepo, *DatabaseRepo, *sql.DB) {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	return NewQueryRepo(writeDB), NewDatabaseRepo(writeDB), writeDB
}

func seedDatabase(t *testing.T, repo *DatabaseRepo) *domain.Database {
	t.Helper()
	d, err := repo.Create(context.Background(), &domain.Database{
		Name:   "analytics",
		Driver: "sqlite3",
		DSN:    ":memory:",
	})
	require.NoError(t, err)
	return d
}

func TestQueryRepo_CreateAndGet(t *testing.T) {
	t.Parallel()
	queries, databases, _ := newTestRepos(t)
	target := seedDatabase(t, databases)
	ctx := context.Background()

	created, err := queries.Create(ctx, &domain.Query{
		DatabaseID:  target.ID,
		SchemaName:  "main",
		SQLText:     "SELECT 1",
		SubmittedBy: "alice",
		ClientID:    "tab-1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.ResultsKey)
	assert.Equal(t, domain.QueryStatusPending, created.Status)
	assert.Nil(t, created.StartedAt)
	assert.Nil(t, created.RowCount)

	byID, err := queries.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ResultsKey, byID.ResultsKey)

	byKey, err := queries.GetByResultsKey(ctx, created.ResultsKey)
	require.NoError(t, err)
	assert.Equal(t, created.ID, byKey.ID)
}

func TestQueryRepo_GetUnknown(t *testing.T) {
	t.Parallel()
	queries, _, _ := newTestRepos(t)
	ctx := context.Background()

	_, err := queries.GetByID(ctx, "missing")
	require.Error(t, err)
	assert.IsType(t, &domain.NotFoundError{}, err)

	_, err = queries.GetByResultsKey(ctx, "missing-key")
	require.Error(t, err)
	assert.IsType(t, &domain.NotFoundError{}, err)
}

func TestQueryRepo_RejectsNonPendingCreate(t *testing.T) {
	t.Parallel()
	queries, databases, _ := newTestRepos(t)
	target := seedDatabase(t, databases)

	_, err := queries.Create(context.Background(), &domain.Query{
		DatabaseID:  target.ID,
		SQLText:     "SELECT 1",
		SubmittedBy: "alice",
		Status:      domain.QueryStatusRunning,
	})
	require.Error(t, err)
	assert.IsType(t, &domain.ValidationError{}, err)
}

func TestQueryRepo_LifecycleTransitions(t *testing.T) {
	t.Parallel()
	queries, databases, _ := newTestRepos(t)
	target := seedDatabase(t, databases)
	ctx := context.Background()

	q, err := queries.Create(ctx, &domain.Query{
		DatabaseID: target.ID, SQLText: "SELECT 1", SubmittedBy: "alice",
	})
	require.NoError(t, err)

	require.NoError(t, queries.MarkRunning(ctx, q.ID))
	running, err := queries.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusRunning, running.Status)
	assert.NotNil(t, running.StartedAt)

	require.NoError(t, queries.MarkSuccess(ctx, q.ID, 3))
	done, err := queries.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusSuccess, done.Status)
	require.NotNil(t, done.RowCount)
	assert.EqualValues(t, 3, *done.RowCount)
	assert.NotNil(t, done.EndedAt)
}

func TestQueryRepo_ForwardOnlyTransitions(t *testing.T) {
	t.Parallel()
	queries, databases, _ := newTestRepos(t)
	target := seedDatabase(t, databases)
	ctx := context.Background()

	q, err := queries.Create(ctx, &domain.Query{
		DatabaseID: target.ID, SQLText: "SELECT 1", SubmittedBy: "alice",
	})
	require.NoError(t, err)

	// Success straight from PENDING skips RUNNING and must be rejected.
	err = queries.MarkSuccess(ctx, q.ID, 1)
	require.Error(t, err)
	assert.IsType(t, &domain.ConflictError{}, err)

	require.NoError(t, queries.MarkRunning(ctx, q.ID))
	require.NoError(t, queries.MarkFailed(ctx, q.ID, "boom"))

	// Terminal states accept no further transitions.
	err = queries.MarkRunning(ctx, q.ID)
	require.Error(t, err)
	assert.IsType(t, &domain.ConflictError{}, err)

	err = queries.MarkTimedOut(ctx, q.ID, "late")
	require.Error(t, err)
	assert.IsType(t, &domain.ConflictError{}, err)

	failed, err := queries.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	assert.Equal(t, "boom", *failed.ErrorMessage)
}

func TestQueryRepo_MarkTimedOut(t *testing.T) {
	t.Parallel()
	queries, databases, _ := newTestRepos(t)
	target := seedDatabase(t, databases)
	ctx := context.Background()

	q, err := queries.Create(ctx, &domain.Query{
		DatabaseID: target.ID, SQLText: "SELECT slow()", SubmittedBy: "alice",
	})
	require.NoError(t, err)
	require.NoError(t, queries.MarkRunning(ctx, q.ID))
	require.NoError(t, queries.MarkTimedOut(ctx, q.ID, "query exceeded 30s budget"))

	got, err := queries.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QueryStatusTimedOut, got.Status)
}

func TestQueryRepo_MarkStopped(t *testing.T) {
	t.Parallel()
	queries, databases, _ := newTestRepos(t)
	target := seedDatabase(t, databases)
	ctx := context.Background()

	// Stop straight from PENDING.
	pending, err := queries.Create(ctx, &domain.Query{
		DatabaseID: target.ID, SQLText: "SELECT 1", SubmittedBy: "alice",
	})
	require.NoError(t, err)
	require.NoError(t, queries.MarkStopped(ctx, pending.ID))

	// Stop from RUNNING.
	running, err := queries.Create(ctx, &domain.Query{
		DatabaseID: target.ID, SQLText: "SELECT 2", SubmittedBy: "alice",
	})
	require.NoError(t, err)
	require.NoError(t, queries.MarkRunning(ctx, running.ID))
	require.NoError(t, queries.MarkStopped(ctx, running.ID))

	// Stop after SUCCESS is a conflict.
	done, err := queries.Create(ctx, &domain.Query{
		DatabaseID: target.ID, SQLText: "SELECT 3", SubmittedBy: "alice",
	})
	require.NoError(t, err)
	require.NoError(t, queries.MarkRunning(ctx, done.ID))
	require.NoError(t, queries.MarkSuccess(ctx, done.ID, 1))
	err = queries.MarkStopped(ctx, done.ID)
	require.Error(t, err)
	assert.IsType(t, &domain.ConflictError{}, err)
}

func TestQueryRepo_ListForPrincipal(t *testing.T) {
	t.Parallel()
	queries, databases, _ := newTestRepos(t)
	target := seedDatabase(t, databases)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := queries.Create(ctx, &domain.Query{
			DatabaseID: target.ID, SQLText: "SELECT 1", SubmittedBy: "alice",
		})
		require.NoError(t, err)
	}
	_, err := queries.Create(ctx, &domain.Query{
		DatabaseID: target.ID, SQLText: "SELECT 1", SubmittedBy: "bob",
	})
	require.NoError(t, err)

	list, total, err := queries.ListForPrincipal(ctx, "alice", 2, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, list, 2)

	rest, _, err := queries.ListForPrincipal(ctx, "alice", 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)

	none, total, err := queries.ListForPrincipal(ctx, "carol", 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}
