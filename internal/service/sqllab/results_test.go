package sqllab

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqldesk/internal/domain"
	"sqldesk/internal/testutil"
)

func queryWithStatus(status domain.QueryStatus) *domain.Query {
	return &domain.Query{
		ID:         "q-1",
		DatabaseID: "db-1",
		Status:     status,
		ResultsKey: "key-1",
	}
}

func newResultsService(queries *testutil.MockQueryRepo, backend *testutil.MockResultsBackend) *ResultsService {
	return NewResultsService(queries, backend, testSQLLabConfig(), nil)
}

func TestFetchBackendNotConfigured(t *testing.T) {
	svc := NewResultsService(&testutil.MockQueryRepo{}, nil, testSQLLabConfig(), nil)

	_, err := svc.Fetch(context.Background(), "key-1", 0)
	var backendErr *domain.ResultsBackendError
	require.ErrorAs(t, err, &backendErr)
}

func TestFetchUnknownKey(t *testing.T) {
	queries := &testutil.MockQueryRepo{
		GetByResultsKeyFn: func(ctx context.Context, key string) (*domain.Query, error) {
			return nil, domain.ErrNotFound("no query found for results key %q", key)
		},
	}
	svc := newResultsService(queries, &testutil.MockResultsBackend{})

	_, err := svc.Fetch(context.Background(), "bogus", 0)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestFetchStillRunning(t *testing.T) {
	for _, status := range []domain.QueryStatus{domain.QueryStatusPending, domain.QueryStatusRunning} {
		t.Run(string(status), func(t *testing.T) {
			queries := &testutil.MockQueryRepo{
				GetByResultsKeyFn: func(ctx context.Context, key string) (*domain.Query, error) {
					return queryWithStatus(status), nil
				},
			}
			svc := newResultsService(queries, &testutil.MockResultsBackend{})

			result, err := svc.Fetch(context.Background(), "key-1", 0)
			require.NoError(t, err)
			assert.Equal(t, domain.ExecutionStatusRunning, result.Status)
			require.NotNil(t, result.Receipt)
			assert.Equal(t, "key-1", result.Receipt.ResultsKey)
		})
	}
}

func TestFetchTerminalFailures(t *testing.T) {
	msg := "table users does not exist"

	tests := []struct {
		name     string
		status   domain.QueryStatus
		errMsg   *string
		wantKind string
		wantMsg  string
	}{
		{name: "failed with message", status: domain.QueryStatusFailed, errMsg: &msg, wantKind: domain.ErrorKindUnexpected, wantMsg: msg},
		{name: "failed without message", status: domain.QueryStatusFailed, wantKind: domain.ErrorKindUnexpected, wantMsg: "query failed"},
		{name: "timed out", status: domain.QueryStatusTimedOut, wantKind: domain.ErrorKindTimeout, wantMsg: "query timed out"},
		{name: "stopped", status: domain.QueryStatusStopped, wantKind: domain.ErrorKindUnexpected, wantMsg: "query was stopped"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := queryWithStatus(tt.status)
			q.ErrorMessage = tt.errMsg
			queries := &testutil.MockQueryRepo{
				GetByResultsKeyFn: func(ctx context.Context, key string) (*domain.Query, error) {
					return q, nil
				},
			}
			svc := newResultsService(queries, &testutil.MockResultsBackend{})

			result, err := svc.Fetch(context.Background(), "key-1", 0)
			require.NoError(t, err)
			assert.Equal(t, domain.ExecutionStatusFailed, result.Status)
			require.NotNil(t, result.Error)
			assert.Equal(t, tt.wantKind, result.Error.ErrorKind)
			assert.Equal(t, tt.wantMsg, result.Error.Message)
		})
	}
}

func TestFetchSuccess(t *testing.T) {
	queries := &testutil.MockQueryRepo{
		GetByResultsKeyFn: func(ctx context.Context, key string) (*domain.Query, error) {
			return queryWithStatus(domain.QueryStatusSuccess), nil
		},
	}
	backend := &testutil.MockResultsBackend{}
	require.NoError(t, backend.Put(context.Background(), "key-1", storedResult("q-1", 20), 0))
	svc := newResultsService(queries, backend)

	result, err := svc.Fetch(context.Background(), "key-1", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusSuccess, result.Status)
	require.NotNil(t, result.ResultSet)
	assert.Equal(t, 20, result.ResultSet.RowCountTotal)
	assert.Equal(t, 20, result.ResultSet.RowCountDisplayed)
}

func TestFetchRowsParameterTightensCap(t *testing.T) {
	queries := &testutil.MockQueryRepo{
		GetByResultsKeyFn: func(ctx context.Context, key string) (*domain.Query, error) {
			return queryWithStatus(domain.QueryStatusSuccess), nil
		},
	}
	backend := &testutil.MockResultsBackend{}
	require.NoError(t, backend.Put(context.Background(), "key-1", storedResult("q-1", 20), 0))
	svc := newResultsService(queries, backend)

	result, err := svc.Fetch(context.Background(), "key-1", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, result.ResultSet.RowCountDisplayed)
	assert.True(t, result.ResultSet.IsLimited)

	// A second fetch with a different rows value sees the full payload
	// again: slicing never mutates the stored result.
	result, err = svc.Fetch(context.Background(), "key-1", 0)
	require.NoError(t, err)
	assert.Equal(t, 20, result.ResultSet.RowCountDisplayed)
}

func TestFetchExpiredPayload(t *testing.T) {
	queries := &testutil.MockQueryRepo{
		GetByResultsKeyFn: func(ctx context.Context, key string) (*domain.Query, error) {
			return queryWithStatus(domain.QueryStatusSuccess), nil
		},
	}
	backend := &testutil.MockResultsBackend{
		GetFn: func(ctx context.Context, key string) (*domain.StoredResult, error) {
			return nil, domain.ErrGone("results for key %q have expired", key)
		},
	}
	svc := newResultsService(queries, backend)

	_, err := svc.Fetch(context.Background(), "key-1", 0)
	var gone *domain.GoneError
	require.ErrorAs(t, err, &gone)
}
