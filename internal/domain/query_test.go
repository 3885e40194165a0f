package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryStatusCanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		from QueryStatus
		to   QueryStatus
		want bool
	}{
		{"pending to running", QueryStatusPending, QueryStatusRunning, true},
		{"pending to stopped", QueryStatusPending, QueryStatusStopped, true},
		{"pending to success skips running", QueryStatusPending, QueryStatusSuccess, false},
		{"pending to failed skips running", QueryStatusPending, QueryStatusFailed, false},
		{"running to success", QueryStatusRunning, QueryStatusSuccess, true},
		{"running to failed", QueryStatusRunning, QueryStatusFailed, true},
		{"running to timed out", QueryStatusRunning, QueryStatusTimedOut, true},
		{"running to stopped", QueryStatusRunning, QueryStatusStopped, true},
		{"running back to pending", QueryStatusRunning, QueryStatusPending, false},
		{"success is terminal", QueryStatusSuccess, QueryStatusRunning, false},
		{"failed is terminal", QueryStatusFailed, QueryStatusRunning, false},
		{"timed out is terminal", QueryStatusTimedOut, QueryStatusSuccess, false},
		{"stopped is terminal", QueryStatusStopped, QueryStatusRunning, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestExecutionContextValidate(t *testing.T) {
	t.Parallel()

	valid := ExecutionContext{
		SQLText:    "SELECT 1",
		DatabaseID: "db-1",
		QueryLimit: 100,
	}

	t.Run("valid context", func(t *testing.T) {
		t.Parallel()
		c := valid
		require.NoError(t, c.Validate())
	})

	t.Run("blank sql", func(t *testing.T) {
		t.Parallel()
		c := valid
		c.SQLText = "  \t\n"
		err := c.Validate()
		require.Error(t, err)
		assert.IsType(t, &ValidationError{}, err)
	})

	t.Run("missing database id", func(t *testing.T) {
		t.Parallel()
		c := valid
		c.DatabaseID = ""
		require.Error(t, c.Validate())
	})

	t.Run("negative limit", func(t *testing.T) {
		t.Parallel()
		c := valid
		c.QueryLimit = -1
		require.Error(t, c.Validate())
	})

	t.Run("ctas requires tmp table name", func(t *testing.T) {
		t.Parallel()
		c := valid
		c.SelectAsCTA = true
		c.CTASMethod = CTASMethodTable
		require.Error(t, c.Validate())

		c.TmpTableName = "tmp_results"
		require.NoError(t, c.Validate())
	})

	t.Run("ctas rejects unknown method", func(t *testing.T) {
		t.Parallel()
		c := valid
		c.SelectAsCTA = true
		c.TmpTableName = "tmp_results"
		c.CTASMethod = "MATERIALIZED"
		require.Error(t, c.Validate())
	})
}
