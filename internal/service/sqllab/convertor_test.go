package sqllab

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"sqldesk/internal/domain"
)

func storedResult(queryID string, rows int) *domain.StoredResult {
	out := &domain.StoredResult{
		QueryID:  queryID,
		Columns:  []domain.ColumnMeta{{Name: "id", Type: "INTEGER"}, {Name: "name", Type: "TEXT"}},
		RowCount: rows,
	}
	for i := 0; i < rows; i++ {
		out.Rows = append(out.Rows, []interface{}{int64(i), "row"})
	}
	return out
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name          string
		totalRows     int
		cap           int
		wantDisplayed int
		wantLimited   bool
	}{
		{name: "under cap passes through", totalRows: 5, cap: 10, wantDisplayed: 5, wantLimited: false},
		{name: "exactly at cap is not limited", totalRows: 10, cap: 10, wantDisplayed: 10, wantLimited: false},
		{name: "over cap truncates", totalRows: 25, cap: 10, wantDisplayed: 10, wantLimited: true},
		{name: "zero cap means uncapped", totalRows: 25, cap: 0, wantDisplayed: 25, wantLimited: false},
		{name: "negative cap means uncapped", totalRows: 25, cap: -1, wantDisplayed: 25, wantLimited: false},
		{name: "empty result", totalRows: 0, cap: 10, wantDisplayed: 0, wantLimited: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stored := storedResult("q1", tt.totalRows)
			rs := Normalize(stored, tt.cap)

			assert.Equal(t, "q1", rs.QueryID)
			assert.Equal(t, tt.totalRows, rs.RowCountTotal)
			assert.Equal(t, tt.wantDisplayed, rs.RowCountDisplayed)
			assert.Equal(t, tt.wantLimited, rs.IsLimited)
			assert.Len(t, rs.Rows, tt.wantDisplayed)
		})
	}
}

func TestNormalizeDoesNotMutateStored(t *testing.T) {
	stored := storedResult("q1", 20)
	rs := Normalize(stored, 5)

	assert.Len(t, rs.Rows, 5)
	assert.Len(t, stored.Rows, 20, "stored payload must stay intact")
	assert.Equal(t, 20, stored.RowCount)

	// Column metadata is copied so wire-side mutation can't leak back.
	rs.Columns[0].Name = "mutated"
	assert.Equal(t, "id", stored.Columns[0].Name)
}
