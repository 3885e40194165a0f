package sqllab

import "sqldesk/internal/domain"

// Normalize maps a raw stored result into the wire ResultSet shape, applying
// the display row cap. Pure: the stored result is never mutated and no I/O
// happens here. A cap of zero or less means uncapped.
func Normalize(stored *domain.StoredResult, maxDisplayRows int) *domain.ResultSet {
	total := stored.RowCount
	displayed := total
	limited := false
	if maxDisplayRows > 0 && total > maxDisplayRows {
		displayed = maxDisplayRows
		limited = true
	}

	columns := make([]domain.ColumnMeta, len(stored.Columns))
	copy(columns, stored.Columns)

	rows := stored.Rows
	if displayed < len(rows) {
		rows = rows[:displayed]
	}

	return &domain.ResultSet{
		QueryID:           stored.QueryID,
		Columns:           columns,
		Rows:              rows,
		RowCountTotal:     total,
		RowCountDisplayed: displayed,
		IsLimited:         limited,
	}
}
