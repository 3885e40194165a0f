package domain

// ExecutionStatus is the outcome classification of one dispatch or results
// retrieval call.
type ExecutionStatus string

// Execution outcome statuses.
const (
	ExecutionStatusSuccess ExecutionStatus = "success"
	ExecutionStatusRunning ExecutionStatus = "running"
	ExecutionStatusFailed  ExecutionStatus = "failed"
)

// ColumnMeta describes one result column. Type is the driver-declared type,
// carried verbatim.
type ColumnMeta struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ResultSet is the wire shape of a completed query result. RowCountDisplayed
// never exceeds the configured display cap; IsLimited is true when rows were
// truncated to fit it.
type ResultSet struct {
	QueryID           string          `json:"query_id"`
	Columns           []ColumnMeta    `json:"columns"`
	Rows              [][]interface{} `json:"rows"`
	RowCountTotal     int             `json:"row_count_total"`
	RowCountDisplayed int             `json:"row_count_displayed"`
	IsLimited         bool            `json:"is_limited"`
}

// RunningReceipt acknowledges an asynchronous submission that is still in
// flight. ResultsKey is the sole token for later retrieval.
type RunningReceipt struct {
	QueryID    string          `json:"query_id"`
	Status     ExecutionStatus `json:"status"`
	ResultsKey string          `json:"results_key"`
}

// ErrorDetail is the wire shape of one failure.
type ErrorDetail struct {
	ErrorKind  string                 `json:"error_kind"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Extra      map[string]interface{} `json:"extra,omitempty"`
}

// ExecutionResult is the transient, per-call union of the three possible
// outcomes. Exactly one of ResultSet, Receipt, or Error is set, matching
// Status. It is produced per call and never persisted.
type ExecutionResult struct {
	Status    ExecutionStatus
	ResultSet *ResultSet
	Receipt   *RunningReceipt
	Error     *ErrorDetail
}
