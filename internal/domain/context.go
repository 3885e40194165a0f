package domain

import "strings"

// CTASMethod selects how a select-as-CTA query materializes its output.
type CTASMethod string

// Supported CTAS materializations.
const (
	CTASMethodTable CTASMethod = "TABLE"
	CTASMethodView  CTASMethod = "VIEW"
)

// ExecutionContext is the request envelope for one SQL submission. It is
// built once per incoming request and not mutated afterwards; the dispatch
// command owns it for the lifetime of that request.
type ExecutionContext struct {
	SQLText        string
	DatabaseID     string
	SchemaName     string
	ClientID       string
	RunAsync       bool
	ExpandData     bool
	SelectAsCTA    bool
	CTASMethod     CTASMethod
	TmpTableName   string
	QueryLimit     int
	TemplateParams map[string]string
	SubmittedBy    string
}

// Validate checks the structural requirements of the envelope before any
// access check or rendering happens.
func (c *ExecutionContext) Validate() error {
	if strings.TrimSpace(c.SQLText) == "" {
		return ErrValidation("sql is required")
	}
	if c.DatabaseID == "" {
		return ErrValidation("database_id is required")
	}
	if c.QueryLimit < 0 {
		return ErrValidation("query_limit must not be negative")
	}
	if c.SelectAsCTA {
		if c.TmpTableName == "" {
			return ErrValidation("tmp_table_name is required for CTAS")
		}
		switch c.CTASMethod {
		case CTASMethodTable, CTASMethodView:
		case "":
			return ErrValidation("ctas_method is required for CTAS")
		default:
			return ErrValidation("ctas_method must be TABLE or VIEW")
		}
	}
	return nil
}
