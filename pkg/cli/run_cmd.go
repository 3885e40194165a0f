package cli

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newRunCmd(opts *clientOptions) *cobra.Command {
	var (
		databaseID   string
		schema       string
		sqlFile      string
		async        bool
		queryLimit   int
		ctas         bool
		ctasMethod   string
		tmpTableName string
		params       []string
	)

	cmd := &cobra.Command{
		Use:   "run [sql]",
		Short: "Execute a SQL statement",
		Long: `Execute a SQL statement against a registered database.

The statement is given inline or read from --file. With --async the command
returns immediately with a results key; fetch the payload later with
"sqldesk results <key>".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sqlText := ""
			if len(args) == 1 {
				sqlText = args[0]
			}
			if sqlFile != "" {
				data, err := os.ReadFile(sqlFile) //nolint:gosec // path is user-supplied by design
				if err != nil {
					return fmt.Errorf("read %s: %w", sqlFile, err)
				}
				sqlText = string(data)
			}
			if strings.TrimSpace(sqlText) == "" {
				return fmt.Errorf("provide SQL inline or via --file")
			}

			templateParams := map[string]string{}
			for _, p := range params {
				key, value, ok := strings.Cut(p, "=")
				if !ok {
					return fmt.Errorf("invalid --param %q, expected key=value", p)
				}
				templateParams[key] = value
			}

			body := map[string]interface{}{
				"database_id": databaseID,
				"sql":         sqlText,
			}
			if schema != "" {
				body["schema"] = schema
			}
			if async {
				body["run_async"] = true
			}
			if queryLimit > 0 {
				body["query_limit"] = queryLimit
			}
			if ctas {
				body["select_as_cta"] = true
				body["ctas_method"] = ctasMethod
				body["tmp_table_name"] = tmpTableName
			}
			if len(templateParams) > 0 {
				body["template_params"] = templateParams
			}

			resp, err := doJSON(opts, http.MethodPost, "/sqllab/execute/", body)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVarP(&databaseID, "database", "d", "", "target database ID (required)")
	cmd.Flags().StringVar(&schema, "schema", "", "schema name")
	cmd.Flags().StringVarP(&sqlFile, "file", "f", "", "read SQL from a file")
	cmd.Flags().BoolVar(&async, "async", false, "run asynchronously and return a results key")
	cmd.Flags().IntVar(&queryLimit, "limit", 0, "row limit pushed into the query")
	cmd.Flags().BoolVar(&ctas, "ctas", false, "create a table or view from the result")
	cmd.Flags().StringVar(&ctasMethod, "ctas-method", "TABLE", "CTAS materialization: TABLE or VIEW")
	cmd.Flags().StringVar(&tmpTableName, "ctas-table", "", "target table or view name for CTAS")
	cmd.Flags().StringArrayVar(&params, "param", nil, "template parameter as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("database")

	return cmd
}

func newResultsCmd(opts *clientOptions) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "results <key>",
		Short: "Fetch stored results by results key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/sqllab/results/" + args[0]
			if rows > 0 {
				path = fmt.Sprintf("%s?rows=%d", path, rows)
			}
			resp, err := doJSON(opts, http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().IntVar(&rows, "rows", 0, "max rows to return for this fetch")
	return cmd
}
