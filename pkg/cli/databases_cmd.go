package cli

import (
	"net/http"

	"github.com/spf13/cobra"
)

func newDatabasesCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "databases",
		Short: "Manage registered databases",
	}
	cmd.AddCommand(newDatabasesListCmd(opts))
	cmd.AddCommand(newDatabasesCreateCmd(opts))
	return cmd
}

func newDatabasesListCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered databases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := doJSON(opts, http.MethodGet, "/databases/", nil)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}

func newDatabasesCreateCmd(opts *clientOptions) *cobra.Command {
	var (
		name      string
		driver    string
		dsn       string
		allowCTAS bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]interface{}{
				"name":       name,
				"driver":     driver,
				"dsn":        dsn,
				"allow_ctas": allowCTAS,
			}
			resp, err := doJSON(opts, http.MethodPost, "/databases/", body)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&driver, "driver", "sqlite3", "SQL driver: sqlite3 or duckdb")
	cmd.Flags().StringVar(&dsn, "dsn", "", "driver DSN (required)")
	cmd.Flags().BoolVar(&allowCTAS, "allow-ctas", false, "allow CREATE TABLE AS on this database")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("dsn")

	return cmd
}
