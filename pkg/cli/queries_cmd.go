package cli

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newQueriesCmd(opts *clientOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Inspect query history",
	}
	cmd.AddCommand(newQueriesListCmd(opts))
	cmd.AddCommand(newQueriesGetCmd(opts))
	cmd.AddCommand(newQueriesStopCmd(opts))
	return cmd
}

func newQueriesListCmd(opts *clientOptions) *cobra.Command {
	var (
		limit  int
		offset int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your recent queries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/queries/?limit=%d&offset=%d", limit, offset)
			resp, err := doJSON(opts, http.MethodGet, path, nil)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 25, "page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "page offset")
	return cmd
}

func newQueriesGetCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <query-id>",
		Short: "Show a single query record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := doJSON(opts, http.MethodGet, "/queries/"+args[0], nil)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}

func newQueriesStopCmd(opts *clientOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <query-id>",
		Short: "Request cancellation of a pending or running query",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := doJSON(opts, http.MethodPost, "/queries/"+args[0]+"/stop", nil)
			if err != nil {
				return err
			}
			return printJSON(resp)
		},
	}
}
