// Package cli implements the sqldesk command-line client. It talks to the
// HTTP API only; it never touches the metadata store directly.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	opts := &clientOptions{}

	rootCmd := &cobra.Command{
		Use:           "sqldesk",
		Short:         "SQL execution service CLI",
		Long:          "Command-line interface for the sqldesk SQL execution API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			// Precedence: flag > env > default.
			if !cmd.Flags().Changed("host") {
				if v := os.Getenv("SQLDESK_HOST"); v != "" {
					opts.Host = v
				}
			}
			if !cmd.Flags().Changed("token") {
				if v := os.Getenv("SQLDESK_TOKEN"); v != "" {
					opts.Token = v
				}
			}
			if !cmd.Flags().Changed("principal") {
				if v := os.Getenv("SQLDESK_PRINCIPAL"); v != "" {
					opts.Principal = v
				}
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.Host, "host", "http://localhost:8088", "API host")
	rootCmd.PersistentFlags().StringVar(&opts.Token, "token", "", "JWT bearer token")
	rootCmd.PersistentFlags().StringVar(&opts.Principal, "principal", "", "principal for the X-Principal dev header")

	rootCmd.AddCommand(newRunCmd(opts))
	rootCmd.AddCommand(newResultsCmd(opts))
	rootCmd.AddCommand(newQueriesCmd(opts))
	rootCmd.AddCommand(newDatabasesCmd(opts))

	return rootCmd
}
