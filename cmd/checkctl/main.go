package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
)

func newRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "checkctl",
		Short: "equipcheck administration",
		Long: `checkctl manages an equipcheck deployment from the shell.

It reads the same environment (and .env file) as the server, so it talks to
the same record store and blob storage.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	var open opener = func(cmd *cobra.Command) (*app, error) {
		return openApp(cmd.Context(), cmd.ErrOrStderr(), verbose)
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newMigrateCmd(open))
	cmd.AddCommand(newUserCmd(open))
	cmd.AddCommand(newPendingCmd(open))
	cmd.AddCommand(newSummaryCmd(open))
	cmd.AddCommand(newCatalogCmd(open))
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "checkctl %s (commit: %s)\n", Version, Commit)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
