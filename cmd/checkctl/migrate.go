package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DukeRupert/equipcheck/internal"
	"github.com/DukeRupert/equipcheck/internal/store/postgres"
)

func newMigrateCmd(open opener) *cobra.Command {
	var status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Connects to the configured record store and brings its schema up to date.

Postgres is migrated with the embedded goose migrations; SQLite migrates
itself on open. Safe to run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if status {
				pg, ok := a.store.(*postgres.Store)
				if !ok {
					fmt.Fprintf(out, "%s store has no migration history\n", a.cfg.StoreDriver)
					return nil
				}
				return internal.MigrationStatus(pg.DB())
			}

			fmt.Fprintf(out, "%s schema is up to date\n", a.cfg.StoreDriver)
			return nil
		},
	}

	cmd.Flags().BoolVar(&status, "status", false, "print applied and pending migrations (postgres)")
	return cmd
}
