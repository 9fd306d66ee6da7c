package main

import (
	"fmt"

	"github.com/jrsteele09/go-store-auth/internal/config"
	"github.com/jrsteele09/go-store-auth/internal/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the embedded database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := config.New()
			if c.GetDatabaseDriver() == config.DriverMemory {
				return fmt.Errorf("nothing to migrate for the %q driver", config.DriverMemory)
			}

			db, err := database.Open(c.GetDatabaseDriver(), c.GetDatabaseDSN())
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := db.Migrate(cmd.Context())
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, m := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s %s\n", m.Version, m.Name)
			}
			return nil
		},
	}
}
