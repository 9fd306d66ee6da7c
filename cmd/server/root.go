package main

import (
	"github.com/jrsteele09/go-store-auth/internal/config"
	"github.com/jrsteele09/go-store-auth/internal/logging"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "store-auth",
		Short: "Store Auth issues and rotates tokens for users and employees",
		Long: `Store Auth is the authentication core for the store platform. It logs in
users and employees, issues access tokens signed with a per-type secret,
rotates opaque refresh tokens and verifies employee PINs.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(); err != nil {
				return err
			}
			cfg := config.New()
			logging.Setup(cfg.GetLogLevel(), cfg.GetLogFormat(), serviceName)
			return nil
		},
	}

	rootCmd.AddCommand(newServeCmd(), newMigrateCmd(), newRevokeAllCmd())
	return rootCmd
}
