package main

import (
	"fmt"

	"github.com/jrsteele09/go-store-auth/auth"
	"github.com/jrsteele09/go-store-auth/internal/config"
	"github.com/jrsteele09/go-store-auth/principals"
	"github.com/spf13/cobra"
)

func newRevokeAllCmd() *cobra.Command {
	var (
		principalType string
		principalID   int64
	)

	cmd := &cobra.Command{
		Use:   "revoke-all",
		Short: "Revoke every active refresh token of one principal",
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := principals.ParseType(principalType)
			if err != nil {
				return err
			}
			if principalID <= 0 {
				return fmt.Errorf("--id must be a positive principal id")
			}

			a, err := openApp(cmd.Context(), config.New())
			if err != nil {
				return err
			}
			defer a.Close()

			svc, err := a.buildServices()
			if err != nil {
				return err
			}
			n, err := svc.auth.RevokeAll(cmd.Context(), auth.Identity{Type: t, ID: principalID})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "revoked %d refresh token(s) for %s %d\n", n, t, principalID)
			return nil
		},
	}
	cmd.Flags().StringVar(&principalType, "type", "", "principal type: user or employee")
	cmd.Flags().Int64Var(&principalID, "id", 0, "principal id")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}
