package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/mamacare/internal/cli"
	"github.com/terraincognita07/mamacare/internal/db"
	"github.com/terraincognita07/mamacare/internal/i18n"
	"github.com/terraincognita07/mamacare/internal/services"
)

func newResetPasswordCommand(options *rootOptions) *cobra.Command {
	var (
		email       string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an account",
		Long: `Set a new password for an account.

By default a temporary password is generated and printed. With
--interactive the new password is read from the terminal without echo.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := options.load("reset-password")
			if err != nil {
				return err
			}
			defer log.Sync()

			database, err := db.Open(cfg.Database, log)
			if err != nil {
				return fmt.Errorf("database init failed: %w", err)
			}
			if sqlDB, err := database.DB(); err == nil {
				defer sqlDB.Close()
			}
			languages, err := i18n.NewManager(cfg.Server.DefaultLanguage)
			if err != nil {
				return fmt.Errorf("i18n init failed: %w", err)
			}

			auth := services.NewAuthService(db.NewUserRepository(database), languages)
			return cli.RunResetPasswordCommand(cmd.Context(), auth, cli.ResetPasswordOptions{
				Email:       email,
				Interactive: interactive,
				Stdin:       os.Stdin,
				Out:         cmd.OutOrStdout(),
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "prompt for the new password instead of generating one")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
