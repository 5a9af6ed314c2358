package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/terraincognita07/mamacare/internal/db"
)

func newMigrateCommand(options *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and print their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := options.load("migrate")
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

			statuses, err := db.ListMigrationStatus(database)
			if err != nil {
				return fmt.Errorf("list migrations: %w", err)
			}
			printMigrationStatus(cmd.OutOrStdout(), statuses)
			return nil
		},
	}
}

func printMigrationStatus(out io.Writer, statuses []db.MigrationStatus) {
	for _, status := range statuses {
		state := "pending"
		if status.Applied {
			state = "applied"
		}
		fmt.Fprintf(out, "%-8s %s %s\n", state, status.Version, status.Name)
	}
}
