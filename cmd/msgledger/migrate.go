package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/msgledger/msgledger/internal/common"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
tables and indexes for the application to function properly.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			// initStorage runs migrations as part of opening the database.
			store, err := initStorage(ctx)
			if err != nil {
				return common.NewUserError("migration failed", err)
			}
			defer func() { _ = store.Close() }()

			fmt.Println("Database schema is up to date.")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("msgledger version", "version", version)
		},
	}
}
