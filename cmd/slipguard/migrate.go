package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/chamnan-dev/slipguard/internal/storage"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
tables and indexes for the application to function properly.`,
		RunE: runMigrate,
	}
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	dbPath, err := databasePath()
	if err != nil {
		return err
	}

	slog.Info("🗄️  Running database migrations...", "database", dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = store.Close() }()

	if err := store.Migrate(cmd.Context()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("✅ Database migrations completed successfully!", "schema_version", storage.ExpectedSchemaVersion)
	return nil
}
