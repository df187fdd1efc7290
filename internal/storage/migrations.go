package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS verification_results (
					record_id TEXT PRIMARY KEY,
					invoice_id TEXT,
					customer_id TEXT,
					tenant_id TEXT,
					transaction_id TEXT,
					status TEXT NOT NULL,
					payment_label TEXT NOT NULL,
					rejection_reason TEXT,
					confidence TEXT NOT NULL,
					validation TEXT NOT NULL,
					uploaded_at DATETIME NOT NULL,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_results_tenant ON verification_results(tenant_id)`,
				`CREATE INDEX idx_results_status ON verification_results(status)`,
				`CREATE INDEX idx_results_uploaded ON verification_results(uploaded_at)`,

				`CREATE TABLE IF NOT EXISTS fraud_alerts (
					alert_id TEXT PRIMARY KEY,
					record_id TEXT,
					invoice_id TEXT,
					customer_id TEXT,
					tenant_id TEXT,
					fraud_type TEXT NOT NULL,
					severity TEXT NOT NULL,
					review_status TEXT NOT NULL,
					transaction_id TEXT,
					raw_date_text TEXT,
					reason TEXT,
					age_days INTEGER NOT NULL DEFAULT 0,
					amount TEXT,
					transaction_date DATETIME,
					uploaded_at DATETIME NOT NULL,
					created_at DATETIME NOT NULL
				)`,
				`CREATE INDEX idx_alerts_tenant ON fraud_alerts(tenant_id)`,
				`CREATE INDEX idx_alerts_type ON fraud_alerts(fraud_type)`,

				`CREATE TABLE IF NOT EXISTS alert_sequences (
					day TEXT PRIMARY KEY,
					next_seq INTEGER NOT NULL
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add append-only audit log",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS audit_log (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					at DATETIME NOT NULL,
					tenant_id TEXT,
					record_id TEXT NOT NULL,
					step TEXT NOT NULL,
					detail TEXT
				)`,
				`CREATE INDEX idx_audit_record ON audit_log(record_id)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Optimize review queue and duplicate lookup indexes",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE INDEX IF NOT EXISTS idx_alerts_review ON fraud_alerts(review_status, severity)`,
				// Duplicate detection scans verified results by extracted id
				`CREATE INDEX IF NOT EXISTS idx_results_txn ON verification_results(transaction_id, status)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query '%s': %w", query, err)
				}
			}
			return nil
		},
	},
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	// Get current version
	var currentVersion int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	// Apply migrations
	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		// Update version
		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	// Verify we're at the expected schema version
	var finalVersion int
	err = s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&finalVersion)
	if err != nil {
		return fmt.Errorf("failed to verify final schema version: %w", err)
	}

	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
