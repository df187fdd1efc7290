// Package testutil provides shared helpers for tests: in-memory databases and
// canned domain fixtures.
package testutil

import (
	"context"
	"testing"

	"github.com/chamnan-dev/slipguard/internal/storage"
)

// SetupTestDB creates a new in-memory, fully migrated SQLite storage.
// Cleanup is registered automatically.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
