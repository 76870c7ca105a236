package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/phasehours/internal/db"
)

// NewTestDB opens a migrated in-memory database, closed at test cleanup.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	return openTestDB(t, ":memory:")
}

// NewFileTestDB opens a migrated database file in a temp directory. Tests that
// race writers need it: an in-memory database is limited to one connection.
func NewFileTestDB(t *testing.T, name string) *sql.DB {
	t.Helper()
	return openTestDB(t, filepath.Join(t.TempDir(), name), db.WithBusyTimeout(10*time.Second))
}

func openTestDB(t *testing.T, path string, opts ...db.Option) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(path, opts...)
	if err != nil {
		t.Fatalf("opening test database %s: %v", path, err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// NewTestUoW returns the production unit of work over database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}
