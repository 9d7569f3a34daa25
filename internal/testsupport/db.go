package testsupport

import (
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"

	"tictask/backend/internal/db"
)

// MigrationsDir resolves the repository's migrations directory from this file.
func MigrationsDir() string {
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations")
}

// MustOpenDB opens a migrated SQLite database in a temp dir and registers cleanup.
func MustOpenDB(t testing.TB) *sql.DB {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	if _, err := db.RunMigrations(database, MigrationsDir()); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return database
}
