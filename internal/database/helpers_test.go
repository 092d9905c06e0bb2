package database

import (
	"path/filepath"
	"testing"
)

func setupTestDB(t *testing.T) (*DB, func()) {
	t.Helper()

	db, err := NewDB(Config{Path: filepath.Join(t.TempDir(), "snapshot_test.db")})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.RunMigrations(); err != nil {
		db.Close()
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return db, cleanup
}
