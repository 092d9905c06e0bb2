package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestMigrator_LoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_second.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"001_first.sql":  {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"README.md":      {Data: []byte("ignored")},
		"invalid.sql":    {Data: []byte("ignored")},
	}

	migrations, err := NewMigrator(nil).LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("Failed to load migrations: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("Expected 2 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != "001" || migrations[1].Version != "002" {
		t.Errorf("Migrations not sorted by version: %+v", migrations)
	}
}

func TestMigrator_RunIsIdempotent(t *testing.T) {
	db, err := NewDB(Config{Path: filepath.Join(t.TempDir(), "migrate.db")})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 2; i++ {
		if err := db.RunMigrations(); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	m := NewMigrator(db.Conn())
	applied, err := m.GetAppliedMigrations()
	if err != nil {
		t.Fatalf("Failed to get applied migrations: %v", err)
	}
	embedded, err := m.LoadMigrations(Migrations())
	if err != nil {
		t.Fatalf("Failed to load embedded migrations: %v", err)
	}
	if len(applied) != len(embedded) {
		t.Errorf("Expected %d applied migrations, got %d", len(embedded), len(applied))
	}
}

func TestNewDB_RequiresPath(t *testing.T) {
	if _, err := NewDB(Config{}); err == nil {
		t.Error("Expected error for empty path")
	}
}
