package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kdimtricp/cinereco/internal/config"
	"github.com/kdimtricp/cinereco/internal/database"
	"github.com/kdimtricp/cinereco/internal/dataset"
	"github.com/kdimtricp/cinereco/internal/storage"
)

func writeCSVSnapshot(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"df_normal_final.csv":  "f1,f2\n1,0\n0,1\n",
		"df_archi_complet.csv": "movie_title_fr,genres,serial_realisator,ces_bons_vieux_acteurs,imdb_score\nHeat,Crime,Michael Mann,Al Pacino,8.3\nAlien,Horror,Ridley Scott,Sigourney Weaver,8.5\n",
		"df_acteurs.csv":       "Al Pacino,Sigourney Weaver\n1,0\n0,1\n",
		"df_reals.csv":         "Michael Mann,Ridley Scott\n1,0\n0,1\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestLoadSnapshot_CSV(t *testing.T) {
	snap, err := LoadSnapshot(context.Background(), config.DataConfig{Source: config.SourceCSV, Dir: writeCSVSnapshot(t)})
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if snap.Len() != 2 {
		t.Errorf("Expected 2 movies, got %d", snap.Len())
	}
}

func TestLoadSnapshot_SQLite(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "snapshot.db")

	store, err := storage.NewLocalStorage(writeCSVSnapshot(t))
	if err != nil {
		t.Fatal(err)
	}
	parts, err := dataset.LoadParts(store, dataset.DefaultManifest())
	if err != nil {
		t.Fatal(err)
	}

	db, err := database.NewDB(database.Config{Path: dbPath})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.RunMigrations(); err != nil {
		t.Fatal(err)
	}
	if err := database.NewSnapshotRepository(db).Save(ctx, parts, nil); err != nil {
		t.Fatal(err)
	}
	db.Close()

	snap, err := LoadSnapshot(ctx, config.DataConfig{Source: config.SourceSQLite, DBPath: dbPath})
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if m, _ := snap.Catalog.Get(1); m.Title != "Alien" {
		t.Errorf("Unexpected movie %+v", m)
	}
}

func TestLoadSnapshot_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := LoadSnapshot(ctx, config.DataConfig{Source: config.SourceCSV, Dir: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Error("Expected error for missing directory")
	}
	if _, err := LoadSnapshot(ctx, config.DataConfig{Source: config.SourceSQLite, DBPath: filepath.Join(t.TempDir(), "empty.db")}); err == nil {
		t.Error("Expected error for empty store")
	}
	if _, err := LoadSnapshot(ctx, config.DataConfig{Source: "parquet"}); err == nil {
		t.Error("Expected error for unknown source")
	}
}

func TestOpenSearchCache_Memory(t *testing.T) {
	store, err := OpenSearchCache(context.Background(), config.CacheConfig{MaxEntries: 8})
	if err != nil {
		t.Fatalf("OpenSearchCache failed: %v", err)
	}
	defer store.Close()
	if store.Name() != "memory" {
		t.Errorf("Expected memory store, got %s", store.Name())
	}
}
