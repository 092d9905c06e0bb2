package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/cheggaaa/pb/v3"

	"github.com/kdimtricp/cinereco/internal/database"
	"github.com/kdimtricp/cinereco/internal/dataset"
	"github.com/kdimtricp/cinereco/internal/logging"
	"github.com/kdimtricp/cinereco/internal/storage"
)

func main() {
	var (
		dataDir = flag.String("data", "./data", "CSV snapshot directory")
		dbPath  = flag.String("db", "./cinereco.db", "SQLite snapshot store")
		status  = flag.Bool("status", false, "Show migration status and row counts only")
	)
	flag.Parse()

	// Override with environment variables if set
	if env := os.Getenv("DATA_DIR"); env != "" && !isFlagSet("data") {
		*dataDir = env
	}
	if env := os.Getenv("DB_PATH"); env != "" && !isFlagSet("db") {
		*dbPath = env
	}

	logging.Init(logging.Config{Level: "info", Format: "console"})
	ctx := context.Background()

	db, err := database.NewDB(database.Config{Path: *dbPath})
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	if err := db.RunMigrations(); err != nil {
		logging.Fatal().Err(err).Msg("failed to run migrations")
	}

	repo := database.NewSnapshotRepository(db)

	if *status {
		printStatus(ctx, db, repo)
		return
	}

	store, err := storage.NewLocalStorage(*dataDir)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open snapshot directory")
	}
	manifest, err := dataset.LoadManifest(store)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to read manifest")
	}
	parts, err := dataset.LoadParts(store, manifest)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to read CSV snapshot")
	}

	// refuse to store a snapshot the server could not serve
	snap, err := dataset.Build(parts)
	if err != nil {
		logging.Fatal().Err(err).Msg("snapshot is invalid")
	}

	fmt.Printf("Importing %d movies from %s into %s...\n", snap.Len(), *dataDir, *dbPath)
	bar := pb.StartNew(len(parts.Movies))
	err = repo.Save(ctx, parts, func(done int) { bar.SetCurrent(int64(done)) })
	bar.Finish()
	if err != nil {
		logging.Fatal().Err(err).Msg("import failed")
	}
	fmt.Println("Import completed successfully!")
}

func printStatus(ctx context.Context, db *database.DB, repo *database.SnapshotRepository) {
	migrator := database.NewMigrator(db.Conn())
	applied, err := migrator.GetAppliedMigrations()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to get applied migrations")
	}
	migrations, err := migrator.LoadMigrations(database.Migrations())
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load migrations")
	}

	fmt.Println("Migration Status:")
	fmt.Println("=================")
	for _, m := range migrations {
		state := "pending"
		if applied[m.Version] {
			state = "applied"
		}
		fmt.Printf("%s - %s [%s]\n", m.Version, m.Name, state)
	}

	counts, err := repo.Counts(ctx)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to count snapshot rows")
	}
	fmt.Println()
	fmt.Println("Snapshot:")
	fmt.Println("=========")
	for _, c := range counts {
		fmt.Printf("%-20s %d\n", c.Table, c.Rows)
	}
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
