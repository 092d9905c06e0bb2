// Package app wires the snapshot source and the search cache from config.
// Both binaries that serve recommendations go through it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/kdimtricp/cinereco/internal/cache"
	"github.com/kdimtricp/cinereco/internal/config"
	"github.com/kdimtricp/cinereco/internal/database"
	"github.com/kdimtricp/cinereco/internal/dataset"
	"github.com/kdimtricp/cinereco/internal/logging"
	"github.com/kdimtricp/cinereco/internal/metrics"
	"github.com/kdimtricp/cinereco/internal/storage"
)

// LoadSnapshot reads the snapshot from the configured source and builds the
// similarity index. Any error means the process must not serve.
func LoadSnapshot(ctx context.Context, data config.DataConfig) (*dataset.Snapshot, error) {
	start := time.Now()

	var parts dataset.Parts
	switch data.Source {
	case config.SourceCSV:
		store, err := storage.NewLocalStorage(data.Dir)
		if err != nil {
			return nil, fmt.Errorf("open snapshot directory: %w", err)
		}
		m, err := dataset.LoadManifest(store)
		if err != nil {
			return nil, err
		}
		if parts, err = dataset.LoadParts(store, m); err != nil {
			return nil, err
		}
	case config.SourceSQLite:
		db, err := database.NewDB(database.Config{Path: data.DBPath})
		if err != nil {
			return nil, err
		}
		defer db.Close()
		if err := db.RunMigrations(); err != nil {
			return nil, fmt.Errorf("migrate snapshot store: %w", err)
		}
		if parts, err = database.NewSnapshotRepository(db).Load(ctx); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown snapshot source %q", data.Source)
	}

	snap, err := dataset.Build(parts)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(start)
	metrics.SnapshotMovies.Set(float64(snap.Len()))
	metrics.SnapshotBuildDuration.Set(elapsed.Seconds())
	logging.Info().
		Str("source", data.Source).
		Int("movies", snap.Len()).
		Str("fingerprint", snap.Fingerprint).
		Int("features", len(snap.Features.Columns)).
		Int("actors", len(snap.Actors.Columns())).
		Int("directors", len(snap.Directors.Columns())).
		Dur("duration", elapsed).
		Msg("snapshot loaded")

	return snap, nil
}

// OpenSearchCache returns a Redis store when an address is configured and an
// in-memory store otherwise.
func OpenSearchCache(ctx context.Context, c config.CacheConfig) (cache.Store, error) {
	if c.RedisAddr == "" {
		return cache.NewMemoryStore(c.MaxEntries), nil
	}
	store, err := cache.NewRedisStore(ctx, c.RedisAddr, c.RedisPassword, c.RedisDB, c.RedisPrefix)
	if err != nil {
		return nil, err
	}
	logging.Info().Str("addr", c.RedisAddr).Msg("search cache backed by redis")
	return store, nil
}
