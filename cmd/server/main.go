package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/kdimtricp/cinereco/internal/api"
	"github.com/kdimtricp/cinereco/internal/app"
	"github.com/kdimtricp/cinereco/internal/config"
	"github.com/kdimtricp/cinereco/internal/logging"
	"github.com/kdimtricp/cinereco/internal/recommend"
	"github.com/kdimtricp/cinereco/internal/search"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	snap, err := app.LoadSnapshot(ctx, cfg.Data)
	if err != nil {
		logging.Fatal().Err(err).Str("source", cfg.Data.Source).Msg("failed to load snapshot")
	}

	searchCache, err := app.OpenSearchCache(ctx, cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to open search cache")
	}
	defer searchCache.Close()

	handlers := &api.App{
		Engine:   recommend.NewEngine(snap, recommend.NewRandSampler(cfg.Recommend.Seed), logging.WithComponent("recommend")),
		Search:   search.NewSearchService(snap.Catalog, searchCache, cfg.Cache.TTL, logging.WithComponent("search")),
		Snapshot: snap,
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(handlers, cfg.Security),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("addr", srv.Addr).
			Int("movies", snap.Len()).
			Strs("cors_origins", cfg.Security.CORSOrigins).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logging.Fatal().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
	}
}
