package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/goccy/go-json"

	"github.com/kdimtricp/cinereco/internal/api"
	"github.com/kdimtricp/cinereco/internal/app"
	"github.com/kdimtricp/cinereco/internal/config"
	"github.com/kdimtricp/cinereco/internal/logging"
	"github.com/kdimtricp/cinereco/internal/recommend"
	"github.com/kdimtricp/cinereco/internal/search"
)

func main() {
	query := flag.String("search", "", "Search movie titles")
	id := flag.Int("id", -1, "Recommend movies similar to this id")
	flag.Parse()

	if *query == "" && *id < 0 {
		fmt.Fprintln(os.Stderr, "Usage: recommend -search <title> | -id <movie id>")
		flag.PrintDefaults()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: "warn", Format: "console"})

	ctx := context.Background()
	snap, err := app.LoadSnapshot(ctx, cfg.Data)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load snapshot")
	}

	var out any
	if *query != "" {
		svc := search.NewSearchService(snap.Catalog, nil, 0, logging.WithComponent("search"))
		res, err := svc.Search(ctx, *query)
		if err != nil {
			logging.Fatal().Err(err).Msg("search failed")
		}
		out = res
	} else {
		engine := recommend.NewEngine(snap, recommend.NewRandSampler(cfg.Recommend.Seed), logging.WithComponent("recommend"))
		bundle, err := engine.Recommend(ctx, *id)
		if err != nil {
			var nf *recommend.NotFoundError
			if errors.As(err, &nf) {
				fmt.Fprintln(os.Stderr, nf.Error())
				os.Exit(1)
			}
			logging.Fatal().Err(err).Msg("recommendation failed")
		}
		out = api.NewBundleView(bundle)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logging.Fatal().Err(err).Msg("failed to write result")
	}
}
