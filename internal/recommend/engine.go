// Package recommend computes the four recommendation lists of a movie
// against an immutable dataset snapshot.
package recommend

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kdimtricp/cinereco/internal/dataset"
	"github.com/kdimtricp/cinereco/internal/metrics"
	"github.com/kdimtricp/cinereco/internal/models"
)

// Bundle is the result of one recommendation request. Every list is non-nil.
type Bundle struct {
	Reference *models.Movie
	Global    []*models.Movie
	Genre     []*models.Movie
	Actor     []*models.Movie
	Director  []*models.Movie
}

type Engine struct {
	snap    *dataset.Snapshot
	sampler Sampler
	logger  zerolog.Logger
}

// NewEngine serves recommendations from snap. A nil sampler uses a
// clock-seeded RandSampler.
func NewEngine(snap *dataset.Snapshot, sampler Sampler, logger zerolog.Logger) *Engine {
	if sampler == nil {
		sampler = NewRandSampler(0)
	}
	return &Engine{
		snap:    snap,
		sampler: sampler,
		logger:  logger.With().Str("component", "recommend").Logger(),
	}
}

func (e *Engine) Snapshot() *dataset.Snapshot { return e.snap }

// Recommend returns a *NotFoundError when id is unknown and a
// *ComputationError when the bundle cannot be assembled. A failing strategy
// only empties its own list.
func (e *Engine) Recommend(ctx context.Context, id int) (bundle *Bundle, err error) {
	start := time.Now()
	logger := e.logger.With().Int("movie_id", id).Logger()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recommendation assembly panicked")
			bundle, err = nil, &ComputationError{ID: id, Err: fmt.Errorf("panic: %v", r)}
		}
		outcome := "ok"
		switch err.(type) {
		case nil:
		case *NotFoundError:
			outcome = "not_found"
		default:
			outcome = "error"
		}
		metrics.Recommendations.WithLabelValues(outcome).Inc()
	}()

	if !e.snap.Has(id) {
		return nil, &NotFoundError{ID: id}
	}
	ref, _ := e.snap.Catalog.Get(id)

	var global, genre, actor, director []int
	g, gctx := errgroup.WithContext(ctx)
	launch := func(s Strategy, dst *[]int, fn func() ([]int, error)) {
		g.Go(func() error {
			*dst = e.run(gctx, logger, s, fn)
			return nil
		})
	}

	launch(StrategyGlobal, &global, func() ([]int, error) {
		return Global(e.snap.Index, id, Limit), nil
	})
	launch(StrategyGenre, &genre, func() ([]int, error) {
		ids, fellBack, err := ByGenre(e.snap.Catalog, e.snap.GenreDelimiter, id, Limit)
		if fellBack {
			metrics.GenreFallbacks.Inc()
			logger.Debug().Msg("no movie shares both genres, relaxed to the first genre")
		}
		return ids, err
	})
	launch(StrategyActor, &actor, func() ([]int, error) {
		ids, name := ByMember(e.snap.Catalog, e.snap.Actors, castOf, false, e.sampler, id, Limit)
		logger.Debug().Str("actor", name).Int("results", len(ids)).Msg("actor strategy")
		return ids, nil
	})
	launch(StrategyDirector, &director, func() ([]int, error) {
		ids, name := ByMember(e.snap.Catalog, e.snap.Directors, directorOf, true, e.sampler, id, Limit)
		logger.Debug().Str("director", name).Int("results", len(ids)).Msg("director strategy")
		return ids, nil
	})

	if err := g.Wait(); err != nil {
		return nil, &ComputationError{ID: id, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return nil, &ComputationError{ID: id, Err: err}
	}

	bundle = &Bundle{
		Reference: ref,
		Global:    e.snap.Catalog.Resolve(global),
		Genre:     e.snap.Catalog.Resolve(genre),
		Actor:     e.snap.Catalog.Resolve(actor),
		Director:  e.snap.Catalog.Resolve(director),
	}

	logger.Info().
		Int("global", len(bundle.Global)).
		Int("genre", len(bundle.Genre)).
		Int("actor", len(bundle.Actor)).
		Int("director", len(bundle.Director)).
		Dur("duration", time.Since(start)).
		Msg("recommendation computed")

	return bundle, nil
}

// run executes one strategy, turning an error or panic into an empty list.
func (e *Engine) run(ctx context.Context, logger zerolog.Logger, s Strategy, fn func() ([]int, error)) (ids []int) {
	start := time.Now()
	failed := false

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("strategy", string(s)).Interface("panic", r).Msg("strategy panicked")
			ids, failed = []int{}, true
		}
		metrics.RecordStrategy(string(s), len(ids), time.Since(start), failed)
	}()

	if ctx.Err() != nil {
		return []int{}
	}

	ids, err := fn()
	if err != nil {
		logger.Warn().Err(err).Str("strategy", string(s)).Msg("strategy failed, returning no results")
		failed = true
		return []int{}
	}
	if ids == nil {
		ids = []int{}
	}
	return ids
}
