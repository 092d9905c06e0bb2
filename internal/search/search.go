package search

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/kdimtricp/cinereco/internal/cache"
	"github.com/kdimtricp/cinereco/internal/catalog"
	"github.com/kdimtricp/cinereco/internal/metrics"
	"github.com/kdimtricp/cinereco/internal/models"
)

var ErrEmptyQuery = errors.New("search query is empty")

type Status string

const (
	StatusNotFound Status = "not_found"
	StatusExact    Status = "exact"
	StatusMultiple Status = "multiple"
)

type Candidate struct {
	Title       string `json:"title"`
	Year        int    `json:"year"`
	SearchTitle string `json:"search_title"`
	ID          int    `json:"id"`
}

// Result is one of: not found, a single exact match, or several candidates.
type Result struct {
	Status     Status      `json:"status"`
	ID         *int        `json:"id,omitempty"`
	Title      string      `json:"title,omitempty"`
	Message    string      `json:"message,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`
}

type SearchService struct {
	catalog  *catalog.Catalog
	cache    cache.Store
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewSearchService searches c. store may be nil to disable caching. Cache keys
// carry the catalog fingerprint, so services over different snapshots can
// share one store.
func NewSearchService(c *catalog.Catalog, store cache.Store, ttl time.Duration, logger zerolog.Logger) *SearchService {
	return &SearchService{
		catalog:  c,
		cache:    store,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "search").Logger(),
	}
}

// Tokens capitalizes the whole query, then splits it on whitespace. Only the
// first token keeps an upper-case initial.
func Tokens(query string) []string {
	return strings.Fields(models.Capitalize(strings.TrimSpace(query)))
}

// Search returns the movies whose normalized title contains every token.
func (s *SearchService) Search(ctx context.Context, query string) (*Result, error) {
	tokens := Tokens(query)
	if len(tokens) == 0 {
		return nil, ErrEmptyQuery
	}

	key := "search:" + s.catalog.Fingerprint() + ":" + strings.Join(tokens, " ")
	if res, ok := s.cached(ctx, key); ok {
		metrics.SearchCacheHits.Inc()
		return res, nil
	}
	metrics.SearchCacheMisses.Inc()

	ids := s.catalog.Filter(func(m *models.Movie) bool {
		for _, tok := range tokens {
			if !strings.Contains(m.SearchTitle, tok) {
				return false
			}
		}
		return true
	})

	res := &Result{Status: StatusNotFound, Message: "no movie title contains every word of the query"}
	switch {
	case len(ids) == 1:
		m, _ := s.catalog.Get(ids[0])
		id := m.ID
		res = &Result{Status: StatusExact, ID: &id, Title: m.SearchTitle}
		s.logger.Debug().Int("movie_id", m.ID).Str("title", m.DisplayTitle()).Msg("exact search match")
	case len(ids) > 1:
		res = &Result{Status: StatusMultiple, Candidates: make([]Candidate, 0, len(ids))}
		for _, m := range s.catalog.Resolve(ids) {
			res.Candidates = append(res.Candidates, Candidate{
				Title:       m.Title,
				Year:        m.Year,
				SearchTitle: m.SearchTitle,
				ID:          m.ID,
			})
		}
	}

	metrics.SearchResults.WithLabelValues(string(res.Status)).Inc()
	s.store(ctx, key, res)
	return res, nil
}

func (s *SearchService) cached(ctx context.Context, key string) (*Result, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.logger.Warn().Err(err).Str("cache", s.cache.Name()).Msg("search cache read failed")
		}
		return nil, false
	}
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		s.logger.Warn().Err(err).Msg("discarding undecodable cached search result")
		return nil, false
	}
	return &res, true
}

func (s *SearchService) store(ctx context.Context, key string, res *Result) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(res)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode search result for cache")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("cache", s.cache.Name()).Msg("search cache write failed")
	}
}
