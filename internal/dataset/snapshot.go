// Package dataset assembles the immutable snapshot every recommendation
// request reads from: catalog, feature matrix, similarity index and the two
// membership tables, all indexed by the same movie id.
package dataset

import (
	"errors"
	"fmt"
	"time"

	"github.com/kdimtricp/cinereco/internal/catalog"
	"github.com/kdimtricp/cinereco/internal/membership"
	"github.com/kdimtricp/cinereco/internal/models"
	"github.com/kdimtricp/cinereco/internal/similarity"
)

var ErrMisaligned = errors.New("snapshot structures have different row counts")

// FeatureMatrix is one normalized feature vector per movie.
type FeatureMatrix struct {
	Columns []string
	Rows    [][]float64
}

func (f *FeatureMatrix) Len() int { return len(f.Rows) }

// Parts are the raw structures a snapshot is built from, in shared row order.
type Parts struct {
	Features       *FeatureMatrix
	Movies         []*models.Movie
	Actors         *membership.Table
	Directors      *membership.Table
	GenreDelimiter string
}

// Snapshot is built once at startup and never mutated afterwards.
type Snapshot struct {
	Catalog        *catalog.Catalog
	Features       *FeatureMatrix
	Index          *similarity.Index
	Actors         *membership.Table
	Directors      *membership.Table
	GenreDelimiter string
	// Fingerprint changes whenever the catalog's id to title mapping does.
	Fingerprint    string
	BuiltAt        time.Time
	BuildDuration  time.Duration
}

// Entry gathers everything the snapshot knows about one movie id.
type Entry struct {
	Movie      *models.Movie
	Features   []float64
	Similarity []float64
	Actors     []string
	Directors  []string
}

// Build checks row alignment and computes the similarity index.
func Build(p Parts) (*Snapshot, error) {
	start := time.Now()

	if p.Features == nil || p.Actors == nil || p.Directors == nil {
		return nil, fmt.Errorf("snapshot is missing a structure")
	}

	n := len(p.Movies)
	counts := []struct {
		name string
		rows int
	}{
		{"features", p.Features.Len()},
		{"actors", p.Actors.Len()},
		{"directors", p.Directors.Len()},
	}
	for _, c := range counts {
		if c.rows != n {
			return nil, fmt.Errorf("%s has %d rows, catalog has %d: %w", c.name, c.rows, n, ErrMisaligned)
		}
	}

	cat, err := catalog.New(p.Movies)
	if err != nil {
		return nil, fmt.Errorf("build catalog: %w", err)
	}

	idx, err := similarity.Build(p.Features.Rows)
	if err != nil {
		return nil, fmt.Errorf("build similarity index: %w", err)
	}

	delim := p.GenreDelimiter
	if delim == "" {
		delim = models.DefaultGenreDelimiter
	}

	return &Snapshot{
		Catalog:        cat,
		Features:       p.Features,
		Index:          idx,
		Actors:         p.Actors,
		Directors:      p.Directors,
		GenreDelimiter: delim,
		Fingerprint:    cat.Fingerprint(),
		BuiltAt:        time.Now(),
		BuildDuration:  time.Since(start),
	}, nil
}

func (s *Snapshot) Len() int { return s.Catalog.Len() }

// Has reports whether id resolves in both the similarity index and the catalog.
func (s *Snapshot) Has(id int) bool {
	return s.Index.Has(id) && s.Catalog.Has(id)
}

func (s *Snapshot) Entry(id int) (*Entry, bool) {
	if !s.Has(id) {
		return nil, false
	}
	m, _ := s.Catalog.Get(id)
	return &Entry{
		Movie:      m,
		Features:   append([]float64(nil), s.Features.Rows[id]...),
		Similarity: s.Index.Row(id),
		Actors:     s.Actors.Flagged(id),
		Directors:  s.Directors.Flagged(id),
	}, true
}
