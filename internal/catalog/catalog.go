package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/kdimtricp/cinereco/internal/models"
)

// Catalog is the ordered list of movie records of a snapshot. Position i
// holds the movie whose ID is i.
type Catalog struct {
	movies      []*models.Movie
	fingerprint string
}

// New checks that every record carries its own position as ID.
func New(movies []*models.Movie) (*Catalog, error) {
	for i, m := range movies {
		if m == nil {
			return nil, fmt.Errorf("catalog row %d is nil", i)
		}
		if m.ID != i {
			return nil, fmt.Errorf("catalog row %d carries id %d", i, m.ID)
		}
	}
	return &Catalog{movies: movies, fingerprint: fingerprint(movies)}, nil
}

// Fingerprint identifies the id to title mapping of the catalog. Two catalogs
// that would answer a search differently have different fingerprints.
func (c *Catalog) Fingerprint() string { return c.fingerprint }

func fingerprint(movies []*models.Movie) string {
	h := xxhash.New()
	for _, m := range movies {
		for _, field := range []string{strconv.Itoa(m.ID), m.Title, m.SearchTitle, strconv.Itoa(m.Year)} {
			h.WriteString(field)
			h.Write([]byte{0})
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func (c *Catalog) Len() int { return len(c.movies) }

func (c *Catalog) Has(id int) bool {
	return id >= 0 && id < len(c.movies)
}

func (c *Catalog) Get(id int) (*models.Movie, bool) {
	if !c.Has(id) {
		return nil, false
	}
	return c.movies[id], true
}

// Filter returns, in id order, the ids of the movies accepted by keep.
func (c *Catalog) Filter(keep func(*models.Movie) bool) []int {
	var ids []int
	for _, m := range c.movies {
		if keep(m) {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// Resolve maps ids to records, skipping unknown ids. The result is never nil.
func (c *Catalog) Resolve(ids []int) []*models.Movie {
	out := make([]*models.Movie, 0, len(ids))
	for _, id := range ids {
		if m, ok := c.Get(id); ok {
			out = append(out, m)
		}
	}
	return out
}

// Contains reports whether field holds sub, optionally ignoring case.
func Contains(field, sub string, ignoreCase bool) bool {
	if ignoreCase {
		return strings.Contains(strings.ToLower(field), strings.ToLower(sub))
	}
	return strings.Contains(field, sub)
}
