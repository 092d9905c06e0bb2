package recommend

import (
	"errors"
	"math"
	"sort"

	"github.com/kdimtricp/cinereco/internal/catalog"
	"github.com/kdimtricp/cinereco/internal/membership"
	"github.com/kdimtricp/cinereco/internal/models"
	"github.com/kdimtricp/cinereco/internal/similarity"
)

// Limit is the number of movies each strategy returns at most.
const Limit = 5

type Strategy string

const (
	StrategyGlobal   Strategy = "global"
	StrategyGenre    Strategy = "genre"
	StrategyActor    Strategy = "actor"
	StrategyDirector Strategy = "director"
)

var ErrNoGenres = errors.New("reference movie has no genres")

// Global returns the ids most similar to id, best first, id excluded. Equal
// scores keep ascending id order.
func Global(idx *similarity.Index, id, limit int) []int {
	row := idx.Row(id)
	ids := make([]int, 0, len(row))
	for j := range row {
		if j != id {
			ids = append(ids, j)
		}
	}
	sort.SliceStable(ids, func(a, b int) bool {
		return row[ids[a]] > row[ids[b]]
	})
	return head(ids, limit)
}

// ByGenre returns the best rated movies sharing the first two genres of id,
// relaxing to the first genre alone when no movie shares both. fellBack
// reports whether the relaxed filter produced the result.
func ByGenre(cat *catalog.Catalog, delim string, id, limit int) (ids []int, fellBack bool, err error) {
	ref, ok := cat.Get(id)
	if !ok {
		return nil, false, &NotFoundError{ID: id}
	}
	genres := ref.GenreList(delim)
	if len(genres) == 0 {
		return nil, false, ErrNoGenres
	}

	if len(genres) >= 2 {
		ids = byRating(cat, cat.Filter(func(m *models.Movie) bool {
			return m.ID != id &&
				catalog.Contains(m.Genres, genres[0], false) &&
				catalog.Contains(m.Genres, genres[1], false)
		}))
		if len(ids) > 0 {
			return head(ids, limit), false, nil
		}
	}

	ids = byRating(cat, cat.Filter(func(m *models.Movie) bool {
		return m.ID != id && catalog.Contains(m.Genres, genres[0], false)
	}))
	return head(ids, limit), len(genres) >= 2, nil
}

// ByMember samples up to limit movies whose field contains the first name
// flagged for id in table. It returns the chosen name, empty when none is
// flagged.
func ByMember(cat *catalog.Catalog, table *membership.Table, field func(*models.Movie) string, ignoreCase bool, sampler Sampler, id, limit int) ([]int, string) {
	name, ok := table.First(id)
	if !ok || name == "" {
		return []int{}, ""
	}
	ids := cat.Filter(func(m *models.Movie) bool {
		return m.ID != id && catalog.Contains(field(m), name, ignoreCase)
	})
	return sampler.Sample(ids, limit), name
}

func castOf(m *models.Movie) string     { return m.Cast }
func directorOf(m *models.Movie) string { return m.Director }

// byRating orders ids by score, highest first, unknown scores last.
func byRating(cat *catalog.Catalog, ids []int) []int {
	score := func(id int) float64 {
		m, _ := cat.Get(id)
		return m.Score
	}
	sort.SliceStable(ids, func(a, b int) bool {
		sa, sb := score(ids[a]), score(ids[b])
		if math.IsNaN(sb) {
			return !math.IsNaN(sa)
		}
		return sa > sb
	})
	return ids
}

func head(ids []int, n int) []int {
	if len(ids) > n {
		ids = ids[:n]
	}
	if ids == nil {
		return []int{}
	}
	return ids
}
