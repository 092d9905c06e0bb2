package recommend

import (
	"context"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/kdimtricp/cinereco/internal/dataset"
	"github.com/kdimtricp/cinereco/internal/membership"
	"github.com/kdimtricp/cinereco/internal/models"
)

type fixture struct {
	movies    []*models.Movie
	features  [][]float64
	actors    []string
	actorRows [][]float64
	directors []string
	dirRows   [][]float64
}

func (f fixture) build(t *testing.T) *dataset.Snapshot {
	t.Helper()
	n := len(f.movies)
	if f.features == nil {
		for i := 0; i < n; i++ {
			f.features = append(f.features, []float64{float64(i%3 + 1), float64(i % 4), 1})
		}
	}
	if f.actors == nil {
		f.actors = []string{"Nobody"}
		f.actorRows = make([][]float64, n)
		for i := range f.actorRows {
			f.actorRows[i] = []float64{0}
		}
	}
	if f.directors == nil {
		f.directors = []string{"Nobody"}
		f.dirRows = make([][]float64, n)
		for i := range f.dirRows {
			f.dirRows[i] = []float64{0}
		}
	}
	actors, err := membership.NewTable("actor", f.actors, f.actorRows)
	if err != nil {
		t.Fatalf("actor table: %v", err)
	}
	directors, err := membership.NewTable("director", f.directors, f.dirRows)
	if err != nil {
		t.Fatalf("director table: %v", err)
	}
	snap, err := dataset.Build(dataset.Parts{
		Features:  &dataset.FeatureMatrix{Rows: f.features},
		Movies:    f.movies,
		Actors:    actors,
		Directors: directors,
	})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	return snap
}

func movie(id int, title, genres string, score float64) *models.Movie {
	return models.NewMovie(id, title, title, genres, "", "", 2000, score)
}

// firstSampler keeps the first k ids so member strategies are deterministic.
type firstSampler struct{}

func (firstSampler) Sample(ids []int, k int) []int { return head(append([]int(nil), ids...), k) }

type panicSampler struct{}

func (panicSampler) Sample([]int, int) []int { panic("sampler exploded") }

func genreFixture() fixture {
	return fixture{movies: []*models.Movie{
		movie(0, "Reference", "Action|Comedy", 7),
		movie(1, "A", "Action|Drama", 8.0),
		movie(2, "B", "Action", 6.5),
		movie(3, "C", "Comedy|Romance", 9),
		movie(4, "D", "Action|Thriller", 9.1),
		movie(5, "E", "Drama", 5),
		movie(6, "F", "Action|Sci-Fi", math.NaN()),
		movie(7, "G", "Action|War", 7.7),
		movie(8, "H", "Horror", 4),
		movie(9, "I", "Action|Crime", 7.2),
	}}
}

func TestGlobal(t *testing.T) {
	f := fixture{
		movies: []*models.Movie{
			movie(0, "a", "x", 1), movie(1, "b", "x", 1), movie(2, "c", "x", 1), movie(3, "d", "x", 1),
			movie(4, "e", "x", 1), movie(5, "f", "x", 1), movie(6, "g", "x", 1),
		},
		features: [][]float64{{1, 0}, {1, 0}, {1, 1}, {0, 1}, {-1, 0}, {1, 0.1}, {0.5, 1}},
	}
	snap := f.build(t)

	got := Global(snap.Index, 0, Limit)
	want := []int{1, 5, 2, 6, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Global(0) = %v, want %v", got, want)
	}

	for id := 0; id < snap.Len(); id++ {
		ids := Global(snap.Index, id, Limit)
		if len(ids) != Limit {
			t.Errorf("Global(%d) returned %d ids", id, len(ids))
		}
		for k, j := range ids {
			if j == id {
				t.Errorf("Global(%d) includes the reference", id)
			}
			if k > 0 && snap.Index.Score(id, j) > snap.Index.Score(id, ids[k-1]) {
				t.Errorf("Global(%d) not sorted by non-increasing score: %v", id, ids)
			}
		}
	}
}

func TestGlobal_SmallCatalog(t *testing.T) {
	snap := fixture{movies: []*models.Movie{movie(0, "a", "x", 1), movie(1, "b", "x", 1), movie(2, "c", "x", 1)}}.build(t)
	if got := Global(snap.Index, 1, Limit); len(got) != 2 {
		t.Errorf("Expected 2 results for 3 movies, got %v", got)
	}

	single := fixture{movies: []*models.Movie{movie(0, "a", "x", 1)}}.build(t)
	if got := Global(single.Index, 0, Limit); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", got)
	}
}

func TestByGenre_TwoGenres(t *testing.T) {
	snap := fixture{movies: []*models.Movie{
		movie(0, "Ref", "Crime|Drama", 5),
		movie(1, "A", "Crime|Drama|Thriller", 7),
		movie(2, "B", "Drama|Crime", 8),
		movie(3, "C", "Crime", 9),
		movie(4, "D", "Drama", 9.5),
	}}.build(t)

	ids, fellBack, err := ByGenre(snap.Catalog, "|", 0, Limit)
	if err != nil {
		t.Fatalf("ByGenre failed: %v", err)
	}
	if fellBack {
		t.Error("Expected no fallback")
	}
	if want := []int{2, 1}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ByGenre = %v, want %v", ids, want)
	}
}

func TestByGenre_FallsBackToFirstGenre(t *testing.T) {
	snap := genreFixture().build(t)

	ids, fellBack, err := ByGenre(snap.Catalog, "|", 0, Limit)
	if err != nil {
		t.Fatalf("ByGenre failed: %v", err)
	}
	if !fellBack {
		t.Error("Expected fallback to the first genre")
	}
	if want := []int{4, 1, 7, 9, 2}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ByGenre = %v, want %v", ids, want)
	}
	for _, id := range ids {
		m, _ := snap.Catalog.Get(id)
		if !strings.Contains(m.Genres, "Action") {
			t.Errorf("Movie %d genres %q do not contain Action", id, m.Genres)
		}
	}
}

func TestByGenre_SingleGenreAndMissingScores(t *testing.T) {
	snap := fixture{movies: []*models.Movie{
		movie(0, "Ref", "Horror", 5),
		movie(1, "A", "Horror|Drama", math.NaN()),
		movie(2, "B", "Horror", 3),
		movie(3, "C", "Comedy", 9),
	}}.build(t)

	ids, fellBack, err := ByGenre(snap.Catalog, "|", 0, Limit)
	if err != nil {
		t.Fatalf("ByGenre failed: %v", err)
	}
	if fellBack {
		t.Error("A single genre is not a fallback")
	}
	if want := []int{2, 1}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ByGenre = %v, want %v (unknown scores last)", ids, want)
	}
}

func TestByGenre_EmptyGenres(t *testing.T) {
	snap := fixture{movies: []*models.Movie{movie(0, "Ref", "", 5), movie(1, "A", "Drama", 7)}}.build(t)
	if _, _, err := ByGenre(snap.Catalog, "|", 0, Limit); !errors.Is(err, ErrNoGenres) {
		t.Errorf("Expected ErrNoGenres, got %v", err)
	}
}

func TestByGenre_LeadingDelimiter(t *testing.T) {
	snap := fixture{movies: []*models.Movie{
		movie(0, "Ref", "|Drama", 5),
		movie(1, "A", "Drama", 7),
		movie(2, "B", "Comedy", 9),
	}}.build(t)

	ids, fellBack, err := ByGenre(snap.Catalog, "|", 0, Limit)
	if err != nil {
		t.Fatalf("Expected an empty leading genre to match every movie, got %v", err)
	}
	if fellBack {
		t.Error("Expected the two-genre filter to produce the result")
	}
	if want := []int{1}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Expected %v, got %v", want, ids)
	}
}

func memberFixture() fixture {
	cast := []string{"Bruce Willis, Alan Rickman", "Bruce Willis, Samuel L. Jackson", "bruce willis", "Alan Rickman", "Bruce Willis"}
	dirs := []string{"John McTiernan", "John McTiernan", "john mctiernan", "Renny Harlin", "Someone Else"}
	f := fixture{
		actors:    []string{"Bruce Willis", "Alan Rickman"},
		actorRows: [][]float64{{1, 1}, {1, 0}, {0, 0}, {0, 1}, {1, 0}},
		directors: []string{"John McTiernan", "Renny Harlin"},
		dirRows:   [][]float64{{1, 0}, {1, 0}, {1, 0}, {0, 1}, {0, 0}},
	}
	for i := range cast {
		m := models.NewMovie(i, "m", "m", "Action", dirs[i], cast[i], 1990, 7)
		f.movies = append(f.movies, m)
	}
	return f
}

func TestByMember_Actor(t *testing.T) {
	snap := memberFixture().build(t)

	ids, name := ByMember(snap.Catalog, snap.Actors, castOf, false, firstSampler{}, 0, Limit)
	if name != "Bruce Willis" {
		t.Errorf("Expected first flagged actor, got %q", name)
	}
	if want := []int{1, 4}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Actor ids = %v, want %v (case-sensitive)", ids, want)
	}

	ids, name = ByMember(snap.Catalog, snap.Actors, castOf, false, firstSampler{}, 2, Limit)
	if name != "" || ids == nil || len(ids) != 0 {
		t.Errorf("Expected empty result for movie without actors, got %v %q", ids, name)
	}
}

func TestByMember_Director(t *testing.T) {
	snap := memberFixture().build(t)

	ids, name := ByMember(snap.Catalog, snap.Directors, directorOf, true, firstSampler{}, 0, Limit)
	if name != "John McTiernan" {
		t.Errorf("Expected John McTiernan, got %q", name)
	}
	if want := []int{1, 2}; !reflect.DeepEqual(ids, want) {
		t.Errorf("Director ids = %v, want %v (case-insensitive)", ids, want)
	}
}

func TestByMember_RandomSampleInvariants(t *testing.T) {
	var movies []*models.Movie
	var rows [][]float64
	for i := 0; i < 20; i++ {
		cast := "Extra"
		if i%2 == 0 {
			cast = "Star, Extra"
		}
		movies = append(movies, models.NewMovie(i, "m", "m", "Drama", "d", cast, 2000, 5))
		rows = append(rows, []float64{float64(1 - i%2)})
	}
	snap := fixture{movies: movies, actors: []string{"Star"}, actorRows: rows}.build(t)
	sampler := NewRandSampler(42)

	for run := 0; run < 50; run++ {
		ids, _ := ByMember(snap.Catalog, snap.Actors, castOf, false, sampler, 0, Limit)
		if len(ids) != Limit {
			t.Fatalf("Expected %d ids, got %v", Limit, ids)
		}
		seen := map[int]bool{}
		for _, id := range ids {
			m, _ := snap.Catalog.Get(id)
			if id == 0 || seen[id] || !strings.Contains(m.Cast, "Star") {
				t.Fatalf("Invalid sample %v", ids)
			}
			seen[id] = true
		}
	}
}

func TestRandSampler(t *testing.T) {
	ids := []int{3, 1, 4, 5, 9, 2, 6}

	a := NewRandSampler(7).Sample(ids, 4)
	b := NewRandSampler(7).Sample(ids, 4)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("Same seed produced %v and %v", a, b)
	}

	if got := NewRandSampler(1).Sample(ids, 10); len(got) != len(ids) {
		t.Errorf("Expected all %d ids, got %v", len(ids), got)
	}
	if got := NewRandSampler(1).Sample(nil, 5); got == nil || len(got) != 0 {
		t.Errorf("Expected empty non-nil slice, got %#v", got)
	}
	if ids[0] != 3 || ids[3] != 5 {
		t.Errorf("Sample mutated its input: %v", ids)
	}
}

func TestEngine_Recommend(t *testing.T) {
	snap := genreFixture().build(t)
	engine := NewEngine(snap, firstSampler{}, zerolog.Nop())

	bundle, err := engine.Recommend(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if bundle.Reference.ID != 0 {
		t.Errorf("Unexpected reference %d", bundle.Reference.ID)
	}
	if len(bundle.Global) != Limit {
		t.Errorf("Expected %d global results, got %d", Limit, len(bundle.Global))
	}

	var genreIDs []int
	for _, m := range bundle.Genre {
		genreIDs = append(genreIDs, m.ID)
	}
	if want := []int{4, 1, 7, 9, 2}; !reflect.DeepEqual(genreIDs, want) {
		t.Errorf("Genre = %v, want %v", genreIDs, want)
	}

	if bundle.Actor == nil || bundle.Director == nil {
		t.Error("Empty strategies must return non-nil slices")
	}
	if len(bundle.Actor) != 0 || len(bundle.Director) != 0 {
		t.Errorf("Expected no member results, got %d and %d", len(bundle.Actor), len(bundle.Director))
	}
}

func TestEngine_NotFound(t *testing.T) {
	engine := NewEngine(genreFixture().build(t), nil, zerolog.Nop())

	for _, id := range []int{-1, 10, 1000} {
		bundle, err := engine.Recommend(context.Background(), id)
		if bundle != nil {
			t.Errorf("Expected no bundle for %d", id)
		}
		var nf *NotFoundError
		if !errors.As(err, &nf) || nf.ID != id {
			t.Errorf("Expected NotFoundError for %d, got %v", id, err)
		}
	}
}

func TestEngine_StrategyIsolation(t *testing.T) {
	f := memberFixture()
	f.movies[0].Genres = ""
	engine := NewEngine(f.build(t), panicSampler{}, zerolog.Nop())

	bundle, err := engine.Recommend(context.Background(), 0)
	if err != nil {
		t.Fatalf("Recommend failed: %v", err)
	}
	if len(bundle.Global) != 4 {
		t.Errorf("Expected global results to survive, got %d", len(bundle.Global))
	}
	for name, list := range map[string][]*models.Movie{"genre": bundle.Genre, "actor": bundle.Actor, "director": bundle.Director} {
		if list == nil || len(list) != 0 {
			t.Errorf("Expected empty non-nil %s list, got %v", name, list)
		}
	}
}

func TestEngine_CanceledContext(t *testing.T) {
	engine := NewEngine(genreFixture().build(t), nil, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Recommend(ctx, 0)
	var ce *ComputationError
	if !errors.As(err, &ce) || ce.ID != 0 {
		t.Fatalf("Expected ComputationError, got %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected wrapped context.Canceled, got %v", ce.Err)
	}
}
