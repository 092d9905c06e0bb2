package api

import (
	"github.com/kdimtricp/cinereco/internal/dataset"
	"github.com/kdimtricp/cinereco/internal/models"
	"github.com/kdimtricp/cinereco/internal/recommend"
)

// MovieView is the wire form of a catalog record. Score is null when the
// rating is unknown.
type MovieView struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	OriginalTitle string   `json:"original_title"`
	Genres        string   `json:"genres"`
	Director      string   `json:"director"`
	Cast          string   `json:"cast"`
	Year          int      `json:"year"`
	Score         *float64 `json:"score"`
	Synopsis      string   `json:"synopsis,omitempty"`
	Image         string   `json:"image,omitempty"`
	Trailer       string   `json:"trailer,omitempty"`
	Duration      string   `json:"duration,omitempty"`
}

type MovieDetail struct {
	MovieView
	Actors    []string `json:"actors"`
	Directors []string `json:"directors"`
}

type BundleView struct {
	Reference MovieView   `json:"reference"`
	Global    []MovieView `json:"global"`
	Genre     []MovieView `json:"genre"`
	Actor     []MovieView `json:"actor"`
	Director  []MovieView `json:"director"`
}

func NewMovieView(m *models.Movie) MovieView {
	v := MovieView{
		ID:            m.ID,
		Title:         m.DisplayTitle(),
		OriginalTitle: m.OriginalTitle,
		Genres:        m.Genres,
		Director:      m.Director,
		Cast:          m.Cast,
		Year:          m.Year,
		Synopsis:      m.Synopsis,
		Image:         m.Image,
		Trailer:       m.Trailer,
		Duration:      m.Duration,
	}
	if m.HasScore() {
		score := m.Score
		v.Score = &score
	}
	return v
}

func newMovieViews(movies []*models.Movie) []MovieView {
	views := make([]MovieView, 0, len(movies))
	for _, m := range movies {
		views = append(views, NewMovieView(m))
	}
	return views
}

func NewBundleView(b *recommend.Bundle) BundleView {
	return BundleView{
		Reference: NewMovieView(b.Reference),
		Global:    newMovieViews(b.Global),
		Genre:     newMovieViews(b.Genre),
		Actor:     newMovieViews(b.Actor),
		Director:  newMovieViews(b.Director),
	}
}

func newMovieDetail(e *dataset.Entry) MovieDetail {
	d := MovieDetail{
		MovieView: NewMovieView(e.Movie),
		Actors:    e.Actors,
		Directors: e.Directors,
	}
	if d.Actors == nil {
		d.Actors = []string{}
	}
	if d.Directors == nil {
		d.Directors = []string{}
	}
	return d
}
