package models

import (
	"math"
	"strings"
	"unicode"
)

// DefaultGenreDelimiter separates genres inside Movie.Genres.
const DefaultGenreDelimiter = "|"

// Movie is one catalog record. ID is the row position shared by every
// structure of the snapshot.
type Movie struct {
	ID            int
	Title         string
	OriginalTitle string
	SearchTitle   string
	Genres        string
	Director      string
	Cast          string
	Year          int
	Score         float64
	Synopsis      string
	Image         string
	Trailer       string
	Duration      string
}

func NewMovie(id int, title, originalTitle, genres, director, cast string, year int, score float64) *Movie {
	return &Movie{
		ID:            id,
		Title:         title,
		OriginalTitle: originalTitle,
		SearchTitle:   Capitalize(title),
		Genres:        genres,
		Director:      director,
		Cast:          cast,
		Year:          year,
		Score:         score,
	}
}

// DisplayTitle prefers the localized title and falls back to the original one.
func (m *Movie) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.OriginalTitle
}

// GenreList splits Genres on delim, keeping token order.
func (m *Movie) GenreList(delim string) []string {
	if delim == "" {
		delim = DefaultGenreDelimiter
	}
	if strings.TrimSpace(m.Genres) == "" {
		return nil
	}
	return strings.Split(m.Genres, delim)
}

// HasScore reports whether the rating is known. Unknown ratings are NaN.
func (m *Movie) HasScore() bool {
	return !math.IsNaN(m.Score)
}

// Capitalize title-cases the first character and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToTitle(runes[0])
	return string(runes)
}
