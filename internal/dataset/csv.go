package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kdimtricp/cinereco/internal/models"
)

// table is a parsed CSV file: header plus string cells.
type table struct {
	header []string
	rows   [][]string
}

func readTable(r io.Reader) (*table, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("missing header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &table{header: header}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.rows), err)
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

// numeric converts the table to floats, skipping dropped headers. Empty cells
// are rejected unless emptyAsZero is set.
func (t *table) numeric(m Manifest, emptyAsZero bool) ([]string, [][]float64, error) {
	var keep []int
	var columns []string
	for i, h := range t.header {
		if m.dropped(h) {
			continue
		}
		keep = append(keep, i)
		columns = append(columns, h)
	}

	rows := make([][]float64, len(t.rows))
	for r, rec := range t.rows {
		row := make([]float64, len(keep))
		for j, i := range keep {
			v, err := parseCell(rec[i], emptyAsZero)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d column %q: %w", r, t.header[i], err)
			}
			row[j] = v
		}
		rows[r] = row
	}
	return columns, rows, nil
}

func parseCell(s string, emptyAsZero bool) (float64, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "":
		if emptyAsZero {
			return 0, nil
		}
		return 0, fmt.Errorf("empty value")
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not numeric: %q", s)
	}
	return v, nil
}

func (t *table) column(name string) (int, bool) {
	if name == "" {
		return -1, false
	}
	for i, h := range t.header {
		if h == name {
			return i, true
		}
	}
	return -1, false
}

// movies maps the catalog table to records whose ID is their row position.
func (t *table) movies(cols CatalogColumns) ([]*models.Movie, error) {
	required := []string{cols.Title, cols.Genres, cols.Director, cols.Cast, cols.Score}
	for _, name := range required {
		if _, ok := t.column(name); !ok {
			return nil, fmt.Errorf("catalog has no column %q", name)
		}
	}

	get := func(rec []string, name string) string {
		if i, ok := t.column(name); ok {
			return rec[i]
		}
		return ""
	}

	movies := make([]*models.Movie, len(t.rows))
	for i, rec := range t.rows {
		score, err := parseOptionalFloat(get(rec, cols.Score))
		if err != nil {
			return nil, fmt.Errorf("catalog row %d score: %w", i, err)
		}
		year, err := parseOptionalFloat(get(rec, cols.Year))
		if err != nil {
			return nil, fmt.Errorf("catalog row %d year: %w", i, err)
		}

		m := &models.Movie{
			ID:            i,
			Title:         get(rec, cols.Title),
			OriginalTitle: get(rec, cols.OriginalTitle),
			SearchTitle:   get(rec, cols.SearchTitle),
			Genres:        get(rec, cols.Genres),
			Director:      get(rec, cols.Director),
			Cast:          get(rec, cols.Cast),
			Score:         score,
			Synopsis:      get(rec, cols.Synopsis),
			Image:         get(rec, cols.Image),
			Trailer:       get(rec, cols.Trailer),
			Duration:      get(rec, cols.Duration),
		}
		if !math.IsNaN(year) {
			m.Year = int(year)
		}
		if m.SearchTitle == "" {
			m.SearchTitle = models.Capitalize(m.Title)
		}
		movies[i] = m
	}
	return movies, nil
}

// parseOptionalFloat returns NaN for an empty cell.
func parseOptionalFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not numeric: %q", s)
	}
	return v, nil
}
