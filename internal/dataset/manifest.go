package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kdimtricp/cinereco/internal/models"
	"github.com/kdimtricp/cinereco/internal/storage"
)

// ManifestFile is looked up at the root of a snapshot directory.
const ManifestFile = "manifest.yaml"

// Manifest names the files of a CSV snapshot and maps catalog fields to
// CSV headers.
type Manifest struct {
	Features       string         `yaml:"features"`
	Catalog        CatalogColumns `yaml:"catalog"`
	Actors         string         `yaml:"actors"`
	Directors      string         `yaml:"directors"`
	GenreDelimiter string         `yaml:"genre_delimiter"`
	// DropColumns lists headers ignored in the feature and membership files,
	// typically a written-out row index.
	DropColumns []string `yaml:"drop_columns"`
}

type CatalogColumns struct {
	File          string `yaml:"file"`
	Title         string `yaml:"title"`
	OriginalTitle string `yaml:"original_title"`
	SearchTitle   string `yaml:"search_title"`
	Genres        string `yaml:"genres"`
	Director      string `yaml:"director"`
	Cast          string `yaml:"cast"`
	Year          string `yaml:"year"`
	Score         string `yaml:"score"`
	Synopsis      string `yaml:"synopsis"`
	Image         string `yaml:"image"`
	Trailer       string `yaml:"trailer"`
	Duration      string `yaml:"duration"`
}

// DefaultManifest matches the file and column names of the reference
// snapshot export.
func DefaultManifest() Manifest {
	return Manifest{
		Features: "df_normal_final.csv",
		Catalog: CatalogColumns{
			File:          "df_archi_complet.csv",
			Title:         "movie_title_fr",
			OriginalTitle: "movie_title",
			SearchTitle:   "titre_fr_capitalize",
			Genres:        "genres",
			Director:      "serial_realisator",
			Cast:          "ces_bons_vieux_acteurs",
			Year:          "released_year",
			Score:         "imdb_score",
			Synopsis:      "plot",
			Image:         "image",
			Trailer:       "bande_annonce",
			Duration:      "durex",
		},
		Actors:         "df_acteurs.csv",
		Directors:      "df_reals.csv",
		GenreDelimiter: models.DefaultGenreDelimiter,
		DropColumns:    []string{"", "Unnamed: 0"},
	}
}

// ParseManifest overlays the YAML document on DefaultManifest.
func ParseManifest(r io.Reader) (Manifest, error) {
	m := DefaultManifest()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !errors.Is(err, io.EOF) {
		return Manifest{}, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

// LoadManifest reads ManifestFile from store, or returns DefaultManifest when
// the snapshot has none.
func LoadManifest(store storage.Storage) (Manifest, error) {
	f, err := store.OpenFile(ManifestFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultManifest(), nil
		}
		return Manifest{}, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()
	return ParseManifest(f)
}

func (m Manifest) Validate() error {
	required := []struct {
		field, value string
	}{
		{"features", m.Features},
		{"catalog.file", m.Catalog.File},
		{"catalog.title", m.Catalog.Title},
		{"catalog.genres", m.Catalog.Genres},
		{"catalog.director", m.Catalog.Director},
		{"catalog.cast", m.Catalog.Cast},
		{"catalog.score", m.Catalog.Score},
		{"actors", m.Actors},
		{"directors", m.Directors},
		{"genre_delimiter", m.GenreDelimiter},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("manifest field %s is required", r.field)
		}
	}
	return nil
}

func (m Manifest) dropped(header string) bool {
	for _, c := range m.DropColumns {
		if c == header {
			return true
		}
	}
	return false
}
