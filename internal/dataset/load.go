package dataset

import (
	"fmt"

	"github.com/kdimtricp/cinereco/internal/membership"
	"github.com/kdimtricp/cinereco/internal/storage"
)

// LoadParts reads the CSV snapshot described by m from store.
func LoadParts(store storage.Storage, m Manifest) (Parts, error) {
	if err := m.Validate(); err != nil {
		return Parts{}, err
	}

	featTable, err := readFile(store, m.Features)
	if err != nil {
		return Parts{}, err
	}
	featCols, featRows, err := featTable.numeric(m, false)
	if err != nil {
		return Parts{}, fmt.Errorf("%s: %w", m.Features, err)
	}

	catTable, err := readFile(store, m.Catalog.File)
	if err != nil {
		return Parts{}, err
	}
	movies, err := catTable.movies(m.Catalog)
	if err != nil {
		return Parts{}, fmt.Errorf("%s: %w", m.Catalog.File, err)
	}

	actors, err := loadMembership(store, m, membership.KindActor, m.Actors)
	if err != nil {
		return Parts{}, err
	}
	directors, err := loadMembership(store, m, membership.KindDirector, m.Directors)
	if err != nil {
		return Parts{}, err
	}

	return Parts{
		Features:       &FeatureMatrix{Columns: featCols, Rows: featRows},
		Movies:         movies,
		Actors:         actors,
		Directors:      directors,
		GenreDelimiter: m.GenreDelimiter,
	}, nil
}

// Load reads the manifest and CSV files of store and builds the snapshot.
func Load(store storage.Storage) (*Snapshot, error) {
	m, err := LoadManifest(store)
	if err != nil {
		return nil, err
	}
	parts, err := LoadParts(store, m)
	if err != nil {
		return nil, err
	}
	return Build(parts)
}

func loadMembership(store storage.Storage, m Manifest, kind, name string) (*membership.Table, error) {
	t, err := readFile(store, name)
	if err != nil {
		return nil, err
	}
	cols, rows, err := t.numeric(m, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	table, err := membership.NewTable(kind, cols, rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return table, nil
}

func readFile(store storage.Storage, name string) (*table, error) {
	f, err := store.OpenFile(name)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	t, err := readTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}
