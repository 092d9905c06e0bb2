package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/goccy/go-json"

	"github.com/kdimtricp/cinereco/internal/dataset"
	"github.com/kdimtricp/cinereco/internal/membership"
	"github.com/kdimtricp/cinereco/internal/models"
)

// ErrEmptySnapshot is returned when the store holds no imported snapshot.
var ErrEmptySnapshot = errors.New("no snapshot has been imported")

// TableCount is the number of rows of one snapshot table.
type TableCount struct {
	Table string
	Rows  int
}

// SnapshotRepository persists the dataset parts of one snapshot. Saving
// replaces whatever snapshot was stored before.
type SnapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Save writes parts in a single transaction. progress, when set, is called
// after each movie with the number of movies written so far.
func (r *SnapshotRepository) Save(ctx context.Context, parts dataset.Parts, progress func(done int)) error {
	if parts.Features == nil || parts.Actors == nil || parts.Directors == nil {
		return fmt.Errorf("snapshot is missing a structure")
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"membership_flags", "membership_columns", "movie_features", "feature_columns", "movies", "snapshot_meta"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	tables := map[string]*membership.Table{
		membership.KindActor:    parts.Actors,
		membership.KindDirector: parts.Directors,
	}

	if err := insertColumns(ctx, tx, "INSERT INTO feature_columns (position, name) VALUES (?, ?)", parts.Features.Columns); err != nil {
		return err
	}
	for kind, t := range tables {
		if err := insertColumns(ctx, tx, "INSERT INTO membership_columns (kind, position, name) VALUES (?, ?, ?)", t.Columns(), kind); err != nil {
			return err
		}
	}

	movieStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO movies (id, title, original_title, search_title, genres, director, cast_members,
			year, score, synopsis, image, trailer, duration)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare movie insert: %w", err)
	}
	defer movieStmt.Close()

	featureStmt, err := tx.PrepareContext(ctx, "INSERT INTO movie_features (movie_id, vector) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare feature insert: %w", err)
	}
	defer featureStmt.Close()

	flagStmt, err := tx.PrepareContext(ctx, "INSERT INTO membership_flags (kind, movie_id, position) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare membership insert: %w", err)
	}
	defer flagStmt.Close()

	for i, m := range parts.Movies {
		score := sql.NullFloat64{Float64: m.Score, Valid: m.HasScore()}
		if _, err := movieStmt.ExecContext(ctx, m.ID, m.Title, m.OriginalTitle, m.SearchTitle, m.Genres,
			m.Director, m.Cast, m.Year, score, m.Synopsis, m.Image, m.Trailer, m.Duration); err != nil {
			return fmt.Errorf("failed to insert movie %d: %w", m.ID, err)
		}

		if i < len(parts.Features.Rows) {
			vector, err := json.Marshal(parts.Features.Rows[i])
			if err != nil {
				return fmt.Errorf("failed to encode features of movie %d: %w", m.ID, err)
			}
			if _, err := featureStmt.ExecContext(ctx, m.ID, string(vector)); err != nil {
				return fmt.Errorf("failed to insert features of movie %d: %w", m.ID, err)
			}
		}

		for kind, t := range tables {
			for _, p := range t.FlaggedPositions(m.ID) {
				if _, err := flagStmt.ExecContext(ctx, kind, m.ID, p); err != nil {
					return fmt.Errorf("failed to insert %s flag of movie %d: %w", kind, m.ID, err)
				}
			}
		}

		if progress != nil {
			progress(i + 1)
		}
	}

	meta := map[string]string{
		"genre_delimiter": parts.GenreDelimiter,
		"imported_at":     time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, "INSERT INTO snapshot_meta (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("failed to write snapshot meta %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// insertColumns runs query once per column with args prefix, position, name.
func insertColumns(ctx context.Context, tx *sql.Tx, query string, columns []string, prefix ...any) error {
	for i, name := range columns {
		args := append(append([]any(nil), prefix...), i, name)
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert column %q: %w", name, err)
		}
	}
	return nil
}

// Load reads the stored snapshot back into dataset parts, ready for
// dataset.Build.
func (r *SnapshotRepository) Load(ctx context.Context) (dataset.Parts, error) {
	movies, err := r.loadMovies(ctx)
	if err != nil {
		return dataset.Parts{}, err
	}
	if len(movies) == 0 {
		return dataset.Parts{}, ErrEmptySnapshot
	}

	featureCols, err := r.loadColumns(ctx, "SELECT name FROM feature_columns ORDER BY position")
	if err != nil {
		return dataset.Parts{}, err
	}
	rows, err := r.loadFeatures(ctx, len(movies))
	if err != nil {
		return dataset.Parts{}, err
	}

	actors, err := r.loadMembership(ctx, membership.KindActor, len(movies))
	if err != nil {
		return dataset.Parts{}, err
	}
	directors, err := r.loadMembership(ctx, membership.KindDirector, len(movies))
	if err != nil {
		return dataset.Parts{}, err
	}

	var delim string
	err = r.db.conn.QueryRowContext(ctx, "SELECT value FROM snapshot_meta WHERE key = 'genre_delimiter'").Scan(&delim)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return dataset.Parts{}, fmt.Errorf("failed to read genre delimiter: %w", err)
	}

	return dataset.Parts{
		Features:       &dataset.FeatureMatrix{Columns: featureCols, Rows: rows},
		Movies:         movies,
		Actors:         actors,
		Directors:      directors,
		GenreDelimiter: delim,
	}, nil
}

func (r *SnapshotRepository) loadMovies(ctx context.Context) ([]*models.Movie, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT id, title, original_title, search_title, genres, director, cast_members,
			year, score, synopsis, image, trailer, duration
		FROM movies ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query movies: %w", err)
	}
	defer rows.Close()

	var movies []*models.Movie
	for rows.Next() {
		var m models.Movie
		var score sql.NullFloat64
		if err := rows.Scan(&m.ID, &m.Title, &m.OriginalTitle, &m.SearchTitle, &m.Genres, &m.Director, &m.Cast,
			&m.Year, &score, &m.Synopsis, &m.Image, &m.Trailer, &m.Duration); err != nil {
			return nil, fmt.Errorf("failed to scan movie: %w", err)
		}
		m.Score = math.NaN()
		if score.Valid {
			m.Score = score.Float64
		}
		movies = append(movies, &m)
	}
	return movies, rows.Err()
}

func (r *SnapshotRepository) loadColumns(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *SnapshotRepository) loadFeatures(ctx context.Context, n int) ([][]float64, error) {
	rows, err := r.db.conn.QueryContext(ctx, "SELECT movie_id, vector FROM movie_features ORDER BY movie_id")
	if err != nil {
		return nil, fmt.Errorf("failed to query features: %w", err)
	}
	defer rows.Close()

	features := make([][]float64, 0, n)
	for rows.Next() {
		var id int
		var vector string
		if err := rows.Scan(&id, &vector); err != nil {
			return nil, fmt.Errorf("failed to scan features: %w", err)
		}
		if id != len(features) {
			return nil, fmt.Errorf("features missing for movie %d", len(features))
		}
		var row []float64
		if err := json.Unmarshal([]byte(vector), &row); err != nil {
			return nil, fmt.Errorf("failed to decode features of movie %d: %w", id, err)
		}
		features = append(features, row)
	}
	return features, rows.Err()
}

func (r *SnapshotRepository) loadMembership(ctx context.Context, kind string, n int) (*membership.Table, error) {
	columns, err := r.loadColumns(ctx, "SELECT name FROM membership_columns WHERE kind = ? ORDER BY position", kind)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.conn.QueryContext(ctx,
		"SELECT movie_id, position FROM membership_flags WHERE kind = ? ORDER BY movie_id, position", kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s flags: %w", kind, err)
	}
	defer rows.Close()

	flagged := make([][]int, n)
	for rows.Next() {
		var id, position int
		if err := rows.Scan(&id, &position); err != nil {
			return nil, fmt.Errorf("failed to scan %s flag: %w", kind, err)
		}
		if id < 0 || id >= n {
			return nil, fmt.Errorf("%s flag references unknown movie %d", kind, id)
		}
		flagged[id] = append(flagged[id], position)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return membership.NewSparseTable(kind, columns, flagged)
}

// Counts reports the row count of every snapshot table.
func (r *SnapshotRepository) Counts(ctx context.Context) ([]TableCount, error) {
	tables := []string{"movies", "feature_columns", "movie_features", "membership_columns", "membership_flags"}
	counts := make([]TableCount, 0, len(tables))
	for _, table := range tables {
		var n int
		if err := r.db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}
