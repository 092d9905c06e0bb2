// Package similarity holds the pairwise cosine similarity of every movie of a
// snapshot. The index is built once from the feature matrix and is read-only
// afterwards, so it can be shared by concurrent requests without locking.
package similarity

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyMatrix    = errors.New("feature matrix has no rows")
	ErrNoFeatures     = errors.New("feature matrix has no columns")
	ErrRaggedMatrix   = errors.New("feature matrix rows have different lengths")
	ErrNonFiniteValue = errors.New("feature matrix contains a non-finite value")
)

// Index is an N×N symmetric matrix of cosine similarities indexed by movie id
// on both axes.
type Index struct {
	sim *mat.SymDense
}

// Build L2-normalizes every row and stores the Gram matrix of the result.
// All-zero rows stay zero, so they score 0 against every other movie; the
// diagonal is forced to 1 for every movie.
func Build(rows [][]float64) (*Index, error) {
	n := len(rows)
	if n == 0 {
		return nil, ErrEmptyMatrix
	}
	d := len(rows[0])
	if d == 0 {
		return nil, ErrNoFeatures
	}

	normalized := mat.NewDense(n, d, nil)
	for i, row := range rows {
		if len(row) != d {
			return nil, fmt.Errorf("row %d has %d values, want %d: %w", i, len(row), d, ErrRaggedMatrix)
		}
		dst := normalized.RawRowView(i)
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("row %d column %d: %w", i, j, ErrNonFiniteValue)
			}
			dst[j] = v
		}
		if norm := floats.Norm(dst, 2); norm > 0 {
			floats.Scale(1/norm, dst)
		}
	}

	sim := mat.NewSymDense(n, nil)
	sim.SymOuterK(1, normalized)

	for i := 0; i < n; i++ {
		sim.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			sim.SetSym(i, j, clamp(sim.At(i, j)))
		}
	}

	return &Index{sim: sim}, nil
}

func (x *Index) Len() int {
	if x == nil || x.sim == nil {
		return 0
	}
	return x.sim.Symmetric()
}

func (x *Index) Has(id int) bool {
	return id >= 0 && id < x.Len()
}

// Score returns the similarity between movies i and j.
func (x *Index) Score(i, j int) float64 {
	return x.sim.At(i, j)
}

// Row returns a copy of the similarity scores of movie id against every movie.
func (x *Index) Row(id int) []float64 {
	n := x.Len()
	row := make([]float64, n)
	for j := 0; j < n; j++ {
		row[j] = x.sim.At(id, j)
	}
	return row
}

// rounding can push the dot product of two unit vectors just past ±1
func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
