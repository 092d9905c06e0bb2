// Package membership stores which movies feature which actor or director.
//
// A Table is a sparse boolean matrix: one row per movie id, one column per
// person. Column order is the order of the source snapshot and never changes
// after load, which makes "first flagged column" a stable choice.
package membership

import (
	"errors"
	"fmt"
)

// Kinds of membership tables in a snapshot.
const (
	KindActor    = "actor"
	KindDirector = "director"
)

var ErrRaggedRow = errors.New("membership row has the wrong number of columns")

// Table is read-only once built.
type Table struct {
	kind    string
	columns []string
	flagged [][]int // per row, ascending column positions set to 1
}

// NewTable builds a table from dense 0/1 rows. Only a value of exactly 1
// counts as flagged.
func NewTable(kind string, columns []string, rows [][]float64) (*Table, error) {
	t := &Table{
		kind:    kind,
		columns: append([]string(nil), columns...),
		flagged: make([][]int, len(rows)),
	}

	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%s row %d has %d values, want %d: %w", kind, i, len(row), len(columns), ErrRaggedRow)
		}
		for j, v := range row {
			if v == 1 {
				t.flagged[i] = append(t.flagged[i], j)
			}
		}
	}

	return t, nil
}

// NewSparseTable builds a table from flagged positions per row. Positions are
// expected in ascending order; out of range positions are rejected.
func NewSparseTable(kind string, columns []string, flagged [][]int) (*Table, error) {
	t := &Table{
		kind:    kind,
		columns: append([]string(nil), columns...),
		flagged: make([][]int, len(flagged)),
	}

	for i, positions := range flagged {
		prev := -1
		for _, p := range positions {
			if p < 0 || p >= len(columns) {
				return nil, fmt.Errorf("%s row %d references column %d of %d: %w", kind, i, p, len(columns), ErrRaggedRow)
			}
			if p <= prev {
				return nil, fmt.Errorf("%s row %d columns not strictly ascending at %d", kind, i, p)
			}
			prev = p
		}
		t.flagged[i] = append([]int(nil), positions...)
	}

	return t, nil
}

func (t *Table) Kind() string { return t.kind }

// Len is the number of movie rows.
func (t *Table) Len() int { return len(t.flagged) }

func (t *Table) Columns() []string { return append([]string(nil), t.columns...) }

// Flagged returns the names flagged for movie id in column order.
func (t *Table) Flagged(id int) []string {
	if id < 0 || id >= len(t.flagged) {
		return nil
	}
	names := make([]string, 0, len(t.flagged[id]))
	for _, p := range t.flagged[id] {
		names = append(names, t.columns[p])
	}
	return names
}

// FlaggedPositions returns the flagged column positions for movie id.
func (t *Table) FlaggedPositions(id int) []int {
	if id < 0 || id >= len(t.flagged) {
		return nil
	}
	return append([]int(nil), t.flagged[id]...)
}

// First returns the first flagged name of movie id in column order.
func (t *Table) First(id int) (string, bool) {
	if id < 0 || id >= len(t.flagged) || len(t.flagged[id]) == 0 {
		return "", false
	}
	return t.columns[t.flagged[id][0]], true
}

// Count is the number of flagged cells in the table.
func (t *Table) Count() int {
	n := 0
	for _, row := range t.flagged {
		n += len(row)
	}
	return n
}
