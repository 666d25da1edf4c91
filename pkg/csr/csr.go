// Package csr implements the sparse, row-compressed adjacency matrix used by
// every PPR solver in fraudppr. A Matrix never materializes the row-stochastic
// transition operator M; instead each consumer scales a row by its inverse
// out-degree on the fly via MulVecTranspose, keeping M implicit as required
// by the engine's numerical contract.
//
// Each row is stored as its own column-sorted slice rather than one flat
// CSR triple (rowStart/colIndex/values) so the Incremental Updater can
// overwrite or extend a single row in place without recompressing the whole
// matrix; this is the same row-compressed discipline CSR describes, just
// keyed by row instead of one global offset array.
package csr

import (
	"fmt"
	"sort"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
	"github.com/kestrelsec/fraudppr/pkg/idmap"
)

// entry is one nonzero in a row: column index and accumulated weight.
type entry struct {
	col    int
	weight float64
}

// Matrix is an N×N sparse, nonnegative, row-compressed adjacency matrix.
// A zero-value Matrix is not usable; construct one with New or Build.
type Matrix struct {
	rows     [][]entry
	outDeg   []float64
	dangling []bool
}

// New returns an empty N×N matrix with no edges.
func New(n int) *Matrix {
	return &Matrix{
		rows:     make([][]entry, n),
		outDeg:   make([]float64, n),
		dangling: newDanglingMask(n),
	}
}

func newDanglingMask(n int) []bool {
	d := make([]bool, n)
	for i := range d {
		d[i] = true
	}
	return d
}

// Build consumes mapped edge triples and produces a CSR-form
// adjacency: duplicate (src, dst) pairs sum their weights, and weights <= 0
// are coerced to 1.0 (the observed policy for transaction amounts; see
// DESIGN.md). Fails with apperr.ErrShapeMismatch if any index >= n.
func Build(edges []idmap.Edge, n int) (*Matrix, error) {
	sums := make([]map[int]float64, n)
	for _, e := range edges {
		if e.Src < 0 || e.Src >= n || e.Dst < 0 || e.Dst >= n {
			return nil, fmt.Errorf("csr: edge (%d,%d) out of range for N=%d: %w", e.Src, e.Dst, n, apperr.ErrShapeMismatch)
		}
		w := e.Weight
		if w <= 0 {
			w = 1.0
		}
		if sums[e.Src] == nil {
			sums[e.Src] = make(map[int]float64, 4)
		}
		sums[e.Src][e.Dst] += w
	}

	m := New(n)
	for i, row := range sums {
		if len(row) == 0 {
			continue
		}
		cols := make([]int, 0, len(row))
		for c := range row {
			cols = append(cols, c)
		}
		sort.Ints(cols)
		r := make([]entry, len(cols))
		var total float64
		for k, c := range cols {
			r[k] = entry{col: c, weight: row[c]}
			total += row[c]
		}
		m.rows[i] = r
		m.outDeg[i] = total
		m.dangling[i] = total == 0
	}
	return m, nil
}

// N returns the number of rows/columns.
func (m *Matrix) N() int { return len(m.rows) }

// OutDegree returns d[i] = sum of row i's weights.
func (m *Matrix) OutDegree(i int) float64 { return m.outDeg[i] }

// Dangling reports whether row i has zero out-degree.
func (m *Matrix) Dangling(i int) bool { return m.dangling[i] }

// Resize grows the matrix to newN rows/columns, padding with empty
// (dangling) rows. It is a no-op if newN <= N(). Used by the Incremental
// Updater when a new edge introduces a NodeId beyond the current range.
func (m *Matrix) Resize(newN int) {
	if newN <= len(m.rows) {
		return
	}
	grownRows := make([][]entry, newN)
	copy(grownRows, m.rows)
	m.rows = grownRows

	grownDeg := make([]float64, newN)
	copy(grownDeg, m.outDeg)
	m.outDeg = grownDeg

	grownDangling := newDanglingMask(newN)
	copy(grownDangling, m.dangling)
	m.dangling = grownDangling
}

// ApplyEdge overwrites A[s,d] with w (not accumulate — this is the
// Incremental Updater's contract, asymmetric with Build's sum-duplicates
// policy; see DESIGN.md). s and d must already be within range; callers
// resize first. Fails with apperr.ErrInvalidEdge on a negative weight.
func (m *Matrix) ApplyEdge(s, d int, w float64) error {
	if w < 0 {
		return fmt.Errorf("csr: negative weight %g for edge (%d,%d): %w", w, s, d, apperr.ErrInvalidEdge)
	}
	row := m.rows[s]
	i := sort.Search(len(row), func(i int) bool { return row[i].col >= d })
	switch {
	case i < len(row) && row[i].col == d:
		m.outDeg[s] += w - row[i].weight
		row[i].weight = w
	default:
		row = append(row, entry{})
		copy(row[i+1:], row[i:])
		row[i] = entry{col: d, weight: w}
		m.outDeg[s] += w
	}
	m.rows[s] = row
	m.dangling[s] = m.outDeg[s] == 0
	return nil
}

// MulVecTranspose returns r·M: for each non-dangling row i, r[i] is spread
// across row i's columns scaled by 1/OutDegree(i); dangling rows contribute
// nothing (their mass is handled separately via DanglingMass). Iteration
// order follows CSR row order, so the result is deterministic for a given
// (m, r).
func (m *Matrix) MulVecTranspose(r []float64) []float64 {
	out := make([]float64, len(m.rows))
	for i, row := range m.rows {
		if m.dangling[i] || r[i] == 0 {
			continue
		}
		share := r[i] / m.outDeg[i]
		for _, e := range row {
			out[e.col] += share * e.weight
		}
	}
	return out
}

// DanglingMass returns sum_{i in D} r[i], the mass that must be
// redistributed via personalization on this iteration.
func (m *Matrix) DanglingMass(r []float64) float64 {
	var mass float64
	for i, d := range m.dangling {
		if d {
			mass += r[i]
		}
	}
	return mass
}

// RowDistribution returns row i's column indices and their weights
// normalized to sum to 1, for Monte-Carlo neighbor sampling. The returned
// slices are empty if row i is dangling; callers must not mutate them.
func (m *Matrix) RowDistribution(i int) (cols []int, weights []float64) {
	row := m.rows[i]
	if len(row) == 0 || m.dangling[i] {
		return nil, nil
	}
	cols = make([]int, len(row))
	weights = make([]float64, len(row))
	total := m.outDeg[i]
	for k, e := range row {
		cols[k] = e.col
		weights[k] = e.weight / total
	}
	return cols, weights
}
