// Package updater implements the warm-started incremental updater: it
// absorbs a batch of new edges into an existing adjacency matrix and mapping
// without a full cold recomputation, then reconverges the score vector with
// a warm-started, reduced-budget power iteration.
package updater

import (
	"fmt"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
	"github.com/kestrelsec/fraudppr/pkg/csr"
	"github.com/kestrelsec/fraudppr/pkg/debug"
	"github.com/kestrelsec/fraudppr/pkg/idmap"
	"github.com/kestrelsec/fraudppr/pkg/metrics"
	"github.com/kestrelsec/fraudppr/pkg/ppr"
)

// defaultMaxIter is the reduced iteration budget for the warm-started
// reconvergence pass, per spec.md §4.6 step 3 ("around 50").
const defaultMaxIter = 50

// RawEdge is a new edge as it arrives from the caller, addressed by
// original NodeId rather than dense NodeIndex; an unseen NodeId extends the
// mapping.
type RawEdge struct {
	Src    int64
	Dst    int64
	Weight float64
}

// Result is the outcome of Apply: the (possibly resized) matrix, the
// (possibly extended) personalization vector, and the reconverged scores.
type Result struct {
	Matrix *csr.Matrix
	P      []float64
	Run    ppr.RunResult
}

// Apply absorbs newEdges into a and mapping, following spec.md §4.6:
//
//  1. any NodeId not yet in mapping is admitted via mapping.Extend, and if
//     that grows N, a and rPrev and p are all zero-padded/resized to match;
//  2. each edge is applied to a via ApplyEdge, which overwrites rather than
//     accumulates — asymmetric with the Builder's sum-duplicates policy,
//     and deliberately so (see DESIGN.md);
//  3. the power solver reconverges from rPrev with a reduced iteration
//     budget and the same tolerance.
//
// mapping and a are mutated in place; the caller's previous a, p, and
// rPrev slices must not be used after a failed call, since a partial batch
// may already have been applied to a.
func Apply(a *csr.Matrix, mapping *idmap.Mapping, p, rPrev []float64, alpha, tol float64, newEdges []RawEdge) (Result, error) {
	defer metrics.Timer(metrics.IncrementalUpdate)()
	defer debug.LogEnterExit("updater.Apply")()

	for _, e := range newEdges {
		if e.Weight < 0 {
			return Result{}, fmt.Errorf("updater: negative weight for edge (%d,%d): %w", e.Src, e.Dst, apperr.ErrInvalidEdge)
		}
	}

	prevN := a.N()
	resolved := make([]struct{ src, dst int }, len(newEdges))
	maxIdx := prevN - 1
	for i, e := range newEdges {
		s := mapping.Extend(e.Src)
		d := mapping.Extend(e.Dst)
		resolved[i] = struct{ src, dst int }{s, d}
		if s > maxIdx {
			maxIdx = s
		}
		if d > maxIdx {
			maxIdx = d
		}
	}

	newN := maxIdx + 1
	if newN > prevN {
		a.Resize(newN)
		p = padZero(p, newN)
		rPrev = padZero(rPrev, newN)
		renormalize(p)
		renormalize(rPrev)
		debug.Log("updater: resized N %d -> %d", prevN, newN)
	}

	for i, e := range newEdges {
		if err := a.ApplyEdge(resolved[i].src, resolved[i].dst, e.Weight); err != nil {
			return Result{}, fmt.Errorf("updater: applying edge (%d,%d): %w", e.Src, e.Dst, err)
		}
	}

	run, err := ppr.PowerIterate(a, p, ppr.PowerConfig{
		Alpha:   alpha,
		Tol:     tol,
		MaxIter: defaultMaxIter,
		R0:      rPrev,
	})
	if err != nil {
		return Result{}, fmt.Errorf("updater: reconverging: %w", err)
	}

	return Result{Matrix: a, P: p, Run: run}, nil
}

func padZero(v []float64, n int) []float64 {
	if len(v) >= n {
		return v
	}
	out := make([]float64, n)
	copy(out, v)
	return out
}

func renormalize(v []float64) {
	var sum float64
	for _, x := range v {
		sum += x
	}
	if sum == 0 {
		uniform := 1.0 / float64(len(v))
		for i := range v {
			v[i] = uniform
		}
		return
	}
	for i := range v {
		v[i] /= sum
	}
}
