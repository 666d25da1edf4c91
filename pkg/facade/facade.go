// Package facade implements the engine's single orchestration object: the
// Facade holds the current adjacency, personalization, alpha, score vector,
// labels, and ID mapping, and is the only object the hosting UI is expected
// to talk to (spec.md §4.8). It is thread-affine — callers serialize their
// own access — while every solver it calls is pure.
package facade

import (
	"fmt"
	"io"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
	"github.com/kestrelsec/fraudppr/pkg/csr"
	"github.com/kestrelsec/fraudppr/pkg/debug"
	"github.com/kestrelsec/fraudppr/pkg/eval"
	"github.com/kestrelsec/fraudppr/pkg/idmap"
	"github.com/kestrelsec/fraudppr/pkg/metrics"
	"github.com/kestrelsec/fraudppr/pkg/ppr"
	"github.com/kestrelsec/fraudppr/pkg/updater"
)

// IngestInput bundles the raw material for Ingest: edge triples by original
// NodeId, the seed set, and any known labels (also by original NodeId,
// associated with the label's target per spec.md §9).
type IngestInput struct {
	Edges  []idmap.RawEdge
	Seeds  []int64
	Labels map[int64]int
}

// RunParams bundles the tunable parameters for Run; zero values fall back
// to each solver's own defaults (see pkg/ppr). Cancel, if non-nil, is
// checked by the chosen solver at each iteration/walk-chunk boundary; a
// cancelled run surfaces as apperr.ErrCancelled rather than a committed
// RunResult (see Run).
type RunParams struct {
	Alpha    float64
	Weighted bool
	MaxIter  int
	Tol      float64
	NumWalks int
	MaxSteps int
	Seed     int64
	Cancel   *ppr.CancelToken
}

// Facade is the engine's single stateful orchestration object. The zero
// value is not usable; construct one with New.
type Facade struct {
	mapping *idmap.Mapping
	edges   []idmap.Edge // post-compaction edges, retained to rebuild A when Weighted toggles
	a       *csr.Matrix
	p       []float64
	seeds   []int
	alpha   float64
	tol     float64
	r       []float64
	labels  map[int]int
	last    ppr.Algorithm
	lastRun ppr.RunResult

	cacheKey  string
	cacheHit  ppr.RunResult
	haveCache bool
}

// New returns an empty, un-ingested Facade.
func New() *Facade {
	return &Facade{}
}

// Ingest compacts input's raw edges and seeds, builds the weighted
// adjacency, and records the label map. It does not compute a score vector;
// call Run for that. Fails with apperr.ErrEmptyGraph via pkg/idmap, or
// apperr.ErrShapeMismatch via pkg/csr.
func (f *Facade) Ingest(in IngestInput) error {
	edges, seeds, mapping, err := idmap.Compact(in.Edges, in.Seeds)
	if err != nil {
		return err
	}
	n := mapping.N()

	a, err := csr.Build(edges, n)
	if err != nil {
		return err
	}

	labels := make(map[int]int, len(in.Labels))
	for id, lbl := range in.Labels {
		if idx, ok := mapping.ToIndex(id); ok {
			labels[idx] = lbl
		}
	}

	f.mapping = mapping
	f.edges = edges
	f.a = a
	f.seeds = seeds
	f.labels = labels
	f.p = nil
	f.r = nil
	f.last = ""
	f.haveCache = false
	debug.Log("facade: ingested N=%d edges=%d seeds=%d", n, len(edges), len(seeds))
	return nil
}

// N returns the number of mapped nodes, or 0 if nothing has been ingested.
func (f *Facade) N() int {
	if f.mapping == nil {
		return 0
	}
	return f.mapping.N()
}

// Run computes a fresh score vector via the chosen algorithm and records it
// as the facade's current result. weighted=false rebuilds A with every
// weight coerced to 1 before running, per spec.md §4.8. A repeated call
// whose fingerprint (graph identity, personalization, alpha, algorithm,
// params) matches the last call returns the memoized RunResult instead of
// recomputing.
func (f *Facade) Run(alpha float64, algorithm ppr.Algorithm, weighted bool, params RunParams) (ppr.RunResult, error) {
	if f.mapping == nil {
		return ppr.RunResult{}, fmt.Errorf("facade: Run called before Ingest: %w", apperr.ErrEmptyGraph)
	}

	a := f.a
	if !weighted {
		unweighted := make([]idmap.Edge, len(f.edges))
		for i, e := range f.edges {
			unweighted[i] = idmap.Edge{Src: e.Src, Dst: e.Dst, Weight: 1}
		}
		var err error
		a, err = csr.Build(unweighted, f.mapping.N())
		if err != nil {
			return ppr.RunResult{}, err
		}
	}

	p, err := ppr.MakePersonalization(a.N(), f.seeds)
	if err != nil {
		return ppr.RunResult{}, err
	}

	key, keyErr := fingerprint(a, p, alpha, algorithm, weighted, params)
	if keyErr == nil && f.haveCache && key == f.cacheKey {
		metrics.RunCache.Hit()
		debug.Log("facade: Run cache hit")
		f.a, f.p, f.alpha, f.last = a, p, alpha, algorithm
		f.r = f.cacheHit.Scores
		f.lastRun = f.cacheHit
		return f.cacheHit, nil
	}
	metrics.RunCache.Miss()

	var run ppr.RunResult
	switch algorithm {
	case ppr.AlgorithmMonteCarlo:
		run, err = ppr.PowerIterateMC(a, p, ppr.MCConfig{
			Alpha:    alpha,
			NumWalks: params.NumWalks,
			MaxSteps: params.MaxSteps,
			Seed:     params.Seed,
			Cancel:   params.Cancel,
		})
	default:
		run, err = ppr.PowerIterate(a, p, ppr.PowerConfig{
			Alpha:   alpha,
			Tol:     params.Tol,
			MaxIter: params.MaxIter,
			Cancel:  params.Cancel,
		})
	}
	if err != nil {
		return ppr.RunResult{}, err
	}
	if run.Cancelled {
		// Per spec.md §5/§7: a cancelled run carries no partial side effect
		// on the facade. Cancelled still surfaces through the recognized
		// error-kind set at the hosting-UI boundary (spec.md §6), so the
		// last iterate travels alongside apperr.ErrCancelled rather than
		// being silently dropped.
		return run, fmt.Errorf("facade: run cancelled after %d iterations: %w", run.Iters, apperr.ErrCancelled)
	}

	tol := params.Tol
	if tol <= 0 {
		tol = defaultTol()
	}

	f.a = a
	f.p = p
	f.alpha = alpha
	f.tol = tol
	f.r = run.Scores
	f.last = algorithm
	f.lastRun = run
	if keyErr == nil {
		f.cacheKey = key
		f.cacheHit = run
		f.haveCache = true
	}
	return run, nil
}

// AddEdges applies a batch of new edges via the incremental updater,
// warm-starting from the facade's current score vector, and commits the
// result only on success — a failed batch leaves the facade's prior state
// untouched except for any ID-mapping extension already performed while
// resolving edges (mirroring the updater's own partial-application
// contract; see pkg/updater).
func (f *Facade) AddEdges(newEdges []idmap.RawEdge) (ppr.RunResult, error) {
	if f.mapping == nil || f.a == nil || f.r == nil {
		return ppr.RunResult{}, fmt.Errorf("facade: AddEdges called before Ingest/Run: %w", apperr.ErrEmptyGraph)
	}
	rPrev := f.r
	if rPrev == nil {
		rPrev = f.p
	}

	batch := make([]updater.RawEdge, len(newEdges))
	for i, e := range newEdges {
		batch[i] = updater.RawEdge{Src: e.Src, Dst: e.Dst, Weight: e.Weight}
	}

	tol := f.tol
	if tol <= 0 {
		tol = defaultTol()
	}
	result, err := updater.Apply(f.a, f.mapping, f.p, rPrev, f.alpha, tol, batch)
	if err != nil {
		return ppr.RunResult{}, err
	}

	for _, e := range newEdges {
		srcIdx, _ := f.mapping.ToIndex(e.Src)
		dstIdx, _ := f.mapping.ToIndex(e.Dst)
		f.edges = append(f.edges, idmap.Edge{Src: srcIdx, Dst: dstIdx, Weight: e.Weight})
	}

	f.a = result.Matrix
	f.p = result.P
	f.r = result.Run.Scores
	f.last = ppr.AlgorithmPower
	f.lastRun = result.Run
	f.haveCache = false
	return result.Run, nil
}

func defaultTol() float64 { return 1e-8 }

// TopKEntry is one row of a top-K report, addressed by original NodeId
// rather than dense index.
type TopKEntry struct {
	Rank   int
	NodeID int64
	Score  float64
	Label  int
}

// TopK returns the top min(k, N) nodes by current score, descending, ties
// broken by ascending index.
func (f *Facade) TopK(k int) ([]TopKEntry, error) {
	if f.r == nil {
		return nil, fmt.Errorf("facade: TopK called before Run: %w", apperr.ErrEmptyGraph)
	}
	rows := eval.TopK(f.r, f.labels, k)
	out := make([]TopKEntry, len(rows))
	for i, row := range rows {
		out[i] = TopKEntry{Rank: row.Rank, NodeID: f.mapping.ToID(row.Index), Score: row.Score, Label: row.Label}
	}
	return out, nil
}

// PrecisionAtK reports the facade's current Precision@K.
func (f *Facade) PrecisionAtK(k int) (float64, error) {
	if f.r == nil {
		return 0, fmt.Errorf("facade: PrecisionAtK called before Run: %w", apperr.ErrEmptyGraph)
	}
	return eval.PrecisionAtK(f.r, f.labels, k), nil
}

// ExportTopK writes a CSV report (header `rank,node_id,score,label`) of the
// top-K nodes to w, per spec.md §6's export_top_k(k, writer).
func (f *Facade) ExportTopK(k int, w io.Writer) error {
	rows, err := f.TopK(k)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "rank,node_id,score,label"); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%d,%d,%g,%d\n", row.Rank, row.NodeID, row.Score, row.Label); err != nil {
			return err
		}
	}
	return nil
}

// fingerprint hashes the parts of the run state that determine its output,
// so a repeated Run with an unchanged graph/personalization/params can be
// served from cache (spec.md §4.8's facade memoization addendum). It must
// never be observable except through timing: a hash collision merely costs
// a stale-looking cache hit on paths that are numerically identical anyway,
// since hashstructure hashes the full adjacency contents, not just a shape
// summary.
func fingerprint(a *csr.Matrix, p []float64, alpha float64, algorithm ppr.Algorithm, weighted bool, params RunParams) (string, error) {
	snapshot := struct {
		N        int
		Rows     [][]float64 // flattened (col, weight) pairs per row, for hashing stability
		P        []float64
		Alpha    float64
		Algo     ppr.Algorithm
		Weighted bool
		Params   RunParams
	}{
		N:        a.N(),
		P:        p,
		Alpha:    alpha,
		Algo:     algorithm,
		Weighted: weighted,
		Params:   params,
	}
	for i := 0; i < a.N(); i++ {
		cols, weights := a.RowDistribution(i)
		row := make([]float64, 0, len(cols)*2)
		for j, c := range cols {
			row = append(row, float64(c), weights[j])
		}
		snapshot.Rows = append(snapshot.Rows, row)
	}
	h, err := hashstructure.Hash(snapshot, hashstructure.FormatV2, nil)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", h), nil
}
