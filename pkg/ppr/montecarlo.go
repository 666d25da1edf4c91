package ppr

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/google/uuid"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
	"github.com/kestrelsec/fraudppr/pkg/csr"
	"github.com/kestrelsec/fraudppr/pkg/debug"
	"github.com/kestrelsec/fraudppr/pkg/metrics"
)

// walkChunkSize bounds how many walks a single goroutine runs before the
// chunk's visit counts are folded into the shared total. Keeping this fixed
// (rather than simply dividing num_walks by GOMAXPROCS) makes the partition
// — and therefore the result for a fixed base seed — independent of how many
// CPUs happen to be available.
const walkChunkSize = 2000

// MCConfig bundles the Monte-Carlo solver's tunable parameters.
//
// Alpha follows the facade's teleport-probability convention, the same as
// PowerConfig.Alpha: at each step the walk teleports via p with probability
// Alpha, and otherwise (1-Alpha) attempts to follow an outgoing edge. This
// is the opposite of the role alpha plays in some random-walk literature,
// where it is the continue probability; that inverted convention is kept
// strictly internal to the walk loop inside PowerIterateMC.
type MCConfig struct {
	Alpha     float64
	NumWalks  int
	MaxSteps  int
	Seed      int64
	NumWorker int
	Cancel    *CancelToken
}

// PowerIterateMC computes a ranking-equivalent approximation of Personalized
// PageRank via independent random walks: each walk starts at a node sampled
// from p, and at every step either teleports (probability Alpha) or follows
// an outgoing edge sampled proportional to its weight (probability 1-Alpha);
// a dangling node ends the walk immediately since it has no edge to follow.
//
// The result is r[i] = visits[i] / (num_walks * max_steps); it is NOT
// renormalized to sum to 1, since consumers only ever use it for ranking
// (see spec §4.5). Walks are partitioned across a worker pool; the partition
// is fixed ahead of dispatch so the result is deterministic for a given
// (Seed, NumWalks, NumWorker).
func PowerIterateMC(a *csr.Matrix, p []float64, cfg MCConfig) (RunResult, error) {
	defer metrics.Timer(metrics.MonteCarloWalk)()
	defer debug.LogEnterExit("ppr.PowerIterateMC")()

	if cfg.Alpha <= 0 || cfg.Alpha >= 1 {
		return RunResult{}, fmt.Errorf("ppr: alpha %g not in (0,1): %w", cfg.Alpha, apperr.ErrInvalidAlpha)
	}
	n := a.N()
	if len(p) != n {
		return RunResult{}, fmt.Errorf("ppr: personalization length %d != N %d: %w", len(p), n, apperr.ErrShapeMismatch)
	}

	pp := make([]float64, n)
	copy(pp, p)
	normalizeInPlace(pp)

	rowCols := make([][]int, n)
	rowCumWeights := make([][]float64, n)
	for i := 0; i < n; i++ {
		cols, weights := a.RowDistribution(i)
		if len(cols) == 0 {
			continue
		}
		rowCols[i] = cols
		cum := make([]float64, len(weights))
		var running float64
		for k, w := range weights {
			running += w
			cum[k] = running
		}
		rowCumWeights[i] = cum
	}

	maxWalks := cfg.NumWalks
	if maxWalks <= 0 {
		maxWalks = 10000
	}
	maxSteps := cfg.MaxSteps
	if maxSteps <= 0 {
		maxSteps = 20
	}
	workers := cfg.NumWorker
	if workers <= 0 {
		workers = 4
	}

	type chunk struct {
		walks int
		seed  int64
	}
	var chunks []chunk
	remaining := maxWalks
	chunkIdx := 0
	for remaining > 0 {
		w := walkChunkSize
		if w > remaining {
			w = remaining
		}
		chunks = append(chunks, chunk{walks: w, seed: cfg.Seed + int64(chunkIdx)*0x2545F4914F6CDD1D})
		remaining -= w
		chunkIdx++
	}

	visitTotals := make([][]float64, len(chunks))
	var g errgroup.Group
	g.SetLimit(workers)
	cancelled := false

	for ci, c := range chunks {
		ci, c := ci, c
		if cfg.Cancel.isCancelled() {
			cancelled = true
			break
		}
		g.Go(func() error {
			local := make([]float64, n)
			rng := rand.New(rand.NewSource(c.seed))
			startDist := distuv.NewCategorical(pp, rng)
			for w := 0; w < c.walks; w++ {
				cur := int(startDist.Rand())
				for step := 0; step < maxSteps; step++ {
					local[cur]++
					if rng.Float64() < cfg.Alpha {
						break
					}
					cum := rowCumWeights[cur]
					if cum == nil {
						break // dangling: no edge to follow, walk ends
					}
					cur = rowCols[cur][sampleCumulative(cum, rng.Float64())]
				}
			}
			visitTotals[ci] = local
			return nil
		})
	}
	_ = g.Wait()

	visits := make([]float64, n)
	for _, local := range visitTotals {
		if local == nil {
			continue
		}
		for i, v := range local {
			visits[i] += v
		}
	}

	r := make([]float64, n)
	denom := float64(maxWalks) * float64(maxSteps)
	for i := range r {
		r[i] = visits[i] / denom
	}

	return RunResult{
		Scores:    r,
		Iters:     len(chunks),
		Err:       math.NaN(),
		Cancelled: cancelled,
		Algorithm: AlgorithmMonteCarlo,
		RunID:     uuid.NewString(),
	}, nil
}

// sampleCumulative returns the index of the first entry in a cumulative
// weight table (summing to 1) that u falls into. Each worker goroutine
// calls this with its own local RNG draw, so no state is shared across
// goroutines the way a single *distuv.Categorical's source would be.
func sampleCumulative(cum []float64, u float64) int {
	i := sort.Search(len(cum), func(i int) bool { return cum[i] >= u })
	if i >= len(cum) {
		i = len(cum) - 1
	}
	return i
}
