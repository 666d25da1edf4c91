package ppr

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
	"github.com/kestrelsec/fraudppr/pkg/csr"
	"github.com/kestrelsec/fraudppr/pkg/debug"
	"github.com/kestrelsec/fraudppr/pkg/metrics"
)

// Algorithm identifies which solver produced a RunResult.
type Algorithm string

const (
	AlgorithmPower      Algorithm = "power"
	AlgorithmMonteCarlo Algorithm = "monte_carlo"
)

// RunResult is the structured outcome of any solver: a score vector plus
// the bookkeeping needed to judge how it was obtained. Consumers never
// branch on a tuple-or-array shape; this is the one return type.
type RunResult struct {
	Scores    []float64
	Iters     int
	Err       float64
	Cancelled bool
	Algorithm Algorithm
	RunID     string
}

// CancelToken lets a caller ask a solver to stop at the next iteration or
// walk boundary. A nil *CancelToken is never cancelled.
type CancelToken struct {
	cancelled bool
}

// NewCancelToken returns a fresh, un-cancelled token.
func NewCancelToken() *CancelToken { return &CancelToken{} }

// Cancel marks the token cancelled. Safe to call more than once.
func (c *CancelToken) Cancel() {
	if c != nil {
		c.cancelled = true
	}
}

func (c *CancelToken) isCancelled() bool {
	return c != nil && c.cancelled
}

// PowerConfig bundles the power solver's tunable parameters.
type PowerConfig struct {
	Alpha   float64
	Tol     float64
	MaxIter int
	// R0 is an optional warm-start vector; if nil, iteration starts from p.
	R0     []float64
	Cancel *CancelToken
}

// PowerIterate computes Personalized PageRank over A via power iteration:
//
//	r <- (1-alpha)*(r^T M) + ((1-alpha)*m_d(r) + alpha)*p
//
// where M is A's implicit row-stochastic transition and m_d(r) is the mass
// currently held by dangling nodes. Returns the fixed point (or the last
// iterate if max_iter is exhausted without reaching tol), the iteration
// count, and the final L1 error. Non-convergence is not an error.
func PowerIterate(a *csr.Matrix, p []float64, cfg PowerConfig) (RunResult, error) {
	defer metrics.Timer(metrics.PowerIterate)()
	defer debug.LogEnterExit("ppr.PowerIterate")()

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

	r := make([]float64, n)
	if cfg.R0 != nil {
		if len(cfg.R0) != n {
			return RunResult{}, fmt.Errorf("ppr: warm start length %d != N %d: %w", len(cfg.R0), n, apperr.ErrShapeMismatch)
		}
		copy(r, cfg.R0)
		normalizeInPlace(r)
	} else {
		copy(r, pp)
	}

	maxIter := cfg.MaxIter
	if maxIter <= 0 {
		maxIter = 100
	}
	tol := cfg.Tol
	if tol <= 0 {
		tol = 1e-6
	}

	iters := 0
	lastErr := math.Inf(1)
	cancelled := false

	for it := 1; it <= maxIter; it++ {
		if cfg.Cancel.isCancelled() {
			cancelled = true
			break
		}

		walk := a.MulVecTranspose(r)
		danglingMass := a.DanglingMass(r)
		teleportWeight := (1-cfg.Alpha)*danglingMass + cfg.Alpha

		next := make([]float64, n)
		for i := range next {
			next[i] = (1-cfg.Alpha)*walk[i] + teleportWeight*pp[i]
		}

		lastErr = floats.Distance(next, r, 1)
		r = next
		iters = it
		debug.LogIf(it%10 == 0, "power iterate %d err=%g", it, lastErr)
		if lastErr < tol {
			break
		}
	}

	if !sane(r) {
		return RunResult{}, fmt.Errorf("ppr: non-finite iterate after %d iterations: %w", iters, apperr.ErrInvalidAlpha)
	}
	normalizeInPlace(r)

	return RunResult{
		Scores:    r,
		Iters:     iters,
		Err:       lastErr,
		Cancelled: cancelled,
		Algorithm: AlgorithmPower,
		RunID:     uuid.NewString(),
	}, nil
}

// sane reports whether every entry of v is finite and the vector sums to a
// finite, positive total.
func sane(v []float64) bool {
	var sum float64
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
		sum += x
	}
	return sum > 0 && !math.IsInf(sum, 0) && !math.IsNaN(sum)
}
