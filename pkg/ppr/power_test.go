package ppr

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
	"github.com/kestrelsec/fraudppr/pkg/csr"
	"github.com/kestrelsec/fraudppr/pkg/idmap"
)

func buildMatrix(t *testing.T, n int, edges []idmap.Edge) *csr.Matrix {
	t.Helper()
	m, err := csr.Build(edges, n)
	if err != nil {
		t.Fatalf("csr.Build: %v", err)
	}
	return m
}

func uniform(n int) []float64 {
	p := make([]float64, n)
	for i := range p {
		p[i] = 1.0 / float64(n)
	}
	return p
}

func TestPowerIterate_InvalidAlpha(t *testing.T) {
	m := buildMatrix(t, 2, []idmap.Edge{{Src: 0, Dst: 1, Weight: 1}})
	_, err := PowerIterate(m, uniform(2), PowerConfig{Alpha: 0})
	if !errors.Is(err, apperr.ErrInvalidAlpha) {
		t.Fatalf("expected ErrInvalidAlpha, got %v", err)
	}
	_, err = PowerIterate(m, uniform(2), PowerConfig{Alpha: 1})
	if !errors.Is(err, apperr.ErrInvalidAlpha) {
		t.Fatalf("expected ErrInvalidAlpha, got %v", err)
	}
}

func TestPowerIterate_ShapeMismatch(t *testing.T) {
	m := buildMatrix(t, 3, []idmap.Edge{{Src: 0, Dst: 1, Weight: 1}})
	_, err := PowerIterate(m, uniform(2), PowerConfig{Alpha: 0.85})
	if !errors.Is(err, apperr.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestPowerIterate_SumsToOne(t *testing.T) {
	edges := []idmap.Edge{
		{Src: 0, Dst: 1, Weight: 1},
		{Src: 1, Dst: 2, Weight: 1},
		{Src: 2, Dst: 0, Weight: 1},
	}
	m := buildMatrix(t, 3, edges)
	res, err := PowerIterate(m, uniform(3), PowerConfig{Alpha: 0.85, Tol: 1e-10, MaxIter: 200})
	if err != nil {
		t.Fatalf("PowerIterate: %v", err)
	}
	var sum float64
	for _, s := range res.Scores {
		sum += s
	}
	if math.Abs(sum-1) > 1e-8 {
		t.Errorf("scores sum to %v, want 1", sum)
	}
	if res.RunID == "" {
		t.Error("expected non-empty RunID")
	}
}

// TestPowerIterate_UniformOracle cross-validates the power solver's
// uniform-personalization case (alpha = 1 - d, seeds = all nodes) against
// gonum's PageRank oracle on a small directed cycle-plus-chord graph.
func TestPowerIterate_UniformOracle(t *testing.T) {
	g := simple.NewDirectedGraph()
	for i := int64(0); i < 5; i++ {
		g.AddNode(simple.Node(i))
	}
	edgesIdx := [][2]int64{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 0}, {0, 2}}
	for _, e := range edgesIdx {
		g.SetEdge(g.NewEdge(simple.Node(e[0]), simple.Node(e[1])))
	}

	const damping = 0.85
	oracle := network.PageRank(g, damping, 1e-12)

	edges := make([]idmap.Edge, len(edgesIdx))
	for i, e := range edgesIdx {
		edges[i] = idmap.Edge{Src: int(e[0]), Dst: int(e[1]), Weight: 1}
	}
	m := buildMatrix(t, 5, edges)
	res, err := PowerIterate(m, uniform(5), PowerConfig{Alpha: 1 - damping, Tol: 1e-12, MaxIter: 500})
	if err != nil {
		t.Fatalf("PowerIterate: %v", err)
	}

	for i := int64(0); i < 5; i++ {
		want := oracle[i]
		got := res.Scores[i]
		if math.Abs(got-want) > 1e-4 {
			t.Errorf("node %d: got %v, gonum oracle %v", i, got, want)
		}
	}
}

func TestPowerIterate_DanglingRedistribution(t *testing.T) {
	// Node 1 is dangling: all its mass must be redistributed via p each
	// iteration rather than vanishing.
	edges := []idmap.Edge{{Src: 0, Dst: 1, Weight: 1}}
	m := buildMatrix(t, 2, edges)
	res, err := PowerIterate(m, uniform(2), PowerConfig{Alpha: 0.85, Tol: 1e-10, MaxIter: 200})
	if err != nil {
		t.Fatalf("PowerIterate: %v", err)
	}
	var sum float64
	for _, s := range res.Scores {
		sum += s
	}
	if math.Abs(sum-1) > 1e-8 {
		t.Errorf("mass leaked: scores sum to %v, want 1", sum)
	}
}

func TestPowerIterate_WarmStart(t *testing.T) {
	edges := []idmap.Edge{
		{Src: 0, Dst: 1, Weight: 1},
		{Src: 1, Dst: 0, Weight: 1},
	}
	m := buildMatrix(t, 2, edges)
	p := uniform(2)

	cold, err := PowerIterate(m, p, PowerConfig{Alpha: 0.85, Tol: 1e-10, MaxIter: 200})
	if err != nil {
		t.Fatalf("cold PowerIterate: %v", err)
	}

	warm, err := PowerIterate(m, p, PowerConfig{Alpha: 0.85, Tol: 1e-10, MaxIter: 200, R0: cold.Scores})
	if err != nil {
		t.Fatalf("warm PowerIterate: %v", err)
	}

	if warm.Iters > cold.Iters {
		t.Errorf("warm start took more iterations (%d) than cold (%d)", warm.Iters, cold.Iters)
	}
	for i := range warm.Scores {
		if math.Abs(warm.Scores[i]-cold.Scores[i]) > 1e-6 {
			t.Errorf("warm-started fixed point differs at %d: %v vs %v", i, warm.Scores[i], cold.Scores[i])
		}
	}

	// Spec §8 invariant 5's literal claim: re-running from the already
	// converged fixed point reconverges within at most 2 iterations.
	if warm.Iters > 2 {
		t.Errorf("warm start from a converged fixed point took %d iterations, want <= 2", warm.Iters)
	}
	if warm.Err >= 1e-10 {
		t.Errorf("warm start from a converged fixed point left err = %v, want < tol (1e-10)", warm.Err)
	}
}

func TestPowerIterate_Cancellation(t *testing.T) {
	edges := []idmap.Edge{{Src: 0, Dst: 1, Weight: 1}, {Src: 1, Dst: 0, Weight: 1}}
	m := buildMatrix(t, 2, edges)
	tok := NewCancelToken()
	tok.Cancel()

	res, err := PowerIterate(m, uniform(2), PowerConfig{Alpha: 0.85, Tol: 1e-12, MaxIter: 1000, Cancel: tok})
	if err != nil {
		t.Fatalf("PowerIterate: %v", err)
	}
	if !res.Cancelled {
		t.Error("expected Cancelled = true")
	}
}
