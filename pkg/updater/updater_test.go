package updater

import (
	"errors"
	"math"
	"testing"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
	"github.com/kestrelsec/fraudppr/pkg/csr"
	"github.com/kestrelsec/fraudppr/pkg/idmap"
	"github.com/kestrelsec/fraudppr/pkg/ppr"
)

func setup(t *testing.T) (*csr.Matrix, *idmap.Mapping, []float64) {
	t.Helper()
	rawEdges := []idmap.RawEdge{
		{Src: 10, Dst: 20, Weight: 1},
		{Src: 20, Dst: 10, Weight: 1},
	}
	edges, seeds, mapping, err := idmap.Compact(rawEdges, nil)
	if err != nil {
		t.Fatalf("idmap.Compact: %v", err)
	}
	a, err := csr.Build(edges, mapping.N())
	if err != nil {
		t.Fatalf("csr.Build: %v", err)
	}
	p, err := ppr.MakePersonalization(mapping.N(), seeds)
	if err != nil {
		t.Fatalf("MakePersonalization: %v", err)
	}
	return a, mapping, p
}

func TestApply_RejectsNegativeWeight(t *testing.T) {
	a, mapping, p := setup(t)
	_, err := Apply(a, mapping, p, p, 0.85, 1e-8, []RawEdge{{Src: 10, Dst: 20, Weight: -1}})
	if !errors.Is(err, apperr.ErrInvalidEdge) {
		t.Fatalf("expected ErrInvalidEdge, got %v", err)
	}
}

func TestApply_ExtendsMapping(t *testing.T) {
	a, mapping, p := setup(t)
	prevN := mapping.N()

	result, err := Apply(a, mapping, p, p, 0.85, 1e-8, []RawEdge{{Src: 30, Dst: 10, Weight: 2}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if mapping.N() != prevN+1 {
		t.Fatalf("mapping.N() = %d, want %d", mapping.N(), prevN+1)
	}
	if result.Matrix.N() != prevN+1 {
		t.Errorf("Matrix.N() = %d, want %d", result.Matrix.N(), prevN+1)
	}
	idx, ok := mapping.ToIndex(30)
	if !ok {
		t.Fatal("expected NodeId 30 to be mapped")
	}
	if idx != prevN {
		t.Errorf("new node index = %d, want %d (appended)", idx, prevN)
	}
}

func TestApply_OverwriteNotAccumulate(t *testing.T) {
	a, mapping, p := setup(t)
	srcIdx, _ := mapping.ToIndex(10)
	dstIdx, _ := mapping.ToIndex(20)

	if _, err := Apply(a, mapping, p, p, 0.85, 1e-8, []RawEdge{{Src: 10, Dst: 20, Weight: 5}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := a.OutDegree(srcIdx); got != 5 {
		t.Errorf("OutDegree after overwrite = %v, want 5 (overwrite semantics, not accumulate)", got)
	}
	_ = dstIdx
}

func TestApply_ScoresStaySumToOne(t *testing.T) {
	a, mapping, p := setup(t)
	result, err := Apply(a, mapping, p, p, 0.85, 1e-8, []RawEdge{
		{Src: 40, Dst: 10, Weight: 1},
		{Src: 10, Dst: 40, Weight: 1},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	var sum float64
	for _, s := range result.Run.Scores {
		sum += s
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Errorf("scores sum to %v, want 1", sum)
	}
}

func TestApply_WarmStartFastConvergence(t *testing.T) {
	a, mapping, p := setup(t)
	cold, err := ppr.PowerIterate(a, p, ppr.PowerConfig{Alpha: 0.85, Tol: 1e-10, MaxIter: 200})
	if err != nil {
		t.Fatalf("cold PowerIterate: %v", err)
	}

	result, err := Apply(a, mapping, p, cold.Scores, 0.85, 1e-10, []RawEdge{{Src: 10, Dst: 20, Weight: 1}})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if result.Run.Iters > 2 {
		t.Errorf("reconvergence used %d iterations, want <= 2 (warm start at the unchanged fixed point)", result.Run.Iters)
	}
}
