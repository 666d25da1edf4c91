package eval

import "testing"

func TestPrecisionAtK_Basic(t *testing.T) {
	scores := []float64{0.5, 0.3, 0.1, 0.05, 0.05}
	labels := map[int]int{0: 1, 1: 0, 2: 1}

	got := PrecisionAtK(scores, labels, 2)
	want := 0.5 // top-2: {0,1} -> 1 hit / 2
	if got != want {
		t.Errorf("PrecisionAtK(k=2) = %v, want %v", got, want)
	}

	got = PrecisionAtK(scores, labels, 3)
	want = 2.0 / 3.0 // top-3: {0,1,2} -> 2 hits / 3
	if got != want {
		t.Errorf("PrecisionAtK(k=3) = %v, want %v", got, want)
	}
}

func TestPrecisionAtK_KClampedToN(t *testing.T) {
	scores := []float64{0.9, 0.1}
	labels := map[int]int{0: 1}

	got := PrecisionAtK(scores, labels, 100)
	want := 0.5
	if got != want {
		t.Errorf("PrecisionAtK(k>N) = %v, want %v", got, want)
	}
}

func TestPrecisionAtK_ZeroOrNegativeK(t *testing.T) {
	scores := []float64{0.9, 0.1}
	labels := map[int]int{0: 1}

	if got := PrecisionAtK(scores, labels, 0); got != 0 {
		t.Errorf("PrecisionAtK(k=0) = %v, want 0", got)
	}
	if got := PrecisionAtK(scores, labels, -5); got != 0 {
		t.Errorf("PrecisionAtK(k=-5) = %v, want 0", got)
	}
}

func TestPrecisionAtK_TieBreakAscendingIndex(t *testing.T) {
	scores := []float64{0.3, 0.3, 0.3}
	labels := map[int]int{0: 1}

	// With all scores tied, top-1 must deterministically pick index 0.
	got := PrecisionAtK(scores, labels, 1)
	if got != 1 {
		t.Errorf("PrecisionAtK with ties = %v, want 1 (index 0 picked first)", got)
	}
}

func TestPrecisionAtK_MonotoneRefinement(t *testing.T) {
	// Precision@K need not be monotone in K in general, but the hit count
	// (Precision@K * K) must never decrease as K grows, since the top-K set
	// only gains members.
	scores := []float64{1, 0.9, 0.8, 0.7, 0.6}
	labels := map[int]int{0: 1, 1: 1, 2: 1, 3: 0, 4: 0}

	var prevHits float64
	for k := 1; k <= 5; k++ {
		p := PrecisionAtK(scores, labels, k)
		hits := p * float64(k)
		if hits < prevHits {
			t.Errorf("hit count decreased at k=%d: %v < %v", k, hits, prevHits)
		}
		prevHits = hits
	}
}

func TestTopK_RanksAndTies(t *testing.T) {
	scores := []float64{0.1, 0.9, 0.9, 0.05}
	labels := map[int]int{1: 1}

	rows := TopK(scores, labels, 3)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}
	// indices 1 and 2 tie at 0.9; index 1 must come first (ascending tiebreak).
	if rows[0].Index != 1 || rows[1].Index != 2 {
		t.Errorf("tie-break order wrong: got indices %d,%d, want 1,2", rows[0].Index, rows[1].Index)
	}
	if rows[0].Rank != 1 || rows[1].Rank != 2 || rows[2].Rank != 3 {
		t.Errorf("ranks not sequential: %+v", rows)
	}
	if rows[0].Label != 1 {
		t.Errorf("expected row 0 label 1, got %d", rows[0].Label)
	}
}

func TestTopK_KClampedAndEmpty(t *testing.T) {
	scores := []float64{0.5, 0.5}
	if rows := TopK(scores, nil, 10); len(rows) != 2 {
		t.Errorf("len(rows) = %d, want 2 (clamped to N)", len(rows))
	}
	if rows := TopK(scores, nil, 0); rows != nil {
		t.Errorf("expected nil for k=0, got %v", rows)
	}
}
