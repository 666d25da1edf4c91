// Package eval implements Precision@K over a PPR score vector and a partial
// ground-truth label map.
package eval

import "sort"

// PrecisionAtK sorts node indices by score descending (ties broken by
// ascending index for determinism), takes the top min(k, len(scores))
// indices, and returns the fraction of them labeled 1. Nodes absent from
// labels are treated as 0. Returns 0 if the effective k is 0.
func PrecisionAtK(scores []float64, labels map[int]int, k int) float64 {
	n := len(scores)
	kEff := k
	if kEff > n {
		kEff = n
	}
	if kEff <= 0 {
		return 0
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return a < b
	})

	var hits int
	for _, i := range idx[:kEff] {
		if labels[i] == 1 {
			hits++
		}
	}
	return float64(hits) / float64(kEff)
}

// TopKEntry is one row of a top-K report.
type TopKEntry struct {
	Rank  int
	Index int
	Score float64
	Label int
}

// TopK returns the top min(k, len(scores)) entries sorted the same way as
// PrecisionAtK (score descending, ties broken by ascending index), ranks
// starting at 1.
func TopK(scores []float64, labels map[int]int, k int) []TopKEntry {
	n := len(scores)
	kEff := k
	if kEff > n {
		kEff = n
	}
	if kEff <= 0 {
		return nil
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return a < b
	})

	out := make([]TopKEntry, kEff)
	for rank, i := range idx[:kEff] {
		out[rank] = TopKEntry{Rank: rank + 1, Index: i, Score: scores[i], Label: labels[i]}
	}
	return out
}
