package ppr

import (
	"fmt"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
)

// MakePersonalization builds the teleportation distribution p over n nodes
// from a seed set. An empty seed set falls back to uniform; otherwise mass
// 1/|seeds| lands on each distinct seed and 0 elsewhere. Duplicate seeds
// coalesce. Fails with apperr.ErrSeedOutOfRange if any seed >= n.
func MakePersonalization(n int, seeds []int) ([]float64, error) {
	p := make([]float64, n)
	if len(seeds) == 0 {
		uniform := 1.0 / float64(n)
		for i := range p {
			p[i] = uniform
		}
		return p, nil
	}

	distinct := make(map[int]struct{}, len(seeds))
	for _, s := range seeds {
		if s < 0 || s >= n {
			return nil, fmt.Errorf("ppr: seed %d out of range for N=%d: %w", s, n, apperr.ErrSeedOutOfRange)
		}
		distinct[s] = struct{}{}
	}

	mass := 1.0 / float64(len(distinct))
	for s := range distinct {
		p[s] = mass
	}
	return p, nil
}

// normalizeInPlace rescales v so it sums to 1. If v sums to 0 it is replaced
// with the uniform distribution, matching the "all-zero falls back to
// uniform" contract shared by personalization and warm-start vectors.
func normalizeInPlace(v []float64) {
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
