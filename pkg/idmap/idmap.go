// Package idmap compacts arbitrary, possibly sparse, integer node IDs into
// a dense index range [0, N) and keeps the reverse mapping.
//
// Two runs over the same raw inputs produce byte-identical mappings: the
// index assigned to a NodeId is determined solely by that NodeId's rank in
// the ascending sort of all observed IDs, never by insertion order.
package idmap

import (
	"fmt"
	"sort"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
)

// RawEdge is an edge triple as it arrives from ingestion, before ID
// compaction: Src/Dst are original NodeIds, not dense indices.
type RawEdge struct {
	Src    int64
	Dst    int64
	Weight float64
}

// Edge is RawEdge after ID compaction: Src/Dst are dense NodeIndex values.
type Edge struct {
	Src    int
	Dst    int
	Weight float64
}

// Mapping is the bijection between original NodeIds and dense NodeIndex
// values produced by Compact.
type Mapping struct {
	// Forward maps NodeId -> NodeIndex.
	Forward map[int64]int
	// Reverse maps NodeIndex -> NodeId; Reverse[i] is the original ID of
	// node i. len(Reverse) == N.
	Reverse []int64
}

// ToIndex returns the NodeIndex for id, or false if id was never observed.
func (m *Mapping) ToIndex(id int64) (int, bool) {
	idx, ok := m.Forward[id]
	return idx, ok
}

// ToID returns the original NodeId for a NodeIndex. Panics if idx is out of
// range, matching slice-index semantics; callers are expected to only ever
// pass indices obtained from this Mapping or from N.
func (m *Mapping) ToID(idx int) int64 {
	return m.Reverse[idx]
}

// Extend admits a NodeId not yet present in the mapping, assigning it the
// next available index and returning it. Used by the incremental updater
// when a new edge introduces an unseen ID; it extends the mapping
// monotonically rather than rebuilding it, so existing indices never move.
func (m *Mapping) Extend(id int64) int {
	if idx, ok := m.Forward[id]; ok {
		return idx
	}
	idx := len(m.Reverse)
	m.Forward[id] = idx
	m.Reverse = append(m.Reverse, id)
	return idx
}

// N returns the number of distinct nodes currently mapped.
func (m *Mapping) N() int {
	return len(m.Reverse)
}

// Compact collects every NodeId referenced by rawEdges (both endpoints) or
// rawSeeds, assigns dense indices in ascending order of the original ID, and
// rewrites edges and seeds to use those indices.
//
// Unknown seeds — IDs that appear in rawSeeds but in no edge — are still
// admitted to the mapping, per the contract in spec.md §4.1.
//
// Fails with apperr.ErrEmptyGraph if rawEdges is empty.
func Compact(rawEdges []RawEdge, rawSeeds []int64) ([]Edge, []int, *Mapping, error) {
	if len(rawEdges) == 0 {
		return nil, nil, nil, fmt.Errorf("idmap: no edges to compact: %w", apperr.ErrEmptyGraph)
	}

	seen := make(map[int64]struct{}, len(rawEdges)*2)
	for _, e := range rawEdges {
		seen[e.Src] = struct{}{}
		seen[e.Dst] = struct{}{}
	}
	for _, s := range rawSeeds {
		seen[s] = struct{}{}
	}

	ids := make([]int64, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	forward := make(map[int64]int, len(ids))
	for i, id := range ids {
		forward[id] = i
	}

	edges := make([]Edge, len(rawEdges))
	for i, e := range rawEdges {
		edges[i] = Edge{Src: forward[e.Src], Dst: forward[e.Dst], Weight: e.Weight}
	}

	seeds := make([]int, len(rawSeeds))
	for i, s := range rawSeeds {
		seeds[i] = forward[s]
	}

	return edges, seeds, &Mapping{Forward: forward, Reverse: ids}, nil
}
