package facade

import (
	"fmt"
	"io"

	json "github.com/goccy/go-json"

	"github.com/kestrelsec/fraudppr/pkg/apperr"
)

// jsonTopKEntry mirrors TopKEntry with JSON struct tags, kept distinct so
// the CSV-facing TopKEntry never carries export-only tag baggage.
type jsonTopKEntry struct {
	Rank   int     `json:"rank"`
	NodeID int64   `json:"node_id"`
	Score  float64 `json:"score"`
	Label  int     `json:"label"`
}

// TopKJSON renders the top-K report as a JSON array, using go-json as a
// faster drop-in for encoding/json (same struct tags, no behavioral
// difference the caller should observe).
func (f *Facade) TopKJSON(k int, w io.Writer) error {
	rows, err := f.TopK(k)
	if err != nil {
		return err
	}
	out := make([]jsonTopKEntry, len(rows))
	for i, row := range rows {
		out[i] = jsonTopKEntry{Rank: row.Rank, NodeID: row.NodeID, Score: row.Score, Label: row.Label}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(out)
}

// Snapshot is a JSON-serializable summary of the facade's current run,
// suitable for handing to a UI layer that wants structured state rather
// than a CSV stream.
type Snapshot struct {
	N          int     `json:"n"`
	Algorithm  string  `json:"algorithm"`
	Alpha      float64 `json:"alpha"`
	Iterations int     `json:"iterations"`
	Err        float64 `json:"err"`
	TopK       []int64 `json:"top_k_node_ids"`
}

// SnapshotJSON writes a Snapshot of the current run to w.
func (f *Facade) SnapshotJSON(k int, w io.Writer) error {
	if f.r == nil {
		return fmt.Errorf("facade: SnapshotJSON called before Run: %w", apperr.ErrEmptyGraph)
	}
	rows, err := f.TopK(k)
	if err != nil {
		return err
	}
	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.NodeID
	}
	snap := Snapshot{
		N:          f.N(),
		Algorithm:  string(f.last),
		Alpha:      f.alpha,
		Iterations: f.lastRun.Iters,
		Err:        f.lastRun.Err,
		TopK:       ids,
	}
	enc := json.NewEncoder(w)
	return enc.Encode(snap)
}
