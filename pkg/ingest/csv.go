// Package ingest parses the engine's two raw input formats into the
// idmap.RawEdge / seed / label shapes the facade ingests: a CSV file with a
// one-line header, and a free-form manual-entry text stream. Neither format
// touches the engine's own error kinds directly — malformed rows are
// skipped, matching spec.md §6's "malformed rows are skipped silently"
// contract; only a zero-valid-row result is surfaced as apperr.ErrEmptyGraph,
// and that surfacing happens in pkg/idmap.Compact, not here.
package ingest

import (
	"bufio"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/kestrelsec/fraudppr/pkg/idmap"
)

// CSVResult is everything a CSV ingest produces: the raw edges (ready for
// idmap.Compact), and any per-target labels keyed by original NodeId.
type CSVResult struct {
	Edges  []idmap.RawEdge
	Labels map[int64]int
}

// ParseCSV reads the ingestion file format described in spec.md §6: a
// one-line header, columns `source,target,amount[,label]`. Malformed rows
// (wrong column count, unparseable numbers) are skipped silently. A label
// is associated with the row's target node only, per spec.md §9 ("labels
// are per-target, which means a source-only node never carries a label").
func ParseCSV(r io.Reader) (CSVResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // rows can vary between 3 and 4 columns
	cr.TrimLeadingSpace = true

	result := CSVResult{Labels: make(map[int64]int)}

	header, err := cr.Read()
	if err == io.EOF {
		return result, nil
	}
	if err != nil {
		return result, err
	}
	_ = header // header is positional; columns are fixed by contract

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed record (e.g. wrong quoting) is skipped, not fatal.
			continue
		}
		if len(row) != 3 && len(row) != 4 {
			continue
		}

		src, errSrc := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
		dst, errDst := strconv.ParseInt(strings.TrimSpace(row[1]), 10, 64)
		amount, errAmt := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if errSrc != nil || errDst != nil || errAmt != nil {
			continue
		}
		if amount <= 0 {
			amount = 1.0
		}

		result.Edges = append(result.Edges, idmap.RawEdge{Src: src, Dst: dst, Weight: amount})

		if len(row) == 4 {
			label := strings.TrimSpace(row[3])
			switch label {
			case "1":
				result.Labels[dst] = 1
			case "0":
				result.Labels[dst] = 0
			}
		}
	}

	return result, nil
}

// ScanCSV is a convenience wrapper around ParseCSV for callers that already
// hold a *bufio.Reader (e.g. the CLI, which wraps os.Open results to keep a
// consistent buffered-I/O idiom across ingestion paths).
func ScanCSV(r *bufio.Reader) (CSVResult, error) {
	return ParseCSV(r)
}
