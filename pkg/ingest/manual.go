package ingest

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/kestrelsec/fraudppr/pkg/idmap"
)

// manualEndSentinel terminates interactive manual edge entry, per spec.md
// §6's "one edge per line ... terminated by the sentinel `end` (interactive)
// or end-of-input (programmatic)".
const manualEndSentinel = "end"

// ManualResult is the parsed product of one manual-entry session.
type ManualResult struct {
	Edges []idmap.RawEdge
	Seeds []int64
}

// splitFields breaks a manual-entry line on whitespace or commas, per
// spec.md §6's "whitespace or comma separated".
func splitFields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

// ParseManualEdges reads "src dst weight" lines from r, one edge per line,
// until it sees the `end` sentinel or EOF — whichever comes first, so the
// same parser serves both interactive (sentinel-terminated) and
// programmatic (EOF-terminated) callers. Lines that don't parse to exactly
// three numeric fields are skipped silently, matching the CSV ingester's
// "malformed rows are skipped" policy.
func ParseManualEdges(r io.Reader) []idmap.RawEdge {
	var edges []idmap.RawEdge
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, manualEndSentinel) {
			break
		}
		fields := splitFields(line)
		if len(fields) != 3 {
			continue
		}
		src, errSrc := strconv.ParseInt(fields[0], 10, 64)
		dst, errDst := strconv.ParseInt(fields[1], 10, 64)
		weight, errW := strconv.ParseFloat(fields[2], 64)
		if errSrc != nil || errDst != nil || errW != nil {
			continue
		}
		edges = append(edges, idmap.RawEdge{Src: src, Dst: dst, Weight: weight})
	}
	return edges
}

// ParseSeeds reads a single line of whitespace/comma-separated integers as
// the seed set. Unparseable tokens are skipped silently.
func ParseSeeds(line string) []int64 {
	var seeds []int64
	for _, f := range splitFields(line) {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			continue
		}
		seeds = append(seeds, id)
	}
	return seeds
}

// ReadManualSession reads a full manual-entry session from r: the edges
// block (terminated by `end` or EOF) followed by a single seeds line. If no
// seeds line follows (programmatic input hit EOF during the edges block),
// Seeds is left empty — the facade's personalization falls back to uniform,
// per spec.md §4.3.
func ReadManualSession(r io.Reader) ManualResult {
	scanner := bufio.NewScanner(r)
	var edges []idmap.RawEdge
	var seedLine string
	sawSeedLine := false

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, manualEndSentinel) {
			break
		}
		fields := splitFields(line)
		if len(fields) == 3 {
			src, errSrc := strconv.ParseInt(fields[0], 10, 64)
			dst, errDst := strconv.ParseInt(fields[1], 10, 64)
			weight, errW := strconv.ParseFloat(fields[2], 64)
			if errSrc == nil && errDst == nil && errW == nil {
				edges = append(edges, idmap.RawEdge{Src: src, Dst: dst, Weight: weight})
				continue
			}
		}
		// Doesn't parse as an edge triple: treat as the seeds line.
		seedLine = line
		sawSeedLine = true
		break
	}

	if !sawSeedLine && scanner.Scan() {
		seedLine = strings.TrimSpace(scanner.Text())
	}

	return ManualResult{Edges: edges, Seeds: ParseSeeds(seedLine)}
}
