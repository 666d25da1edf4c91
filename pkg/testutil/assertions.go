package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// AssertSumsToOne verifies that scores sum to 1 within tol, the invariant
// every normal-return power-iteration result must satisfy (spec.md §8,
// property 1).
func AssertSumsToOne(t *testing.T, scores []float64, tol float64) {
	t.Helper()
	var sum float64
	for _, s := range scores {
		sum += s
	}
	if math.Abs(sum-1) > tol {
		t.Errorf("scores sum to %v, want 1 (+/- %v)", sum, tol)
	}
}

// AssertNonNegative verifies every score is >= 0.
func AssertNonNegative(t *testing.T, scores []float64) {
	t.Helper()
	for i, s := range scores {
		if s < 0 {
			t.Errorf("scores[%d] = %v, want >= 0", i, s)
		}
	}
}

// AssertRankBefore verifies that node a's score strictly exceeds node b's,
// i.e. a would be ranked ahead of b in a top-K report.
func AssertRankBefore(t *testing.T, scores []float64, a, b int) {
	t.Helper()
	if !(scores[a] > scores[b]) {
		t.Errorf("expected scores[%d]=%v > scores[%d]=%v", a, scores[a], b, scores[b])
	}
}

// AssertApproxEqual verifies two score vectors agree within tol at every
// index (L-infinity), used for warm-start-vs-cold-start comparisons
// (spec.md §8, scenario S3).
func AssertApproxEqual(t *testing.T, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Abs(got[i]-want[i]) > tol {
			t.Errorf("scores[%d] = %v, want %v (+/- %v)", i, got[i], want[i], tol)
		}
	}
}

// AssertJSONEqual compares two values after JSON round-tripping. Useful for
// comparing structs that may have different Go representations but
// equivalent JSON forms.
func AssertJSONEqual(t *testing.T, expected, actual interface{}) {
	t.Helper()

	expectedJSON, err := json.Marshal(expected)
	if err != nil {
		t.Fatalf("failed to marshal expected: %v", err)
	}

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		t.Fatalf("failed to marshal actual: %v", err)
	}

	if string(expectedJSON) != string(actualJSON) {
		t.Errorf("JSON mismatch:\nexpected: %s\nactual:   %s", expectedJSON, actualJSON)
	}
}

// Golden file helpers

// GoldenFile handles golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()

	if g.update {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) != actual {
		expectedLines := strings.Split(string(expected), "\n")
		actualLines := strings.Split(actual, "\n")

		for i := 0; i < len(expectedLines) || i < len(actualLines); i++ {
			var expLine, actLine string
			if i < len(expectedLines) {
				expLine = expectedLines[i]
			}
			if i < len(actualLines) {
				actLine = actualLines[i]
			}
			if expLine != actLine {
				g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s\n\nFull diff (expected vs actual):\n%s\nvs\n%s",
					i+1, expLine, actLine, string(expected), actual)
				return
			}
		}
		g.t.Errorf("golden file mismatch (length differs)")
	}
}

// AssertJSON compares actual value as JSON against the golden file.
func (g *GoldenFile) AssertJSON(actual interface{}) {
	g.t.Helper()

	data, err := json.MarshalIndent(actual, "", "  ")
	if err != nil {
		g.t.Fatalf("failed to marshal actual value: %v", err)
	}

	g.Assert(string(data))
}

// TopKIndexSet helpers

// IndexSet returns the set of node indices in a slice of eval.TopKEntry-like
// ranks, for the top-K overlap comparisons testable property 6 requires
// (comparing the power solver's and Monte-Carlo solver's top-20 sets).
func IndexSet(indices []int) map[int]struct{} {
	set := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		set[i] = struct{}{}
	}
	return set
}

// OverlapFraction returns |a ∩ b| / max(len(a), len(b)) as a ranking-
// equivalence measure between two top-K index sets.
func OverlapFraction(a, b []int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := IndexSet(a)
	var hits int
	for _, i := range b {
		if _, ok := setA[i]; ok {
			hits++
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return float64(hits) / float64(denom)
}
