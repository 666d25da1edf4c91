package ingest

import (
	"strings"
	"testing"
)

func TestParseManualEdges_EndSentinel(t *testing.T) {
	input := "1 2 3\n4,5,6\nend\n7 8 9\n"
	edges := ParseManualEdges(strings.NewReader(input))
	if len(edges) != 2 {
		t.Fatalf("len(edges) = %d, want 2 (stop at end sentinel)", len(edges))
	}
	if edges[0].Src != 1 || edges[0].Dst != 2 || edges[0].Weight != 3 {
		t.Errorf("edges[0] = %+v", edges[0])
	}
	if edges[1].Src != 4 || edges[1].Dst != 5 || edges[1].Weight != 6 {
		t.Errorf("edges[1] = %+v", edges[1])
	}
}

func TestParseManualEdges_EOFTermination(t *testing.T) {
	input := "1 2 3\n4 5 6\n"
	edges := ParseManualEdges(strings.NewReader(input))
	if len(edges) != 2 {
		t.Fatalf("len(edges) = %d, want 2", len(edges))
	}
}

func TestParseManualEdges_MalformedSkipped(t *testing.T) {
	input := "1 2 3\nbad line here\n4 5\n6 7 8\n"
	edges := ParseManualEdges(strings.NewReader(input))
	if len(edges) != 2 {
		t.Fatalf("len(edges) = %d, want 2", len(edges))
	}
}

func TestParseSeeds(t *testing.T) {
	seeds := ParseSeeds("1, 2 3\t4")
	want := []int64{1, 2, 3, 4}
	if len(seeds) != len(want) {
		t.Fatalf("len(seeds) = %d, want %d", len(seeds), len(want))
	}
	for i := range want {
		if seeds[i] != want[i] {
			t.Errorf("seeds[%d] = %d, want %d", i, seeds[i], want[i])
		}
	}
}

func TestParseSeeds_SkipsUnparseable(t *testing.T) {
	seeds := ParseSeeds("1 abc 3")
	if len(seeds) != 2 {
		t.Fatalf("len(seeds) = %d, want 2", len(seeds))
	}
}

func TestReadManualSession_EdgesThenSeeds(t *testing.T) {
	input := "1 2 3\n4 5 6\nend\n10 20\n"
	result := ReadManualSession(strings.NewReader(input))
	if len(result.Edges) != 2 {
		t.Fatalf("len(Edges) = %d, want 2", len(result.Edges))
	}
	if len(result.Seeds) != 2 || result.Seeds[0] != 10 || result.Seeds[1] != 20 {
		t.Errorf("Seeds = %v, want [10 20]", result.Seeds)
	}
}

func TestReadManualSession_NoSeedsLineAtEOF(t *testing.T) {
	input := "1 2 3\n"
	result := ReadManualSession(strings.NewReader(input))
	if len(result.Edges) != 1 {
		t.Fatalf("len(Edges) = %d, want 1", len(result.Edges))
	}
	if len(result.Seeds) != 0 {
		t.Errorf("expected no seeds, got %v", result.Seeds)
	}
}
