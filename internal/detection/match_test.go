package detection

import (
	"errors"
	"math"
	"testing"
)

// sliceCatalog is a minimal in-memory ReferenceCatalog for tests.
type sliceCatalog [][2]float64

func (c sliceCatalog) Len() int                       { return len(c) }
func (c sliceCatalog) Position(i int) (x, y float64) { return c[i][0], c[i][1] }

func testTable(positions ...[2]float64) *PeakTable {
	peaks := make([]Peak, len(positions))
	for i, p := range positions {
		peaks[i] = Peak{Amplitude: float64(10 - i), XDeg: p[0], YDeg: p[1]}
	}
	return &PeakTable{Peaks: peaks, Count: len(peaks)}
}

func TestMatchNearest_ExactPositions(t *testing.T) {
	table := testTable([2]float64{1, 1}, [2]float64{5, 5})
	cat := sliceCatalog{{5, 5}, {1, 1}, {9, 0}}

	matched, err := MatchNearest(table, cat)
	if err != nil {
		t.Fatalf("MatchNearest failed: %v", err)
	}

	if matched.Peaks[0].Match == nil || matched.Peaks[1].Match == nil {
		t.Fatal("matches not set")
	}
	if matched.Peaks[0].Match.Index != 1 {
		t.Errorf("peak 0 match index: got %d, want 1", matched.Peaks[0].Match.Index)
	}
	if matched.Peaks[1].Match.Index != 0 {
		t.Errorf("peak 1 match index: got %d, want 0", matched.Peaks[1].Match.Index)
	}
	if matched.Peaks[0].Match.Distance != 0 || matched.Peaks[1].Match.Distance != 0 {
		t.Errorf("exact matches should have zero distance, got %g and %g",
			matched.Peaks[0].Match.Distance, matched.Peaks[1].Match.Distance)
	}
}

func TestMatchNearest_NearestByEuclideanDistance(t *testing.T) {
	table := testTable([2]float64{3, 4})
	cat := sliceCatalog{{0, 0}, {3, 0}, {10, 10}}

	matched, err := MatchNearest(table, cat)
	if err != nil {
		t.Fatalf("MatchNearest failed: %v", err)
	}

	m := matched.Peaks[0].Match
	if m.Index != 1 {
		t.Errorf("match index: got %d, want 1", m.Index)
	}
	// Distance to (3,0) is exactly 4; reported straight-line, not squared.
	if math.Abs(m.Distance-4) > 1e-12 {
		t.Errorf("match distance: got %g, want 4", m.Distance)
	}
}

func TestMatchNearest_SingleRecordCatalog(t *testing.T) {
	table := testTable([2]float64{1, 1}, [2]float64{8, 2})
	cat := sliceCatalog{{4, 4}}

	matched, err := MatchNearest(table, cat)
	if err != nil {
		t.Fatalf("MatchNearest failed: %v", err)
	}
	for i, p := range matched.Peaks {
		if p.Match == nil || p.Match.Index != 0 {
			t.Errorf("peak %d: every peak should match the only record, got %+v", i, p.Match)
		}
	}
}

func TestMatchNearest_EmptyCatalog(t *testing.T) {
	table := testTable([2]float64{1, 1})

	_, err := MatchNearest(table, sliceCatalog{})
	var emptyErr *EmptyCatalogError
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyCatalogError, got %v", err)
	}

	_, err = MatchNearest(table, nil)
	if !errors.As(err, &emptyErr) {
		t.Fatalf("expected EmptyCatalogError for nil catalog, got %v", err)
	}
}

func TestMatchNearest_InputTableUnmodified(t *testing.T) {
	table := testTable([2]float64{1, 1})
	table.Provenance = Provenance{Source: "map.npy", KernelWidth: 5}
	cat := sliceCatalog{{1, 1}}

	matched, err := MatchNearest(table, cat)
	if err != nil {
		t.Fatalf("MatchNearest failed: %v", err)
	}

	if table.Peaks[0].Match != nil {
		t.Error("input table gained a match; MatchNearest must not modify it")
	}
	if matched == table {
		t.Error("MatchNearest should return a new table")
	}
	if matched.Provenance != table.Provenance {
		t.Errorf("provenance not carried over: %+v vs %+v", matched.Provenance, table.Provenance)
	}
	if matched.Count != table.Count {
		t.Errorf("count not carried over: %d vs %d", matched.Count, table.Count)
	}
}

func TestMatchNearest_NilTable(t *testing.T) {
	if _, err := MatchNearest(nil, sliceCatalog{{0, 0}}); err == nil {
		t.Error("expected error for nil table")
	}
}
