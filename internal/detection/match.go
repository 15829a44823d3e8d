package detection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// ReferenceCatalog is any read-only tabular collection exposing 2D angular
// positions per record, in the same frame and units as the peak positions
// (the caller's responsibility). The catalog package's PositionView is the
// canonical implementation.
type ReferenceCatalog interface {
	// Len returns the number of records.
	Len() int

	// Position returns the (x, y) position of record i in degrees.
	Position(i int) (x, y float64)
}

// MatchNearest associates every peak of a table with its nearest
// reference-catalog record, e.g. the halo causing the dipole.
//
// A k-d tree is built over the catalog positions; each peak is matched to
// the single nearest record by Euclidean distance in the shared 2D angular
// frame. Distance ties resolve to the tree's deterministic traversal for a
// given build order (unspecified beyond determinism).
//
// Returns a new table with the match column set; the input table and the
// catalog are not modified. Fails with EmptyCatalogError if the catalog has
// zero records.
func MatchNearest(table *PeakTable, catalog ReferenceCatalog) (*PeakTable, error) {
	if table == nil {
		return nil, fmt.Errorf("match nearest: nil peak table")
	}
	if catalog == nil || catalog.Len() == 0 {
		return nil, &EmptyCatalogError{}
	}

	points := make(catalogPoints, catalog.Len())
	for i := 0; i < catalog.Len(); i++ {
		x, y := catalog.Position(i)
		points[i] = catalogPoint{x: x, y: y, index: i}
	}
	tree := kdtree.New(points, false)

	matched := &PeakTable{
		Peaks:        make([]Peak, len(table.Peaks)),
		Count:        table.Count,
		EdgeRejected: table.EdgeRejected,
		Provenance:   table.Provenance,
	}
	copy(matched.Peaks, table.Peaks)

	for i := range matched.Peaks {
		query := catalogPoint{x: matched.Peaks[i].XDeg, y: matched.Peaks[i].YDeg, index: -1}
		nearest, dist2 := tree.Nearest(query)
		record := nearest.(catalogPoint)
		matched.Peaks[i].Match = &Match{
			Index:    record.index,
			Distance: math.Sqrt(dist2),
		}
	}
	return matched, nil
}

// catalogPoint is a catalog record's position plus its record index,
// satisfying kdtree.Comparable. Distance is the squared Euclidean distance,
// per the kdtree contract.
type catalogPoint struct {
	x, y  float64
	index int
}

func (p catalogPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(catalogPoint)
	switch d {
	case 0:
		return p.x - q.x
	default:
		return p.y - q.y
	}
}

func (p catalogPoint) Dims() int { return 2 }

func (p catalogPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(catalogPoint)
	dx, dy := p.x-q.x, p.y-q.y
	return dx*dx + dy*dy
}

// catalogPoints satisfies kdtree.Interface for tree construction.
type catalogPoints []catalogPoint

func (p catalogPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p catalogPoints) Len() int                      { return len(p) }
func (p catalogPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}
func (p catalogPoints) Pivot(d kdtree.Dim) int {
	return catalogPlane{Dim: d, catalogPoints: p}.Pivot()
}

// catalogPlane sorts catalogPoints along one dimension during construction.
type catalogPlane struct {
	kdtree.Dim
	catalogPoints
}

func (p catalogPlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.catalogPoints[i].x < p.catalogPoints[j].x
	default:
		return p.catalogPoints[i].y < p.catalogPoints[j].y
	}
}

func (p catalogPlane) Pivot() int {
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (p catalogPlane) Slice(start, end int) kdtree.SortSlicer {
	p.catalogPoints = p.catalogPoints[start:end]
	return p
}

func (p catalogPlane) Swap(i, j int) {
	p.catalogPoints[i], p.catalogPoints[j] = p.catalogPoints[j], p.catalogPoints[i]
}
