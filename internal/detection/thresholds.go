package detection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/sky-tools-mcp/internal/skymap"
)

// ThresholdSet is an ordered sequence of strictly increasing intensity
// boundaries defining the bins used by the peak locator. A set with N+1
// boundaries defines N half-open bins.
type ThresholdSet struct {
	Boundaries []float64 `json:"boundaries"`
}

// NBins returns the number of bins defined by the set.
func (t *ThresholdSet) NBins() int {
	return len(t.Boundaries) - 1
}

// BuildThresholds derives evenly spaced intensity thresholds spanning the
// observed value range of a raw map.
//
// Parameters:
//   - field: Grid of raw (unfiltered) sky values. Must be non-empty and
//     finite. Thresholds are always built from the unfiltered map so the
//     binning is not biased by the filter response.
//   - nbins: Number of bins; must be >= 1. The result has nbins+1 boundaries.
//
// The boundaries span [min, max + 0.1*|max|]: the upper margin keeps the
// brightest pixel strictly inside the last bin. Relative to max alone the
// margin would fall below max on all-negative maps, so it is taken on the
// magnitude.
//
// Returns DegenerateRangeError for a constant field, and a plain error for
// invalid bin counts or non-finite values.
func BuildThresholds(field *mat.Dense, nbins int) (*ThresholdSet, error) {
	if field == nil {
		return nil, fmt.Errorf("build thresholds: nil field")
	}
	if nbins < 1 {
		return nil, fmt.Errorf("build thresholds: nbins must be >= 1, got %d", nbins)
	}
	values := skymap.GridValues(field)
	if len(values) == 0 {
		return nil, fmt.Errorf("build thresholds: empty field")
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("build thresholds: field contains non-finite value %g", v)
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return nil, &DegenerateRangeError{Op: "build thresholds", Value: lo}
	}

	upper := hi + 0.1*math.Abs(hi)
	boundaries := make([]float64, nbins+1)
	step := (upper - lo) / float64(nbins)
	for i := 0; i <= nbins; i++ {
		boundaries[i] = lo + float64(i)*step
	}
	boundaries[nbins] = upper // exact, independent of accumulation error

	return &ThresholdSet{Boundaries: boundaries}, nil
}
