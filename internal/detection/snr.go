package detection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/sky-tools-mcp/internal/skymap"
)

// SignalToNoise converts peak amplitudes into signal-to-noise ratios using
// the global standard deviation of the reference field.
//
// The reference field must be the filtered field the peaks were detected on,
// not the raw map: the noise estimate has to live in the same units as the
// amplitudes. Sigma is the population standard deviation (divide by N), the
// convention of the simulation pipeline producing these maps.
//
// The result is a z-score-like significance, not a calibrated probability.
// Returns DegenerateRangeError if the reference field is constant
// (sigma == 0).
func SignalToNoise(amplitudes []float64, referenceField *mat.Dense) ([]float64, error) {
	if referenceField == nil {
		return nil, fmt.Errorf("signal-to-noise: nil reference field")
	}
	values := skymap.GridValues(referenceField)
	if len(values) == 0 {
		return nil, fmt.Errorf("signal-to-noise: empty reference field")
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	sigma := math.Sqrt(ss / float64(len(values)))
	if sigma == 0 {
		return nil, &DegenerateRangeError{Op: "signal-to-noise", Value: mean}
	}

	snr := make([]float64, len(amplitudes))
	for i, a := range amplitudes {
		snr[i] = a / sigma
	}
	return snr, nil
}
