package detection

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/sky-tools-mcp/internal/skymap"
)

// FilteredVariantSuffix is appended to a variant name to label the output of
// the dipole filter cascade (high-pass, third derivative, low-pass).
const FilteredVariantSuffix = "_ghpf_g3df_glpf"

// FilteredVariantName returns the variant name under which the dipole filter
// cascade output of the given source variant is stored.
func FilteredVariantName(variant string) string {
	return variant + FilteredVariantSuffix
}

// Peak is one detected dipole signal.
type Peak struct {
	// Amplitude is the peak's value on the field it was detected on.
	Amplitude float64 `json:"amplitude"`

	// XDeg, YDeg are the peak position in degrees within the field's frame.
	XDeg float64 `json:"x_deg"`
	YDeg float64 `json:"y_deg"`

	// XPix, YPix are the position in pixel units, rounded to the nearest
	// integer.
	XPix int `json:"x_pix"`
	YPix int `json:"y_pix"`

	// SNR is the amplitude divided by the detection field's population
	// standard deviation.
	SNR float64 `json:"snr"`

	// Match is the nearest reference-catalog record, set by MatchNearest.
	Match *Match `json:"match,omitempty"`
}

// Match associates a peak with its nearest reference-catalog record.
type Match struct {
	// Index is the record's position in the catalog (insertion order).
	Index int `json:"index"`

	// Distance is the Euclidean distance to the record in degrees.
	Distance float64 `json:"distance"`
}

// Provenance records how a peak table was produced.
type Provenance struct {
	// Source identifies the sky map the peaks were detected on.
	Source string `json:"source"`

	// FiltersApplied reports whether the dipole filter cascade ran before
	// detection.
	FiltersApplied bool `json:"filters_applied"`

	// KernelWidth is the smoothing kernel width in arc-minutes.
	KernelWidth float64 `json:"kernel_width"`
}

// PeakTable is the ordered result of one detection run. It owns its rows;
// row identity is positional. Tables are immutable after creation except for
// the match column added by MatchNearest, which returns a new table.
type PeakTable struct {
	// Peaks are the detected peaks, ordered by amplitude descending.
	Peaks []Peak `json:"peaks"`

	// Count is the number of peaks in the table.
	Count int `json:"count"`

	// EdgeRejected is the number of peaks removed by edge rejection.
	EdgeRejected int `json:"edge_rejected"`

	// Provenance records the detection parameters.
	Provenance Provenance `json:"provenance"`
}

// DetectOptions configure a detection run. The zero value is completed by
// DetectDipoles with the documented defaults.
type DetectOptions struct {
	// Variant is the source variant to detect on. Default "orig".
	Variant string

	// KernelWidth is the smoothing kernel width in arc-minutes. Default 5.
	KernelWidth float64

	// Direction selects the third-derivative axis:
	// skymap.DirectionX (default) or skymap.DirectionY.
	Direction int

	// NBins is the number of threshold bins. Default 100.
	NBins int

	// SkipFilters detects directly on the source variant instead of running
	// the dipole filter cascade first. Intended for maps filtered in an
	// earlier run.
	SkipFilters bool
}

func (o DetectOptions) withDefaults() DetectOptions {
	if o.Variant == "" {
		o.Variant = skymap.DefaultVariant
	}
	if o.KernelWidth == 0 {
		o.KernelWidth = 5
	}
	if o.Direction == 0 {
		o.Direction = skymap.DirectionX
	}
	if o.NBins == 0 {
		o.NBins = 100
	}
	return o
}

// ApplyDipoleFilter runs the dipole-enhancement filter cascade on a variant
// of a field and returns the resulting grid.
//
// The cascade, in load-bearing order:
//
//  1. Gaussian high-pass at the kernel scale (removes large-scale gradients
//     that would otherwise dominate the derivative response).
//  2. Gaussian third derivative at the same scale, along the given axis.
//  3. Elementwise absolute value.
//  4. Gaussian low-pass at the same scale (smooths the derivative magnitude
//     into one detectable blob per dipole).
//
// Intermediate grids are not retained and the field is not modified; storing
// the result as a new variant is the caller's choice.
func ApplyDipoleFilter(field skymap.Field, variant string, kernelWidthArcmin float64, direction int) (*mat.Dense, error) {
	highPassed, err := field.ApplyNamedFilter(skymap.FilterConfig{
		Kind:  skymap.GaussianHighPass,
		Scale: kernelWidthArcmin,
	}, variant)
	if err != nil {
		return nil, fmt.Errorf("dipole filter: %w", err)
	}

	npix := field.Resolution()
	angle := field.OpeningAngle()

	deriv, err := skymap.Convolve(skymap.FilterConfig{
		Kind:      skymap.GaussianThirdDerivative,
		Scale:     kernelWidthArcmin,
		Direction: direction,
	}, npix, angle, highPassed)
	if err != nil {
		return nil, fmt.Errorf("dipole filter: %w", err)
	}

	smoothed, err := skymap.Convolve(skymap.FilterConfig{
		Kind:  skymap.GaussianLowPass,
		Scale: kernelWidthArcmin,
	}, npix, angle, skymap.Abs(deriv))
	if err != nil {
		return nil, fmt.Errorf("dipole filter: %w", err)
	}
	return smoothed, nil
}

// DetectDipoles runs the full detection pipeline on a sky field and returns
// the peak table.
//
// Stages: dipole filter cascade (unless opts.SkipFilters), threshold
// building on the raw source variant, peak location on the filtered field,
// edge rejection, significance scoring. See the package documentation for
// stage semantics.
//
// Errors from any stage surface immediately: DegenerateRangeError for
// constant fields, NoPeaksFoundError when detection (or edge rejection)
// leaves zero peaks.
func DetectDipoles(field skymap.Field, opts DetectOptions) (*PeakTable, error) {
	opts = opts.withDefaults()

	raw, err := field.Variant(opts.Variant)
	if err != nil {
		return nil, err
	}

	detectOn := raw
	if !opts.SkipFilters {
		detectOn, err = ApplyDipoleFilter(field, opts.Variant, opts.KernelWidth, opts.Direction)
		if err != nil {
			return nil, err
		}
	}

	// Thresholds come from the unfiltered map, never the filtered variant.
	thresholds, err := BuildThresholds(raw, opts.NBins)
	if err != nil {
		return nil, err
	}

	npix := field.Resolution()
	angle := field.OpeningAngle()

	amplitudes, positions, err := LocatePeaks(detectOn, thresholds, angle)
	if err != nil {
		if _, ok := err.(*NoPeaksFoundError); ok {
			return nil, &NoPeaksFoundError{Source: field.Source()}
		}
		return nil, err
	}

	amplitudes, positions, removed := RejectEdgePeaks(npix, angle, opts.KernelWidth, amplitudes, positions)
	if len(amplitudes) == 0 {
		return nil, &NoPeaksFoundError{Source: field.Source()}
	}

	snr, err := SignalToNoise(amplitudes, detectOn)
	if err != nil {
		return nil, err
	}

	peaks := make([]Peak, len(amplitudes))
	for i := range amplitudes {
		x, y := positions[i][0], positions[i][1]
		peaks[i] = Peak{
			Amplitude: amplitudes[i],
			XDeg:      x,
			YDeg:      y,
			XPix:      int(math.Round(x * float64(npix) / angle)),
			YPix:      int(math.Round(y * float64(npix) / angle)),
			SNR:       snr[i],
		}
	}

	return &PeakTable{
		Peaks:        peaks,
		Count:        len(peaks),
		EdgeRejected: removed,
		Provenance: Provenance{
			Source:         field.Source(),
			FiltersApplied: !opts.SkipFilters,
			KernelWidth:    opts.KernelWidth,
		},
	}, nil
}

// Save writes the table to a JSON file.
func (t *PeakTable) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode peak table: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write peak table: %w", err)
	}
	return nil
}

// LoadPeakTable reads a table previously written by Save.
func LoadPeakTable(path string) (*PeakTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read peak table: %w", err)
	}
	var t PeakTable
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode peak table %s: %w", path, err)
	}
	return &t, nil
}

// Positions returns the (x, y) positions of all peaks in degrees.
func (t *PeakTable) Positions() [][2]float64 {
	pos := make([][2]float64, len(t.Peaks))
	for i, p := range t.Peaks {
		pos[i] = [2]float64{p.XDeg, p.YDeg}
	}
	return pos
}
