package skymap

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DefaultVariant is the name of the unfiltered map every field starts with.
const DefaultVariant = "orig"

// Field is the capability interface the detection pipeline consumes.
//
// Any field representation exposing resolution, opening angle, read access to
// named variants and the named-filter convolution is usable by the pipeline;
// *SkyField is the canonical implementation.
type Field interface {
	// Resolution returns the number of pixels per side of the square grid.
	Resolution() int

	// OpeningAngle returns the angular extent of the field in degrees.
	OpeningAngle() float64

	// Source returns an identifier for the map's origin (typically the file
	// path it was loaded from). Used as provenance on detection results.
	Source() string

	// Variant returns the read-only grid data of a named variant.
	Variant(name string) (*mat.Dense, error)

	// ApplyNamedFilter applies a named kernel configuration to an existing
	// variant and returns the resulting grid. The field itself is not
	// modified; retaining the result as a new variant is the caller's choice.
	ApplyNamedFilter(cfg FilterConfig, source string) (*mat.Dense, error)
}

// SkyField is a square 2D grid of scalar sky values plus angular metadata.
//
// A field holds one or more named variants sharing the same grid shape: the
// raw map ("orig") and any filtered maps derived from it. Variants are
// immutable once added. SkyField is safe for concurrent use.
type SkyField struct {
	npix         int
	openingAngle float64 // [deg]
	source       string

	mu       sync.RWMutex
	variants map[string]*mat.Dense
}

// New creates a SkyField from raw grid data.
//
// Parameters:
//   - data: Square grid of sky values; stored as the "orig" variant.
//   - openingAngleDeg: Angular extent of the field in degrees. Must be > 0.
//   - source: Identifier for the map's origin (e.g. file path). May be empty.
//
// Returns ShapeMismatchError if the grid is not square, and a plain error for
// empty grids or a non-positive opening angle.
func New(data *mat.Dense, openingAngleDeg float64, source string) (*SkyField, error) {
	if data == nil {
		return nil, fmt.Errorf("new sky field: nil grid data")
	}
	r, c := data.Dims()
	if r == 0 || c == 0 {
		return nil, fmt.Errorf("new sky field: empty grid")
	}
	if r != c {
		return nil, &ShapeMismatchError{
			Op:   "new sky field",
			Want: fmt.Sprintf("%dx%d", r, r),
			Got:  fmt.Sprintf("%dx%d", r, c),
		}
	}
	if openingAngleDeg <= 0 {
		return nil, fmt.Errorf("new sky field: opening angle must be positive, got %g", openingAngleDeg)
	}

	f := &SkyField{
		npix:         r,
		openingAngle: openingAngleDeg,
		source:       source,
		variants:     make(map[string]*mat.Dense),
	}
	f.variants[DefaultVariant] = data
	return f, nil
}

// Resolution returns the number of pixels per side.
func (f *SkyField) Resolution() int { return f.npix }

// OpeningAngle returns the angular extent of the field in degrees.
func (f *SkyField) OpeningAngle() float64 { return f.openingAngle }

// Source returns the identifier the field was created with.
func (f *SkyField) Source() string { return f.source }

// PixelLength returns the angular size of one pixel in degrees.
func (f *SkyField) PixelLength() float64 { return f.openingAngle / float64(f.npix) }

// Variant returns the grid data of a named variant. The returned matrix is
// shared, not copied; callers must treat it as read-only.
func (f *SkyField) Variant(name string) (*mat.Dense, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m, ok := f.variants[name]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q (have %v)", name, f.variantNamesLocked())
	}
	return m, nil
}

// HasVariant reports whether a variant of the given name exists.
func (f *SkyField) HasVariant(name string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.variants[name]
	return ok
}

// VariantNames returns the names of all variants in sorted order.
func (f *SkyField) VariantNames() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.variantNamesLocked()
}

func (f *SkyField) variantNamesLocked() []string {
	names := make([]string, 0, len(f.variants))
	for name := range f.variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AddVariant attaches a new named variant to the field.
//
// Variants are immutable: adding a name that already exists is an error.
// Returns ShapeMismatchError if the grid shape differs from the field's.
func (f *SkyField) AddVariant(name string, data *mat.Dense) error {
	if name == "" {
		return fmt.Errorf("add variant: empty name")
	}
	if data == nil {
		return fmt.Errorf("add variant %q: nil grid data", name)
	}
	r, c := data.Dims()
	if r != f.npix || c != f.npix {
		return &ShapeMismatchError{
			Op:   fmt.Sprintf("add variant %q", name),
			Want: fmt.Sprintf("%dx%d", f.npix, f.npix),
			Got:  fmt.Sprintf("%dx%d", r, c),
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.variants[name]; ok {
		return fmt.Errorf("add variant: %q already exists", name)
	}
	f.variants[name] = data
	return nil
}

// ApplyNamedFilter applies a kernel configuration to an existing variant and
// returns the new grid. See Convolve for the supported kernels.
func (f *SkyField) ApplyNamedFilter(cfg FilterConfig, source string) (*mat.Dense, error) {
	src, err := f.Variant(source)
	if err != nil {
		return nil, err
	}
	return Convolve(cfg, f.npix, f.openingAngle, src)
}

// Stats summarises the value distribution of a grid.
type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"` // population standard deviation
}

// GridStats computes min, max, mean and population standard deviation of a
// grid. The population convention (divide by N, no Bessel correction) matches
// the significance scoring in the detection package.
func GridStats(m *mat.Dense) Stats {
	v := GridValues(m)
	var sum float64
	for _, x := range v {
		sum += x
	}
	mean := sum / float64(len(v))

	var ss float64
	for _, x := range v {
		d := x - mean
		ss += d * d
	}

	return Stats{
		Min:  floats.Min(v),
		Max:  floats.Max(v),
		Mean: mean,
		Std:  math.Sqrt(ss / float64(len(v))),
	}
}

// GridValues returns the grid's values as a flat slice in row-major order.
// The backing array is shared when the matrix is contiguous; treat the result
// as read-only.
func GridValues(m *mat.Dense) []float64 {
	r, c := m.Dims()
	raw := m.RawMatrix()
	if raw.Stride == c {
		return raw.Data[:r*c]
	}
	v := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		v = append(v, raw.Data[i*raw.Stride:i*raw.Stride+c]...)
	}
	return v
}
