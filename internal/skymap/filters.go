package skymap

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// FilterKind names one of the supported 2D kernels.
type FilterKind string

// Supported kernel kinds. All are parameterised by a scale in arc-minutes;
// the third-derivative kernel additionally takes a direction.
const (
	GaussianHighPass        FilterKind = "gaussian_high_pass"
	GaussianThirdDerivative FilterKind = "gaussian_third_derivative"
	GaussianLowPass         FilterKind = "gaussian_low_pass"
)

// Directions for the third-derivative kernel.
const (
	DirectionX = 1 // differentiate along x (columns)
	DirectionY = 2 // differentiate along y (rows)
)

// FilterConfig describes one named 2D kernel application.
type FilterConfig struct {
	// Kind selects the kernel.
	Kind FilterKind `json:"kind"`

	// Scale is the kernel width in arc-minutes.
	Scale float64 `json:"scale"`

	// Direction selects the derivative axis for the third-derivative kernel
	// (DirectionX or DirectionY). Ignored by the other kinds.
	Direction int `json:"direction,omitempty"`
}

// SigmaPixels converts a kernel scale in arc-minutes to a Gaussian sigma in
// pixels for a field of the given resolution and opening angle.
//
// The result is clamped below at one pixel: a sub-pixel Gaussian discretises
// to the identity kernel, which would make the high-pass stage vanish.
func SigmaPixels(scaleArcmin float64, npix int, openingAngleDeg float64) float64 {
	sigma := scaleArcmin * float64(npix) / (60 * openingAngleDeg)
	if sigma < 1 {
		return 1
	}
	return sigma
}

// Convolve applies a named kernel configuration to a square grid and returns
// a new grid; the input is never modified.
//
// Parameters:
//   - cfg: Kernel kind, scale [arcmin] and (for the third derivative) axis.
//   - npix: Expected resolution of the grid (pixels per side).
//   - openingAngleDeg: Angular extent of the grid in degrees.
//   - src: Input grid. Must be npix x npix.
//
// Borders are handled by clamping (edge replication). Returns
// ShapeMismatchError for grids of the wrong shape and a plain error for an
// invalid configuration.
func Convolve(cfg FilterConfig, npix int, openingAngleDeg float64, src *mat.Dense) (*mat.Dense, error) {
	if src == nil {
		return nil, fmt.Errorf("convolve %s: nil grid", cfg.Kind)
	}
	r, c := src.Dims()
	if r != npix || c != npix {
		return nil, &ShapeMismatchError{
			Op:   fmt.Sprintf("convolve %s", cfg.Kind),
			Want: fmt.Sprintf("%dx%d", npix, npix),
			Got:  fmt.Sprintf("%dx%d", r, c),
		}
	}
	if cfg.Scale <= 0 {
		return nil, fmt.Errorf("convolve %s: scale must be positive, got %g", cfg.Kind, cfg.Scale)
	}

	sigma := SigmaPixels(cfg.Scale, npix, openingAngleDeg)
	gauss := gaussianKernel(sigma)

	switch cfg.Kind {
	case GaussianLowPass:
		return convolveSeparable(src, gauss, gauss), nil

	case GaussianHighPass:
		low := convolveSeparable(src, gauss, gauss)
		out := mat.NewDense(npix, npix, nil)
		out.Sub(src, low)
		return out, nil

	case GaussianThirdDerivative:
		deriv := gaussianThirdDerivKernel(sigma)
		switch cfg.Direction {
		case DirectionX:
			return convolveSeparable(src, deriv, gauss), nil
		case DirectionY:
			return convolveSeparable(src, gauss, deriv), nil
		default:
			return nil, fmt.Errorf("convolve %s: direction must be %d (x) or %d (y), got %d",
				cfg.Kind, DirectionX, DirectionY, cfg.Direction)
		}

	default:
		return nil, fmt.Errorf("unknown filter kind %q", cfg.Kind)
	}
}

// Abs returns a new grid holding the elementwise absolute value of src.
func Abs(src *mat.Dense) *mat.Dense {
	r, c := src.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, math.Abs(src.At(i, j)))
		}
	}
	return out
}

// gaussianKernel samples a normalised 1D Gaussian at integer offsets.
//
// The kernel radius is max(1, ceil(4*sigma)) and the weights are normalised
// to unit sum, so a constant field passes through unchanged.
func gaussianKernel(sigma float64) []float64 {
	radius := kernelRadius(sigma)
	k := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		w := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+radius] = w
		sum += w
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// gaussianThirdDerivKernel samples the third derivative of a unit-area 1D
// Gaussian at integer offsets:
//
//	g'''(x) = (3*sigma^2*x - x^3) / sigma^6 * g(x)
//
// The kernel is odd, so its weights sum to zero over the symmetric window and
// a constant field maps to zero. No further normalisation is applied; the
// detection pipeline compares filtered amplitudes only against thresholds and
// the filtered field's own standard deviation.
func gaussianThirdDerivKernel(sigma float64) []float64 {
	radius := kernelRadius(sigma)
	norm := 1 / (sigma * math.Sqrt(2*math.Pi))
	s2 := sigma * sigma
	k := make([]float64, 2*radius+1)
	for i := -radius; i <= radius; i++ {
		x := float64(i)
		g := norm * math.Exp(-x*x/(2*s2))
		k[i+radius] = (3*s2*x - x*x*x) / (s2 * s2 * s2) * g
	}
	return k
}

// kernelRadius is the half-width of a sampled kernel: four sigma covers all
// but a negligible tail, and a minimum of one keeps sub-pixel scales from
// collapsing to a single tap.
func kernelRadius(sigma float64) int {
	r := int(math.Ceil(4 * sigma))
	if r < 1 {
		r = 1
	}
	return r
}

// convolveSeparable applies a horizontal then a vertical 1D kernel pass with
// clamped borders, returning a new grid.
func convolveSeparable(src *mat.Dense, kx, ky []float64) *mat.Dense {
	n, _ := src.Dims()
	rx := len(kx) / 2
	ry := len(ky) / 2

	horiz := mat.NewDense(n, n, nil)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			var sum float64
			for i := -rx; i <= rx; i++ {
				sum += src.At(y, clamp(x+i, 0, n-1)) * kx[i+rx]
			}
			horiz.Set(y, x, sum)
		}
	}

	out := mat.NewDense(n, n, nil)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			var sum float64
			for i := -ry; i <= ry; i++ {
				sum += horiz.At(clamp(y+i, 0, n-1), x) * ky[i+ry]
			}
			out.Set(y, x, sum)
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
