package skymap

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strconv"

	"github.com/anthonynsimon/bild/blur"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// RenderResult contains a colormapped map preview encoded as base64 PNG.
type RenderResult struct {
	// Width of the output image in pixels.
	Width int `json:"width"`

	// Height of the output image in pixels.
	Height int `json:"height"`

	// ImageBase64 is the rendered preview encoded as base64 PNG.
	ImageBase64 string `json:"image_base64"`

	// MimeType is always "image/png" for render results.
	MimeType string `json:"mime_type"`

	// Colormap is the colormap that was applied.
	Colormap string `json:"colormap"`

	// Min and Max are the map values mapped to the colormap endpoints.
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Region is a rectangular pixel region: (X1, Y1) inclusive top-left,
// (X2, Y2) exclusive bottom-right.
type Region struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// RenderOptions control map rendering. The zero value renders the full map
// with the "coolwarm" colormap at native resolution.
type RenderOptions struct {
	// Colormap: "coolwarm" (diverging, default), "viridis" or "gray".
	Colormap string

	// Scale resizes the output by this factor (Lanczos). 0 or 1 = native.
	Scale float64

	// SmoothRadius applies a Gaussian blur of this pixel radius to the
	// preview before cropping. 0 = off. Cosmetic only; detection always runs
	// on the unsmoothed data.
	SmoothRadius float64

	// Region optionally crops the preview to a pixel region.
	Region *Region

	// Markers are angular positions [deg] drawn as crosses, e.g. detected
	// peaks or matched halos.
	Markers [][2]float64

	// MarkerColor is the marker hex color. Default "#00FF00".
	MarkerColor string
}

// RenderMap renders a variant of a sky field to a colormapped PNG preview.
//
// Values are normalised linearly between the variant's minimum and maximum;
// a constant map renders as the colormap midpoint. Colormap stops are blended
// in Lab space for perceptual uniformity.
func RenderMap(field *SkyField, variant string, opts RenderOptions) (*RenderResult, error) {
	if variant == "" {
		variant = DefaultVariant
	}
	grid, err := field.Variant(variant)
	if err != nil {
		return nil, err
	}

	stops, err := colormapStops(opts.Colormap)
	if err != nil {
		return nil, err
	}

	npix := field.Resolution()
	stats := GridStats(grid)
	span := stats.Max - stats.Min

	img := image.NewRGBA(image.Rect(0, 0, npix, npix))
	for y := 0; y < npix; y++ {
		for x := 0; x < npix; x++ {
			t := 0.5
			if span > 0 {
				t = (grid.At(y, x) - stats.Min) / span
			}
			img.Set(x, y, sampleColormap(stops, t))
		}
	}

	var out image.Image = img
	if opts.SmoothRadius > 0 {
		out = blur.Gaussian(out, opts.SmoothRadius)
	}

	if len(opts.Markers) > 0 {
		markerColor, err := parseHexColor(opts.MarkerColor)
		if err != nil {
			markerColor = color.RGBA{0, 255, 0, 255}
		}
		rgba, ok := out.(*image.RGBA)
		if !ok {
			rgba = image.NewRGBA(out.Bounds())
			for y := 0; y < npix; y++ {
				for x := 0; x < npix; x++ {
					rgba.Set(x, y, out.At(x, y))
				}
			}
		}
		angle := field.OpeningAngle()
		for _, pos := range opts.Markers {
			px := int(math.Round(pos[0] * float64(npix) / angle))
			py := int(math.Round(pos[1] * float64(npix) / angle))
			drawCross(rgba, px, py, markerColor)
		}
		out = rgba
	}

	if opts.Region != nil {
		reg := *opts.Region
		if reg.X1 < 0 || reg.Y1 < 0 || reg.X2 > npix || reg.Y2 > npix {
			return nil, fmt.Errorf("render region (%d,%d)-(%d,%d) outside map bounds (0,0)-(%d,%d)",
				reg.X1, reg.Y1, reg.X2, reg.Y2, npix, npix)
		}
		if reg.X1 >= reg.X2 || reg.Y1 >= reg.Y2 {
			return nil, fmt.Errorf("invalid render region: x1 must be < x2, y1 must be < y2")
		}
		out = imaging.Crop(out, image.Rect(reg.X1, reg.Y1, reg.X2, reg.Y2))
	}

	if opts.Scale != 0 && opts.Scale != 1.0 {
		if opts.Scale < 0 {
			return nil, fmt.Errorf("render scale must be positive, got %g", opts.Scale)
		}
		newWidth := int(float64(out.Bounds().Dx()) * opts.Scale)
		newHeight := int(float64(out.Bounds().Dy()) * opts.Scale)
		out = imaging.Resize(out, newWidth, newHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("failed to encode rendered map: %w", err)
	}

	name := opts.Colormap
	if name == "" {
		name = "coolwarm"
	}
	return &RenderResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
		Colormap:    name,
		Min:         stats.Min,
		Max:         stats.Max,
	}, nil
}

// colormapStops returns the colormap's color stops, evenly spaced over [0,1].
func colormapStops(name string) ([]colorful.Color, error) {
	var hexes []string
	switch name {
	case "", "coolwarm":
		// Diverging blue-white-red; the midpoint marks zero on a symmetric
		// temperature map.
		hexes = []string{"#3B4CC0", "#F7F7F7", "#B40426"}
	case "viridis":
		hexes = []string{"#440154", "#3B528B", "#21918C", "#5EC962", "#FDE725"}
	case "gray":
		hexes = []string{"#000000", "#FFFFFF"}
	default:
		return nil, fmt.Errorf("unknown colormap: %s", name)
	}

	stops := make([]colorful.Color, len(hexes))
	for i, h := range hexes {
		c, err := colorful.Hex(h)
		if err != nil {
			return nil, fmt.Errorf("bad colormap stop %s: %w", h, err)
		}
		stops[i] = c
	}
	return stops, nil
}

// sampleColormap maps t in [0,1] onto the stop gradient, blending adjacent
// stops in Lab space.
func sampleColormap(stops []colorful.Color, t float64) color.Color {
	if t <= 0 {
		return toRGBA(stops[0])
	}
	if t >= 1 {
		return toRGBA(stops[len(stops)-1])
	}
	pos := t * float64(len(stops)-1)
	i := int(pos)
	frac := pos - float64(i)
	return toRGBA(stops[i].BlendLab(stops[i+1], frac).Clamped())
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.RGB255()
	return color.RGBA{r, g, b, 255}
}

// drawCross draws a 7px cross marker centered at (x, y), clipped to bounds.
func drawCross(img *image.RGBA, x, y int, c color.RGBA) {
	bounds := img.Bounds()
	for d := -3; d <= 3; d++ {
		if px := x + d; px >= bounds.Min.X && px < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
			img.SetRGBA(px, y, c)
		}
		if py := y + d; py >= bounds.Min.Y && py < bounds.Max.Y && x >= bounds.Min.X && x < bounds.Max.X {
			img.SetRGBA(x, py, c)
		}
	}
}

// parseHexColor parses "#RRGGBB" or "#RRGGBBAA" into a color.
func parseHexColor(s string) (color.RGBA, error) {
	if len(s) != 7 && len(s) != 9 {
		return color.RGBA{}, fmt.Errorf("invalid hex color: %q", s)
	}
	if s[0] != '#' {
		return color.RGBA{}, fmt.Errorf("hex color must start with '#': %q", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	if len(s) == 9 {
		return color.RGBA{uint8(v >> 24), uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 255}, nil
}
