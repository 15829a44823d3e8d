// Package skymap provides the sky-field data container and its filtering
// primitives for the MCP server.
//
// A SkyField is a square grid of scalar values (for example an ISW
// temperature map) spanning a known opening angle on the sky. Filtering an
// existing variant of a field produces a new, immutable named variant; the
// unfiltered map a field starts with is always called "orig".
//
// # Coordinate System
//
// Grids are indexed (row, col) with row 0 at the top. Angular positions use
// the field's own frame:
//   - x [deg]: col * opening_angle / npix
//   - y [deg]: row * opening_angle / npix
//
// All variants of the same field share resolution and opening angle; grid
// data of a different shape is rejected with ShapeMismatchError.
//
// # Filters
//
// Convolve applies one of three named kernels, all parameterised by a scale
// in arc-minutes:
//
//   - gaussian_low_pass: separable Gaussian smoothing
//   - gaussian_high_pass: input minus its Gaussian-smoothed self
//   - gaussian_third_derivative: sampled third derivative of a Gaussian along
//     one principal axis (direction 1 = x, 2 = y), Gaussian-smoothed along
//     the other
//
// Kernel scales are converted to pixels via npix / (60 * opening_angle) and
// clamped below at one pixel; a sub-pixel Gaussian discretises to the
// identity kernel, which would silently zero the high-pass stage.
//
// Convolution borders use clamped (replicated) edge values. Peaks within one
// kernel width of the border are unreliable for exactly this reason and are
// rejected downstream by the detection package.
//
// # Persistence
//
// Maps are read and written as numpy .npy files (the on-disk format of the
// simulation pipeline that produces them). MapCache is safe for concurrent
// use; individual variants are read-only once created.
package skymap
