// Package detection implements the dipole detection and matching pipeline
// for sky maps.
//
// A dipole is a paired positive/negative extremum pattern in a scalar field,
// the imprint of a moving source (for example a halo's transverse motion) on
// a temperature map. The pipeline turns a raw sky map into a table of peak
// candidates with significance scores, and optionally associates each peak
// with the nearest record of a reference catalog.
//
// # Pipeline
//
// Detection runs as a fixed sequence of pure stages, each consuming an
// immutable input and producing a new immutable output:
//
//  1. Threshold building: evenly spaced intensity boundaries spanning the
//     value range of the raw, unfiltered map (never the filtered one, to
//     avoid biasing the binning by the filter response).
//  2. Directional filtering: Gaussian high-pass, directional Gaussian third
//     derivative, elementwise absolute value, Gaussian low-pass. The order
//     is load-bearing: the high-pass removes large-scale gradients that
//     would dominate the derivative response, and the low-pass turns the
//     nonnegative derivative magnitude into a single detectable blob at each
//     true dipole location.
//  3. Peak location: connected regions above each threshold, merged across
//     levels so every physical peak is reported once (see below).
//  4. Edge rejection: peaks within one smoothing length of the map boundary
//     are discarded; convolution artifacts there are indistinguishable from
//     signal at the kernel scale.
//  5. Significance scoring: amplitude divided by the filtered map's
//     population standard deviation (a z-score, not a calibrated
//     probability).
//  6. Catalog matching: nearest catalog record per peak by 2D Euclidean
//     distance in the shared angular frame.
//
// # Peak Merging
//
// Thresholds are processed from the highest boundary downward. Each
// connected region (8-connectivity) that does not yet contain a known peak
// births one at its maximum. When regions merge at a lower threshold, a
// weaker peak born at most one level above the merge is discarded as
// substructure of the stronger peak; peaks that stayed separate for two or
// more levels are kept. This one-bin persistence rule keeps filter sidelobes
// out of the table without suppressing genuinely distinct nearby signals.
//
// # Determinism
//
// All stages are single-threaded pure functions. Plateau argmax ties break
// in row-major order and the output table is sorted by amplitude descending,
// then y, then x, so results are reproducible for a given input.
//
// # Errors
//
// Failure conditions surface immediately at the stage boundary as typed
// errors (DegenerateRangeError, NoPeaksFoundError, EmptyCatalogError); no
// stage substitutes defaults or returns partial results, and nothing is
// retried: these are deterministic numerical computations, not I/O.
package detection
