package detection

import "math"

// EdgeBufferPixels returns the edge-exclusion margin in pixels for a field of
// npix pixels spanning openingAngleDeg degrees, smoothed with a kernel of
// kernelWidthArcmin arc-minutes: the smoothing length expressed in pixels,
// rounded up.
func EdgeBufferPixels(npix int, openingAngleDeg, kernelWidthArcmin float64) float64 {
	pixlen := openingAngleDeg / float64(npix) // [deg]
	return math.Ceil(kernelWidthArcmin / (60 * pixlen))
}

// RejectEdgePeaks discards peaks within one smoothing length of the map
// boundary.
//
// Positions are converted to pixel coordinates (px = pos_deg * npix / angle)
// and a peak is retained iff buffer <= px <= npix-1-buffer on both axes.
// This is strict policy, not a heuristic: a peak whose kernel footprint could
// touch the field boundary is excluded because boundary convolution
// artifacts are indistinguishable from true signal at that scale.
//
// Returns the retained amplitudes and positions plus the number of peaks
// removed. Inputs are not modified.
func RejectEdgePeaks(npix int, openingAngleDeg, kernelWidthArcmin float64, amplitudes []float64, positions [][2]float64) ([]float64, [][2]float64, int) {
	buffer := EdgeBufferPixels(npix, openingAngleDeg, kernelWidthArcmin)
	limit := float64(npix) - 1 - buffer

	keptAmp := make([]float64, 0, len(amplitudes))
	keptPos := make([][2]float64, 0, len(positions))
	for i, pos := range positions {
		px := pos[0] * float64(npix) / openingAngleDeg
		py := pos[1] * float64(npix) / openingAngleDeg
		if px >= buffer && px <= limit && py >= buffer && py <= limit {
			keptAmp = append(keptAmp, amplitudes[i])
			keptPos = append(keptPos, pos)
		}
	}
	return keptAmp, keptPos, len(amplitudes) - len(keptAmp)
}
