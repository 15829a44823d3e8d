package detection

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/sky-tools-mcp/internal/skymap"
)

// candidate is a peak being tracked across threshold levels.
type candidate struct {
	value    float64
	row, col int
	birth    int // threshold level index at which the peak was born
}

// LocatePeaks scans a filtered field and extracts one peak per physical
// signal, merging detections across threshold levels.
//
// Parameters:
//   - field: Square 2D grid to scan; normally the output of the dipole
//     filter cascade. Amplitudes are compared against the thresholds as-is,
//     with no renormalisation.
//   - thresholds: Boundaries from BuildThresholds (derived from the raw map).
//   - openingAngleDeg: Angular extent of the field; peak positions are
//     returned in the same unit (degrees).
//
// Returns the peak amplitudes and their (x, y) positions in degrees, ordered
// by amplitude descending (ties: y, then x). Fails with NoPeaksFoundError if
// no pixel exceeds even the lowest boundary; downstream stages assume at
// least one peak, so an empty result is a hard stop, not a success.
//
// # Algorithm
//
// Threshold levels are processed from the highest boundary downward. At each
// level the connected regions (8-connectivity) of pixels strictly above the
// boundary are labelled by flood fill:
//
//   - A region containing no previously born peak births one at the region
//     maximum (plateau ties resolve to the first pixel in row-major order).
//   - A region containing several peaks has merged: every peak other than
//     the strongest is discarded if it was born at most one level above the
//     merge. Peaks that stayed separate for two or more levels are kept.
//
// The one-bin persistence rule suppresses filter sidelobes, which detach
// from their parent blob only briefly before reconnecting, while keeping
// genuinely distinct signals that hold their own region across levels. Each
// surviving peak is therefore reported exactly once, at the highest
// threshold level at which its region appears.
func LocatePeaks(field *mat.Dense, thresholds *ThresholdSet, openingAngleDeg float64) ([]float64, [][2]float64, error) {
	if field == nil {
		return nil, nil, fmt.Errorf("locate peaks: nil field")
	}
	r, c := field.Dims()
	if r != c {
		return nil, nil, &skymap.ShapeMismatchError{
			Op:   "locate peaks",
			Want: fmt.Sprintf("%dx%d", r, r),
			Got:  fmt.Sprintf("%dx%d", r, c),
		}
	}
	if thresholds == nil || len(thresholds.Boundaries) == 0 {
		return nil, nil, fmt.Errorf("locate peaks: empty threshold set")
	}
	if openingAngleDeg <= 0 {
		return nil, nil, fmt.Errorf("locate peaks: opening angle must be positive, got %g", openingAngleDeg)
	}

	npix := r
	peaks := make([]candidate, 0, 16)
	comp := make([]int, npix*npix)   // component id per pixel, -1 = below threshold
	stack := make([]int, 0, npix)    // flood-fill stack of flat pixel indices
	var compMax []float64            // region maximum per component
	var compRow, compCol []int       // argmax per component

	for level := len(thresholds.Boundaries) - 1; level >= 0; level-- {
		t := thresholds.Boundaries[level]

		// Label connected regions of field > t.
		for i := range comp {
			comp[i] = -1
		}
		compMax = compMax[:0]
		compRow = compRow[:0]
		compCol = compCol[:0]
		ncomp := 0

		for row := 0; row < npix; row++ {
			for col := 0; col < npix; col++ {
				start := row*npix + col
				if comp[start] != -1 || field.At(row, col) <= t {
					continue
				}
				cid := ncomp
				ncomp++
				maxV := field.At(row, col)
				maxR, maxC := row, col

				stack = append(stack[:0], start)
				comp[start] = cid
				for len(stack) > 0 {
					idx := stack[len(stack)-1]
					stack = stack[:len(stack)-1]
					pr, pc := idx/npix, idx%npix

					v := field.At(pr, pc)
					if v > maxV || (v == maxV && (pr < maxR || (pr == maxR && pc < maxC))) {
						maxV, maxR, maxC = v, pr, pc
					}

					for dr := -1; dr <= 1; dr++ {
						for dc := -1; dc <= 1; dc++ {
							if dr == 0 && dc == 0 {
								continue
							}
							nr, nc := pr+dr, pc+dc
							if nr < 0 || nr >= npix || nc < 0 || nc >= npix {
								continue
							}
							nidx := nr*npix + nc
							if comp[nidx] == -1 && field.At(nr, nc) > t {
								comp[nidx] = cid
								stack = append(stack, nidx)
							}
						}
					}
				}
				compMax = append(compMax, maxV)
				compRow = append(compRow, maxR)
				compCol = append(compCol, maxC)
			}
		}

		if ncomp == 0 {
			continue
		}

		// Strongest known peak per component.
		owner := make([]int, ncomp)
		for i := range owner {
			owner[i] = -1
		}
		for pi := range peaks {
			cid := comp[peaks[pi].row*npix+peaks[pi].col]
			if cid < 0 {
				continue // peak pixel below this threshold; cannot happen below its birth level
			}
			if owner[cid] == -1 || stronger(peaks[pi], peaks[owner[cid]]) {
				owner[cid] = pi
			}
		}

		// Discard weak peaks absorbed by a stronger one within one level of
		// their birth (insufficient persistence).
		kept := peaks[:0]
		for pi := range peaks {
			cid := comp[peaks[pi].row*npix+peaks[pi].col]
			if cid >= 0 && owner[cid] != pi && peaks[pi].birth-level <= 1 {
				continue
			}
			kept = append(kept, peaks[pi])
		}
		peaks = kept

		// Birth a peak in every region that has none.
		hasPeak := make([]bool, ncomp)
		for pi := range peaks {
			cid := comp[peaks[pi].row*npix+peaks[pi].col]
			if cid >= 0 {
				hasPeak[cid] = true
			}
		}
		for cid := 0; cid < ncomp; cid++ {
			if !hasPeak[cid] {
				peaks = append(peaks, candidate{
					value: compMax[cid],
					row:   compRow[cid],
					col:   compCol[cid],
					birth: level,
				})
			}
		}
	}

	if len(peaks) == 0 {
		return nil, nil, &NoPeaksFoundError{}
	}

	sort.Slice(peaks, func(i, j int) bool { return stronger(peaks[i], peaks[j]) })

	pixlen := openingAngleDeg / float64(npix)
	amplitudes := make([]float64, len(peaks))
	positions := make([][2]float64, len(peaks))
	for i, p := range peaks {
		amplitudes[i] = p.value
		positions[i] = [2]float64{float64(p.col) * pixlen, float64(p.row) * pixlen}
	}
	return amplitudes, positions, nil
}

// stronger imposes the deterministic peak order: amplitude descending, then
// y (row), then x (col).
func stronger(a, b candidate) bool {
	if a.value != b.value {
		return a.value > b.value
	}
	if a.row != b.row {
		return a.row < b.row
	}
	return a.col < b.col
}
