package detection

import "fmt"

// DegenerateRangeError reports an input field with zero dynamic range where a
// nonzero range is required (threshold building, significance scoring).
type DegenerateRangeError struct {
	Op    string  // stage that required a nonzero range
	Value float64 // the constant value of the degenerate input
}

func (e *DegenerateRangeError) Error() string {
	return fmt.Sprintf("%s: field has zero dynamic range (constant value %g)", e.Op, e.Value)
}

// NoPeaksFoundError reports a detection run that produced zero peaks. This is
// fatal for the current field: downstream stages assume at least one peak and
// there is no valid partial result.
type NoPeaksFoundError struct {
	Source string // identifier of the field, if known
}

func (e *NoPeaksFoundError) Error() string {
	if e.Source == "" {
		return "no peaks found"
	}
	return fmt.Sprintf("no peaks found on %s", e.Source)
}

// EmptyCatalogError reports matching attempted against a catalog with zero
// records.
type EmptyCatalogError struct{}

func (e *EmptyCatalogError) Error() string {
	return "reference catalog has no records"
}
