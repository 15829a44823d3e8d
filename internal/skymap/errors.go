package skymap

import "fmt"

// ShapeMismatchError reports grid data whose shape is inconsistent with the
// field it is being combined with. All variants of a field must share one
// resolution, so this indicates caller error, not bad sky data.
type ShapeMismatchError struct {
	Op   string // operation that detected the mismatch
	Want string // expected shape, e.g. "64x64"
	Got  string // offending shape
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("%s: grid shape %s does not match field shape %s", e.Op, e.Got, e.Want)
}
