package screener

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter is the root of every caller error raised while parsing or
// compiling filters. The query is never executed when it is returned.
var ErrInvalidFilter = errors.New("invalid filter")

// FilterError describes what is wrong with one criterion. Index is -1 when the
// problem is not tied to a single criterion (e.g. sort_by).
type FilterError struct {
	Index   int
	Operand string
	Reason  string
}

func (e *FilterError) Error() string {
	switch {
	case e.Index < 0 && e.Operand == "":
		return fmt.Sprintf("invalid filter: %s", e.Reason)
	case e.Index < 0:
		return fmt.Sprintf("invalid filter on %q: %s", e.Operand, e.Reason)
	case e.Operand == "":
		return fmt.Sprintf("invalid filter at index %d: %s", e.Index, e.Reason)
	default:
		return fmt.Sprintf("invalid filter at index %d (%q): %s", e.Index, e.Operand, e.Reason)
	}
}

func (e *FilterError) Unwrap() error {
	return ErrInvalidFilter
}

func newFilterError(index int, operand, format string, args ...interface{}) error {
	return &FilterError{Index: index, Operand: operand, Reason: fmt.Sprintf(format, args...)}
}
