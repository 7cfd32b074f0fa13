package layout

import (
	"errors"
	"fmt"
)

var (
	// ErrBounds is wrapped by every BoundsError.
	ErrBounds = errors.New("layout: index out of bounds")
	// ErrRange is wrapped by every RangeError.
	ErrRange = errors.New("layout: slice range out of bounds")
	// ErrPrecondition is wrapped by every PreconditionError.
	ErrPrecondition = errors.New("layout: precondition violated")
)

// BoundsError reports an element access outside the extents of a mapping.
// Dim is the offending dimension, or -1 when the number of indices does not
// match the rank.
type BoundsError struct {
	Index   []int
	Extents Extents
	Dim     int
}

func (e *BoundsError) Error() string {
	if e.Dim < 0 {
		return fmt.Sprintf("layout: %d indices for rank %d mapping", len(e.Index), len(e.Extents))
	}
	return fmt.Sprintf("layout: index %v out of bounds for extents %v (dim %d)", e.Index, []int(e.Extents), e.Dim)
}

func (e *BoundsError) Unwrap() error { return ErrBounds }

// RangeError reports a slice selector that does not fit the sliced dimension.
// Single-index selectors set Index and report Lo as the index.
type RangeError struct {
	Dim    int
	Lo, Hi int
	Extent int
	Index  bool
}

func (e *RangeError) Error() string {
	if e.Index {
		return fmt.Sprintf("layout: index %d out of range [0,%d) in dim %d", e.Lo, e.Extent, e.Dim)
	}
	return fmt.Sprintf("layout: range [%d,%d) out of range [0,%d] in dim %d", e.Lo, e.Hi, e.Extent, e.Dim)
}

func (e *RangeError) Unwrap() error { return ErrRange }

// PreconditionError reports a violated operation precondition: mismatched
// shapes, a non-square or non-contiguous matrix where one is required, a view
// that outlived its buffer.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// Preconditionf builds a PreconditionError for op with a formatted reason.
func Preconditionf(op, format string, args ...any) *PreconditionError {
	return &PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...)}
}
