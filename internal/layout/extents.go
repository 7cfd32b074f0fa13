// Package layout describes how N-dimensional indices map onto a flat buffer:
// extents, canonical row- and column-major strides, explicit strided mappings
// and the rank-generic index walk shared by every element-wise operation.
package layout

import (
	"math"
	"strconv"
	"strings"
)

// Extents is the shape of an array, one size per dimension.
type Extents []int

// Of validates ext and returns a copy of it as Extents. The element count
// must fit in an int.
func Of(ext ...int) Extents {
	for k, n := range ext {
		if n < 0 {
			panic(Preconditionf("layout.Of", "negative extent %d in dim %d", n, k))
		}
	}
	if _, ok := Product(ext); !ok {
		panic(Preconditionf("layout.Of", "extents %v overflow the element count", Extents(ext)))
	}
	return append(Extents(nil), ext...)
}

// Product multiplies non-negative extents. ok is false when the product does
// not fit in an int.
func Product(ext []int) (n int, ok bool) {
	n = 1
	for _, x := range ext {
		if x != 0 && n > math.MaxInt/x {
			// a later zero extent still makes the array empty
			for _, y := range ext {
				if y == 0 {
					return 0, true
				}
			}
			return 0, false
		}
		n *= x
	}
	return n, true
}

// Rank is the number of dimensions.
func (e Extents) Rank() int { return len(e) }

// Extent returns the size of dimension k.
func (e Extents) Extent(k int) int { return e[k] }

// Size is the number of elements: the product of all extents. A rank-0 shape
// has one element.
func (e Extents) Size() int {
	n := 1
	for _, x := range e {
		n *= x
	}
	return n
}

// Equal reports whether e and o have the same rank and the same extent in
// every dimension.
func (e Extents) Equal(o Extents) bool {
	if len(e) != len(o) {
		return false
	}
	for k := range e {
		if e[k] != o[k] {
			return false
		}
	}
	return true
}

func (e Extents) Clone() Extents { return append(Extents(nil), e...) }

// String renders e as "3x4x5".
func (e Extents) String() string {
	if len(e) == 0 {
		return "scalar"
	}
	parts := make([]string, len(e))
	for k, n := range e {
		parts[k] = strconv.Itoa(n)
	}
	return strings.Join(parts, "x")
}
