package nd

import (
	"cmp"

	"github.com/23skdu/strata/internal/layout"
	"gonum.org/v1/gonum/floats/scalar"
)

// Equal reports whether a and b have the same extents and equal elements at
// every logical index. Layouts may differ.
func Equal[T comparable](a, b View[T]) bool {
	if !a.m.Extents().Equal(b.m.Extents()) {
		return false
	}
	eq := true
	zip(a, b, func(x, y *T) {
		if *x != *y {
			eq = false
		}
	})
	return eq
}

// Compare orders a and b lexicographically over their elements in row-major
// logical order. When one is a prefix of the other the shorter sorts first.
func Compare[T cmp.Ordered](a, b View[T]) int {
	a.live()
	b.live()
	n := min(a.Size(), b.Size())
	ai, bi := make([]int, a.Rank()), make([]int, b.Rank())
	as, bs := a.m.Strides(), b.m.Strides()
	ae, be := a.m.Extents(), b.m.Extents()
	for flat := 0; flat < n; flat++ {
		layout.Unravel(flat, ae, layout.RowMajor, ai)
		layout.Unravel(flat, be, layout.RowMajor, bi)
		if c := cmp.Compare(a.data[layout.Ravel(ai, as)], b.data[layout.Ravel(bi, bs)]); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Size(), b.Size())
}

// AllClose reports whether a and b have the same extents and every pair of
// elements is equal within the absolute tolerance atol or the relative
// tolerance rtol.
func AllClose[T Float](a, b View[T], atol, rtol float64) bool {
	if !a.m.Extents().Equal(b.m.Extents()) {
		return false
	}
	ok := true
	zip(a, b, func(x, y *T) {
		if !scalar.EqualWithinAbsOrRel(float64(*x), float64(*y), atol, rtol) {
			ok = false
		}
	})
	return ok
}
