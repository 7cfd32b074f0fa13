package nd

import "github.com/23skdu/strata/internal/layout"

type selKind uint8

const (
	selAll selKind = iota
	selRange
	selIndex
)

// Selector picks part of one dimension when slicing a view.
type Selector struct {
	kind   selKind
	lo, hi int
}

// Range keeps the half-open interval [lo, hi) of a dimension.
func Range(lo, hi int) Selector { return Selector{kind: selRange, lo: lo, hi: hi} }

// Index fixes a dimension at i and drops it from the result.
func Index(i int) Selector { return Selector{kind: selIndex, lo: i, hi: i + 1} }

// All keeps a dimension whole.
func All() Selector { return Selector{kind: selAll} }

// Slice returns a view of the selected sub-block. Selectors apply to the
// leading dimensions in order; dimensions without a selector are kept whole.
// The result aliases v. Out of range selectors panic with *layout.RangeError
// regardless of the nocheck build tag.
func (v View[T]) Slice(sel ...Selector) View[T] {
	v.live()
	r := v.m.Rank()
	if len(sel) > r {
		panic(layout.Preconditionf("nd.Slice", "%d selectors for rank %d view", len(sel), r))
	}
	off := 0
	ext := make([]int, 0, r)
	strides := make([]int, 0, r)
	for k := 0; k < r; k++ {
		n, s := v.m.Extent(k), v.m.Stride(k)
		st := All()
		if k < len(sel) {
			st = sel[k]
		}
		switch st.kind {
		case selAll:
			ext = append(ext, n)
			strides = append(strides, s)
		case selRange:
			if st.lo < 0 || st.lo > st.hi || st.hi > n {
				panic(&layout.RangeError{Dim: k, Lo: st.lo, Hi: st.hi, Extent: n})
			}
			off += st.lo * s
			ext = append(ext, st.hi-st.lo)
			strides = append(strides, s)
		case selIndex:
			if st.lo < 0 || st.lo >= n {
				panic(&layout.RangeError{Dim: k, Lo: st.lo, Hi: st.hi, Extent: n, Index: true})
			}
			off += st.lo * s
		}
	}
	m := layout.NewStrided(ext, strides)
	if m.Size() == 0 {
		off = 0
	}
	return v.derive(v.data[off:], m)
}

// Row returns row i of a matrix view.
func (v View[T]) Row(i int) View[T] {
	v.mustRank("nd.Row", 2)
	return v.Slice(Index(i))
}

// Col returns column j of a matrix view.
func (v View[T]) Col(j int) View[T] {
	v.mustRank("nd.Col", 2)
	return v.Slice(All(), Index(j))
}

// Diag returns the main diagonal of a matrix view. Its stride is the sum of
// the row and column strides.
func (v View[T]) Diag() View[T] {
	v.mustRank("nd.Diag", 2)
	v.live()
	n := min(v.m.Extent(0), v.m.Extent(1))
	m := layout.NewStrided([]int{n}, []int{v.m.Stride(0) + v.m.Stride(1)})
	return v.derive(v.data, m)
}

// T returns the transpose of v: dimensions in reverse order, same data.
func (v View[T]) T() View[T] {
	v.live()
	return v.derive(v.data, v.m.Transpose())
}

// Permute reorders the dimensions of v without moving data.
func (v View[T]) Permute(axes ...int) View[T] {
	v.live()
	return v.derive(v.data, v.m.Permute(axes...))
}

// Sub returns rows [r0, r1) and columns [c0, c1) of a matrix view.
func (v View[T]) Sub(r0, r1, c0, c1 int) View[T] {
	v.mustRank("nd.Sub", 2)
	return v.Slice(Range(r0, r1), Range(c0, c1))
}

// Reshape reinterprets a contiguous view with new extents in the view's own
// order. The element count must not change.
func (v View[T]) Reshape(ext ...int) View[T] {
	v.live()
	o, ok := v.m.ContiguousOrder()
	if !ok {
		panic(layout.Preconditionf("nd.Reshape", "view is not contiguous"))
	}
	e := layout.Of(ext...)
	if e.Size() != v.Size() {
		panic(layout.Preconditionf("nd.Reshape", "cannot reshape %v into %v", v.m.Extents(), e))
	}
	return v.derive(v.data, layout.NewMapping(e, o))
}

func (v View[T]) mustRank(op string, r int) {
	if v.m.Rank() != r {
		panic(layout.Preconditionf(op, "need rank %d, view has rank %d", r, v.m.Rank()))
	}
}
