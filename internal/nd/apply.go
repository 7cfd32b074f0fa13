package nd

import "github.com/23skdu/strata/internal/layout"

// Apply calls fn once for every element of v, in layout order: last index
// fastest for row-major views, first index fastest for column-major views and
// smallest stride fastest for anything else.
func (v View[T]) Apply(fn func(x *T)) {
	v.live()
	if v.m.IsContiguous() {
		d := v.data[:v.m.Size()]
		for i := range d {
			fn(&d[i])
		}
		return
	}
	layout.Walk(v.m.Extents(), v.m.IterOrder(), [][]int{v.m.Strides()}, func(offs []int) {
		fn(&v.data[offs[0]])
	})
}

// ForEach calls fn with every index and value of v in layout order. idx is
// reused between calls.
func (v View[T]) ForEach(fn func(idx []int, x T)) {
	v.live()
	strides := v.m.Strides()
	layout.ForEach(v.m.Extents(), v.m.IterOrder(), func(idx []int) {
		fn(idx, v.data[layout.Ravel(idx, strides)])
	})
}

// Fill sets every element of v to x.
func (v View[T]) Fill(x T) {
	v.Apply(func(p *T) { *p = x })
}

// Transform replaces every element e of v with fn(e).
func (v View[T]) Transform(fn func(T) T) {
	v.Apply(func(p *T) { *p = fn(*p) })
}

// Copy copies src into dst element by element over logical indices. Both
// views must have the same extents; their layouts may differ. Overlapping
// views with different strides give unspecified results.
func Copy[T any](dst, src View[T]) {
	mustSameShape("nd.Copy", dst.m, src.m)
	dst.live()
	src.live()
	if d, s, ok := unitary(dst, src); ok {
		copy(d, s)
		return
	}
	zip(dst, src, func(d, s *T) { *d = *s })
}

// Swap exchanges the contents of two views of the same extents.
func Swap[T any](a, b View[T]) {
	mustSameShape("nd.Swap", a.m, b.m)
	a.live()
	b.live()
	zip(a, b, func(x, y *T) { *x, *y = *y, *x })
}

// zip walks two same-shaped views together in dst's layout order.
func zip[T, U any](dst View[T], src View[U], fn func(d *T, s *U)) {
	layout.Walk(dst.m.Extents(), dst.m.IterOrder(), [][]int{dst.m.Strides(), src.m.Strides()}, func(offs []int) {
		fn(&dst.data[offs[0]], &src.data[offs[1]])
	})
}

func mustSameShape(op string, a, b layout.Mapping) {
	if !a.Extents().Equal(b.Extents()) {
		panic(layout.Preconditionf(op, "shape mismatch %v vs %v", a.Extents(), b.Extents()))
	}
}
