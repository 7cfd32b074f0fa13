package nd

import "github.com/23skdu/strata/internal/layout"

// NewVector allocates a zeroed vector of length n.
func NewVector[T any](n int) *Array[T] {
	return New[T](layout.RowMajor, n)
}

// VectorOf builds a vector holding a copy of vals.
func VectorOf[T any](vals ...T) *Array[T] {
	return FromSlice(vals, layout.RowMajor, len(vals))
}

// NewMatrix allocates a zeroed rows x cols matrix.
func NewMatrix[T any](rows, cols int, order layout.Order) *Array[T] {
	return New[T](order, rows, cols)
}

// MatrixOf builds a matrix from row slices. All rows must have equal length.
func MatrixOf[T any](rows [][]T, order layout.Order) *Array[T] {
	r, c := len(rows), 0
	if r > 0 {
		c = len(rows[0])
	}
	a := New[T](order, r, c)
	for i, row := range rows {
		if len(row) != c {
			panic(layout.Preconditionf("nd.MatrixOf", "row %d has %d values, want %d", i, len(row), c))
		}
		for j, x := range row {
			a.view.Set(x, i, j)
		}
	}
	return a
}

// Identity returns the n x n identity matrix.
func Identity[T Scalar](n int, order layout.Order) *Array[T] {
	a := New[T](order, n, n)
	a.view.Diag().Fill(1)
	return a
}

// Full returns an array with every element set to x.
func Full[T any](x T, order layout.Order, ext ...int) *Array[T] {
	a := New[T](order, ext...)
	for i := range a.buf {
		a.buf[i] = x
	}
	return a
}

// Convert copies v into a new array of element type D.
func Convert[D, S Scalar](v View[S], order layout.Order) *Array[D] {
	a := New[D](order, v.m.Extents()...)
	CopyConvert(a.view, v)
	return a
}

// CopyConvert copies src into dst converting each element to D. Extents must
// match.
func CopyConvert[D, S Scalar](dst View[D], src View[S]) {
	mustSameShape("nd.CopyConvert", dst.m, src.m)
	dst.live()
	src.live()
	zip(dst, src, func(d *D, s *S) { *d = D(*s) })
}

// OrderOf is the order a result derived from v should take: v's own order
// when it is contiguous, row-major otherwise.
func OrderOf[T any](v View[T]) layout.Order {
	o, ok := v.m.ContiguousOrder()
	if !ok {
		return layout.RowMajor
	}
	return o
}
