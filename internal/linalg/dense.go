package linalg

import (
	"github.com/23skdu/strata/internal/backend"
	"github.com/23skdu/strata/internal/layout"
	"github.com/23skdu/strata/internal/nd"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// The backend speaks row-major BLAS: every matrix is described by a leading
// dimension and every vector by an increment. A view qualifies when one of
// its dimensions has unit stride; a column-major view is handed over as its
// own transpose.

// blasLayout finds the leading dimension for an r x c matrix with strides
// s0, s1. trans reports that the stored row-major matrix is the transpose.
func blasLayout(r, c, s0, s1 int) (ld int, trans, ok bool) {
	if s1 == 1 || c <= 1 {
		ld = s0
		if r <= 1 {
			ld = max(1, c)
		}
		if ld >= max(1, c) {
			return ld, false, true
		}
	}
	if s0 == 1 || r <= 1 {
		ld = s1
		if c <= 1 {
			ld = max(1, r)
		}
		if ld >= max(1, r) {
			return ld, true, true
		}
	}
	return 0, false, false
}

func general64(v nd.View[float64]) (blas64.General, bool, bool) {
	r, c := v.Rows(), v.Cols()
	ld, trans, ok := blasLayout(r, c, v.Stride(0), v.Stride(1))
	if !ok {
		return blas64.General{}, false, false
	}
	if trans {
		r, c = c, r
	}
	return blas64.General{Rows: r, Cols: c, Stride: ld, Data: v.Data()}, trans, true
}

func general32(v nd.View[float32]) (blas32.General, bool, bool) {
	r, c := v.Rows(), v.Cols()
	ld, trans, ok := blasLayout(r, c, v.Stride(0), v.Stride(1))
	if !ok {
		return blas32.General{}, false, false
	}
	if trans {
		r, c = c, r
	}
	return blas32.General{Rows: r, Cols: c, Stride: ld, Data: v.Data()}, trans, true
}

func vector64(v nd.View[float64]) (blas64.Vector, bool) {
	n, inc := v.Extent(0), v.Stride(0)
	if n <= 1 {
		inc = 1
	}
	if inc <= 0 {
		return blas64.Vector{}, false
	}
	return blas64.Vector{N: n, Inc: inc, Data: v.Data()}, true
}

func vector32(v nd.View[float32]) (blas32.Vector, bool) {
	n, inc := v.Extent(0), v.Stride(0)
	if n <= 1 {
		inc = 1
	}
	if inc <= 0 {
		return blas32.Vector{}, false
	}
	return blas32.Vector{N: n, Inc: inc, Data: v.Data()}, true
}

// flip combines a requested transpose with the storage transpose.
func flip(t blas.Transpose, stored bool) blas.Transpose {
	if !stored {
		return t
	}
	if t == blas.NoTrans {
		return blas.Trans
	}
	return blas.NoTrans
}

func transposed(t blas.Transpose) bool { return t != blas.NoTrans }

// dense copies a contiguous matrix view into a fresh row-major float64
// General for LAPACK, which overwrites its input.
func dense[T nd.Float](op string, a nd.View[T]) blas64.General {
	requireMatrix(op, a)
	requireContiguous(op, a)
	r, c := a.Rows(), a.Cols()
	g := blas64.General{Rows: r, Cols: c, Stride: max(1, c), Data: make([]float64, r*c)}
	nd.CopyConvert(rowMajor(g), a)
	return g
}

// rowMajor views a General as an nd matrix.
func rowMajor(g blas64.General) nd.View[float64] {
	return nd.StridedView(g.Data, []int{g.Rows, g.Cols}, []int{g.Stride, 1})
}

// array copies a General into a new array of element type T.
func array[T nd.Float](g blas64.General, order layout.Order) *nd.Array[T] {
	out := nd.New[T](order, g.Rows, g.Cols)
	nd.CopyConvert(out.View(), rowMajor(g))
	return out
}

// vectorArray copies a float64 slice into a new vector of element type T.
func vectorArray[T nd.Float](x []float64) *nd.Array[T] {
	out := nd.NewVector[T](len(x))
	nd.CopyConvert(out.View(), nd.VectorOf(x...).View())
	return out
}

// work runs a LAPACK workspace query and returns a pooled buffer of the
// optimal size. Release it with backend.PutFloats.
func work(query func(work []float64, lwork int)) []float64 {
	var q [1]float64
	query(q[:], -1)
	return backend.GetFloats(max(1, int(q[0])), false)
}

func requireMatrix[T any](op string, a nd.View[T]) {
	if a.Rank() != 2 {
		panic(layout.Preconditionf(op, "need a matrix, got rank %d", a.Rank()))
	}
}

func requireVector[T any](op string, x nd.View[T]) {
	if x.Rank() != 1 {
		panic(layout.Preconditionf(op, "need a vector, got rank %d", x.Rank()))
	}
}

func requireSquare[T any](op string, a nd.View[T]) {
	requireMatrix(op, a)
	if a.Rows() != a.Cols() {
		panic(layout.Preconditionf(op, "need a square matrix, got %dx%d", a.Rows(), a.Cols()))
	}
}

func requireContiguous[T any](op string, a nd.View[T]) {
	if !a.IsContiguous() {
		panic(layout.Preconditionf(op, "need a contiguous matrix"))
	}
}

func requireLen(op string, what string, got, want int) {
	if got != want {
		panic(layout.Preconditionf(op, "%s has length %d, want %d", what, got, want))
	}
}
