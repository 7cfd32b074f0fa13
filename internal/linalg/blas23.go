package linalg

import (
	"github.com/23skdu/strata/internal/backend"
	"github.com/23skdu/strata/internal/nd"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// opDims returns the extents of op(a).
func opDims[T any](t blas.Transpose, a nd.View[T]) (int, int) {
	if transposed(t) {
		return a.Cols(), a.Rows()
	}
	return a.Rows(), a.Cols()
}

// opAt reads element (i, j) of op(a).
func opAt[T any](t blas.Transpose, a nd.View[T], i, j int) T {
	if transposed(t) {
		return a.At(j, i)
	}
	return a.At(i, j)
}

// Gemv performs y = alpha * op(a) * x + beta * y, where op(a) is a or aᵀ.
// When beta is zero y is not read.
func Gemv[T nd.Scalar](t blas.Transpose, alpha T, a, x nd.View[T], beta T, y nd.View[T]) {
	requireMatrix("linalg.Gemv", a)
	requireVector("linalg.Gemv", x)
	requireVector("linalg.Gemv", y)
	m, n := opDims(t, a)
	requireLen("linalg.Gemv", "x", x.Extent(0), n)
	requireLen("linalg.Gemv", "y", y.Extent(0), m)
	if m == 0 {
		return
	}
	if n > 0 {
		switch av := any(a).(type) {
		case nd.View[float64]:
			g, stored, ok := general64(av)
			xv, ok1 := vector64(any(x).(nd.View[float64]))
			yv, ok2 := vector64(any(y).(nd.View[float64]))
			if ok && ok1 && ok2 {
				backend.Record("gemv", backend.PathNative)
				blas64.Gemv(flip(t, stored), float64(alpha), g, xv, float64(beta), yv)
				return
			}
		case nd.View[float32]:
			g, stored, ok := general32(av)
			xv, ok1 := vector32(any(x).(nd.View[float32]))
			yv, ok2 := vector32(any(y).(nd.View[float32]))
			if ok && ok1 && ok2 {
				backend.Record("gemv", backend.PathNative)
				blas32.Gemv(flip(t, stored), float32(alpha), g, xv, float32(beta), yv)
				return
			}
		}
	}
	backend.Record("gemv", backend.PathGeneric)
	for i := 0; i < m; i++ {
		var sum T
		for j := 0; j < n; j++ {
			sum += opAt(t, a, i, j) * x.At(j)
		}
		p := y.Ref(i)
		if beta == 0 {
			*p = alpha * sum
		} else {
			old := *p
			*p = alpha*sum + beta*old
		}
	}
}

// MatVec returns a * x.
func MatVec[T nd.Scalar](a, x nd.View[T]) *nd.Array[T] {
	requireMatrix("linalg.MatVec", a)
	y := nd.NewVector[T](a.Rows())
	Gemv(blas.NoTrans, 1, a, x, 0, y.View())
	return y
}

// Gemm performs c = alpha * op(a) * op(b) + beta * c. When beta is zero c is
// not read. c must not overlap a or b.
func Gemm[T nd.Scalar](tA, tB blas.Transpose, alpha T, a, b nd.View[T], beta T, c nd.View[T]) {
	requireMatrix("linalg.Gemm", a)
	requireMatrix("linalg.Gemm", b)
	requireMatrix("linalg.Gemm", c)
	m, k := opDims(tA, a)
	kb, n := opDims(tB, b)
	requireLen("linalg.Gemm", "inner dimension of b", kb, k)
	requireLen("linalg.Gemm", "rows of c", c.Rows(), m)
	requireLen("linalg.Gemm", "columns of c", c.Cols(), n)
	if m == 0 || n == 0 {
		return
	}
	if k > 0 {
		switch av := any(a).(type) {
		case nd.View[float64]:
			ga, sa, okA := general64(av)
			gb, sb, okB := general64(any(b).(nd.View[float64]))
			gc, sc, okC := general64(any(c).(nd.View[float64]))
			if okA && okB && okC {
				backend.Record("gemm", backend.PathNative)
				if !sc {
					blas64.Gemm(flip(tA, sa), flip(tB, sb), float64(alpha), ga, gb, float64(beta), gc)
				} else {
					// c is stored transposed: compute cᵀ = op(b)ᵀ op(a)ᵀ
					blas64.Gemm(flip(tB, !sb), flip(tA, !sa), float64(alpha), gb, ga, float64(beta), gc)
				}
				return
			}
		case nd.View[float32]:
			ga, sa, okA := general32(av)
			gb, sb, okB := general32(any(b).(nd.View[float32]))
			gc, sc, okC := general32(any(c).(nd.View[float32]))
			if okA && okB && okC {
				backend.Record("gemm", backend.PathNative)
				if !sc {
					blas32.Gemm(flip(tA, sa), flip(tB, sb), float32(alpha), ga, gb, float32(beta), gc)
				} else {
					blas32.Gemm(flip(tB, !sb), flip(tA, !sa), float32(alpha), gb, ga, float32(beta), gc)
				}
				return
			}
		}
	}
	backend.Record("gemm", backend.PathGeneric)
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum T
			for l := 0; l < k; l++ {
				sum += opAt(tA, a, i, l) * opAt(tB, b, l, j)
			}
			p := c.Ref(i, j)
			if beta == 0 {
				*p = alpha * sum
			} else {
				old := *p
				*p = alpha*sum + beta*old
			}
		}
	}
}

// MatMul returns a * b in the order of a.
func MatMul[T nd.Scalar](a, b nd.View[T]) *nd.Array[T] {
	requireMatrix("linalg.MatMul", a)
	requireMatrix("linalg.MatMul", b)
	c := nd.NewMatrix[T](a.Rows(), b.Cols(), nd.OrderOf(a))
	Gemm(blas.NoTrans, blas.NoTrans, 1, a, b, 0, c.View())
	return c
}
