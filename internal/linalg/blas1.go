// Package linalg is the linear algebra dispatch layer. Every operation has a
// generic implementation over logical indices for any element type, and a
// native path through the registered BLAS/LAPACK that is taken when the
// element type is float64 or float32 and the operand layout can be described
// to BLAS with a unit stride and a leading dimension.
package linalg

import (
	"math"

	"github.com/23skdu/strata/internal/backend"
	"github.com/23skdu/strata/internal/kernels"
	"github.com/23skdu/strata/internal/nd"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

func vectorPair[T any](op string, x, y nd.View[T]) int {
	requireVector(op, x)
	requireVector(op, y)
	requireLen(op, "y", y.Extent(0), x.Extent(0))
	return x.Extent(0)
}

// Dot returns the inner product of two vectors of equal length.
func Dot[T nd.Scalar](x, y nd.View[T]) T {
	n := vectorPair("linalg.Dot", x, y)
	if n == 0 {
		return 0
	}
	switch xv := any(x).(type) {
	case nd.View[float64]:
		a, ok1 := vector64(xv)
		b, ok2 := vector64(any(y).(nd.View[float64]))
		if ok1 && ok2 {
			backend.Record("dot", backend.PathNative)
			return T(blas64.Dot(a, b))
		}
	case nd.View[float32]:
		a, ok1 := vector32(xv)
		b, ok2 := vector32(any(y).(nd.View[float32]))
		if ok1 && ok2 {
			backend.Record("dot", backend.PathNative)
			return T(blas32.Dot(a, b))
		}
	}
	backend.Record("dot", backend.PathGeneric)
	return kernels.Dot(n, x.Data(), x.Stride(0), y.Data(), y.Stride(0))
}

// Axpy performs y += alpha * x.
func Axpy[T nd.Scalar](alpha T, x, y nd.View[T]) {
	n := vectorPair("linalg.Axpy", x, y)
	if n == 0 {
		return
	}
	switch xv := any(x).(type) {
	case nd.View[float64]:
		a, ok1 := vector64(xv)
		b, ok2 := vector64(any(y).(nd.View[float64]))
		if ok1 && ok2 {
			backend.Record("axpy", backend.PathNative)
			blas64.Axpy(float64(alpha), a, b)
			return
		}
	case nd.View[float32]:
		a, ok1 := vector32(xv)
		b, ok2 := vector32(any(y).(nd.View[float32]))
		if ok1 && ok2 {
			backend.Record("axpy", backend.PathNative)
			blas32.Axpy(float32(alpha), a, b)
			return
		}
	}
	backend.Record("axpy", backend.PathGeneric)
	kernels.Axpy(n, alpha, x.Data(), x.Stride(0), y.Data(), y.Stride(0))
}

// Scal performs x *= alpha.
func Scal[T nd.Scalar](alpha T, x nd.View[T]) {
	requireVector("linalg.Scal", x)
	n := x.Extent(0)
	if n == 0 {
		return
	}
	switch xv := any(x).(type) {
	case nd.View[float64]:
		if a, ok := vector64(xv); ok {
			backend.Record("scal", backend.PathNative)
			blas64.Scal(float64(alpha), a)
			return
		}
	case nd.View[float32]:
		if a, ok := vector32(xv); ok {
			backend.Record("scal", backend.PathNative)
			blas32.Scal(float32(alpha), a)
			return
		}
	}
	backend.Record("scal", backend.PathGeneric)
	kernels.Scal(n, alpha, x.Data(), x.Stride(0))
}

// Norm2 returns the Euclidean norm of x.
func Norm2[T nd.Scalar](x nd.View[T]) float64 {
	requireVector("linalg.Norm2", x)
	n := x.Extent(0)
	if n == 0 {
		return 0
	}
	switch xv := any(x).(type) {
	case nd.View[float64]:
		if a, ok := vector64(xv); ok {
			backend.Record("nrm2", backend.PathNative)
			return blas64.Nrm2(a)
		}
	case nd.View[float32]:
		if a, ok := vector32(xv); ok {
			backend.Record("nrm2", backend.PathNative)
			return float64(blas32.Nrm2(a))
		}
	}
	backend.Record("nrm2", backend.PathGeneric)
	return math.Sqrt(kernels.SumSquares(n, x.Data(), x.Stride(0)))
}

// Asum returns the sum of absolute values of x.
func Asum[T nd.Scalar](x nd.View[T]) T {
	requireVector("linalg.Asum", x)
	n := x.Extent(0)
	if n == 0 {
		return 0
	}
	switch xv := any(x).(type) {
	case nd.View[float64]:
		if a, ok := vector64(xv); ok {
			backend.Record("asum", backend.PathNative)
			return T(blas64.Asum(a))
		}
	case nd.View[float32]:
		if a, ok := vector32(xv); ok {
			backend.Record("asum", backend.PathNative)
			return T(blas32.Asum(a))
		}
	}
	backend.Record("asum", backend.PathGeneric)
	return kernels.Asum(n, x.Data(), x.Stride(0))
}

// Iamax returns the index of the first element of largest magnitude, or -1
// for an empty vector.
func Iamax[T nd.Scalar](x nd.View[T]) int {
	requireVector("linalg.Iamax", x)
	n := x.Extent(0)
	if n == 0 {
		return -1
	}
	switch xv := any(x).(type) {
	case nd.View[float64]:
		if a, ok := vector64(xv); ok {
			backend.Record("iamax", backend.PathNative)
			return blas64.Iamax(a)
		}
	case nd.View[float32]:
		if a, ok := vector32(xv); ok {
			backend.Record("iamax", backend.PathNative)
			return blas32.Iamax(a)
		}
	}
	backend.Record("iamax", backend.PathGeneric)
	return kernels.Iamax(n, x.Data(), x.Stride(0))
}

// Outer performs the rank-one update a += alpha * x * yᵀ.
func Outer[T nd.Scalar](alpha T, x, y, a nd.View[T]) {
	requireVector("linalg.Outer", x)
	requireVector("linalg.Outer", y)
	requireMatrix("linalg.Outer", a)
	requireLen("linalg.Outer", "x", x.Extent(0), a.Rows())
	requireLen("linalg.Outer", "y", y.Extent(0), a.Cols())
	if a.Size() == 0 {
		return
	}
	switch av := any(a).(type) {
	case nd.View[float64]:
		g, trans, ok := general64(av)
		xv, ok1 := vector64(any(x).(nd.View[float64]))
		yv, ok2 := vector64(any(y).(nd.View[float64]))
		if ok && ok1 && ok2 {
			backend.Record("ger", backend.PathNative)
			if trans {
				xv, yv = yv, xv
			}
			blas64.Ger(float64(alpha), xv, yv, g)
			return
		}
	case nd.View[float32]:
		g, trans, ok := general32(av)
		xv, ok1 := vector32(any(x).(nd.View[float32]))
		yv, ok2 := vector32(any(y).(nd.View[float32]))
		if ok && ok1 && ok2 {
			backend.Record("ger", backend.PathNative)
			if trans {
				xv, yv = yv, xv
			}
			blas32.Ger(float32(alpha), xv, yv, g)
			return
		}
	}
	backend.Record("ger", backend.PathGeneric)
	for i := 0; i < a.Rows(); i++ {
		xi := alpha * x.At(i)
		for j := 0; j < a.Cols(); j++ {
			*a.Ref(i, j) += xi * y.At(j)
		}
	}
}
