// Package kernels holds the element loops behind the generic (non-BLAS) path
// of the linear algebra layer. Strided variants take an explicit increment per
// operand, BLAS style; unitary variants work on dense slices and are unrolled.
package kernels

import "golang.org/x/exp/constraints"

// Number is any built-in integer or floating point type
type Number interface {
	constraints.Integer | constraints.Float
}

// Dot computes sum(x[i*incX] * y[i*incY]) for i < n
func Dot[T Number](n int, x []T, incX int, y []T, incY int) T {
	if incX == 1 && incY == 1 {
		return DotUnitary(x[:n], y[:n])
	}
	var sum T
	ix, iy := 0, 0
	for i := 0; i < n; i++ {
		sum += x[ix] * y[iy]
		ix += incX
		iy += incY
	}
	return sum
}

// Axpy performs y[i*incY] += alpha * x[i*incX] for i < n
func Axpy[T Number](n int, alpha T, x []T, incX int, y []T, incY int) {
	if incX == 1 && incY == 1 {
		AxpyUnitary(alpha, x[:n], y[:n])
		return
	}
	ix, iy := 0, 0
	for i := 0; i < n; i++ {
		y[iy] += alpha * x[ix]
		ix += incX
		iy += incY
	}
}

// Scal performs x[i*incX] *= alpha for i < n
func Scal[T Number](n int, alpha T, x []T, incX int) {
	ix := 0
	for i := 0; i < n; i++ {
		x[ix] *= alpha
		ix += incX
	}
}

// Asum computes sum(|x[i*incX]|) for i < n
func Asum[T Number](n int, x []T, incX int) T {
	var sum T
	ix := 0
	for i := 0; i < n; i++ {
		v := x[ix]
		if v < 0 {
			v = -v
		}
		sum += v
		ix += incX
	}
	return sum
}

// SumSquares computes sum(x[i*incX]^2) for i < n in float64
func SumSquares[T Number](n int, x []T, incX int) float64 {
	var sum float64
	ix := 0
	for i := 0; i < n; i++ {
		v := float64(x[ix])
		sum += v * v
		ix += incX
	}
	return sum
}

// Iamax returns the first index of the largest |x[i*incX]|, or -1 when n is 0
func Iamax[T Number](n int, x []T, incX int) int {
	if n == 0 {
		return -1
	}
	best, at := x[0], 0
	if best < 0 {
		best = -best
	}
	ix := incX
	for i := 1; i < n; i++ {
		v := x[ix]
		if v < 0 {
			v = -v
		}
		if v > best {
			best, at = v, i
		}
		ix += incX
	}
	return at
}
