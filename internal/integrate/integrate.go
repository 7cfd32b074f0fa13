// Package integrate provides sampled quadrature over vector views: the
// trapezoidal rule on uniform or non-uniform grids, its cumulative form and
// composite Simpson's rule.
package integrate

import (
	"slices"

	"github.com/23skdu/strata/internal/layout"
	"github.com/23skdu/strata/internal/nd"
	"gonum.org/v1/gonum/integrate"
)

// dense returns the elements of a unit-stride float64 vector, or false when
// v is another element type or strided.
func dense[T nd.Float](v nd.View[T]) ([]float64, bool) {
	f, ok := any(v).(nd.View[float64])
	if !ok || f.Rank() != 1 || (f.Extent(0) > 1 && f.Stride(0) != 1) {
		return nil, false
	}
	return f.Data()[:f.Extent(0)], true
}

func samples[T nd.Float](op string, y, x nd.View[T], least int) int {
	if y.Rank() != 1 || x.Rank() != 1 {
		panic(layout.Preconditionf(op, "need vectors, got ranks %d and %d", y.Rank(), x.Rank()))
	}
	n := y.Extent(0)
	if x.Extent(0) != n {
		panic(layout.Preconditionf(op, "%d samples for %d points", n, x.Extent(0)))
	}
	if n < least {
		panic(layout.Preconditionf(op, "need at least %d samples, got %d", least, n))
	}
	return n
}

// Trapz integrates the samples y taken at the points x with the trapezoidal
// rule. x need not be uniform; a decreasing x yields a negated integral.
func Trapz[T nd.Float](y, x nd.View[T]) float64 {
	n := samples("integrate.Trapz", y, x, 2)
	yd, ok1 := dense(y)
	xd, ok2 := dense(x)
	if ok1 && ok2 && slices.IsSorted(xd) {
		return integrate.Trapezoidal(xd, yd)
	}
	var sum float64
	for i := 1; i < n; i++ {
		dx := float64(x.At(i)) - float64(x.At(i-1))
		sum += dx * (float64(y.At(i)) + float64(y.At(i-1))) / 2
	}
	return sum
}

// TrapzDx integrates samples spaced dx apart with the trapezoidal rule.
func TrapzDx[T nd.Float](y nd.View[T], dx float64) float64 {
	if y.Rank() != 1 {
		panic(layout.Preconditionf("integrate.TrapzDx", "need a vector, got rank %d", y.Rank()))
	}
	n := y.Extent(0)
	if n < 2 {
		return 0
	}
	sum := (float64(y.At(0)) + float64(y.At(n-1))) / 2
	for i := 1; i < n-1; i++ {
		sum += float64(y.At(i))
	}
	return sum * dx
}

// TrapzInterval integrates samples spread uniformly over [lo, hi].
func TrapzInterval[T nd.Float](y nd.View[T], lo, hi float64) float64 {
	n := y.Extent(0)
	if n < 2 {
		return 0
	}
	return TrapzDx(y, (hi-lo)/float64(n-1))
}

// CumTrapz returns the running trapezoidal integral of y over x. The result
// has the length of y and starts at zero.
func CumTrapz[T nd.Float](y, x nd.View[T]) *nd.Array[T] {
	n := samples("integrate.CumTrapz", y, x, 0)
	out := nd.NewVector[T](n)
	var sum float64
	for i := 1; i < n; i++ {
		dx := float64(x.At(i)) - float64(x.At(i-1))
		sum += dx * (float64(y.At(i)) + float64(y.At(i-1))) / 2
		out.Set(T(sum), i)
	}
	return out
}

// Simpson integrates y over strictly increasing x with the composite
// Simpson's rule for irregularly spaced points. An even number of samples
// closes the last interval with a quadratic through the final three points.
func Simpson[T nd.Float](y, x nd.View[T]) float64 {
	samples("integrate.Simpson", y, x, 3)
	xd, ok := dense(x)
	if !ok {
		xd = floats(x)
	}
	if !slices.IsSorted(xd) {
		panic(layout.Preconditionf("integrate.Simpson", "points must be increasing"))
	}
	yd, ok := dense(y)
	if !ok {
		yd = floats(y)
	}
	return integrate.Simpsons(xd, yd)
}

func floats[T nd.Float](v nd.View[T]) []float64 {
	out := make([]float64, v.Extent(0))
	for i := range out {
		out[i] = float64(v.At(i))
	}
	return out
}
