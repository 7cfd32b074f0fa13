package nd

import "github.com/23skdu/strata/internal/kernels"

// Element-wise arithmetic. Operands must have equal extents; the result takes
// the order of the first operand.

// Add returns a + b.
func Add[T Scalar](a, b View[T]) *Array[T] {
	c := CopyOf(a, OrderOf(a))
	AddTo(c.view, b)
	return c
}

// Sub returns a - b.
func Sub[T Scalar](a, b View[T]) *Array[T] {
	c := CopyOf(a, OrderOf(a))
	SubFrom(c.view, b)
	return c
}

// Mul returns the element-wise product of a and b.
func Mul[T Scalar](a, b View[T]) *Array[T] {
	mustSameShape("nd.Mul", a.m, b.m)
	c := CopyOf(a, OrderOf(a))
	zip(c.view, b, func(d, s *T) { *d *= *s })
	return c
}

// Scale returns s * a.
func Scale[T Scalar](a View[T], s T) *Array[T] {
	c := CopyOf(a, OrderOf(a))
	ScaleInPlace(c.view, s)
	return c
}

// Div returns a / s.
func Div[T Scalar](a View[T], s T) *Array[T] {
	c := CopyOf(a, OrderOf(a))
	DivInPlace(c.view, s)
	return c
}

// Neg returns -a.
func Neg[T Scalar](a View[T]) *Array[T] {
	c := CopyOf(a, OrderOf(a))
	c.view.Transform(func(x T) T { return -x })
	return c
}

// AddTo performs dst += src.
func AddTo[T Scalar](dst, src View[T]) {
	mustSameShape("nd.AddTo", dst.m, src.m)
	if d, s, ok := unitary(dst, src); ok {
		kernels.AddUnitary(d, s)
		return
	}
	zip(dst, src, func(d, s *T) { *d += *s })
}

// SubFrom performs dst -= src.
func SubFrom[T Scalar](dst, src View[T]) {
	mustSameShape("nd.SubFrom", dst.m, src.m)
	if d, s, ok := unitary(dst, src); ok {
		kernels.SubUnitary(d, s)
		return
	}
	zip(dst, src, func(d, s *T) { *d -= *s })
}

// ScaleInPlace performs dst *= s.
func ScaleInPlace[T Scalar](dst View[T], s T) {
	if dst.IsContiguous() {
		kernels.ScalUnitary(s, dst.Data()[:dst.Size()])
		return
	}
	dst.Apply(func(p *T) { *p *= s })
}

// DivInPlace performs dst /= s.
func DivInPlace[T Scalar](dst View[T], s T) {
	dst.Apply(func(p *T) { *p /= s })
}

// AddScalar performs dst += s.
func AddScalar[T Scalar](dst View[T], s T) {
	dst.Apply(func(p *T) { *p += s })
}

// Sum adds up every element of v.
func Sum[T Scalar](v View[T]) T {
	var sum T
	v.Apply(func(p *T) { sum += *p })
	return sum
}

// unitary returns the dense backing slices of two views that store their
// elements in the same order, so element-wise kernels can run on them
// directly.
func unitary[T any](a, b View[T]) ([]T, []T, bool) {
	ao, ok := a.m.ContiguousOrder()
	if !ok {
		return nil, nil, false
	}
	bo, ok := b.m.ContiguousOrder()
	if !ok || (ao != bo && a.m.Rank() > 1) {
		return nil, nil, false
	}
	n := a.m.Size()
	return a.Data()[:n], b.Data()[:n], true
}
