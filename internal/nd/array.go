package nd

import (
	"github.com/23skdu/strata/internal/layout"
)

// Array owns a contiguous buffer in a canonical order and exposes it through
// a View. Arrays are handled by pointer; Clone deep-copies, Move transfers
// ownership and Swap exchanges two arrays in O(1).
type Array[T any] struct {
	buf   []T
	order layout.Order
	view  View[T]
	gen   *generation
}

// New allocates a zeroed array with the given extents.
func New[T any](order layout.Order, ext ...int) *Array[T] {
	e := layout.Of(ext...)
	a := &Array[T]{order: order, gen: &generation{}}
	a.attach(make([]T, e.Size()), e)
	return a
}

// FromSlice copies data into a new array. data is read in order and must hold
// exactly as many elements as the extents describe.
func FromSlice[T any](data []T, order layout.Order, ext ...int) *Array[T] {
	a := New[T](order, ext...)
	if len(data) != len(a.buf) {
		panic(layout.Preconditionf("nd.FromSlice", "%d values for extents %v", len(data), layout.Extents(ext)))
	}
	copy(a.buf, data)
	return a
}

// CopyOf deep-copies any view, whatever its strides, into a new array.
func CopyOf[T any](v View[T], order layout.Order) *Array[T] {
	a := New[T](order, v.m.Extents()...)
	Copy(a.view, v)
	return a
}

func (a *Array[T]) attach(buf []T, e layout.Extents) {
	a.buf = buf
	a.view = View[T]{data: buf, m: layout.NewMapping(e, a.order), gen: a.gen, seen: a.gen.n}
}

// View returns a view of the whole array.
func (a *Array[T]) View() View[T] { return a.view }

func (a *Array[T]) Order() layout.Order           { return a.order }
func (a *Array[T]) Extents() layout.Extents       { return a.view.m.Extents() }
func (a *Array[T]) Extent(k int) int              { return a.view.m.Extent(k) }
func (a *Array[T]) Rank() int                     { return a.view.m.Rank() }
func (a *Array[T]) Size() int                     { return len(a.buf) }
func (a *Array[T]) At(idx ...int) T               { return a.view.At(idx...) }
func (a *Array[T]) Set(x T, idx ...int)           { a.view.Set(x, idx...) }
func (a *Array[T]) Ref(idx ...int) *T             { return a.view.Ref(idx...) }
func (a *Array[T]) Slice(sel ...Selector) View[T] { return a.view.Slice(sel...) }

// Data returns the owned buffer in storage order.
func (a *Array[T]) Data() []T { return a.buf }

// Resize reallocates the array with new extents. Contents are not preserved:
// the new buffer is zeroed. Every view taken before the call goes stale.
func (a *Array[T]) Resize(ext ...int) {
	e := layout.Of(ext...)
	a.gen.n++
	a.attach(make([]T, e.Size()), e)
}

// Clone returns a deep copy with the same order and extents.
func (a *Array[T]) Clone() *Array[T] {
	b := &Array[T]{order: a.order, gen: &generation{}}
	b.attach(append([]T(nil), a.buf...), a.view.m.Extents())
	return b
}

// Move transfers the buffer to a new array and leaves a empty, with the same
// rank and zero extents. Views of the buffer stay valid and follow it to the
// returned array.
func (a *Array[T]) Move() *Array[T] {
	b := &Array[T]{buf: a.buf, order: a.order, view: a.view, gen: a.gen}
	a.gen = &generation{}
	a.attach(nil, make(layout.Extents, a.view.m.Rank()))
	return b
}

// Swap exchanges the contents of a and b without copying elements. Views
// follow their buffers.
func (a *Array[T]) Swap(b *Array[T]) {
	*a, *b = *b, *a
}

// Release drops the buffer. Views taken before the call go stale.
func (a *Array[T]) Release() {
	a.gen.n++
	a.attach(nil, make(layout.Extents, a.view.m.Rank()))
}

func (a *Array[T]) String() string { return a.view.String() }
