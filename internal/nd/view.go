// Package nd provides strided N-dimensional views over flat buffers and the
// owning arrays behind them. A View never owns memory: many views may alias
// one buffer, and writes through any of them are visible through all.
package nd

import (
	"github.com/23skdu/strata/internal/layout"
)

// generation is shared between an Array and every view taken from it. Each
// operation that invalidates views bumps n.
type generation struct {
	n uint64
}

// View is a non-owning window onto a buffer: the data slice starts at the
// view's first element and the mapping turns indices into offsets from there.
type View[T any] struct {
	data []T
	m    layout.Mapping
	gen  *generation
	seen uint64
}

// NewView wraps data with mapping m. data must hold at least m.Span()
// elements.
func NewView[T any](data []T, m layout.Mapping) View[T] {
	span := m.Span()
	if span > len(data) {
		panic(layout.Preconditionf("nd.NewView", "mapping %v spans %d elements, buffer has %d", m.Extents(), span, len(data)))
	}
	return View[T]{data: data[:span], m: m}
}

// StridedView wraps data with explicit extents and strides.
func StridedView[T any](data []T, ext []int, strides []int) View[T] {
	return NewView(data, layout.NewStrided(ext, strides))
}

func (v View[T]) derive(data []T, m layout.Mapping) View[T] {
	return View[T]{data: data[:m.Span()], m: m, gen: v.gen, seen: v.seen}
}

// Valid reports whether the buffer behind v is still the one it was taken
// from. Views of an array go stale when the array is resized or released.
// Move and Swap keep them valid: a view follows its buffer to the new owner.
func (v View[T]) Valid() bool {
	return v.gen == nil || v.gen.n == v.seen
}

func (v View[T]) live() {
	if layout.Checks && !v.Valid() {
		panic(layout.Preconditionf("nd.View", "view outlived its buffer"))
	}
}

// At returns the element at idx.
func (v View[T]) At(idx ...int) T {
	v.live()
	return v.data[v.m.Offset(idx...)]
}

// Set stores x at idx.
func (v View[T]) Set(x T, idx ...int) {
	v.live()
	v.data[v.m.Offset(idx...)] = x
}

// Ref returns a pointer to the element at idx.
func (v View[T]) Ref(idx ...int) *T {
	v.live()
	return &v.data[v.m.Offset(idx...)]
}

func (v View[T]) Rank() int               { return v.m.Rank() }
func (v View[T]) Extent(k int) int        { return v.m.Extent(k) }
func (v View[T]) Stride(k int) int        { return v.m.Stride(k) }
func (v View[T]) Size() int               { return v.m.Size() }
func (v View[T]) Extents() layout.Extents { return v.m.Extents() }
func (v View[T]) Strides() []int          { return v.m.Strides() }
func (v View[T]) Mapping() layout.Mapping { return v.m }

// Data returns the backing slice starting at the first element of the view.
// Its length is the span of the mapping, not the element count.
func (v View[T]) Data() []T {
	v.live()
	return v.data
}

// IsContiguous reports whether the view covers Size consecutive slots.
func (v View[T]) IsContiguous() bool { return v.m.IsContiguous() }

// Order is the canonical order of a contiguous view. ok is false for strided
// views.
func (v View[T]) Order() (o layout.Order, ok bool) { return v.m.ContiguousOrder() }

// Rows and Cols are shorthands for the first two extents of a matrix view.
func (v View[T]) Rows() int { return v.m.Extent(0) }
func (v View[T]) Cols() int { return v.m.Extent(1) }

func (v View[T]) String() string {
	s, err := FormatText(v)
	if err != nil {
		return "nd.View" + v.m.Extents().String()
	}
	return s
}
