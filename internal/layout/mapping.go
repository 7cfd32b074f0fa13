package layout

// Kind classifies a Mapping.
type Kind uint8

const (
	KindRowMajor Kind = iota
	KindColMajor
	KindStrided
)

// Mapping turns a multi-index into a linear offset: offset = Σ idx(k)·stride(k).
// The zero value is a rank-0 mapping with a single element at offset 0.
type Mapping struct {
	ext     Extents
	strides []int
	kind    Kind
}

// NewMapping returns the canonical contiguous mapping of ext in order o.
func NewMapping(ext Extents, o Order) Mapping {
	ext = Of(ext...)
	kind := KindRowMajor
	if o == ColMajor {
		kind = KindColMajor
	}
	return Mapping{ext: ext, strides: o.Strides(ext), kind: kind}
}

// NewStrided returns a mapping with explicit non-negative strides. When the
// strides happen to be canonical the mapping is classified as such.
func NewStrided(ext Extents, strides []int) Mapping {
	if len(ext) != len(strides) {
		panic(Preconditionf("layout.NewStrided", "%d strides for rank %d", len(strides), len(ext)))
	}
	for k, s := range strides {
		if s < 0 {
			panic(Preconditionf("layout.NewStrided", "negative stride %d in dim %d", s, k))
		}
	}
	m := Mapping{ext: Of(ext...), strides: append([]int(nil), strides...), kind: KindStrided}
	if o, ok := m.ContiguousOrder(); ok && canonical(m, o) {
		m.kind = KindRowMajor
		if o == ColMajor {
			m.kind = KindColMajor
		}
	}
	return m
}

// canonical is the strict form of contiguity: every stride, including those
// of unit dimensions, equals the canonical one.
func canonical(m Mapping, o Order) bool {
	want := o.Strides(m.ext)
	for k := range want {
		if want[k] != m.strides[k] {
			return false
		}
	}
	return true
}

func (m Mapping) Kind() Kind { return m.kind }

func (m Mapping) Rank() int { return len(m.ext) }

func (m Mapping) Extent(k int) int { return m.ext[k] }

func (m Mapping) Stride(k int) int { return m.strides[k] }

func (m Mapping) Size() int { return m.ext.Size() }

// Extents returns a copy of the extents.
func (m Mapping) Extents() Extents { return m.ext.Clone() }

// Strides returns a copy of the strides.
func (m Mapping) Strides() []int { return append([]int(nil), m.strides...) }

// Offset maps idx to a linear offset. With checks compiled in, a wrong number
// of indices or an index outside [0, extent) panics with *BoundsError.
func (m Mapping) Offset(idx ...int) int {
	if Checks {
		m.CheckIndex(idx)
	}
	off := 0
	for k, i := range idx {
		off += i * m.strides[k]
	}
	return off
}

// CheckIndex panics with *BoundsError when idx is not a valid multi-index.
func (m Mapping) CheckIndex(idx []int) {
	if len(idx) != len(m.ext) {
		panic(&BoundsError{Index: append([]int(nil), idx...), Extents: m.ext.Clone(), Dim: -1})
	}
	for k, i := range idx {
		if i < 0 || i >= m.ext[k] {
			panic(&BoundsError{Index: append([]int(nil), idx...), Extents: m.ext.Clone(), Dim: k})
		}
	}
}

// Span is one past the largest offset the mapping can produce, the minimum
// buffer length a view with this mapping needs. Empty mappings span nothing.
func (m Mapping) Span() int {
	if m.Size() == 0 {
		return 0
	}
	last := 0
	for k, n := range m.ext {
		last += (n - 1) * m.strides[k]
	}
	return last + 1
}

// IsContiguous reports whether the elements occupy exactly Size consecutive
// buffer slots in row- or column-major order. Dimensions of extent one or
// less do not constrain their stride.
func (m Mapping) IsContiguous() bool {
	_, ok := m.ContiguousOrder()
	return ok
}

// ContiguousOrder reports which canonical order the mapping follows, if any.
// A mapping that qualifies as both (vectors, one-element arrays) reports the
// order of its Kind, defaulting to RowMajor.
func (m Mapping) ContiguousOrder() (Order, bool) {
	if m.kind == KindRowMajor {
		return RowMajor, true
	}
	if m.kind == KindColMajor {
		return ColMajor, true
	}
	if m.Size() == 0 {
		return RowMajor, true
	}
	row, col := m.matches(RowMajor), m.matches(ColMajor)
	switch {
	case row:
		return RowMajor, true
	case col:
		return ColMajor, true
	}
	return RowMajor, false
}

func (m Mapping) matches(o Order) bool {
	want := o.Strides(m.ext)
	for k := range want {
		if m.ext[k] > 1 && m.strides[k] != want[k] {
			return false
		}
	}
	return true
}

// IterOrder is the order in which element-wise walks visit the mapping:
// the canonical order for contiguous mappings, otherwise the order that puts
// the smallest stride innermost.
func (m Mapping) IterOrder() Order {
	if o, ok := m.ContiguousOrder(); ok {
		return o
	}
	r := len(m.strides)
	if r > 1 && m.strides[0] < m.strides[r-1] {
		return ColMajor
	}
	return RowMajor
}

// Transpose reverses the order of the dimensions. For a matrix this swaps
// rows and columns without moving data.
func (m Mapping) Transpose() Mapping {
	r := len(m.ext)
	axes := make([]int, r)
	for k := range axes {
		axes[k] = r - 1 - k
	}
	return m.Permute(axes...)
}

// Permute reorders dimensions: dimension k of the result is dimension
// axes[k] of m.
func (m Mapping) Permute(axes ...int) Mapping {
	r := len(m.ext)
	if len(axes) != r {
		panic(Preconditionf("layout.Permute", "%d axes for rank %d", len(axes), r))
	}
	seen := make([]bool, r)
	ext := make(Extents, r)
	strides := make([]int, r)
	for k, a := range axes {
		if a < 0 || a >= r || seen[a] {
			panic(Preconditionf("layout.Permute", "invalid axis permutation %v", axes))
		}
		seen[a] = true
		ext[k] = m.ext[a]
		strides[k] = m.strides[a]
	}
	return NewStrided(ext, strides)
}
