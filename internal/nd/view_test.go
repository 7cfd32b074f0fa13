package nd

import (
	"errors"
	"testing"

	"github.com/23skdu/strata/internal/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func panicError(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		var ok bool
		err, ok = r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
	}()
	fn()
	return nil
}

func seq(a *Array[float64]) *Array[float64] {
	for i := range a.Data() {
		a.Data()[i] = float64(i)
	}
	return a
}

func TestShapeInvariant(t *testing.T) {
	for _, order := range []layout.Order{layout.RowMajor, layout.ColMajor} {
		a := New[float64](order, 2, 3, 4)
		assert.Equal(t, 24, a.Size())
		assert.Equal(t, 3, a.Rank())
		assert.Equal(t, 24, len(a.Data()))
		assert.Equal(t, 2*3*4, a.Extent(0)*a.Extent(1)*a.Extent(2))

		v := a.View()
		assert.True(t, v.IsContiguous())
		o, ok := v.Order()
		assert.True(t, ok)
		assert.Equal(t, order, o)
	}

	e := New[int](layout.RowMajor, 0, 5)
	assert.Equal(t, 0, e.Size())
	calls := 0
	e.View().Apply(func(*int) { calls++ })
	assert.Equal(t, 0, calls)
}

func TestRowAndColumnMajorIndexing(t *testing.T) {
	row := seq(New[float64](layout.RowMajor, 2, 3))
	col := seq(New[float64](layout.ColMajor, 2, 3))

	// row-major: offset = i*3 + j, column-major: offset = i + j*2
	assert.Equal(t, 5.0, row.At(1, 2))
	assert.Equal(t, 5.0, col.At(1, 2))
	assert.Equal(t, 1.0, row.At(0, 1))
	assert.Equal(t, 2.0, col.At(0, 1))

	*row.Ref(0, 0) = 42
	assert.Equal(t, 42.0, row.Data()[0])
}

func TestRoundTripCopy(t *testing.T) {
	src := seq(New[float64](layout.RowMajor, 3, 4))
	strided := src.View().Slice(All(), Range(1, 4)).T()
	require.False(t, strided.IsContiguous())

	for _, order := range []layout.Order{layout.RowMajor, layout.ColMajor} {
		c := CopyOf(strided, order)
		assert.True(t, Equal(c.View(), strided))
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				assert.Equal(t, strided.At(i, j), c.At(i, j))
			}
		}
	}
}

func TestAliasingThroughSlices(t *testing.T) {
	a := seq(New[float64](layout.RowMajor, 4, 5))
	s := a.View().Slice(Range(1, 3), Range(2, 5))
	assert.Equal(t, layout.Of(2, 3), s.Extents())

	s.Set(-1, 1, 2)
	assert.Equal(t, -1.0, a.At(2, 4))

	a.Set(99, 1, 2)
	assert.Equal(t, 99.0, s.At(0, 0))

	// a slice of a slice still writes through to the owner
	s.Slice(Index(0)).Fill(7)
	assert.Equal(t, []float64{7, 7, 7}, []float64{a.At(1, 2), a.At(1, 3), a.At(1, 4)})
}

func TestTransposeInvolution(t *testing.T) {
	a := seq(New[float64](layout.RowMajor, 3, 5))
	v := a.View()
	tt := v.T().T()
	assert.True(t, Equal(v, tt))
	assert.Equal(t, v.Strides(), tt.Strides())

	tr := v.T()
	for i := 0; i < 3; i++ {
		for j := 0; j < 5; j++ {
			assert.Equal(t, v.At(i, j), tr.At(j, i))
		}
	}
}

func TestDiagonalViewMutation(t *testing.T) {
	for _, order := range []layout.Order{layout.RowMajor, layout.ColMajor} {
		m := New[float64](order, 3, 3)
		d := m.View().Diag()
		assert.Equal(t, 4, d.Stride(0))
		d.Fill(1)
		assert.True(t, Equal(m.View(), Identity[float64](3, order).View()))
	}

	rect := New[int](layout.RowMajor, 2, 4)
	d := rect.View().Diag()
	assert.Equal(t, 2, d.Size())
	assert.Equal(t, 5, d.Stride(0))
	d.Fill(3)
	assert.Equal(t, []int{3, 0, 0, 0, 0, 3, 0, 0}, rect.Data())
}

func TestRowColSub(t *testing.T) {
	a := MatrixOf([][]int{{1, 2, 3}, {4, 5, 6}}, layout.ColMajor)
	assert.Equal(t, []int{4, 5, 6}, CopyOf(a.View().Row(1), layout.RowMajor).Data())
	assert.Equal(t, []int{3, 6}, CopyOf(a.View().Col(2), layout.RowMajor).Data())

	// a column of a column-major matrix is contiguous, a row is not
	assert.True(t, a.View().Col(1).IsContiguous())
	assert.False(t, a.View().Row(1).IsContiguous())

	sub := a.View().Sub(0, 2, 1, 3)
	assert.True(t, Equal(sub, MatrixOf([][]int{{2, 3}, {5, 6}}, layout.RowMajor).View()))
}

func TestSliceRangeErrors(t *testing.T) {
	v := New[float64](layout.RowMajor, 3, 4).View()

	err := panicError(t, func() { v.Slice(Range(2, 5)) })
	assert.True(t, errors.Is(err, layout.ErrRange))
	var re *layout.RangeError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 0, re.Dim)

	err = panicError(t, func() { v.Slice(All(), Range(3, 2)) })
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 1, re.Dim)

	err = panicError(t, func() { v.Slice(All(), Index(4)) })
	require.True(t, errors.As(err, &re))
	assert.True(t, re.Index)

	err = panicError(t, func() { v.Slice(All(), All(), All()) })
	assert.True(t, errors.Is(err, layout.ErrPrecondition))

	// empty ranges at the end are legal
	e := v.Slice(Range(3, 3), Range(4, 4))
	assert.Equal(t, 0, e.Size())
}

func TestReshapeAndPermute(t *testing.T) {
	a := seq(New[float64](layout.RowMajor, 2, 6))
	r := a.View().Reshape(3, 4)
	assert.Equal(t, 5.0, r.At(1, 1))

	p := seq(New[float64](layout.RowMajor, 2, 3, 4)).View().Permute(2, 0, 1)
	assert.Equal(t, layout.Of(4, 2, 3), p.Extents())
	assert.Equal(t, float64(1*12+2*4+3), p.At(3, 1, 2))

	err := panicError(t, func() { a.View().Slice(All(), Range(0, 3)).Reshape(6) })
	assert.True(t, errors.Is(err, layout.ErrPrecondition))
}

func TestApplyOrder(t *testing.T) {
	var got []float64
	seq(New[float64](layout.ColMajor, 2, 3)).View().Apply(func(p *float64) { got = append(got, *p) })
	assert.Equal(t, []float64{0, 1, 2, 3, 4, 5}, got)

	got = got[:0]
	// transpose of a row-major matrix is walked along its unit stride
	seq(New[float64](layout.RowMajor, 2, 3)).View().Slice(All(), Range(0, 2)).T().Apply(func(p *float64) {
		got = append(got, *p)
	})
	assert.ElementsMatch(t, []float64{0, 1, 3, 4}, got)

	var idxs [][]int
	New[int](layout.RowMajor, 2, 2).View().ForEach(func(idx []int, _ int) {
		idxs = append(idxs, append([]int(nil), idx...))
	})
	assert.Equal(t, [][]int{{0, 0}, {0, 1}, {1, 0}, {1, 1}}, idxs)
}

func TestSwapViews(t *testing.T) {
	a := MatrixOf([][]int{{1, 2}, {3, 4}}, layout.RowMajor)
	Swap(a.View().Row(0), a.View().Row(1))
	assert.Equal(t, []int{3, 4, 1, 2}, a.Data())

	err := panicError(t, func() { Swap(a.View().Row(0), VectorOf(1, 2, 3).View()) })
	assert.True(t, errors.Is(err, layout.ErrPrecondition))
}

func TestNewViewOverForeignBuffer(t *testing.T) {
	buf := []float64{1, 2, 3, 4, 5, 6}
	v := StridedView(buf, []int{3}, []int{2})
	assert.Equal(t, 5.0, v.At(2))
	assert.True(t, v.Valid())

	err := panicError(t, func() { StridedView(buf, []int{4}, []int{2}) })
	assert.True(t, errors.Is(err, layout.ErrPrecondition))
}
