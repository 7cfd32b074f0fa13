package linalg

import (
	"errors"
	"math"
	"math/cmplx"
	"testing"

	"github.com/23skdu/strata/internal/layout"
	"github.com/23skdu/strata/internal/nd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/blas"
)

var orders = []layout.Order{layout.RowMajor, layout.ColMajor}

// dispatchCount reads strata_linalg_dispatch_total{op,path} from the default
// registry.
func dispatchCount(t *testing.T, op, path string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "strata_linalg_dispatch_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			labels := map[string]string{}
			for _, l := range m.GetLabel() {
				labels[l.GetName()] = l.GetValue()
			}
			if labels["op"] == op && labels["path"] == path {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func assertPrecondition(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, layout.ErrPrecondition)
	}()
	fn()
}

func close64(t *testing.T, want, got *nd.Array[float64], tol float64) {
	t.Helper()
	require.Equal(t, want.Extents(), got.Extents())
	assert.True(t, nd.AllClose(want.View(), got.View(), tol, tol), "want\n%v\ngot\n%v", want, got)
}

func TestDot(t *testing.T) {
	x := nd.VectorOf(1.0, 2, 3)
	y := nd.VectorOf(4.0, 5, 6)
	assert.Equal(t, 32.0, Dot(x.View(), y.View()))

	// a column of a row-major matrix has a non-unit increment
	m := nd.MatrixOf([][]float64{{1, 0}, {2, 0}, {3, 0}}, layout.RowMajor)
	assert.Equal(t, 32.0, Dot(m.View().Col(0), y.View()))

	xf := nd.VectorOf[float32](1, 2, 3)
	yf := nd.VectorOf[float32](4, 5, 6)
	assert.Equal(t, float32(32), Dot(xf.View(), yf.View()))

	xi := nd.VectorOf(1, 2, 3)
	yi := nd.VectorOf(4, 5, 6)
	assert.Equal(t, 32, Dot(xi.View(), yi.View()))

	assert.Equal(t, 0.0, Dot(nd.NewVector[float64](0).View(), nd.NewVector[float64](0).View()))
	assertPrecondition(t, func() { Dot(x.View(), nd.NewVector[float64](2).View()) })
}

func TestLevel1(t *testing.T) {
	x := nd.VectorOf(1.0, -4, 2)
	y := nd.VectorOf(1.0, 1, 1)

	Axpy(2, x.View(), y.View())
	assert.Equal(t, []float64{3, -7, 5}, y.Data())

	Scal(-1, y.View())
	assert.Equal(t, []float64{-3, 7, -5}, y.Data())

	assert.InDelta(t, math.Sqrt(21), Norm2(x.View()), 1e-12)
	assert.Equal(t, 7.0, Asum(x.View()))
	assert.Equal(t, 1, Iamax(x.View()))
	assert.Equal(t, -1, Iamax(nd.NewVector[float64](0).View()))

	xi := nd.VectorOf(1, -4, 2)
	assert.Equal(t, 7, Asum(xi.View()))
	assert.Equal(t, 1, Iamax(xi.View()))
	assert.InDelta(t, math.Sqrt(21), Norm2(xi.View()), 1e-12)
}

func TestOuter(t *testing.T) {
	want := nd.MatrixOf([][]float64{{4, 5}, {8, 10}, {12, 15}}, layout.RowMajor)
	for _, order := range orders {
		a := nd.NewMatrix[float64](3, 2, order)
		Outer(1, nd.VectorOf(1.0, 2, 3).View(), nd.VectorOf(4.0, 5).View(), a.View())
		close64(t, want, nd.CopyOf(a.View(), layout.RowMajor), 0)
	}

	ai := nd.NewMatrix[int](3, 2, layout.ColMajor)
	Outer(2, nd.VectorOf(1, 2, 3).View(), nd.VectorOf(1, 1).View(), ai.View())
	assert.Equal(t, 6, ai.At(2, 1))
}

func TestGemv(t *testing.T) {
	for _, order := range orders {
		a := nd.MatrixOf([][]float64{{1, 2, 3}, {4, 5, 6}}, order)

		y := MatVec(a.View(), nd.VectorOf(1.0, 1, 1).View())
		assert.Equal(t, []float64{6, 15}, y.Data())

		yt := nd.VectorOf(1.0, 1, 1)
		Gemv(blas.Trans, 1, a.View(), nd.VectorOf(1.0, 1).View(), 2, yt.View())
		assert.Equal(t, []float64{7, 9, 11}, yt.Data())
	}

	ai := nd.MatrixOf([][]int{{1, 2, 3}, {4, 5, 6}}, layout.ColMajor)
	assert.Equal(t, []int{6, 15}, MatVec(ai.View(), nd.VectorOf(1, 1, 1).View()).Data())
}

func TestMatMulLayoutIndependence(t *testing.T) {
	want := nd.MatrixOf([][]float64{{58, 64}, {139, 154}}, layout.RowMajor)
	rowsA := [][]float64{{1, 2, 3}, {4, 5, 6}}
	rowsB := [][]float64{{7, 8}, {9, 10}, {11, 12}}

	for _, oa := range orders {
		for _, ob := range orders {
			a := nd.MatrixOf(rowsA, oa)
			b := nd.MatrixOf(rowsB, ob)
			c := MatMul(a.View(), b.View())
			assert.Equal(t, oa, c.Order())
			close64(t, want, nd.CopyOf(c.View(), layout.RowMajor), 0)

			af := nd.Convert[float32](a.View(), oa)
			bf := nd.Convert[float32](b.View(), ob)
			cf := MatMul(af.View(), bf.View())
			assert.Equal(t, float32(154), cf.At(1, 1))

			ai := nd.Convert[int](a.View(), oa)
			bi := nd.Convert[int](b.View(), ob)
			ci := MatMul(ai.View(), bi.View())
			assert.Equal(t, []int{58, 64, 139, 154}, nd.CopyOf(ci.View(), layout.RowMajor).Data())
		}
	}

	// transposed views and non-unit strides give the same product
	at := nd.MatrixOf([][]float64{{1, 4}, {2, 5}, {3, 6}}, layout.RowMajor)
	big := nd.New[float64](layout.RowMajor, 6, 4)
	sparse := big.View().Slice(nd.Range(0, 3), nd.Range(1, 3))
	nd.Copy(sparse, nd.MatrixOf(rowsB, layout.RowMajor).View())
	c := MatMul(at.View().T(), sparse)
	close64(t, want, nd.CopyOf(c.View(), layout.RowMajor), 0)
}

func TestGemm(t *testing.T) {
	a := nd.MatrixOf([][]float64{{1, 2, 3}, {4, 5, 6}}, layout.RowMajor)
	b := nd.MatrixOf([][]float64{{7, 8}, {9, 10}, {11, 12}}, layout.RowMajor)
	at := nd.MatrixOf([][]float64{{1, 4}, {2, 5}, {3, 6}}, layout.ColMajor)
	want := nd.MatrixOf([][]float64{{58, 64}, {139, 154}}, layout.RowMajor)

	t.Run("transposed operand", func(t *testing.T) {
		c := nd.NewMatrix[float64](2, 2, layout.RowMajor)
		Gemm(blas.Trans, blas.NoTrans, 1, at.View(), b.View(), 0, c.View())
		close64(t, want, c, 0)
	})

	t.Run("column-major result", func(t *testing.T) {
		c := nd.NewMatrix[float64](2, 2, layout.ColMajor)
		Gemm(blas.NoTrans, blas.NoTrans, 1, a.View(), b.View(), 0, c.View())
		close64(t, want, nd.CopyOf(c.View(), layout.RowMajor), 0)

		rm := nd.NewMatrix[float64](2, 2, layout.RowMajor)
		Gemm(blas.NoTrans, blas.NoTrans, 1, a.View(), b.View(), 0, rm.View().T())
		close64(t, nd.CopyOf(want.View().T(), layout.RowMajor), rm, 0)
	})

	t.Run("alpha and beta", func(t *testing.T) {
		c := nd.Full(1.0, layout.RowMajor, 2, 2)
		Gemm(blas.NoTrans, blas.NoTrans, 2, a.View(), b.View(), 3, c.View())
		assert.Equal(t, []float64{119, 131, 281, 311}, c.Data())

		ci := nd.Full(1, layout.ColMajor, 2, 2)
		ai := nd.Convert[int](a.View(), layout.RowMajor)
		bi := nd.Convert[int](b.View(), layout.RowMajor)
		Gemm(blas.NoTrans, blas.NoTrans, 2, ai.View(), bi.View(), 3, ci.View())
		assert.Equal(t, 311, ci.At(1, 1))
	})

	t.Run("shape mismatch", func(t *testing.T) {
		c := nd.NewMatrix[float64](2, 2, layout.RowMajor)
		assertPrecondition(t, func() {
			Gemm(blas.NoTrans, blas.NoTrans, 1, a.View(), a.View(), 0, c.View())
		})
	})
}

func TestDispatchPath(t *testing.T) {
	native := dispatchCount(t, "dot", "native")
	generic := dispatchCount(t, "dot", "generic")

	Dot(nd.VectorOf(1.0, 2).View(), nd.VectorOf(3.0, 4).View())
	Dot(nd.VectorOf(1, 2).View(), nd.VectorOf(3, 4).View())

	assert.Equal(t, native+1, dispatchCount(t, "dot", "native"))
	assert.Equal(t, generic+1, dispatchCount(t, "dot", "generic"))
}

func TestMatrixNorm(t *testing.T) {
	rows := [][]float64{{1, -2}, {3, 4}}
	cases := []struct {
		kind byte
		want float64
	}{
		{'M', 4}, {'m', 4},
		{'1', 6}, {'O', 6}, {'o', 6},
		{'I', 7}, {'i', 7},
		{'F', math.Sqrt(30)}, {'E', math.Sqrt(30)},
	}
	for _, order := range orders {
		a := nd.MatrixOf(rows, order)
		ai := nd.Convert[int](a.View(), order)
		for _, tc := range cases {
			got, err := MatrixNorm(a.View(), tc.kind)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12, "kind %c order %v", tc.kind, order)

			got, err = MatrixNorm(ai.View(), tc.kind)
			require.NoError(t, err)
			assert.InDelta(t, tc.want, got, 1e-12, "int kind %c order %v", tc.kind, order)
		}
	}

	_, err := MatrixNorm(nd.MatrixOf(rows, layout.RowMajor).View(), 'X')
	assert.ErrorIs(t, err, ErrInvalidArgument)

	n, err := MatrixNorm(nd.NewMatrix[float64](0, 3, layout.RowMajor).View(), 'F')
	require.NoError(t, err)
	assert.Equal(t, 0.0, n)
}

func TestTrace(t *testing.T) {
	a := nd.MatrixOf([][]int{{1, 2}, {3, 4}}, layout.ColMajor)
	assert.Equal(t, 5, Trace(a.View()))
}

func TestDet(t *testing.T) {
	for _, order := range orders {
		a := nd.MatrixOf([][]float64{{1, 5}, {-2, 3}}, order)
		assert.Equal(t, 13.0, Det(a.View()))

		b := nd.MatrixOf([][]float64{{1, 5, 4}, {-2, 3, 6}, {5, 1, 0}}, order)
		assert.InDelta(t, 76.0, Det(b.View()), 1e-10)

		bf := nd.Convert[float32](b.View(), order)
		assert.InDelta(t, 76.0, float64(Det(bf.View())), 1e-4)

		s := nd.MatrixOf([][]float64{{1, 2, 3}, {2, 4, 6}, {1, 1, 1}}, order)
		assert.Equal(t, 0.0, Det(s.View()))
	}
	assert.Equal(t, 1.0, Det(nd.NewMatrix[float64](0, 0, layout.RowMajor).View()))
	assert.Equal(t, 7.0, Det(nd.MatrixOf([][]float64{{7}}, layout.RowMajor).View()))

	assertPrecondition(t, func() { Det(nd.NewMatrix[float64](2, 3, layout.RowMajor).View()) })
}

func TestFactorize(t *testing.T) {
	a := nd.MatrixOf([][]float64{{1, 5, 4}, {-2, 3, 6}, {5, 1, 0}}, layout.RowMajor)
	f, err := Factorize(a.View())
	require.NoError(t, err)
	assert.Equal(t, 3, f.Size())
	assert.InDelta(t, 76.0, f.Det(), 1e-10)
	assert.Len(t, f.Pivots(), 3)

	// P·A = L·U: apply the row interchanges to a copy of a
	pa := nd.CopyOf(a.View(), layout.RowMajor)
	for i, p := range f.Pivots() {
		if p != i {
			nd.Swap(pa.View().Row(i), pa.View().Row(p))
		}
	}
	close64(t, pa, MatMul(f.L().View(), f.U().View()), 1e-12)

	x := f.Solve(nd.VectorOf(10.0, 7, 6).View())
	close64(t, nd.VectorOf(1.0, 1, 1), x, 1e-12)
}

func TestInverse(t *testing.T) {
	for _, order := range orders {
		a := nd.MatrixOf([][]float64{{4, 7}, {2, 6}}, order)
		inv, err := Inverse(a.View())
		require.NoError(t, err)
		assert.Equal(t, order, inv.Order())
		close64(t, nd.MatrixOf([][]float64{{0.6, -0.7}, {-0.2, 0.4}}, layout.RowMajor), nd.CopyOf(inv.View(), layout.RowMajor), 1e-12)
	}
}

func TestSingularInverse(t *testing.T) {
	a := nd.MatrixOf([][]float64{{1, 2}, {2, 4}}, layout.RowMajor)
	_, err := Inverse(a.View())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecomposition)

	var de *DecompositionError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "inverse", de.Op)
	assert.Equal(t, 2, de.Code)

	_, err = Factorize(a.View())
	assert.ErrorIs(t, err, ErrDecomposition)
	_, err = Solve(a.View(), nd.VectorOf(1.0, 2).View())
	assert.ErrorIs(t, err, ErrDecomposition)
}

func TestSolve(t *testing.T) {
	a := nd.MatrixOf([][]float64{{3, 1}, {1, 2}}, layout.ColMajor)
	x, err := Solve(a.View(), nd.VectorOf(9.0, 8).View())
	require.NoError(t, err)
	close64(t, nd.VectorOf(2.0, 3), x, 1e-12)

	b := nd.MatrixOf([][]float64{{9, 3}, {8, 1}}, layout.RowMajor)
	xs, err := Solve(a.View(), b.View())
	require.NoError(t, err)
	close64(t, nd.MatrixOf([][]float64{{2, 1}, {3, 0}}, layout.RowMajor), xs, 1e-12)

	af := nd.Convert[float32](a.View(), layout.RowMajor)
	xf, err := Solve(af.View(), nd.VectorOf[float32](9, 8).View())
	require.NoError(t, err)
	assert.InDelta(t, 2.0, float64(xf.At(0)), 1e-5)
	assert.InDelta(t, 3.0, float64(xf.At(1)), 1e-5)
}

func TestMatrixPower(t *testing.T) {
	m := nd.MatrixOf([][]float64{{0, -1}, {1, 0}}, layout.RowMajor)
	id := nd.Identity[float64](2, layout.RowMajor)
	mt := nd.CopyOf(m.View().T(), layout.RowMajor)

	cases := []struct {
		n    int
		want *nd.Array[float64]
	}{
		{0, id},
		{1, m},
		{2, nd.Neg(id.View())},
		{3, mt},
		{4, id},
		{-1, mt},
		{-2, nd.Neg(id.View())},
	}
	for _, tc := range cases {
		got, err := MatrixPower(m.View(), tc.n)
		require.NoError(t, err, "n=%d", tc.n)
		close64(t, tc.want, got, 1e-12)
	}

	_, err := MatrixPower(nd.MatrixOf([][]float64{{1, 2}, {2, 4}}, layout.RowMajor).View(), -1)
	assert.ErrorIs(t, err, ErrDecomposition)

	assertPrecondition(t, func() { _, _ = MatrixPower(m.View(), math.MinInt) })
}

func TestQR(t *testing.T) {
	for _, order := range orders {
		a := nd.MatrixOf([][]float64{{1, 2}, {3, 4}, {5, 6}}, order)
		q, r := QR(a.View())
		require.Equal(t, layout.Extents{3, 2}, q.Extents())
		require.Equal(t, layout.Extents{2, 2}, r.Extents())
		assert.Equal(t, 0.0, r.At(1, 0))

		qtq := nd.NewMatrix[float64](2, 2, layout.RowMajor)
		Gemm(blas.Trans, blas.NoTrans, 1, q.View(), q.View(), 0, qtq.View())
		close64(t, nd.Identity[float64](2, layout.RowMajor), qtq, 1e-12)
		close64(t, nd.CopyOf(a.View(), layout.RowMajor), nd.CopyOf(MatMul(q.View(), r.View()).View(), layout.RowMajor), 1e-12)
	}

	// wide input: q is square and r is trapezoidal
	w := nd.MatrixOf([][]float64{{1, 2, 3}, {4, 5, 6}}, layout.RowMajor)
	q, r := QR(w.View())
	assert.Equal(t, layout.Extents{2, 2}, q.Extents())
	close64(t, w, MatMul(q.View(), r.View()), 1e-12)
}

func TestSVD(t *testing.T) {
	a := nd.MatrixOf([][]float64{{3, 2, 2}, {2, 3, -2}}, layout.RowMajor)
	u, s, vt, err := SVD(a.View())
	require.NoError(t, err)
	require.Equal(t, layout.Extents{2, 2}, u.Extents())
	require.Equal(t, layout.Extents{3, 3}, vt.Extents())
	close64(t, nd.VectorOf(5.0, 3), s, 1e-12)

	// a = u · diag(s) · vt[:2]
	us := nd.CopyOf(u.View(), layout.RowMajor)
	for j := 0; j < 2; j++ {
		nd.ScaleInPlace(us.View().Col(j), s.At(j))
	}
	close64(t, a, MatMul(us.View(), vt.Slice(nd.Range(0, 2), nd.All())), 1e-12)
}

func TestEigen(t *testing.T) {
	check := func(t *testing.T, rows [][]float64) *nd.Array[complex128] {
		a := nd.MatrixOf(rows, layout.RowMajor)
		values, vectors, err := Eigen(a.View())
		require.NoError(t, err)
		n := len(rows)
		for j := 0; j < n; j++ {
			lambda := values.At(j)
			for i := 0; i < n; i++ {
				var av complex128
				for k := 0; k < n; k++ {
					av += complex(rows[i][k], 0) * vectors.At(k, j)
				}
				assert.InDelta(t, 0, cmplx.Abs(av-lambda*vectors.At(i, j)), 1e-12)
			}
		}
		return values
	}

	values := check(t, [][]float64{{2, 0}, {0, 3}})
	got := []float64{real(values.At(0)), real(values.At(1))}
	assert.ElementsMatch(t, []float64{2, 3}, got)

	values = check(t, [][]float64{{0, -1}, {1, 0}})
	assert.InDelta(t, 1, imag(values.At(0)), 1e-12)
	assert.InDelta(t, -1, imag(values.At(1)), 1e-12)

	check(t, [][]float64{{4, 1, 2}, {0, 3, 1}, {1, 0, 2}})
}

func TestEigenSym(t *testing.T) {
	a := nd.MatrixOf([][]float64{{2, 1}, {1, 2}}, layout.ColMajor)
	values, vectors, err := EigenSym(a.View())
	require.NoError(t, err)
	close64(t, nd.VectorOf(1.0, 3), values, 1e-12)

	av := MatMul(a.View(), vectors.View())
	for j := 0; j < 2; j++ {
		for i := 0; i < 2; i++ {
			assert.InDelta(t, values.At(j)*vectors.At(i, j), av.At(i, j), 1e-12)
		}
	}
}

func TestLeastSquares(t *testing.T) {
	a := nd.MatrixOf([][]float64{{1, 0}, {1, 1}, {1, 2}}, layout.RowMajor)
	x, err := LeastSquares(a.View(), nd.VectorOf(1.0, 3, 5).View())
	require.NoError(t, err)
	close64(t, nd.VectorOf(1.0, 2), x, 1e-12)

	// minimum norm solution of an underdetermined system
	w := nd.MatrixOf([][]float64{{1, 1}}, layout.RowMajor)
	x, err = LeastSquares(w.View(), nd.VectorOf(2.0).View())
	require.NoError(t, err)
	close64(t, nd.VectorOf(1.0, 1), x, 1e-12)

	// an all-zero column leaves an exactly zero diagonal in R
	_, err = LeastSquares(nd.MatrixOf([][]float64{{1, 0}, {2, 0}, {3, 0}}, layout.RowMajor).View(), nd.VectorOf(1.0, 2, 3).View())
	assert.ErrorIs(t, err, ErrDecomposition)
}

func TestPinv(t *testing.T) {
	a := nd.MatrixOf([][]float64{{4, 7}, {2, 6}}, layout.RowMajor)
	p, err := Pinv(a.View(), 0)
	require.NoError(t, err)
	inv, err := Inverse(a.View())
	require.NoError(t, err)
	close64(t, inv, p, 1e-12)

	s := nd.MatrixOf([][]float64{{1, 2}, {2, 4}}, layout.RowMajor)
	p, err = Pinv(s.View(), 0)
	require.NoError(t, err)
	close64(t, nd.MatrixOf([][]float64{{0.04, 0.08}, {0.08, 0.16}}, layout.RowMajor), p, 1e-12)
	close64(t, s, MatMul(MatMul(s.View(), p.View()).View(), s.View()), 1e-12)

	wide := nd.MatrixOf([][]float64{{1, 0, 0}, {0, 2, 0}}, layout.RowMajor)
	p, err = Pinv(wide.View(), 0)
	require.NoError(t, err)
	close64(t, nd.MatrixOf([][]float64{{1, 0}, {0, 0.5}, {0, 0}}, layout.RowMajor), p, 1e-12)
}

func TestExpm(t *testing.T) {
	z := nd.NewMatrix[float64](3, 3, layout.RowMajor)
	e, err := Expm(z.View())
	require.NoError(t, err)
	close64(t, nd.Identity[float64](3, layout.RowMajor), e, 1e-14)

	d := nd.MatrixOf([][]float64{{1, 0}, {0, 2}}, layout.ColMajor)
	e, err = Expm(d.View())
	require.NoError(t, err)
	want := nd.MatrixOf([][]float64{{math.E, 0}, {0, math.E * math.E}}, layout.ColMajor)
	close64(t, want, e, 1e-10)

	r := nd.MatrixOf([][]float64{{0, -1}, {1, 0}}, layout.RowMajor)
	e, err = Expm(r.View())
	require.NoError(t, err)
	c, s := math.Cos(1), math.Sin(1)
	close64(t, nd.MatrixOf([][]float64{{c, -s}, {s, c}}, layout.RowMajor), e, 1e-10)

	ef, err := Expm(nd.Convert[float32](d.View(), layout.RowMajor).View())
	require.NoError(t, err)
	assert.InDelta(t, math.E, float64(ef.At(0, 0)), 1e-5)
}
