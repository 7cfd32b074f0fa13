package linalg

import (
	"github.com/23skdu/strata/internal/backend"
	"github.com/23skdu/strata/internal/layout"
	"github.com/23skdu/strata/internal/nd"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack/lapack64"
)

// LU is the factorization P·A = L·U of a square matrix with partial pivoting.
type LU[T nd.Float] struct {
	lu    blas64.General
	ipiv  []int
	order layout.Order
}

// getrf factorizes g in place and returns the pivots together with the
// 1-based index of the first zero pivot, or 0 when U is nonsingular.
func getrf(g blas64.General) ([]int, int) {
	ipiv := make([]int, min(g.Rows, g.Cols))
	if lapack64.Getrf(g, ipiv) {
		return ipiv, 0
	}
	for i := range ipiv {
		if g.Data[i*g.Stride+i] == 0 {
			return ipiv, i + 1
		}
	}
	return ipiv, len(ipiv)
}

// Factorize computes the LU factorization of a square contiguous matrix.
// An exactly singular matrix returns a *DecompositionError.
func Factorize[T nd.Float](a nd.View[T]) (*LU[T], error) {
	requireSquare("linalg.Factorize", a)
	g := dense("linalg.Factorize", a)
	backend.Record("getrf", backend.PathNative)
	ipiv, zero := getrf(g)
	if zero != 0 {
		return nil, failure("lu", zero)
	}
	return &LU[T]{lu: g, ipiv: ipiv, order: nd.OrderOf(a)}, nil
}

// Size is the order of the factorized matrix.
func (f *LU[T]) Size() int { return f.lu.Rows }

// Pivots returns the row interchanges: row i was swapped with row Pivots()[i].
func (f *LU[T]) Pivots() []int { return append([]int(nil), f.ipiv...) }

// Det returns the determinant of the factorized matrix.
func (f *LU[T]) Det() T {
	return T(luDet(f.lu, f.ipiv))
}

func luDet(g blas64.General, ipiv []int) float64 {
	det := 1.0
	for i := 0; i < g.Rows; i++ {
		det *= g.Data[i*g.Stride+i]
		if ipiv[i] != i {
			det = -det
		}
	}
	return det
}

// L returns the unit lower triangular factor.
func (f *LU[T]) L() *nd.Array[T] {
	n := f.lu.Rows
	l := nd.Identity[T](n, f.order)
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			l.Set(T(f.lu.Data[i*f.lu.Stride+j]), i, j)
		}
	}
	return l
}

// U returns the upper triangular factor.
func (f *LU[T]) U() *nd.Array[T] {
	n := f.lu.Rows
	u := nd.NewMatrix[T](n, n, f.order)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			u.Set(T(f.lu.Data[i*f.lu.Stride+j]), i, j)
		}
	}
	return u
}

// Solve returns x with A·x = b. b may be a vector or a matrix of right-hand
// sides; x has the same shape and order as b.
func (f *LU[T]) Solve(b nd.View[T]) *nd.Array[T] {
	n := f.lu.Rows
	rhs := rightHandSides("linalg.Solve", b, n)
	backend.Record("getrs", backend.PathNative)
	if n > 0 && rhs.Cols > 0 {
		lapack64.Getrs(blas.NoTrans, f.lu, rhs, f.ipiv)
	}
	return solution(rhs, b, n)
}

// Inverse returns A⁻¹ from the factorization.
func (f *LU[T]) Inverse() *nd.Array[T] {
	inv := blas64.General{Rows: f.lu.Rows, Cols: f.lu.Cols, Stride: f.lu.Stride, Data: append([]float64(nil), f.lu.Data...)}
	getri(inv, f.ipiv)
	return array[T](inv, f.order)
}

func getri(g blas64.General, ipiv []int) bool {
	if g.Rows == 0 {
		return true
	}
	w := work(func(w []float64, lwork int) { lapack64.Getri(g, ipiv, w, lwork) })
	defer backend.PutFloats(w)
	backend.Record("getri", backend.PathNative)
	return lapack64.Getri(g, ipiv, w, len(w))
}

// rightHandSides copies a vector or matrix b with n rows into a row-major
// General that LAPACK may overwrite.
func rightHandSides[T nd.Float](op string, b nd.View[T], n int) blas64.General {
	var cols int
	switch b.Rank() {
	case 1:
		cols = 1
	case 2:
		cols = b.Cols()
	default:
		panic(layout.Preconditionf(op, "right-hand side must be a vector or matrix, got rank %d", b.Rank()))
	}
	requireLen(op, "right-hand side", b.Extent(0), n)
	g := blas64.General{Rows: n, Cols: cols, Stride: max(1, cols), Data: make([]float64, n*cols)}
	dst := rowMajor(g)
	if b.Rank() == 1 {
		dst = dst.Col(0)
	}
	nd.CopyConvert(dst, b)
	return g
}

// solution copies the first rows of g into an array with the rank and order
// of b.
func solution[T nd.Float](g blas64.General, b nd.View[T], rows int) *nd.Array[T] {
	if b.Rank() == 1 {
		x := nd.NewVector[T](rows)
		nd.CopyConvert(x.View(), rowMajor(g).Col(0).Slice(nd.Range(0, rows)))
		return x
	}
	x := nd.NewMatrix[T](rows, g.Cols, nd.OrderOf(b))
	nd.CopyConvert(x.View(), rowMajor(g).Slice(nd.Range(0, rows)))
	return x
}

// Det returns the determinant of a square contiguous matrix. 1x1 and 2x2
// matrices use the closed forms; larger ones are factorized. A singular
// matrix has determinant 0.
func Det[T nd.Float](a nd.View[T]) T {
	requireSquare("linalg.Det", a)
	requireContiguous("linalg.Det", a)
	switch a.Rows() {
	case 0:
		return 1
	case 1:
		backend.Record("det", backend.PathGeneric)
		return a.At(0, 0)
	case 2:
		backend.Record("det", backend.PathGeneric)
		return a.At(0, 0)*a.At(1, 1) - a.At(0, 1)*a.At(1, 0)
	}
	backend.Record("det", backend.PathNative)
	g := dense("linalg.Det", a)
	ipiv, zero := getrf(g)
	if zero != 0 {
		return 0
	}
	return T(luDet(g, ipiv))
}

// Inverse returns the inverse of a square contiguous matrix. A singular
// matrix returns a *DecompositionError; Pinv is the alternative for
// rank-deficient input.
func Inverse[T nd.Float](a nd.View[T]) (*nd.Array[T], error) {
	requireSquare("linalg.Inverse", a)
	g := dense("linalg.Inverse", a)
	backend.Record("inverse", backend.PathNative)
	ipiv, zero := getrf(g)
	if zero != 0 {
		return nil, failure("inverse", zero)
	}
	if !getri(g, ipiv) {
		return nil, failure("inverse", 1)
	}
	return array[T](g, nd.OrderOf(a)), nil
}

// Solve returns x with a·x = b for a square contiguous a. b may be a vector
// or a matrix of right-hand sides.
func Solve[T nd.Float](a, b nd.View[T]) (*nd.Array[T], error) {
	f, err := Factorize(a)
	if err != nil {
		return nil, err
	}
	return f.Solve(b), nil
}
