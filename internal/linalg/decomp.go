package linalg

import (
	"math"

	"github.com/23skdu/strata/internal/backend"
	"github.com/23skdu/strata/internal/nd"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/lapack"
	"gonum.org/v1/gonum/lapack/lapack64"
)

// QR returns the thin QR factorization a = q·r of an m x n contiguous matrix:
// q is m x k with orthonormal columns and r is k x n upper triangular, where
// k = min(m, n).
func QR[T nd.Float](a nd.View[T]) (q, r *nd.Array[T]) {
	g := dense("linalg.QR", a)
	m, n, k := g.Rows, g.Cols, min(g.Rows, g.Cols)
	order := nd.OrderOf(a)
	backend.Record("geqrf", backend.PathNative)

	tau := make([]float64, k)
	if k > 0 {
		w := work(func(w []float64, lwork int) { lapack64.Geqrf(g, tau, w, lwork) })
		lapack64.Geqrf(g, tau, w, len(w))
		backend.PutFloats(w)
	}

	r = nd.NewMatrix[T](k, n, order)
	for i := 0; i < k; i++ {
		for j := i; j < n; j++ {
			r.Set(T(g.Data[i*g.Stride+j]), i, j)
		}
	}

	qg := blas64.General{Rows: m, Cols: k, Stride: g.Stride, Data: g.Data}
	if k > 0 {
		w := work(func(w []float64, lwork int) { lapack64.Orgqr(qg, tau, w, lwork) })
		lapack64.Orgqr(qg, tau, w, len(w))
		backend.PutFloats(w)
	}
	return array[T](qg, order), r
}

// SVD returns the full singular value decomposition a = u·diag(s)·vt of an
// m x n contiguous matrix. u is m x m, vt is n x n and s holds the min(m, n)
// singular values in decreasing order.
func SVD[T nd.Float](a nd.View[T]) (u, s, vt *nd.Array[T], err error) {
	g := dense("linalg.SVD", a)
	m, n := g.Rows, g.Cols
	order := nd.OrderOf(a)
	if m == 0 || n == 0 {
		return nd.Identity[T](m, order), nd.NewVector[T](0), nd.Identity[T](n, order), nil
	}
	backend.Record("gesvd", backend.PathNative)
	ug := blas64.General{Rows: m, Cols: m, Stride: m, Data: make([]float64, m*m)}
	vg := blas64.General{Rows: n, Cols: n, Stride: n, Data: make([]float64, n*n)}
	sv := make([]float64, min(m, n))
	w := work(func(w []float64, lwork int) {
		lapack64.Gesvd(lapack.SVDAll, lapack.SVDAll, g, ug, vg, sv, w, lwork)
	})
	defer backend.PutFloats(w)
	if !lapack64.Gesvd(lapack.SVDAll, lapack.SVDAll, g, ug, vg, sv, w, len(w)) {
		return nil, nil, nil, failure("svd", 1)
	}
	return array[T](ug, order), vectorArray[T](sv), array[T](vg, order), nil
}

// Eigen computes the eigenvalues and right eigenvectors of a square
// contiguous matrix. Column j of vectors is the eigenvector for values[j],
// normalized to unit Euclidean norm. Complex pairs appear consecutively,
// positive imaginary part first.
func Eigen[T nd.Float](a nd.View[T]) (values, vectors *nd.Array[complex128], err error) {
	requireSquare("linalg.Eigen", a)
	g := dense("linalg.Eigen", a)
	n := g.Rows
	order := nd.OrderOf(a)
	backend.Record("geev", backend.PathNative)
	wr, wi := make([]float64, n), make([]float64, n)
	vr := blas64.General{Rows: n, Cols: n, Stride: max(1, n), Data: make([]float64, n*n)}
	var vl blas64.General
	w := work(func(w []float64, lwork int) {
		lapack64.Geev(lapack.LeftEVNone, lapack.RightEVCompute, g, wr, wi, vl, vr, w, lwork)
	})
	defer backend.PutFloats(w)
	if first := lapack64.Geev(lapack.LeftEVNone, lapack.RightEVCompute, g, wr, wi, vl, vr, w, len(w)); first > 0 {
		return nil, nil, failure("eigen", first)
	}

	values = nd.NewVector[complex128](n)
	vectors = nd.NewMatrix[complex128](n, n, order)
	for j := 0; j < n; j++ {
		values.Set(complex(wr[j], wi[j]), j)
		switch {
		case wi[j] == 0:
			for i := 0; i < n; i++ {
				vectors.Set(complex(vr.Data[i*vr.Stride+j], 0), i, j)
			}
		case wi[j] > 0 && j+1 < n:
			for i := 0; i < n; i++ {
				re, im := vr.Data[i*vr.Stride+j], vr.Data[i*vr.Stride+j+1]
				vectors.Set(complex(re, im), i, j)
				vectors.Set(complex(re, -im), i, j+1)
			}
		}
	}
	return values, vectors, nil
}

// EigenSym computes the eigenvalues, in ascending order, and orthonormal
// eigenvectors of a symmetric contiguous matrix. Only the upper triangle of
// a is read.
func EigenSym[T nd.Float](a nd.View[T]) (values, vectors *nd.Array[T], err error) {
	requireSquare("linalg.EigenSym", a)
	g := dense("linalg.EigenSym", a)
	n := g.Rows
	backend.Record("syev", backend.PathNative)
	sym := blas64.Symmetric{N: n, Stride: max(1, n), Data: g.Data, Uplo: blas.Upper}
	ev := make([]float64, n)
	w := work(func(w []float64, lwork int) { lapack64.Syev(lapack.EVCompute, sym, ev, w, lwork) })
	defer backend.PutFloats(w)
	if !lapack64.Syev(lapack.EVCompute, sym, ev, w, len(w)) {
		return nil, nil, failure("eigensym", 1)
	}
	return vectorArray[T](ev), array[T](g, nd.OrderOf(a)), nil
}

// LeastSquares returns x minimizing ‖a·x − b‖₂ for a full-rank m x n
// contiguous matrix with m >= n, or the minimum norm solution of a·x = b when
// m < n. b may be a vector or matrix with m rows; x has n rows. A rank
// deficient a returns a *DecompositionError.
func LeastSquares[T nd.Float](a, b nd.View[T]) (*nd.Array[T], error) {
	g := dense("linalg.LeastSquares", a)
	m, n := g.Rows, g.Cols
	rhs := rightHandSides("linalg.LeastSquares", b, m)
	if n > m {
		// the solution needs n rows of room
		big := blas64.General{Rows: n, Cols: rhs.Cols, Stride: rhs.Stride, Data: make([]float64, n*rhs.Stride)}
		copy(big.Data, rhs.Data)
		rhs = big
	}
	backend.Record("gels", backend.PathNative)
	w := work(func(w []float64, lwork int) { lapack64.Gels(blas.NoTrans, g, rhs, w, lwork) })
	defer backend.PutFloats(w)
	if !lapack64.Gels(blas.NoTrans, g, rhs, w, len(w)) {
		return nil, failure("lstsq", 1)
	}
	return solution(rhs, b, n), nil
}

// Pinv returns the Moore-Penrose pseudo-inverse of a contiguous matrix.
// Singular values at or below rcond times the largest one are treated as
// zero; rcond <= 0 selects max(m, n)·ε.
func Pinv[T nd.Float](a nd.View[T], rcond float64) (*nd.Array[T], error) {
	g := dense("linalg.Pinv", a)
	m, n := g.Rows, g.Cols
	order := nd.OrderOf(a)
	if m == 0 || n == 0 {
		return nd.NewMatrix[T](n, m, order), nil
	}
	backend.Record("pinv", backend.PathNative)
	ug := blas64.General{Rows: m, Cols: m, Stride: m, Data: make([]float64, m*m)}
	vg := blas64.General{Rows: n, Cols: n, Stride: n, Data: make([]float64, n*n)}
	sv := make([]float64, min(m, n))
	w := work(func(w []float64, lwork int) {
		lapack64.Gesvd(lapack.SVDAll, lapack.SVDAll, g, ug, vg, sv, w, lwork)
	})
	defer backend.PutFloats(w)
	if !lapack64.Gesvd(lapack.SVDAll, lapack.SVDAll, g, ug, vg, sv, w, len(w)) {
		return nil, failure("pinv", 1)
	}
	if rcond <= 0 {
		rcond = float64(max(m, n)) * (math.Nextafter(1, 2) - 1)
	}
	tol := rcond * sv[0]

	// a⁺ = V·diag(1/s)·Uᵀ: scale the kept rows of vt, then multiply by uᵀ.
	k := 0
	for k < len(sv) && sv[k] > tol {
		for j := 0; j < n; j++ {
			vg.Data[k*vg.Stride+j] /= sv[k]
		}
		k++
	}
	out := blas64.General{Rows: n, Cols: m, Stride: m, Data: make([]float64, n*m)}
	if k > 0 {
		vk := blas64.General{Rows: k, Cols: n, Stride: vg.Stride, Data: vg.Data}
		uk := blas64.General{Rows: m, Cols: k, Stride: ug.Stride, Data: ug.Data}
		blas64.Gemm(blas.Trans, blas.Trans, 1, vk, uk, 0, out)
	}
	return array[T](out, order), nil
}
