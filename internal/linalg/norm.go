package linalg

import (
	"math"

	"github.com/23skdu/strata/internal/backend"
	"github.com/23skdu/strata/internal/nd"
	"gonum.org/v1/gonum/lapack"
	"gonum.org/v1/gonum/lapack/lapack64"
)

// normKind maps the LAPACK norm characters onto gonum's constants.
func normKind(kind byte) (lapack.MatrixNorm, bool) {
	switch kind {
	case 'M', 'm':
		return lapack.MaxAbs, true
	case '1', 'O', 'o':
		return lapack.MaxColumnSum, true
	case 'I', 'i':
		return lapack.MaxRowSum, true
	case 'F', 'f', 'E', 'e':
		return lapack.Frobenius, true
	}
	return 0, false
}

// MatrixNorm returns a norm of a selected by kind: 'M' largest absolute
// value, '1' or 'O' largest absolute column sum, 'I' largest absolute row sum,
// 'F' or 'E' Frobenius norm. Any other kind returns an error wrapping
// ErrInvalidArgument.
func MatrixNorm[T nd.Scalar](a nd.View[T], kind byte) (float64, error) {
	norm, ok := normKind(kind)
	if !ok {
		return 0, invalidf("linalg.MatrixNorm", "unknown norm kind %q", kind)
	}
	requireMatrix("linalg.MatrixNorm", a)
	if a.Size() == 0 {
		return 0, nil
	}
	if av, ok := any(a).(nd.View[float64]); ok {
		if g, trans, ok := general64(av); ok {
			backend.Record("lange", backend.PathNative)
			if trans {
				switch norm {
				case lapack.MaxColumnSum:
					norm = lapack.MaxRowSum
				case lapack.MaxRowSum:
					norm = lapack.MaxColumnSum
				}
			}
			var w []float64
			if norm == lapack.MaxColumnSum {
				w = backend.GetFloats(g.Cols, false)
				defer backend.PutFloats(w)
			}
			return lapack64.Lange(norm, g, w), nil
		}
	}
	backend.Record("lange", backend.PathGeneric)
	return genericNorm(a, norm), nil
}

func genericNorm[T nd.Scalar](a nd.View[T], norm lapack.MatrixNorm) float64 {
	r, c := a.Rows(), a.Cols()
	abs := func(i, j int) float64 { return math.Abs(float64(a.At(i, j))) }
	var out float64
	switch norm {
	case lapack.MaxAbs:
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				out = math.Max(out, abs(i, j))
			}
		}
	case lapack.MaxColumnSum:
		for j := 0; j < c; j++ {
			var s float64
			for i := 0; i < r; i++ {
				s += abs(i, j)
			}
			out = math.Max(out, s)
		}
	case lapack.MaxRowSum:
		for i := 0; i < r; i++ {
			var s float64
			for j := 0; j < c; j++ {
				s += abs(i, j)
			}
			out = math.Max(out, s)
		}
	case lapack.Frobenius:
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				out = math.Hypot(out, abs(i, j))
			}
		}
	}
	return out
}

// Trace returns the sum of the diagonal of a square matrix.
func Trace[T nd.Scalar](a nd.View[T]) T {
	requireSquare("linalg.Trace", a)
	return nd.Sum(a.Diag())
}
