package linalg

import (
	"math"

	"github.com/23skdu/strata/internal/layout"
	"github.com/23skdu/strata/internal/nd"
)

// MatrixPower returns m raised to the integer power n. n = 0 gives the
// identity and a negative n inverts m first, so a singular m with n < 0
// returns a *DecompositionError.
func MatrixPower[T nd.Float](m nd.View[T], n int) (*nd.Array[T], error) {
	requireSquare("linalg.MatrixPower", m)
	order := nd.OrderOf(m)
	switch {
	case n == 0:
		return nd.Identity[T](m.Rows(), order), nil
	case n == 1:
		return nd.CopyOf(m, order), nil
	case n == math.MinInt:
		panic(layout.Preconditionf("linalg.MatrixPower", "exponent %d cannot be negated", n))
	case n < 0:
		inv, err := Inverse(m)
		if err != nil {
			return nil, err
		}
		return MatrixPower(inv.View(), -n)
	case n == 2:
		return MatMul(m, m), nil
	}
	res := nd.CopyOf(m, order)
	for i := 1; i < n; i++ {
		res = MatMul(res.View(), m)
	}
	return res, nil
}

// padeDegree is the degree of the diagonal Padé approximant used by Expm.
const padeDegree = 6

// Expm returns the matrix exponential of a square matrix by scaling and
// squaring with a diagonal Padé approximant.
func Expm[T nd.Float](a nd.View[T]) (*nd.Array[T], error) {
	requireSquare("linalg.Expm", a)
	n := a.Rows()
	order := nd.OrderOf(a)
	norm, err := MatrixNorm(a, 'I')
	if err != nil {
		return nil, err
	}

	// scale so that ‖a/2^s‖∞ < 1/2
	_, e := math.Frexp(norm)
	s := max(0, e+1)
	as := nd.Scale(a, T(math.Ldexp(1, -s)))

	x := nd.CopyOf(as.View(), order)
	c := 0.5
	num := nd.Identity[T](n, order)
	den := nd.Identity[T](n, order)
	nd.AddTo(num.View(), nd.Scale(as.View(), T(c)).View())
	nd.SubFrom(den.View(), nd.Scale(as.View(), T(c)).View())

	positive := true
	for k := 2; k <= padeDegree; k++ {
		c = c * float64(padeDegree-k+1) / float64(k*(2*padeDegree-k+1))
		x = MatMul(as.View(), x.View())
		cx := nd.Scale(x.View(), T(c))
		nd.AddTo(num.View(), cx.View())
		if positive {
			nd.AddTo(den.View(), cx.View())
		} else {
			nd.SubFrom(den.View(), cx.View())
		}
		positive = !positive
	}

	inv, err := Inverse(den.View())
	if err != nil {
		return nil, err
	}
	res := MatMul(inv.View(), num.View())
	for k := 0; k < s; k++ {
		res = MatMul(res.View(), res.View())
	}
	return res, nil
}
