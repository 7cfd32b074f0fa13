package nd

import "golang.org/x/exp/constraints"

// Scalar is the element constraint for arithmetic: any integer or floating
// point type.
type Scalar interface {
	constraints.Integer | constraints.Float
}

// Float is the element constraint for operations that need real division or
// a decomposition.
type Float interface {
	constraints.Float
}

// isFloat reports whether T is a floating point type.
func isFloat[T Scalar]() bool {
	return T(1)/T(2) != 0
}
