//go:build cgo && netlib

package backend

// This file registers the netlib BLAS and LAPACK implementations which use
// the system libraries (Accelerate on macOS, OpenBLAS on Linux).

import (
	blasnetlib "gonum.org/v1/netlib/blas/netlib"
	lapacknetlib "gonum.org/v1/netlib/lapack/netlib"
)

func init() {
	use("netlib", blasnetlib.Implementation{}, blasnetlib.Implementation{}, lapacknetlib.Implementation{})
}
