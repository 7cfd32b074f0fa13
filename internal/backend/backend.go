// Package backend owns the native numeric backend the linear algebra layer
// delegates to. The pure Go gonum implementation is active by default;
// building with cgo and the netlib tag swaps in the system BLAS/LAPACK
// (OpenBLAS on Linux, Accelerate on macOS) through gonum's netlib bindings.
package backend

import (
	"sync"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/blas/gonum"
	"gonum.org/v1/gonum/lapack"
	lapackgonum "gonum.org/v1/gonum/lapack/gonum"
	"gonum.org/v1/gonum/lapack/lapack64"
)

var (
	mu   sync.RWMutex
	name = "gonum"
)

// Name reports which implementation is registered, "gonum" or "netlib".
func Name() string {
	mu.RLock()
	defer mu.RUnlock()
	return name
}

// UseGonum registers the pure Go implementations.
func UseGonum() {
	use("gonum", gonum.Implementation{}, gonum.Implementation{}, lapackgonum.Implementation{})
}

func use(n string, b64 blas.Float64, b32 blas.Float32, l lapack.Float64) {
	mu.Lock()
	defer mu.Unlock()
	blas64.Use(b64)
	blas32.Use(b32)
	lapack64.Use(l)
	name = n
	log.Debug().Str("backend", n).Msg("registered BLAS/LAPACK implementation")
}
