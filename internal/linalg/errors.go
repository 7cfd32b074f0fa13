package linalg

import (
	"errors"
	"fmt"

	"github.com/23skdu/strata/internal/backend"
)

var (
	// ErrDecomposition is wrapped by every DecompositionError.
	ErrDecomposition = errors.New("linalg: decomposition failed")
	// ErrInvalidArgument reports an argument outside its documented domain,
	// such as an unknown norm kind.
	ErrInvalidArgument = errors.New("linalg: invalid argument")
)

// DecompositionError reports a factorization the backend could not complete.
// Code follows the LAPACK info convention: for LU it is the 1-based index of
// the first exactly zero pivot; for eigenvalue and SVD drivers it is the
// 1-based index of the first value that did not converge.
type DecompositionError struct {
	Op   string
	Code int
}

func (e *DecompositionError) Error() string {
	return fmt.Sprintf("linalg: %s failed (info=%d)", e.Op, e.Code)
}

func (e *DecompositionError) Unwrap() error { return ErrDecomposition }

func failure(op string, code int) error {
	backend.RecordFailure(op)
	return &DecompositionError{Op: op, Code: code}
}

func invalidf(op, format string, args ...any) error {
	return fmt.Errorf("%s: %s: %w", op, fmt.Sprintf(format, args...), ErrInvalidArgument)
}
