// Package codec moves arrays across process boundaries: a CBOR envelope for
// service payloads, Arrow record batches for columnar transport, fp16
// packing for compact float32 transfers, and raw little-endian dumps.
package codec

import (
	"errors"
	"fmt"

	"github.com/23skdu/strata/internal/layout"
)

// ErrMalformed is wrapped by every decoding error caused by the payload
// itself rather than by the underlying reader.
var ErrMalformed = errors.New("codec: malformed payload")

func malformedf(format string, args ...any) error {
	return fmt.Errorf("codec: %s: %w", fmt.Sprintf(format, args...), ErrMalformed)
}

// ParseOrder is the inverse of layout.Order.String. The empty string means
// row-major.
func ParseOrder(s string) (layout.Order, error) {
	switch s {
	case "", layout.RowMajor.String():
		return layout.RowMajor, nil
	case layout.ColMajor.String():
		return layout.ColMajor, nil
	}
	return 0, malformedf("unknown order %q", s)
}

// checkExtents validates decoded extents against the element count.
func checkExtents(ext []int, n int) error {
	for _, e := range ext {
		if e < 0 {
			return malformedf("negative extent in %v", ext)
		}
	}
	size, ok := layout.Product(ext)
	if !ok {
		return malformedf("extents %v overflow the element count", ext)
	}
	if size != n {
		return malformedf("extents %v need %d values, got %d", ext, size, n)
	}
	return nil
}
