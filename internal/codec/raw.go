package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/23skdu/strata/internal/layout"
	"github.com/23skdu/strata/internal/nd"
)

// Raw element types: what binary.Read and binary.Write handle as fixed-size
// little-endian values.
type Raw interface {
	~float32 | ~float64 | ~int32 | ~int64 | ~uint32 | ~uint64
}

// WriteRaw dumps the elements of v to w in row-major logical order as
// little-endian values, with no header.
func WriteRaw[T Raw](w io.Writer, v nd.View[T]) error {
	data := v.Data()
	if o, ok := v.Order(); !ok || o != layout.RowMajor {
		data = nd.CopyOf(v, layout.RowMajor).Data()
	}
	return binary.Write(w, binary.LittleEndian, data[:v.Size()])
}

// ReadRaw reads exactly the elements of an array with extents ext from r,
// stored row-major, into a new array of the given order.
func ReadRaw[T Raw](r io.Reader, order layout.Order, ext ...int) (*nd.Array[T], error) {
	a := nd.New[T](layout.RowMajor, ext...)
	if err := binary.Read(r, binary.LittleEndian, a.Data()); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, malformedf("raw: short read for extents %v", ext)
		}
		return nil, fmt.Errorf("codec: raw read: %w", err)
	}
	if order == layout.RowMajor {
		return a, nil
	}
	return nd.CopyOf(a.View(), order), nil
}

// LoadRawFile reads a raw dump of the given extents from path.
func LoadRawFile[T Raw](path string, order layout.Order, ext ...int) (*nd.Array[T], error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	a, err := ReadRaw[T](file, order, ext...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return a, nil
}

// Widen converts a raw float32 dump, the common on-disk format, into float64
// precision.
func Widen(a *nd.Array[float32]) *nd.Array[float64] {
	return nd.Convert[float64](a.View(), a.Order())
}
