package codec

import (
	"math"

	"github.com/23skdu/strata/internal/nd"
	"github.com/x448/float16"
)

// maxHalf is the largest finite binary16 value.
const maxHalf = 65504

// Half is a float32 array packed to IEEE 754 binary16. It halves the payload
// of a float32 transfer at the cost of precision.
type Half struct {
	Order   string   `cbor:"order"`
	Extents []int    `cbor:"extents"`
	Bits    []uint16 `cbor:"bits"`
}

// PackHalf rounds every element of v to binary16. Finite values beyond the
// binary16 range saturate at ±65504 instead of overflowing to infinity; NaN
// and infinities are kept.
func PackHalf(v nd.View[float32]) Half {
	order := nd.OrderOf(v)
	a := nd.CopyOf(v, order)
	bits := make([]uint16, a.Size())
	for i, x := range a.Data() {
		if !math.IsInf(float64(x), 0) {
			x = min(max(x, -maxHalf), maxHalf)
		}
		bits[i] = float16.Fromfloat32(x).Bits()
	}
	return Half{Order: order.String(), Extents: a.Extents(), Bits: bits}
}

// Array unpacks h into a new float32 array.
func (h Half) Array() (*nd.Array[float32], error) {
	order, err := ParseOrder(h.Order)
	if err != nil {
		return nil, err
	}
	if err := checkExtents(h.Extents, len(h.Bits)); err != nil {
		return nil, err
	}
	data := make([]float32, len(h.Bits))
	for i, b := range h.Bits {
		data[i] = float16.Frombits(b).Float32()
	}
	return nd.FromSlice(data, order, h.Extents...), nil
}

// HalfExact reports whether every element of v survives PackHalf unchanged.
func HalfExact(v nd.View[float32]) bool {
	exact := true
	v.ForEach(func(_ []int, x float32) {
		if exact && float16.PrecisionFromfloat32(x) != float16.PrecisionExact {
			exact = false
		}
	})
	return exact
}
