package codec

import (
	"io"

	"github.com/23skdu/strata/internal/nd"
	"github.com/fxamacker/cbor/v2"
)

// Envelope is the CBOR form of a float64 array. Data holds the elements in
// Order.
type Envelope struct {
	Order   string    `cbor:"order"`
	Extents []int     `cbor:"extents"`
	Data    []float64 `cbor:"data"`
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// Pack builds the envelope of v. Contiguous views keep their order; strided
// views are packed row-major.
func Pack(v nd.View[float64]) Envelope {
	order := nd.OrderOf(v)
	a := nd.CopyOf(v, order)
	return Envelope{Order: order.String(), Extents: a.Extents(), Data: a.Data()}
}

// Array validates the envelope and copies it into a new array.
func (e Envelope) Array() (*nd.Array[float64], error) {
	order, err := ParseOrder(e.Order)
	if err != nil {
		return nil, err
	}
	if err := checkExtents(e.Extents, len(e.Data)); err != nil {
		return nil, err
	}
	return nd.FromSlice(e.Data, order, e.Extents...), nil
}

// MarshalCBOR encodes v with deterministic CBOR.
func MarshalCBOR(v nd.View[float64]) ([]byte, error) {
	return encMode.Marshal(Pack(v))
}

// UnmarshalCBOR decodes an array produced by MarshalCBOR.
func UnmarshalCBOR(b []byte) (*nd.Array[float64], error) {
	var e Envelope
	if err := cbor.Unmarshal(b, &e); err != nil {
		return nil, malformedf("cbor: %v", err)
	}
	return e.Array()
}

// EncodeCBOR writes the envelope of v to w.
func EncodeCBOR(w io.Writer, v nd.View[float64]) error {
	return encMode.NewEncoder(w).Encode(Pack(v))
}

// DecodeCBOR reads one envelope from r.
func DecodeCBOR(r io.Reader) (*nd.Array[float64], error) {
	var e Envelope
	if err := cbor.NewDecoder(r).Decode(&e); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, malformedf("cbor: %v", err)
	}
	return e.Array()
}
