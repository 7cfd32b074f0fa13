package nd

import (
	"math/rand/v2"

	"github.com/23skdu/strata/internal/layout"
	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/stat/distuv"
)

// The random constructors take an explicit source so results can be
// reproduced. A nil source is seeded from entropy on every call.

func source(src rand.Source) rand.Source {
	if src == nil {
		return rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return src
}

// RandN fills a new array with standard normal samples.
func RandN[T Float](src rand.Source, order layout.Order, ext ...int) *Array[T] {
	d := distuv.Normal{Mu: 0, Sigma: 1, Src: source(src)}
	a := New[T](order, ext...)
	for i := range a.buf {
		a.buf[i] = T(d.Rand())
	}
	return a
}

// RandU fills a new array with samples uniform on [lo, hi).
func RandU[T Float](src rand.Source, lo, hi float64, order layout.Order, ext ...int) *Array[T] {
	if !(lo < hi) {
		panic(layout.Preconditionf("nd.RandU", "empty interval [%v, %v)", lo, hi))
	}
	d := distuv.Uniform{Min: lo, Max: hi, Src: source(src)}
	a := New[T](order, ext...)
	for i := range a.buf {
		a.buf[i] = T(d.Rand())
	}
	return a
}

// RandI fills a new array with integers uniform on the closed interval
// [lo, hi].
func RandI[T constraints.Integer](src rand.Source, lo, hi T, order layout.Order, ext ...int) *Array[T] {
	if lo > hi {
		panic(layout.Preconditionf("nd.RandI", "empty interval [%v, %v]", lo, hi))
	}
	r := rand.New(source(src))
	span := uint64(hi) - uint64(lo) + 1
	a := New[T](order, ext...)
	for i := range a.buf {
		if span == 0 {
			a.buf[i] = T(r.Uint64())
			continue
		}
		a.buf[i] = lo + T(r.Uint64N(span))
	}
	return a
}
