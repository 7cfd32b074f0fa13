package backend

import "sync"

// LAPACK drivers need scratch space sized by a workspace query. Buffers are
// recycled through a pool, as the CPU tensor pool does for activations.
var (
	floatPool = sync.Pool{New: func() any { return new([]float64) }}
	intPool   = sync.Pool{New: func() any { return new([]int) }}
)

// GetFloats returns a slice of length n. When clear is set the elements are
// zeroed, otherwise their values are unspecified.
func GetFloats(n int, clear bool) []float64 {
	p := floatPool.Get().(*[]float64)
	w := *p
	if cap(w) < n {
		floatPool.Put(p)
		poolMisses.Inc()
		return make([]float64, n)
	}
	poolHits.Inc()
	w = w[:n]
	if clear {
		for i := range w {
			w[i] = 0
		}
	}
	return w
}

// PutFloats returns w to the pool. w must not be used afterwards.
func PutFloats(w []float64) {
	if cap(w) == 0 {
		return
	}
	w = w[:0]
	floatPool.Put(&w)
}

// GetInts returns a zeroed slice of length n, used for pivot vectors.
func GetInts(n int) []int {
	p := intPool.Get().(*[]int)
	w := *p
	if cap(w) < n {
		intPool.Put(p)
		poolMisses.Inc()
		return make([]int, n)
	}
	poolHits.Inc()
	w = w[:n]
	for i := range w {
		w[i] = 0
	}
	return w
}

// PutInts returns w to the pool.
func PutInts(w []int) {
	if cap(w) == 0 {
		return
	}
	w = w[:0]
	intPool.Put(&w)
}
