// Package cache keeps LU factorizations of recently solved systems so that
// repeated solves against the same matrix skip the O(n³) factorization.
package cache

import (
	"container/list"
	"encoding/binary"
	"math"
	"sync"

	"github.com/23skdu/strata/internal/layout"
	"github.com/23skdu/strata/internal/linalg"
	"github.com/23skdu/strata/internal/nd"
	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_factor_cache_hits_total",
		Help: "Factorizations served from the cache",
	})
	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "strata_factor_cache_misses_total",
		Help: "Factorization lookups that missed the cache",
	})
)

// FactorCache stores LU factorizations by matrix digest.
type FactorCache interface {
	// Get retrieves a factorization from the cache.
	Get(key uint64) (*linalg.LU[float64], bool)
	// Put stores a factorization in the cache.
	Put(key uint64, f *linalg.LU[float64])
	// Size returns the number of items in the cache.
	Size() int
}

// Key digests the extents and logical contents of a matrix. Two views with
// the same elements hash equal regardless of their layout.
func Key(v nd.View[float64]) uint64 {
	d := xxhash.New()
	var b [8]byte
	for _, e := range v.Extents() {
		binary.LittleEndian.PutUint64(b[:], uint64(e))
		_, _ = d.Write(b[:])
	}
	a := nd.CopyOf(v, layout.RowMajor)
	buf := make([]byte, 0, 8*a.Size())
	for _, x := range a.Data() {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(x))
	}
	_, _ = d.Write(buf)
	return d.Sum64()
}

type entry struct {
	key uint64
	lu  *linalg.LU[float64]
}

// LRUCache is a FactorCache bounded by entry count. The least recently used
// factorization is evicted first.
type LRUCache struct {
	mu    sync.Mutex
	max   int
	items map[uint64]*list.Element
	order *list.List
}

// NewLRUCache creates a cache holding at most size factorizations; size < 1
// is treated as 1.
func NewLRUCache(size int) *LRUCache {
	return &LRUCache{
		max:   max(size, 1),
		items: make(map[uint64]*list.Element),
		order: list.New(),
	}
}

func (c *LRUCache) Get(key uint64) (*linalg.LU[float64], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		cacheMisses.Inc()
		return nil, false
	}
	cacheHits.Inc()
	c.order.MoveToFront(el)
	return el.Value.(*entry).lu, true
}

func (c *LRUCache) Put(key uint64, f *linalg.LU[float64]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry).lu = f
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&entry{key: key, lu: f})
	for c.order.Len() > c.max {
		last := c.order.Back()
		c.order.Remove(last)
		delete(c.items, last.Value.(*entry).key)
	}
}

func (c *LRUCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Factorize returns the cached factorization of a, computing and storing it
// on a miss. Singular matrices are not cached.
func Factorize(c FactorCache, a nd.View[float64]) (*linalg.LU[float64], error) {
	key := Key(a)
	if f, ok := c.Get(key); ok {
		return f, nil
	}
	f, err := linalg.Factorize(a)
	if err != nil {
		return nil, err
	}
	c.Put(key, f)
	return f, nil
}
