// Package vrfcache implements the VRF cache of spec.md §4.7: a
// fixed-capacity LRU mapping a key's hash to its VRF proof, with atomic
// hit/miss counters. Grounded on the hashicorp/golang-lru container already
// used for this purpose elsewhere in the retrieval pack.
package vrfcache

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru"

	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/vrf"
)

// Entry is what the cache stores for a key: the VRF value and its proof.
type Entry struct {
	Value ozkshash.Hash
	Proof vrf.Proof
}

// Cache is a fixed-capacity LRU of Hash(key) -> Entry. The zero value is not
// usable; construct with New. A Cache is safe for concurrent use.
type Cache struct {
	lru      *lru.Cache
	capacity int
	hits     uint64
	misses   uint64
}

// New constructs a cache with the given capacity. A capacity of zero is
// legal: every Get is a forced miss, still counted, useful for benchmarking
// with caching disabled.
func New(capacity int) *Cache {
	c := &Cache{capacity: capacity}
	if capacity > 0 {
		l, err := lru.New(capacity)
		if err != nil {
			// lru.New only errors on a non-positive size, already excluded.
			panic(err)
		}
		c.lru = l
	}
	return c
}

// Get looks up the entry for keyHash, recording a hit or a miss.
func (c *Cache) Get(keyHash ozkshash.Hash) (Entry, bool) {
	if c.lru == nil {
		atomic.AddUint64(&c.misses, 1)
		return Entry{}, false
	}
	v, ok := c.lru.Get(keyHash)
	if !ok {
		atomic.AddUint64(&c.misses, 1)
		return Entry{}, false
	}
	atomic.AddUint64(&c.hits, 1)
	return v.(Entry), true
}

// Add inserts or updates the entry for keyHash, evicting the LRU entry if
// the cache is at capacity.
func (c *Cache) Add(keyHash ozkshash.Hash, entry Entry) {
	if c.lru == nil {
		return
	}
	c.lru.Add(keyHash, entry)
}

// ClearContents empties the cache's entries but preserves the hit/miss
// counters.
func (c *Cache) ClearContents() {
	if c.lru != nil {
		c.lru.Purge()
	}
}

// ClearStats resets the hit/miss counters to zero.
func (c *Cache) ClearStats() {
	atomic.StoreUint64(&c.hits, 0)
	atomic.StoreUint64(&c.misses, 0)
}

// Hits returns the number of cache hits since construction or the last
// ClearStats.
func (c *Cache) Hits() uint64 {
	return atomic.LoadUint64(&c.hits)
}

// Misses returns the number of cache misses since construction or the last
// ClearStats.
func (c *Cache) Misses() uint64 {
	return atomic.LoadUint64(&c.misses)
}

// Capacity returns the configured capacity.
func (c *Cache) Capacity() int {
	return c.capacity
}
