package storage

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/iotaledger/ozks/label"
)

// Cache wraps a backing Storage with a bounded LRU per namespace. Reads
// consult the cache first and populate it on a backing-store hit; writes
// update the cache and write through to the backing store.
type Cache struct {
	backing Storage

	nodes    *lru.Cache
	headers  *lru.Cache
	payloads *lru.Cache
}

type nodeCacheKey struct {
	trieID uint64
	label  string
}

type payloadCacheKey struct {
	trieID uint64
	key    string
}

// NewCache wraps backing with per-namespace LRUs of the given capacity. A
// capacity of zero disables caching for that namespace (every access falls
// through to backing).
func NewCache(backing Storage, capacity int) *Cache {
	c := &Cache{backing: backing}
	if capacity > 0 {
		c.nodes = mustLRU(capacity)
		c.headers = mustLRU(capacity)
		c.payloads = mustLRU(capacity)
	}
	return c
}

func mustLRU(capacity int) *lru.Cache {
	l, err := lru.New(capacity)
	if err != nil {
		panic(err)
	}
	return l
}

func (c *Cache) LoadNode(trieID uint64, l label.PartialLabel) (NodeRecord, bool, error) {
	if c.nodes != nil {
		if v, ok := c.nodes.Get(nodeCacheKey{trieID, string(l.Save())}); ok {
			return v.(NodeRecord), true, nil
		}
	}
	rec, ok, err := c.backing.LoadNode(trieID, l)
	if err == nil && ok && c.nodes != nil {
		c.nodes.Add(nodeCacheKey{trieID, string(l.Save())}, rec)
	}
	return rec, ok, err
}

func (c *Cache) SaveNode(trieID uint64, rec NodeRecord) error {
	if err := c.backing.SaveNode(trieID, rec); err != nil {
		return err
	}
	if c.nodes != nil {
		c.nodes.Add(nodeCacheKey{trieID, string(rec.Label.Save())}, rec)
	}
	return nil
}

func (c *Cache) LoadHeader(trieID uint64) (HeaderRecord, bool, error) {
	if c.headers != nil {
		if v, ok := c.headers.Get(trieID); ok {
			return v.(HeaderRecord), true, nil
		}
	}
	rec, ok, err := c.backing.LoadHeader(trieID)
	if err == nil && ok && c.headers != nil {
		c.headers.Add(trieID, rec)
	}
	return rec, ok, err
}

func (c *Cache) SaveHeader(trieID uint64, rec HeaderRecord) error {
	if err := c.backing.SaveHeader(trieID, rec); err != nil {
		return err
	}
	if c.headers != nil {
		c.headers.Add(trieID, rec)
	}
	return nil
}

func (c *Cache) LoadPayload(trieID uint64, key []byte) (PayloadRecord, bool, error) {
	if c.payloads != nil {
		if v, ok := c.payloads.Get(payloadCacheKey{trieID, string(key)}); ok {
			return v.(PayloadRecord), true, nil
		}
	}
	rec, ok, err := c.backing.LoadPayload(trieID, key)
	if err == nil && ok && c.payloads != nil {
		c.payloads.Add(payloadCacheKey{trieID, string(key)}, rec)
	}
	return rec, ok, err
}

func (c *Cache) SavePayload(trieID uint64, key []byte, rec PayloadRecord) error {
	if err := c.backing.SavePayload(trieID, key, rec); err != nil {
		return err
	}
	if c.payloads != nil {
		c.payloads.Add(payloadCacheKey{trieID, string(key)}, rec)
	}
	return nil
}

func (c *Cache) DeleteOZKS(trieID uint64) error {
	if err := c.backing.DeleteOZKS(trieID); err != nil {
		return err
	}
	// Namespace caches are keyed by (trieID, ...); entries for a deleted
	// trie simply age out of the LRU rather than being swept eagerly.
	return nil
}

func (c *Cache) GetCompressedTrieEpoch(trieID uint64) (uint64, bool, error) {
	return c.backing.GetCompressedTrieEpoch(trieID)
}

func (c *Cache) LoadUpdatedElements(trieID uint64, epoch uint64, downstream CacheWriter) error {
	return c.backing.LoadUpdatedElements(trieID, epoch, downstream)
}

// AddNode saves rec through SaveNode (backing store and node cache), used
// when this Cache is itself the downstream target of LoadUpdatedElements
// during replication. A save error is discarded.
func (c *Cache) AddNode(trieID uint64, rec NodeRecord) {
	_ = c.SaveNode(trieID, rec)
}

// AddHeader saves rec through SaveHeader; a save error is discarded.
func (c *Cache) AddHeader(trieID uint64, rec HeaderRecord) {
	_ = c.SaveHeader(trieID, rec)
}

// AddPayload saves rec through SavePayload; a save error is discarded.
func (c *Cache) AddPayload(trieID uint64, key []byte, rec PayloadRecord) {
	_ = c.SavePayload(trieID, key, rec)
}

var (
	_ Storage     = (*Cache)(nil)
	_ CacheWriter = (*Cache)(nil)
)
