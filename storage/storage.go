// Package storage implements the pluggable persistence abstraction of
// spec.md §4.6: three key/value namespaces (trie nodes, trie headers,
// payload-store entries) scoped by trie_id, plus a read-through LRU cache
// variant, a batched-write variant, and a replication reader. Grounded on
// the teacher's KVReader/KVWriter/KVIterator split (common/kv.go) and its
// read-through node cache (immutable/nodestore.go).
package storage

import (
	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/label"
)

// NodeRecord is the persisted shape of a trie node: its label, hash, and
// (for the stored node variant) its children's labels.
type NodeRecord struct {
	Label       label.PartialLabel
	Hash        ozkshash.Hash
	HasLeft     bool
	LeftLabel   label.PartialLabel
	HasRight    bool
	RightLabel  label.PartialLabel
}

// HeaderRecord is the persisted trie header: epoch, root label, and the
// trie's own 64-bit id (redundant with the namespace key, kept for
// self-describing records).
type HeaderRecord struct {
	Epoch     uint64
	RootLabel label.PartialLabel
	ID        uint64
}

// PayloadRecord is the persisted payload-store entry for a key.
type PayloadRecord struct {
	Payload    []byte
	Randomness [ozkshash.Size]byte
}

// Storage is the persistence contract every oZKS backend must satisfy.
// Implementations must be safe for concurrent use across distinct trieIDs.
type Storage interface {
	LoadNode(trieID uint64, l label.PartialLabel) (NodeRecord, bool, error)
	SaveNode(trieID uint64, rec NodeRecord) error

	LoadHeader(trieID uint64) (HeaderRecord, bool, error)
	SaveHeader(trieID uint64, rec HeaderRecord) error

	LoadPayload(trieID uint64, key []byte) (PayloadRecord, bool, error)
	SavePayload(trieID uint64, key []byte, rec PayloadRecord) error

	// DeleteOZKS removes every node, the header, and every payload-store
	// row belonging to trieID.
	DeleteOZKS(trieID uint64) error

	// GetCompressedTrieEpoch reports the epoch currently stored for
	// trieID, for use by a replication reader deciding whether to catch
	// up.
	GetCompressedTrieEpoch(trieID uint64) (epoch uint64, ok bool, err error)

	// LoadUpdatedElements pushes every node, header, and payload-store row
	// introduced at exactly the given epoch into downstream, via
	// downstream's Add* methods.
	LoadUpdatedElements(trieID uint64, epoch uint64, downstream CacheWriter) error
}

// CacheWriter is the subset of Cache's surface that LoadUpdatedElements
// populates during cross-epoch synchronization (spec.md §4.6's
// add_ctnode/add_compressed_trie operations).
type CacheWriter interface {
	AddNode(trieID uint64, rec NodeRecord)
	AddHeader(trieID uint64, rec HeaderRecord)
	AddPayload(trieID uint64, key []byte, rec PayloadRecord)
}
