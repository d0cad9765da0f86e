package ozks

import (
	"runtime"

	"github.com/iotaledger/ozks/payload"
	"github.com/iotaledger/ozks/storage"
	"github.com/iotaledger/ozks/trie"
)

// LabelType selects how a key is blinded into a trie label.
type LabelType int

const (
	// VRFLabels derives the label from a Verifiable Random Function
	// evaluation of the key, so a label cannot be predicted without the
	// public key and a proof.
	VRFLabels LabelType = iota
	// HashedLabels derives the label from a plain domain-separated hash
	// of the key: no VRF key management, no unpredictability guarantee.
	HashedLabels
)

// OZKSConfig configures a new OZKS instance, per spec.md §6's configuration
// table.
type OZKSConfig struct {
	// LabelType selects VRF-blinded or plainly-hashed labels.
	LabelType LabelType
	// PayloadCommitment selects randomized or deterministic payload
	// commitments.
	PayloadCommitment payload.Mode
	// TrieType selects the underlying CompressedTrie's node residency
	// model.
	TrieType trie.Kind
	// Storage is the backend for trie nodes, the trie header, and the
	// payload store. Required unless TrieType is trie.KindLinkedNoStorage.
	Storage storage.Storage
	// VRFSeed derives a deterministic VRF secret key when non-empty;
	// otherwise a fresh random key is drawn. Ignored when LabelType is
	// HashedLabels.
	VRFSeed []byte
	// VRFCacheSize bounds the VRF proof cache's capacity. Ignored when
	// LabelType is HashedLabels.
	VRFCacheSize int
	// ThreadCount bounds the worker fan-out used by Flush for VRF/payload
	// commitment computation and by the trie for parallel batch insertion.
	// Zero means "use GOMAXPROCS".
	ThreadCount int
}

func (c OZKSConfig) resolvedThreadCount() int {
	if c.ThreadCount > 0 {
		return c.ThreadCount
	}
	return runtime.GOMAXPROCS(0)
}
