// Package ozkshash implements the domain-separated hash contracts shared by
// the trie, payload commitment, and VRF layers. Every hash is a 64-byte
// BLAKE2b-512 digest over a domain tag followed by the tagged fields.
package ozkshash

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// Size is the width, in bytes, of every digest produced by this package.
const Size = 64

// Hash is a 64-byte digest.
type Hash [Size]byte

// IsZero reports whether h is the all-zero hash, the value contributed by an
// absent child in node_hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

func newTagged(tag string) *blake2bState {
	h, err := blake2b.New512(nil)
	if err != nil {
		// blake2b.New512 with a nil key never errors; a failure here means
		// the standard library itself is broken.
		panic(err)
	}
	h.Write([]byte(tag))
	return &blake2bState{h}
}

type blake2bState struct {
	h interface {
		Write([]byte) (int, error)
		Sum([]byte) []byte
	}
}

func (s *blake2bState) writeField(data []byte) {
	var lenBuf [8]byte
	binary.BigEndian.PutUint64(lenBuf[:], uint64(len(data)))
	s.h.Write(lenBuf[:])
	s.h.Write(data)
}

func (s *blake2bState) sum() Hash {
	var out Hash
	copy(out[:], s.h.Sum(nil))
	return out
}

// LeafHash computes H("leaf_hash" ‖ label_bytes ‖ payload_commit ‖ epoch_le).
func LeafHash(labelBytes []byte, payloadCommit Hash, epoch uint64) Hash {
	s := newTagged("leaf_hash")
	s.writeField(labelBytes)
	s.writeField(payloadCommit[:])
	var epochBuf [8]byte
	binary.LittleEndian.PutUint64(epochBuf[:], epoch)
	s.writeField(epochBuf[:])
	return s.sum()
}

// NodeHash computes
// H("node_hash" ‖ L_label_bytes ‖ L_hash ‖ R_label_bytes ‖ R_hash).
// An absent child must be passed as an empty label and the zero hash.
func NodeHash(leftLabelBytes []byte, leftHash Hash, rightLabelBytes []byte, rightHash Hash) Hash {
	s := newTagged("node_hash")
	s.writeField(leftLabelBytes)
	s.writeField(leftHash[:])
	s.writeField(rightLabelBytes)
	s.writeField(rightHash[:])
	return s.sum()
}

// RandomnessHash computes H("randomness_hash" ‖ payload ‖ randomness) and
// returns the commitment hash. The caller supplies the 64 random bytes.
func RandomnessHash(payload []byte, randomness [Size]byte) Hash {
	s := newTagged("randomness_hash")
	s.writeField(payload)
	s.writeField(randomness[:])
	return s.sum()
}

// NonrandomHash computes H("nonrandom_hash" ‖ payload).
func NonrandomHash(payload []byte) Hash {
	s := newTagged("nonrandom_hash")
	s.writeField(payload)
	return s.sum()
}

// KeyHash computes a plain domain-separated hash of a key, used for
// HashedLabels mode (no VRF).
func KeyHash(key []byte) Hash {
	s := newTagged("key_hash")
	s.writeField(key)
	return s.sum()
}

// VRFProofHash computes the Fiat-Shamir challenge hash over an arbitrary
// number of curve-point encodings, reduced by the caller into a scalar.
func VRFProofHash(points ...[]byte) Hash {
	s := newTagged("vrf_challenge")
	for _, p := range points {
		s.writeField(p)
	}
	return s.sum()
}

// VRFOutputHash extracts the VRF output value from a gamma point encoding.
func VRFOutputHash(gammaEncoded []byte) Hash {
	s := newTagged("vrf_hash")
	s.writeField(gammaEncoded)
	return s.sum()
}
