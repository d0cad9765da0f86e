// Package payload implements the payload commitment scheme of spec.md §4.5:
// a randomized (Committed) or deterministic (Uncommitted) hash of a payload,
// producing a (commitment, randomness) pair for the leaf hash.
package payload

import (
	"crypto/rand"

	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/internal/ozkshash"
)

// Mode selects how a payload is committed.
type Mode int

const (
	// Committed draws fresh randomness per commitment: identical payloads
	// yield unlinkable commitments.
	Committed Mode = iota
	// Uncommitted is deterministic: identical payloads yield identical
	// commitments, leaking repeated-payload structure in exchange for
	// reproducibility.
	Uncommitted
)

// Commit computes the commitment (and, for Committed mode, the randomness)
// for payload under mode.
func Commit(mode Mode, payload []byte) (commitment ozkshash.Hash, randomness [ozkshash.Size]byte, err error) {
	switch mode {
	case Committed:
		if _, err = rand.Read(randomness[:]); err != nil {
			return ozkshash.Hash{}, randomness, xerrors.Errorf("ozks: payload: draw randomness: %w", err)
		}
		return ozkshash.RandomnessHash(payload, randomness), randomness, nil
	case Uncommitted:
		return ozkshash.NonrandomHash(payload), randomness, nil
	default:
		return ozkshash.Hash{}, randomness, xerrors.Errorf("ozks: payload: unknown commitment mode %d", mode)
	}
}

// Verify recomputes the commitment for (payload, randomness) under mode and
// checks it matches commitment. For Uncommitted mode, randomness is ignored.
func Verify(mode Mode, payload []byte, randomness [ozkshash.Size]byte, commitment ozkshash.Hash) bool {
	switch mode {
	case Committed:
		return ozkshash.RandomnessHash(payload, randomness) == commitment
	case Uncommitted:
		return ozkshash.NonrandomHash(payload) == commitment
	default:
		return false
	}
}
