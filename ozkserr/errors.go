// Package ozkserr defines the error kinds shared across the oZKS packages,
// per spec.md's error handling design: errors are reported as values,
// wrapped with context, and checked with errors.Is against these sentinels.
package ozkserr

import "golang.org/x/xerrors"

var (
	// ErrDuplicateKey is returned when a flush discovers a key already
	// present in the payload store.
	ErrDuplicateKey = xerrors.New("ozks: duplicate key")

	// ErrInvalidProof is returned by operations that construct a proof
	// found to be self-contradictory (never returned by Verify, which
	// reports false instead).
	ErrInvalidProof = xerrors.New("ozks: invalid proof")

	// ErrInvalidEncoding is returned when a persisted record is malformed
	// or carries an unexpected serialization version.
	ErrInvalidEncoding = xerrors.New("ozks: invalid encoding")

	// ErrInvariantViolated is returned when an operation detects state
	// that the data structure guarantees should be impossible: a dirty
	// root at commitment time, a required storage handle missing, a
	// child load failure, or a key processed through an uninitialized
	// VRF key.
	ErrInvariantViolated = xerrors.New("ozks: invariant violated")

	// ErrNotFound is returned by a storage lookup required to succeed.
	ErrNotFound = xerrors.New("ozks: not found")

	// ErrExhaustedCapacity is returned when a partial label would grow
	// beyond its 256-bit capacity.
	ErrExhaustedCapacity = xerrors.New("ozks: exhausted capacity")
)
