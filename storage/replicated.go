package storage

import "golang.org/x/xerrors"

// Replicated is a reader that keeps a local Cache caught up to a remote
// Storage by epoch, supplementing spec.md §4.6's distributed-replication
// paragraph without the RPC transport of the original example wrapper
// (out of scope per spec.md §1).
type Replicated struct {
	remote Storage
	local  *Cache
}

// NewReplicated pairs a remote source of truth with a local cache to keep in
// sync.
func NewReplicated(remote Storage, local *Cache) *Replicated {
	return &Replicated{remote: remote, local: local}
}

// CatchUp detects whether remote has advanced past the local copy's epoch
// for trieID and, if so, pulls every intervening epoch's updated elements
// into the local cache.
func (r *Replicated) CatchUp(trieID uint64) error {
	remoteEpoch, ok, err := r.remote.GetCompressedTrieEpoch(trieID)
	if err != nil {
		return xerrors.Errorf("ozks: storage: replicated: remote epoch: %w", err)
	}
	if !ok {
		return nil
	}

	localEpoch := uint64(0)
	if header, ok, err := r.local.LoadHeader(trieID); err != nil {
		return xerrors.Errorf("ozks: storage: replicated: local epoch: %w", err)
	} else if ok {
		localEpoch = header.Epoch
	}

	for e := localEpoch + 1; e <= remoteEpoch; e++ {
		if err := r.remote.LoadUpdatedElements(trieID, e, r.local); err != nil {
			return xerrors.Errorf("ozks: storage: replicated: load epoch %d: %w", e, err)
		}
	}
	return nil
}

// Local exposes the underlying cache for direct reads once caught up.
func (r *Replicated) Local() *Cache {
	return r.local
}
