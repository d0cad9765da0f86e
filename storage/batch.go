package storage

import (
	"sync"

	"github.com/iotaledger/ozks/label"
)

type pendingSpace struct {
	nodes       map[string]NodeRecord
	payloadRecs map[string]PayloadRecord
	header      *HeaderRecord
}

func newPendingSpace() *pendingSpace {
	return &pendingSpace{
		nodes:       make(map[string]NodeRecord),
		payloadRecs: make(map[string]PayloadRecord),
	}
}

// BatchInserter buffers mutations in memory per trie_id and emits them to a
// backing Storage in a single pass on Flush, per spec.md §4.6's
// batch-inserter contract.
type BatchInserter struct {
	backing Storage

	mu      sync.Mutex
	pending map[uint64]*pendingSpace
}

// NewBatchInserter wraps backing with a buffered write path.
func NewBatchInserter(backing Storage) *BatchInserter {
	return &BatchInserter{backing: backing, pending: make(map[uint64]*pendingSpace)}
}

func (b *BatchInserter) space(trieID uint64) *pendingSpace {
	s, ok := b.pending[trieID]
	if !ok {
		s = newPendingSpace()
		b.pending[trieID] = s
	}
	return s
}

func (b *BatchInserter) LoadNode(trieID uint64, l label.PartialLabel) (NodeRecord, bool, error) {
	b.mu.Lock()
	if s, ok := b.pending[trieID]; ok {
		if rec, ok := s.nodes[string(l.Save())]; ok {
			b.mu.Unlock()
			return rec, true, nil
		}
	}
	b.mu.Unlock()
	return b.backing.LoadNode(trieID, l)
}

func (b *BatchInserter) SaveNode(trieID uint64, rec NodeRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.space(trieID).nodes[string(rec.Label.Save())] = rec
	return nil
}

func (b *BatchInserter) LoadHeader(trieID uint64) (HeaderRecord, bool, error) {
	b.mu.Lock()
	if s, ok := b.pending[trieID]; ok && s.header != nil {
		rec := *s.header
		b.mu.Unlock()
		return rec, true, nil
	}
	b.mu.Unlock()
	return b.backing.LoadHeader(trieID)
}

func (b *BatchInserter) SaveHeader(trieID uint64, rec HeaderRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.space(trieID).header = &rec
	return nil
}

func (b *BatchInserter) LoadPayload(trieID uint64, key []byte) (PayloadRecord, bool, error) {
	b.mu.Lock()
	if s, ok := b.pending[trieID]; ok {
		if rec, ok := s.payloadRecs[string(key)]; ok {
			b.mu.Unlock()
			return rec, true, nil
		}
	}
	b.mu.Unlock()
	return b.backing.LoadPayload(trieID, key)
}

func (b *BatchInserter) SavePayload(trieID uint64, key []byte, rec PayloadRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.space(trieID).payloadRecs[string(key)] = rec
	return nil
}

func (b *BatchInserter) DeleteOZKS(trieID uint64) error {
	b.mu.Lock()
	delete(b.pending, trieID)
	b.mu.Unlock()
	return b.backing.DeleteOZKS(trieID)
}

func (b *BatchInserter) GetCompressedTrieEpoch(trieID uint64) (uint64, bool, error) {
	return b.backing.GetCompressedTrieEpoch(trieID)
}

func (b *BatchInserter) LoadUpdatedElements(trieID uint64, epoch uint64, downstream CacheWriter) error {
	return b.backing.LoadUpdatedElements(trieID, epoch, downstream)
}

// Flush emits every buffered mutation for trieID to the backing store in one
// pass, then clears the buffer. The backing store records them under the
// header's epoch so downstream replicas can fetch only what changed.
func (b *BatchInserter) Flush(trieID uint64) error {
	b.mu.Lock()
	s, ok := b.pending[trieID]
	if !ok {
		b.mu.Unlock()
		return nil
	}
	delete(b.pending, trieID)
	b.mu.Unlock()

	if s.header != nil {
		if err := b.backing.SaveHeader(trieID, *s.header); err != nil {
			return err
		}
	}
	for _, rec := range s.nodes {
		if err := b.backing.SaveNode(trieID, rec); err != nil {
			return err
		}
	}
	for keyStr, rec := range s.payloadRecs {
		if err := b.backing.SavePayload(trieID, []byte(keyStr), rec); err != nil {
			return err
		}
	}
	return nil
}

var _ Storage = (*BatchInserter)(nil)
