package storage

import (
	"sync"

	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/label"
)

type trieSpace struct {
	header       HeaderRecord
	hasHeader    bool
	nodes        map[string]NodeRecord
	nodeEpoch    map[string]uint64
	payloads     map[string]PayloadRecord
	payloadEpoch map[string]uint64
}

func newTrieSpace() *trieSpace {
	return &trieSpace{
		nodes:        make(map[string]NodeRecord),
		nodeEpoch:    make(map[string]uint64),
		payloads:     make(map[string]PayloadRecord),
		payloadEpoch: make(map[string]uint64),
	}
}

// Memory is the in-memory reference Storage backend, grounded on the
// teacher's map-based inMemoryKVStore (kv.go), generalized to oZKS's three
// namespaces and multiple trie_id spaces.
type Memory struct {
	mu    sync.RWMutex
	tries map[uint64]*trieSpace
}

// NewMemory constructs an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{tries: make(map[uint64]*trieSpace)}
}

func (m *Memory) space(trieID uint64, create bool) *trieSpace {
	s, ok := m.tries[trieID]
	if !ok {
		if !create {
			return nil
		}
		s = newTrieSpace()
		m.tries[trieID] = s
	}
	return s
}

func (m *Memory) LoadNode(trieID uint64, l label.PartialLabel) (NodeRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.space(trieID, false)
	if s == nil {
		return NodeRecord{}, false, nil
	}
	rec, ok := s.nodes[string(l.Save())]
	return rec, ok, nil
}

func (m *Memory) SaveNode(trieID uint64, rec NodeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.space(trieID, true)
	key := string(rec.Label.Save())
	s.nodes[key] = rec
	header, ok := s.header, s.hasHeader
	epoch := uint64(0)
	if ok {
		epoch = header.Epoch
	}
	s.nodeEpoch[key] = epoch
	return nil
}

func (m *Memory) LoadHeader(trieID uint64) (HeaderRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.space(trieID, false)
	if s == nil || !s.hasHeader {
		return HeaderRecord{}, false, nil
	}
	return s.header, true, nil
}

func (m *Memory) SaveHeader(trieID uint64, rec HeaderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.space(trieID, true)
	s.header = rec
	s.hasHeader = true
	return nil
}

func (m *Memory) LoadPayload(trieID uint64, key []byte) (PayloadRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.space(trieID, false)
	if s == nil {
		return PayloadRecord{}, false, nil
	}
	rec, ok := s.payloads[string(key)]
	return rec, ok, nil
}

func (m *Memory) SavePayload(trieID uint64, key []byte, rec PayloadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.space(trieID, true)
	s.payloads[string(key)] = rec
	epoch := uint64(0)
	if s.hasHeader {
		epoch = s.header.Epoch
	}
	s.payloadEpoch[string(key)] = epoch
	return nil
}

func (m *Memory) DeleteOZKS(trieID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tries, trieID)
	return nil
}

func (m *Memory) GetCompressedTrieEpoch(trieID uint64) (uint64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.space(trieID, false)
	if s == nil || !s.hasHeader {
		return 0, false, nil
	}
	return s.header.Epoch, true, nil
}

func (m *Memory) LoadUpdatedElements(trieID uint64, epoch uint64, downstream CacheWriter) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.space(trieID, false)
	if s == nil {
		return xerrors.Errorf("ozks: storage: unknown trie %d", trieID)
	}
	for key, rec := range s.nodes {
		if s.nodeEpoch[key] == epoch {
			downstream.AddNode(trieID, rec)
		}
	}
	for key, rec := range s.payloads {
		if s.payloadEpoch[key] == epoch {
			downstream.AddPayload(trieID, []byte(key), rec)
		}
	}
	if s.hasHeader && s.header.Epoch == epoch {
		downstream.AddHeader(trieID, s.header)
	}
	return nil
}

var _ Storage = (*Memory)(nil)
