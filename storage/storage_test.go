package storage_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/ozks/label"
	"github.com/iotaledger/ozks/storage"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := storage.NewMemory()
	l, _ := label.FromBits(1, 0, 1)

	_, ok, err := m.LoadNode(1, l)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.SaveNode(1, storage.NodeRecord{Label: l}))
	rec, ok, err := m.LoadNode(1, l)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rec.Label.Equal(l))
}

func TestMemoryDeleteOZKS(t *testing.T) {
	m := storage.NewMemory()
	require.NoError(t, m.SaveHeader(1, storage.HeaderRecord{Epoch: 3}))
	require.NoError(t, m.DeleteOZKS(1))
	_, ok, err := m.LoadHeader(1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCacheFallsThroughToBacking(t *testing.T) {
	m := storage.NewMemory()
	c := storage.NewCache(m, 8)
	l, _ := label.FromBits(0, 1)

	require.NoError(t, m.SaveNode(1, storage.NodeRecord{Label: l}))
	rec, ok, err := c.LoadNode(1, l)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rec.Label.Equal(l))
}

func TestBatchInserterBuffersUntilFlush(t *testing.T) {
	m := storage.NewMemory()
	b := storage.NewBatchInserter(m)
	l, _ := label.FromBits(1)

	require.NoError(t, b.SaveNode(1, storage.NodeRecord{Label: l}))
	_, ok, err := m.LoadNode(1, l)
	require.NoError(t, err)
	require.False(t, ok, "backing store must not see the write before Flush")

	require.NoError(t, b.Flush(1))
	_, ok, err = m.LoadNode(1, l)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLoadUpdatedElementsFiltersByEpoch(t *testing.T) {
	m := storage.NewMemory()
	require.NoError(t, m.SaveHeader(1, storage.HeaderRecord{Epoch: 1}))
	l, _ := label.FromBits(1, 1)
	require.NoError(t, m.SaveNode(1, storage.NodeRecord{Label: l}))

	downstream := storage.NewCache(storage.NewMemory(), 8)
	require.NoError(t, m.LoadUpdatedElements(1, 1, downstream))

	rec, ok, err := downstream.LoadNode(1, l)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rec.Label.Equal(l))
}

func TestReplicatedCatchUp(t *testing.T) {
	remote := storage.NewMemory()
	require.NoError(t, remote.SaveHeader(1, storage.HeaderRecord{Epoch: 1}))
	l, _ := label.FromBits(1, 0)
	require.NoError(t, remote.SaveNode(1, storage.NodeRecord{Label: l}))

	local := storage.NewCache(storage.NewMemory(), 8)
	r := storage.NewReplicated(remote, local)
	require.NoError(t, r.CatchUp(1))

	rec, ok, err := local.LoadNode(1, l)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, rec.Label.Equal(l))
}
