package ozks_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/ozks/ozks"
	"github.com/iotaledger/ozks/payload"
	"github.com/iotaledger/ozks/proof"
	"github.com/iotaledger/ozks/storage"
	"github.com/iotaledger/ozks/trie"
)

func newHashed(t *testing.T) *ozks.OZKS {
	t.Helper()
	o, err := ozks.New(ozks.OZKSConfig{
		LabelType:         ozks.HashedLabels,
		PayloadCommitment: payload.Uncommitted,
		TrieType:          trie.KindLinked,
		Storage:           storage.NewMemory(),
		ThreadCount:       2,
	})
	require.NoError(t, err)
	return o
}

func TestInsertThenQueryIsMemberAndVerifies(t *testing.T) {
	o := newHashed(t)
	pending := o.Insert([]byte("alice"), []byte("payload-alice"))
	require.NoError(t, o.Flush())

	result, err := pending.Result()
	require.NoError(t, err)
	require.True(t, result.Verify())

	qr, err := o.Query([]byte("alice"))
	require.NoError(t, err)
	require.True(t, qr.IsMember)
	require.Equal(t, []byte("payload-alice"), qr.Payload)

	commitment, err := o.GetCommitment()
	require.NoError(t, err)
	require.True(t, qr.Verify(toVerifyOptions(commitment)))
}

func TestQueryNonMemberVerifies(t *testing.T) {
	o := newHashed(t)

	pending := o.Insert([]byte("bob"), []byte("payload-bob"))
	require.NoError(t, o.Flush())
	_, err := pending.Result()
	require.NoError(t, err)

	qr, err := o.Query([]byte("carol"))
	require.NoError(t, err)
	require.False(t, qr.IsMember)

	commitment, err := o.GetCommitment()
	require.NoError(t, err)
	require.True(t, qr.Verify(toVerifyOptions(commitment)))
}

func TestDuplicateKeyRejectedAtFlushNotEnqueue(t *testing.T) {
	o := newHashed(t)
	p1 := o.Insert([]byte("dup"), []byte("first"))
	require.NoError(t, o.Flush())
	r1, err := p1.Result()
	require.NoError(t, err)

	commitmentBefore, err := o.GetCommitment()
	require.NoError(t, err)

	p2 := o.Insert([]byte("dup"), []byte("second"))
	err = o.Flush()
	require.Error(t, err)
	_, err2 := p2.Result()
	require.Error(t, err2)

	qr, err := o.Query([]byte("dup"))
	require.NoError(t, err)
	require.True(t, qr.IsMember)
	require.Equal(t, []byte("first"), qr.Payload)

	commitmentAfter, err := o.GetCommitment()
	require.NoError(t, err)
	require.Equal(t, commitmentBefore.RootHash, commitmentAfter.RootHash)
	require.True(t, r1.Verify())
}

func TestCommitmentEqualityAcrossInstances(t *testing.T) {
	cfg := func() ozks.OZKSConfig {
		return ozks.OZKSConfig{
			LabelType:         ozks.HashedLabels,
			PayloadCommitment: payload.Uncommitted,
			TrieType:          trie.KindLinked,
			Storage:           storage.NewMemory(),
			ThreadCount:       1,
		}
	}
	a, err := ozks.New(cfg())
	require.NoError(t, err)
	b, err := ozks.New(cfg())
	require.NoError(t, err)

	key := []byte{0x01, 0x02, 0x03}
	payloadBytes := []byte{0xFF, 0xFE, 0xFD, 0xFC, 0xFB, 0xFA}

	a.Insert(key, payloadBytes)
	require.NoError(t, a.Flush())
	b.Insert(key, payloadBytes)
	require.NoError(t, b.Flush())

	ca, err := a.GetCommitment()
	require.NoError(t, err)
	cb, err := b.GetCommitment()
	require.NoError(t, err)
	require.Equal(t, ca.RootHash, cb.RootHash)
}

func TestRandomizedCommitmentsDiffer(t *testing.T) {
	cfg := func() ozks.OZKSConfig {
		return ozks.OZKSConfig{
			LabelType:         ozks.HashedLabels,
			PayloadCommitment: payload.Committed,
			TrieType:          trie.KindLinked,
			Storage:           storage.NewMemory(),
			ThreadCount:       1,
		}
	}
	a, err := ozks.New(cfg())
	require.NoError(t, err)
	b, err := ozks.New(cfg())
	require.NoError(t, err)

	key := []byte("shared-key")
	payloadBytes := []byte("shared-payload")

	a.Insert(key, payloadBytes)
	require.NoError(t, a.Flush())
	b.Insert(key, payloadBytes)
	require.NoError(t, b.Flush())

	ca, err := a.GetCommitment()
	require.NoError(t, err)
	cb, err := b.GetCommitment()
	require.NoError(t, err)
	require.NotEqual(t, ca.RootHash, cb.RootHash)
}

func TestSaveLoadRoundTripPreservesQueries(t *testing.T) {
	store := storage.NewMemory()
	o, err := ozks.New(ozks.OZKSConfig{
		LabelType:         ozks.VRFLabels,
		PayloadCommitment: payload.Committed,
		TrieType:          trie.KindStored,
		Storage:           store,
		VRFSeed:           []byte("deterministic-seed"),
		VRFCacheSize:      16,
		ThreadCount:       2,
	})
	require.NoError(t, err)

	const n = 200
	for i := 0; i < n; i++ {
		key := []byte(fmt.Sprintf("key-%d", i))
		val := []byte(fmt.Sprintf("payload-%d", i))
		o.Insert(key, val)
	}
	require.NoError(t, o.Flush())

	saved, err := o.Save()
	require.NoError(t, err)

	loaded, err := ozks.Load(store, saved)
	require.NoError(t, err)

	commitmentOrig, err := o.GetCommitment()
	require.NoError(t, err)
	commitmentLoaded, err := loaded.GetCommitment()
	require.NoError(t, err)
	require.Equal(t, commitmentOrig.RootHash, commitmentLoaded.RootHash)

	for i := 0; i < n; i += 20 {
		key := []byte(fmt.Sprintf("key-%d", i))
		qOrig, err := o.Query(key)
		require.NoError(t, err)
		qLoaded, err := loaded.Query(key)
		require.NoError(t, err)
		require.Equal(t, qOrig.Payload, qLoaded.Payload)
		require.Equal(t, qOrig.Randomness, qLoaded.Randomness)
		require.Equal(t, len(qOrig.LookupPath), len(qLoaded.LookupPath))
		require.True(t, qOrig.Verify(toVerifyOptions(commitmentOrig)))
		require.True(t, qLoaded.Verify(toVerifyOptions(commitmentLoaded)))
	}
}

func TestEmptyFlushIsNoOp(t *testing.T) {
	o := newHashed(t)
	require.NoError(t, o.Flush())
	commitment, err := o.GetCommitment()
	require.NoError(t, err)
	require.Zero(t, commitment.RootHash)
}

func toVerifyOptions(c ozks.Commitment) proof.VerifyOptions {
	opts := proof.VerifyOptions{Commitment: c.RootHash}
	if c.HasVRFPublic {
		pk := c.VRFPublic
		opts.VRFPublic = &pk
	}
	return opts
}
