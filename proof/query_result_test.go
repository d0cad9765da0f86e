package proof_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/label"
	"github.com/iotaledger/ozks/payload"
	"github.com/iotaledger/ozks/proof"
	"github.com/iotaledger/ozks/storage"
	"github.com/iotaledger/ozks/trie"
	"github.com/iotaledger/ozks/vrf"
)

func TestQueryResultVerifiesMembership(t *testing.T) {
	tr, err := trie.New(trie.KindLinked, storage.NewMemory())
	require.NoError(t, err)

	l := mustLabel(t, 0, 0, 1, 1, 0)
	payloadBytes := []byte("hello world")
	commit, randomness, err := payload.Commit(payload.Committed, payloadBytes)
	require.NoError(t, err)

	const epoch = 1
	leafHash := ozkshash.LeafHash(l.ToBytes(), commit, epoch)
	_, err = tr.Insert(l, leafHash)
	require.NoError(t, err)

	other := mustLabel(t, 1, 1, 0, 0, 1)
	_, err = tr.Insert(other, ozkshash.NonrandomHash([]byte("filler")))
	require.NoError(t, err)

	found, path, err := tr.Lookup(l)
	require.NoError(t, err)
	require.True(t, found)

	commitment, err := tr.Commitment()
	require.NoError(t, err)

	qr := proof.QueryResult{
		Key:               []byte("key"),
		IsMember:          true,
		Payload:           payloadBytes,
		Randomness:        randomness,
		PayloadCommitment: commit,
		LookupPath:        path,
		PayloadMode:       payload.Committed,
	}
	require.True(t, qr.Verify(proof.VerifyOptions{Commitment: commitment}))
}

func TestQueryResultVerifiesNonMembership(t *testing.T) {
	tr, err := trie.New(trie.KindLinked, storage.NewMemory())
	require.NoError(t, err)

	keys := [][]byte{{0x11, 0x01}, {0x01, 0x02}, {0xEE, 0x03}, {0xAA, 0x04}}
	for _, k := range keys {
		l := mustLabelFromBytes(t, k)
		_, err = tr.Insert(l, ozkshash.NonrandomHash(k))
		require.NoError(t, err)
	}

	missing := mustLabelFromBytes(t, []byte{0xFF, 0xFF})
	found, path, err := tr.Lookup(missing)
	require.NoError(t, err)
	require.False(t, found)

	commitment, err := tr.Commitment()
	require.NoError(t, err)

	qr := proof.QueryResult{
		Key:        []byte{0xFF, 0xFF},
		IsMember:   false,
		LookupPath: path,
	}
	require.True(t, qr.Verify(proof.VerifyOptions{Commitment: commitment}))
}

func TestQueryResultRejectsVRFMismatch(t *testing.T) {
	tr, err := trie.New(trie.KindLinked, storage.NewMemory())
	require.NoError(t, err)

	l := mustLabel(t, 0, 1, 0, 1)
	_, err = tr.Insert(l, ozkshash.NonrandomHash([]byte("x")))
	require.NoError(t, err)

	found, path, err := tr.Lookup(l)
	require.NoError(t, err)
	require.True(t, found)

	commitment, err := tr.Commitment()
	require.NoError(t, err)

	sk := vrf.GenerateSecretKey([]byte("seed"))
	pk := sk.PublicKey()
	_, realProof, err := sk.GetProof([]byte("some other key"))
	require.NoError(t, err)

	qr := proof.QueryResult{
		Key:        []byte("mismatched key"),
		IsMember:   true,
		LookupPath: path,
		VRFEnabled: true,
		VRFProof:   realProof,
	}
	require.False(t, qr.Verify(proof.VerifyOptions{Commitment: commitment, VRFPublic: &pk}))
}

// TestQueryResultRejectsInconsistentAdjacentLabels covers the
// adjacent-equal-label boundary convention: two consecutive path entries
// sharing a label must also share a hash, or the proof is invalid.
func TestQueryResultRejectsInconsistentAdjacentLabels(t *testing.T) {
	l := mustLabel(t, 1, 0, 1, 0)
	path := []trie.PathEntry{
		{Label: l, Hash: ozkshash.NonrandomHash([]byte("a"))},
		{Label: l, Hash: ozkshash.NonrandomHash([]byte("b"))},
	}
	qr := proof.QueryResult{LookupPath: path}
	require.False(t, qr.Verify(proof.VerifyOptions{}))
}

func TestQueryResultRoundTrip(t *testing.T) {
	tr, err := trie.New(trie.KindLinked, storage.NewMemory())
	require.NoError(t, err)

	l := mustLabel(t, 0, 0, 1, 1, 0, 1)
	payloadBytes := []byte("round trip payload")
	commit, randomness, err := payload.Commit(payload.Uncommitted, payloadBytes)
	require.NoError(t, err)
	leafHash := ozkshash.LeafHash(l.ToBytes(), commit, 7)
	_, err = tr.Insert(l, leafHash)
	require.NoError(t, err)

	_, path, err := tr.Lookup(l)
	require.NoError(t, err)

	original := proof.QueryResult{
		Key:               []byte("k"),
		IsMember:          true,
		Payload:           payloadBytes,
		Randomness:        randomness,
		PayloadCommitment: commit,
		LookupPath:        path,
		PayloadMode:       payload.Uncommitted,
	}
	data, err := original.MarshalBinary()
	require.NoError(t, err)

	decoded, err := proof.UnmarshalQueryResult(data)
	require.NoError(t, err)
	require.Equal(t, original.Key, decoded.Key)
	require.Equal(t, original.IsMember, decoded.IsMember)
	require.Equal(t, original.Payload, decoded.Payload)
	require.Equal(t, original.Randomness, decoded.Randomness)
	require.Equal(t, original.PayloadCommitment, decoded.PayloadCommitment)
	require.Equal(t, original.LookupPath, decoded.LookupPath)
	require.Equal(t, original.PayloadMode, decoded.PayloadMode)
}

func mustLabelFromBytes(t *testing.T, data []byte) label.PartialLabel {
	t.Helper()
	l, err := label.FromBytes(data, 16)
	require.NoError(t, err)
	return l
}
