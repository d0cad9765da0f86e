package proof_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/label"
	"github.com/iotaledger/ozks/proof"
	"github.com/iotaledger/ozks/storage"
	"github.com/iotaledger/ozks/trie"
)

func mustLabel(t *testing.T, bits ...byte) label.PartialLabel {
	t.Helper()
	l, err := label.FromBits(bits...)
	require.NoError(t, err)
	return l
}

func TestInsertResultVerifies(t *testing.T) {
	tr, err := trie.New(trie.KindLinked, storage.NewMemory())
	require.NoError(t, err)

	l1 := mustLabel(t, 0, 0, 0, 1, 1)
	h1 := ozkshash.NonrandomHash([]byte("first"))
	_, err = tr.Insert(l1, h1)
	require.NoError(t, err)

	l2 := mustLabel(t, 0, 1, 1, 0, 0)
	h2 := ozkshash.NonrandomHash([]byte("second"))
	_, err = tr.Insert(l2, h2)
	require.NoError(t, err)

	found, path, err := tr.Lookup(l2)
	require.NoError(t, err)
	require.True(t, found)

	commitment, err := tr.Commitment()
	require.NoError(t, err)

	result := proof.InsertResult{Commitment: commitment, AppendProof: path}
	require.True(t, result.Verify())
}

func TestInsertResultRejectsWrongCommitment(t *testing.T) {
	tr, err := trie.New(trie.KindLinked, storage.NewMemory())
	require.NoError(t, err)

	l := mustLabel(t, 1, 0, 1, 0)
	_, err = tr.Insert(l, ozkshash.NonrandomHash([]byte("x")))
	require.NoError(t, err)

	_, path, err := tr.Lookup(l)
	require.NoError(t, err)

	result := proof.InsertResult{Commitment: ozkshash.NonrandomHash([]byte("wrong")), AppendProof: path}
	require.False(t, result.Verify())
}

func TestInsertResultRoundTrip(t *testing.T) {
	tr, err := trie.New(trie.KindLinked, storage.NewMemory())
	require.NoError(t, err)

	l := mustLabel(t, 0, 1, 0, 1, 1, 0)
	_, err = tr.Insert(l, ozkshash.NonrandomHash([]byte("roundtrip")))
	require.NoError(t, err)

	_, path, err := tr.Lookup(l)
	require.NoError(t, err)
	commitment, err := tr.Commitment()
	require.NoError(t, err)

	original := proof.InsertResult{Commitment: commitment, AppendProof: path}
	data, err := original.MarshalBinary()
	require.NoError(t, err)

	decoded, err := proof.UnmarshalInsertResult(data)
	require.NoError(t, err)
	require.Equal(t, original.Commitment, decoded.Commitment)
	require.Equal(t, original.AppendProof, decoded.AppendProof)
	require.True(t, decoded.Verify())
}
