package vrf_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/ozks/vrf"
)

func TestProofVerifiesAndRecoversHash(t *testing.T) {
	sk := vrf.GenerateSecretKey([]byte("deterministic-seed"))
	pk := sk.PublicKey()

	data := []byte("some key")
	value, proof, err := sk.GetProof(data)
	require.NoError(t, err)

	ok, recovered := pk.VerifyProof(data, proof)
	require.True(t, ok)
	require.Equal(t, value, recovered)

	hashOnly, err := sk.GetHash(data)
	require.NoError(t, err)
	require.Equal(t, value, hashOnly)
}

func TestProofRejectsWrongData(t *testing.T) {
	sk := vrf.GenerateSecretKey(nil)
	pk := sk.PublicKey()

	_, proof, err := sk.GetProof([]byte("a"))
	require.NoError(t, err)

	ok, _ := pk.VerifyProof([]byte("b"), proof)
	require.False(t, ok)
}

func TestSeededKeysAreDeterministic(t *testing.T) {
	seed := []byte("fixed-seed")
	a := vrf.GenerateSecretKey(seed)
	b := vrf.GenerateSecretKey(seed)

	va, err := a.GetHash([]byte("x"))
	require.NoError(t, err)
	vb, err := b.GetHash([]byte("x"))
	require.NoError(t, err)
	require.Equal(t, va, vb)
}

func TestSecretKeyMarshalRoundTrip(t *testing.T) {
	sk := vrf.GenerateSecretKey([]byte("seed"))
	enc, err := sk.MarshalBinary()
	require.NoError(t, err)
	decoded, err := vrf.UnmarshalSecretKey(enc)
	require.NoError(t, err)

	h1, _ := sk.GetHash([]byte("z"))
	h2, _ := decoded.GetHash([]byte("z"))
	require.Equal(t, h1, h2)
}

func TestProofMarshalRoundTrip(t *testing.T) {
	sk := vrf.GenerateSecretKey([]byte("seed"))
	pk := sk.PublicKey()
	_, proof, err := sk.GetProof([]byte("data"))
	require.NoError(t, err)

	enc, err := proof.MarshalBinary()
	require.NoError(t, err)
	decoded, err := vrf.UnmarshalProof(enc)
	require.NoError(t, err)

	ok, _ := pk.VerifyProof([]byte("data"), decoded)
	require.True(t, ok)
}
