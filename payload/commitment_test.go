package payload_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/ozks/payload"
)

func TestCommittedModeRandomizesAndVerifies(t *testing.T) {
	data := []byte("hello")
	c1, r1, err := payload.Commit(payload.Committed, data)
	require.NoError(t, err)
	c2, r2, err := payload.Commit(payload.Committed, data)
	require.NoError(t, err)

	require.NotEqual(t, c1, c2, "randomized commitments of the same payload must differ")
	require.True(t, payload.Verify(payload.Committed, data, r1, c1))
	require.True(t, payload.Verify(payload.Committed, data, r2, c2))
	require.False(t, payload.Verify(payload.Committed, data, r1, c2))
}

func TestUncommittedModeIsDeterministic(t *testing.T) {
	data := []byte("hello")
	c1, _, err := payload.Commit(payload.Uncommitted, data)
	require.NoError(t, err)
	c2, _, err := payload.Commit(payload.Uncommitted, data)
	require.NoError(t, err)

	require.Equal(t, c1, c2)
	require.True(t, payload.Verify(payload.Uncommitted, data, [64]byte{}, c1))
}
