package vrfcache_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/vrfcache"
)

func TestHitAfterAdd(t *testing.T) {
	c := vrfcache.New(4)
	h := ozkshash.KeyHash([]byte("k"))

	_, ok := c.Get(h)
	require.False(t, ok)
	require.Equal(t, uint64(1), c.Misses())

	c.Add(h, vrfcache.Entry{Value: h})
	_, ok = c.Get(h)
	require.True(t, ok)
	require.Equal(t, uint64(1), c.Hits())
}

func TestZeroCapacityAlwaysMisses(t *testing.T) {
	c := vrfcache.New(0)
	h := ozkshash.KeyHash([]byte("k"))
	c.Add(h, vrfcache.Entry{Value: h})

	_, ok := c.Get(h)
	require.False(t, ok)
	require.Equal(t, uint64(1), c.Misses())
}

func TestClearContentsPreservesStats(t *testing.T) {
	c := vrfcache.New(4)
	h := ozkshash.KeyHash([]byte("k"))
	c.Add(h, vrfcache.Entry{Value: h})
	_, _ = c.Get(h)

	c.ClearContents()
	_, ok := c.Get(h)
	require.False(t, ok)
	require.Equal(t, uint64(1), c.Hits())
	require.Equal(t, uint64(1), c.Misses())
}

func TestClearStatsResetsCounters(t *testing.T) {
	c := vrfcache.New(4)
	h := ozkshash.KeyHash([]byte("k"))
	_, _ = c.Get(h)
	c.ClearStats()
	require.Equal(t, uint64(0), c.Misses())
	require.Equal(t, uint64(0), c.Hits())
}
