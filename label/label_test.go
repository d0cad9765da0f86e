package label_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/ozks/label"
)

func TestFromBytesRoundTrip(t *testing.T) {
	l, err := label.FromBytes([]byte{0xF0}, 4)
	require.NoError(t, err)
	require.Equal(t, 4, l.BitCount())
	require.Equal(t, byte(1), l.Bit(0))
	require.Equal(t, byte(1), l.Bit(3))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	l, err := label.FromBits(1, 0, 1, 1, 0, 0, 1)
	require.NoError(t, err)
	saved := l.Save()
	require.Len(t, saved, label.SaveSize)
	loaded, err := label.Load(saved)
	require.NoError(t, err)
	require.True(t, l.Equal(loaded))
}

func TestCommonPrefix(t *testing.T) {
	a, _ := label.FromBits(1, 1, 0, 0, 1)
	b, _ := label.FromBits(1, 1, 0, 1, 1)
	cp := label.CommonPrefix(a, b)
	require.Equal(t, 3, cp.BitCount())
	require.Equal(t, "110", cp.String())
}

func TestCommonPrefixCountFullMatch(t *testing.T) {
	a, _ := label.FromBits(1, 0, 1)
	b, _ := label.FromBits(1, 0, 1, 1)
	require.Equal(t, 3, label.CommonPrefixCount(a, b))
}

func TestAppendExhaustsCapacity(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = 0xFF
	}
	l, err := label.FromBytes(data, label.MaxBits)
	require.NoError(t, err)
	_, err = l.Append(1)
	require.ErrorIs(t, err, label.ErrExhaustedCapacity)
}

func TestLessOrdersByLengthThenBits(t *testing.T) {
	a, _ := label.FromBits(1, 0)
	b, _ := label.FromBits(1, 1)
	require.True(t, a.Less(b))

	c, _ := label.FromBits(1)
	d, _ := label.FromBits(1, 0)
	require.True(t, c.Less(d))
}

// TestLessOrdersShorterLabelFirstEvenWhenBitsDiverge exercises the case
// where comparing by length and comparing by first-differing-bit disagree:
// "1" has a higher leading bit than "00", but being shorter it must still
// sort first.
func TestLessOrdersShorterLabelFirstEvenWhenBitsDiverge(t *testing.T) {
	a, _ := label.FromBits(1)
	b, _ := label.FromBits(0, 0)
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))
}

func TestTruncateClearsTrailingBits(t *testing.T) {
	l, _ := label.FromBits(1, 1, 1, 1)
	trunc := l.Truncate(2)
	other, _ := label.FromBits(1, 1)
	require.True(t, trunc.Equal(other))
}

func TestEmptyLabel(t *testing.T) {
	var l label.PartialLabel
	require.True(t, l.IsEmpty())
	require.Equal(t, 0, l.BitCount())
	require.Empty(t, l.ToBytes())
}
