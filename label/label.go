// Package label implements PartialLabel, the fixed-capacity bitstring used
// as a path through the compressed trie.
package label

import (
	"encoding/binary"
	"math/bits"

	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/ozkserr"
)

// MaxBits is the maximum bit capacity of a PartialLabel.
const MaxBits = 256

const numWords = MaxBits / 64

// SaveSize is the exact on-disk size of a serialized PartialLabel: 32 bytes
// of bit storage followed by a 4-byte little-endian bit count.
const SaveSize = 36

// ErrExhaustedCapacity is returned when an operation would grow a label past
// MaxBits. It wraps ozkserr.ErrExhaustedCapacity.
var ErrExhaustedCapacity = xerrors.Errorf("ozks: partial label: %w", ozkserr.ErrExhaustedCapacity)

// PartialLabel is an ordered sequence of up to MaxBits bits. Bit 0 is the
// most-significant, root-ward bit. The zero value is the empty label.
type PartialLabel struct {
	bits  [numWords]uint64
	count uint32
}

// FromBytes builds a label from the first bitCount bits of data, high bits
// first. bitCount must not exceed MaxBits or len(data)*8.
func FromBytes(data []byte, bitCount int) (PartialLabel, error) {
	if bitCount < 0 || bitCount > MaxBits {
		return PartialLabel{}, ErrExhaustedCapacity
	}
	var l PartialLabel
	for i := 0; i < bitCount; i++ {
		byteIdx := i / 8
		if byteIdx >= len(data) {
			return PartialLabel{}, xerrors.Errorf("ozks: label: not enough bytes for %d bits", bitCount)
		}
		bit := (data[byteIdx] >> (7 - uint(i%8))) & 1
		l.setBit(i, bit)
	}
	l.count = uint32(bitCount)
	return l, nil
}

// FromBits builds a label from an explicit list of bit values (0 or 1).
func FromBits(bitValues ...byte) (PartialLabel, error) {
	if len(bitValues) > MaxBits {
		return PartialLabel{}, ErrExhaustedCapacity
	}
	var l PartialLabel
	for i, b := range bitValues {
		l.setBit(i, b&1)
	}
	l.count = uint32(len(bitValues))
	return l, nil
}

// Truncate returns the prefix of l consisting of its first n bits.
func (l PartialLabel) Truncate(n int) PartialLabel {
	if n < 0 {
		n = 0
	}
	if n > int(l.count) {
		n = int(l.count)
	}
	ret := l
	ret.count = uint32(n)
	ret.clearTrailing()
	return ret
}

// BitCount returns the number of bits in the label.
func (l PartialLabel) BitCount() int {
	return int(l.count)
}

// Bit returns the bit at position i (0 = most significant).
func (l PartialLabel) Bit(i int) byte {
	word := i / 64
	offset := 63 - uint(i%64)
	return byte((l.bits[word] >> offset) & 1)
}

func (l *PartialLabel) setBit(i int, v byte) {
	word := i / 64
	offset := 63 - uint(i%64)
	if v != 0 {
		l.bits[word] |= uint64(1) << offset
	} else {
		l.bits[word] &^= uint64(1) << offset
	}
}

// Append adds a single bit to the end of the label. Fails at capacity.
func (l PartialLabel) Append(bit byte) (PartialLabel, error) {
	if l.count >= MaxBits {
		return PartialLabel{}, ErrExhaustedCapacity
	}
	ret := l
	ret.setBit(int(l.count), bit)
	ret.count = l.count + 1
	return ret, nil
}

// Equal reports whether two labels have the same length and bits.
func (l PartialLabel) Equal(other PartialLabel) bool {
	if l.count != other.count {
		return false
	}
	return l.bits == other.bits
}

// Less reports strict order: by length first, then by bits. A shorter
// label is always less than a longer one, even when the longer one's bits
// would otherwise sort first.
func (l PartialLabel) Less(other PartialLabel) bool {
	if l.count != other.count {
		return l.count < other.count
	}
	common := CommonPrefixCount(l, other)
	if common < int(l.count) {
		return l.Bit(common) < other.Bit(common)
	}
	return false
}

// clearTrailing zeros bits beyond the current count, so equality and hashing
// never observe stale bits left behind by Truncate.
func (l *PartialLabel) clearTrailing() {
	for i := int(l.count); i < MaxBits; i++ {
		l.setBit(i, 0)
	}
}

// CommonPrefixCount returns the number of leading bits shared by a and b.
func CommonPrefixCount(a, b PartialLabel) int {
	limit := int(a.count)
	if int(b.count) < limit {
		limit = int(b.count)
	}
	count := 0
	for w := 0; w < numWords; w++ {
		x := a.bits[w] ^ b.bits[w]
		lz := bits.LeadingZeros64(x)
		if lz >= 64 {
			count += 64
		} else {
			count += lz
			break
		}
		if count >= limit {
			break
		}
	}
	if count > limit {
		count = limit
	}
	return count
}

// CommonPrefix returns the label formed by the bits a and b agree on.
func CommonPrefix(a, b PartialLabel) PartialLabel {
	n := CommonPrefixCount(a, b)
	return a.Truncate(n)
}

// ToBytes renders the label as high-bits-first bytes, zero-padded in the
// final byte. The length is ceil(BitCount()/8).
func (l PartialLabel) ToBytes() []byte {
	n := (int(l.count) + 7) / 8
	out := make([]byte, n)
	for i := 0; i < int(l.count); i++ {
		if l.Bit(i) != 0 {
			out[i/8] |= 1 << (7 - uint(i%8))
		}
	}
	return out
}

// Save renders the fixed 36-byte on-disk form: 32 bytes of bit storage
// (unused bits zeroed) followed by a 4-byte little-endian bit count.
func (l PartialLabel) Save() []byte {
	out := make([]byte, SaveSize)
	for w := 0; w < numWords; w++ {
		binary.BigEndian.PutUint64(out[w*8:w*8+8], l.bits[w])
	}
	binary.LittleEndian.PutUint32(out[32:36], l.count)
	return out
}

// Load parses the fixed 36-byte on-disk form produced by Save.
func Load(data []byte) (PartialLabel, error) {
	if len(data) != SaveSize {
		return PartialLabel{}, xerrors.Errorf("ozks: label: wrong encoded size %d, want %d", len(data), SaveSize)
	}
	var l PartialLabel
	for w := 0; w < numWords; w++ {
		l.bits[w] = binary.BigEndian.Uint64(data[w*8 : w*8+8])
	}
	l.count = binary.LittleEndian.Uint32(data[32:36])
	if l.count > MaxBits {
		return PartialLabel{}, ErrExhaustedCapacity
	}
	return l, nil
}

// IsEmpty reports whether the label has zero bits (the root label).
func (l PartialLabel) IsEmpty() bool {
	return l.count == 0
}

// String renders the label as a string of '0'/'1' characters, for debugging.
func (l PartialLabel) String() string {
	out := make([]byte, l.count)
	for i := range out {
		out[i] = '0' + l.Bit(i)
	}
	return string(out)
}
