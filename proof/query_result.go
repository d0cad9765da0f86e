package proof

import (
	"encoding/binary"

	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/label"
	"github.com/iotaledger/ozks/ozkserr"
	"github.com/iotaledger/ozks/payload"
	"github.com/iotaledger/ozks/trie"
	"github.com/iotaledger/ozks/vrf"
)

// QueryResult is the outcome of a query: membership status, the lookup
// path, and (iff membership) the payload and randomness needed to
// reconstruct the leaf hash, per spec.md §4.9.
type QueryResult struct {
	Key               []byte
	IsMember          bool
	Payload           []byte
	Randomness        [ozkshash.Size]byte
	PayloadCommitment ozkshash.Hash
	LookupPath        []trie.PathEntry

	VRFEnabled bool
	VRFProof   vrf.Proof

	PayloadMode payload.Mode
}

// VerifyOptions carries the externally-known values Verify checks the
// result against: the commitment the trie claims, and (iff VRFEnabled) the
// VRF public key.
type VerifyOptions struct {
	Commitment ozkshash.Hash
	VRFPublic  *vrf.PublicKey
}

// Verify runs the three checks of spec.md §4.9's QueryResult verification:
// the lookup path folds to the commitment (with the non-membership
// adjacent-equal-label convention enforced), the VRF proof (if enabled)
// recovers the label used in the fold, and (iff membership) the payload
// commitment recomputed from (payload, randomness) matches
// PayloadCommitment. PayloadCommitment is not checked against the leaf hash
// in the lookup path.
func (r QueryResult) Verify(opts VerifyOptions) bool {
	if !nonMembershipBoundaryOK(r.LookupPath) {
		return false
	}
	if !matchesCommitment(r.LookupPath, opts.Commitment) {
		return false
	}

	pathLabel := r.LookupPath[0].Label
	if r.VRFEnabled {
		if opts.VRFPublic == nil {
			return false
		}
		ok, value := opts.VRFPublic.VerifyProof(r.Key, r.VRFProof)
		if !ok {
			return false
		}
		if !labelFromHash(value).Equal(pathLabel) {
			return false
		}
	}

	if r.IsMember {
		if !payload.Verify(r.PayloadMode, r.Payload, r.Randomness, r.PayloadCommitment) {
			return false
		}
		// The leaf hash bound into LookupPath[0] also commits the epoch the
		// key was inserted at (internal/ozkshash.LeafHash), which a
		// QueryResult never carries (spec.md §4.9's caveat): this check
		// confirms payload and randomness reproduce PayloadCommitment, not
		// that PayloadCommitment itself was the one folded into the path.
	}
	return true
}

// labelFromHash derives the 256-bit label used as a VRF output's trie
// position: the first MaxBits of the 512-bit digest.
func labelFromHash(h ozkshash.Hash) label.PartialLabel {
	l, err := label.FromBytes(h[:32], 256)
	if err != nil {
		// h is always 64 bytes and 256 <= label.MaxBits; this cannot fail.
		panic(err)
	}
	return l
}

// MarshalBinary encodes r as a version-tagged, length-prefixed record.
func (r QueryResult) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0)
	out = appendBytesField(out, r.Key)
	out = append(out, boolByte(r.IsMember))
	out = appendBytesField(out, r.Payload)
	out = append(out, r.Randomness[:]...)
	out = append(out, r.PayloadCommitment[:]...)
	out = appendPath(out, r.LookupPath)
	out = append(out, boolByte(r.VRFEnabled))
	if r.VRFEnabled {
		proofBytes, err := r.VRFProof.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = appendBytesField(out, proofBytes)
	}
	out = append(out, byte(r.PayloadMode))
	return wrapRecord(2, out), nil
}

// UnmarshalQueryResult decodes a record produced by MarshalBinary.
func UnmarshalQueryResult(data []byte) (QueryResult, error) {
	body, err := unwrapRecord(2, data)
	if err != nil {
		return QueryResult{}, err
	}
	var r QueryResult
	var rest []byte
	r.Key, rest, err = readBytesField(body)
	if err != nil {
		return QueryResult{}, err
	}
	if len(rest) < 1 {
		return QueryResult{}, xerrors.Errorf("ozks: proof: %w: is_member truncated", ozkserr.ErrInvalidEncoding)
	}
	r.IsMember = rest[0] != 0
	rest = rest[1:]

	r.Payload, rest, err = readBytesField(rest)
	if err != nil {
		return QueryResult{}, err
	}
	if len(rest) < ozkshash.Size {
		return QueryResult{}, xerrors.Errorf("ozks: proof: %w: randomness truncated", ozkserr.ErrInvalidEncoding)
	}
	copy(r.Randomness[:], rest[:ozkshash.Size])
	rest = rest[ozkshash.Size:]

	if len(rest) < ozkshash.Size {
		return QueryResult{}, xerrors.Errorf("ozks: proof: %w: payload commitment truncated", ozkserr.ErrInvalidEncoding)
	}
	copy(r.PayloadCommitment[:], rest[:ozkshash.Size])
	rest = rest[ozkshash.Size:]

	r.LookupPath, rest, err = readPath(rest)
	if err != nil {
		return QueryResult{}, err
	}

	if len(rest) < 1 {
		return QueryResult{}, xerrors.Errorf("ozks: proof: %w: vrf flag truncated", ozkserr.ErrInvalidEncoding)
	}
	r.VRFEnabled = rest[0] != 0
	rest = rest[1:]

	if r.VRFEnabled {
		var proofBytes []byte
		proofBytes, rest, err = readBytesField(rest)
		if err != nil {
			return QueryResult{}, err
		}
		r.VRFProof, err = vrf.UnmarshalProof(proofBytes)
		if err != nil {
			return QueryResult{}, err
		}
	}

	if len(rest) < 1 {
		return QueryResult{}, xerrors.Errorf("ozks: proof: %w: payload mode truncated", ozkserr.ErrInvalidEncoding)
	}
	r.PayloadMode = payload.Mode(rest[0])
	return r, nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

func appendBytesField(out []byte, data []byte) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	out = append(out, lenBuf[:]...)
	return append(out, data...)
}

func readBytesField(data []byte) ([]byte, []byte, error) {
	if len(data) < 4 {
		return nil, nil, xerrors.Errorf("ozks: proof: %w: field length truncated", ozkserr.ErrInvalidEncoding)
	}
	n := binary.LittleEndian.Uint32(data[0:4])
	data = data[4:]
	if uint32(len(data)) < n {
		return nil, nil, xerrors.Errorf("ozks: proof: %w: field body truncated", ozkserr.ErrInvalidEncoding)
	}
	return data[:n], data[n:], nil
}
