package ozks

import (
	"encoding/binary"

	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/ozkserr"
	"github.com/iotaledger/ozks/vrf"
)

// Commitment is the public state a caller needs to verify proofs against:
// the trie's root hash and, when VRF labels are in use, the VRF public key
// needed to check a QueryResult's vrf_proof.
type Commitment struct {
	RootHash     ozkshash.Hash
	HasVRFPublic bool
	VRFPublic    vrf.PublicKey
}

const commitmentVersion = 3

// MarshalBinary encodes c as a version-tagged, length-prefixed record.
func (c Commitment) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, ozkshash.Size+1)
	out = append(out, c.RootHash[:]...)
	if c.HasVRFPublic {
		pkBytes, err := c.VRFPublic.MarshalBinary()
		if err != nil {
			return nil, err
		}
		out = append(out, 1)
		out = append(out, pkBytes...)
	} else {
		out = append(out, 0)
	}
	return wrapRecord(commitmentVersion, out), nil
}

// UnmarshalCommitment decodes a record produced by MarshalBinary.
func UnmarshalCommitment(data []byte) (Commitment, error) {
	body, err := unwrapRecord(commitmentVersion, data)
	if err != nil {
		return Commitment{}, err
	}
	if len(body) < ozkshash.Size+1 {
		return Commitment{}, xerrors.Errorf("ozks: %w: commitment record too short", ozkserr.ErrInvalidEncoding)
	}
	var c Commitment
	copy(c.RootHash[:], body[:ozkshash.Size])
	rest := body[ozkshash.Size:]
	c.HasVRFPublic = rest[0] != 0
	if c.HasVRFPublic {
		pk, err := vrf.UnmarshalPublicKey(rest[1:])
		if err != nil {
			return Commitment{}, err
		}
		c.VRFPublic = pk
	}
	return c, nil
}

func wrapRecord(version uint32, body []byte) []byte {
	out := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint32(out[0:4], version)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(body)))
	copy(out[8:], body)
	return out
}

func unwrapRecord(wantVersion uint32, data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, xerrors.Errorf("ozks: %w: record header truncated", ozkserr.ErrInvalidEncoding)
	}
	version := binary.LittleEndian.Uint32(data[0:4])
	length := binary.LittleEndian.Uint32(data[4:8])
	if version != wantVersion {
		return nil, xerrors.Errorf("ozks: %w: version %d, want %d", ozkserr.ErrInvalidEncoding, version, wantVersion)
	}
	if uint32(len(data)-8) < length {
		return nil, xerrors.Errorf("ozks: %w: record body truncated", ozkserr.ErrInvalidEncoding)
	}
	return data[8 : 8+length], nil
}
