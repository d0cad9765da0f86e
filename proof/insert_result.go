package proof

import (
	"encoding/binary"

	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/ozkserr"
	"github.com/iotaledger/ozks/trie"
)

// InsertResult is the proof that a single insertion produced a given
// commitment: the resulting commitment and the append proof (the inserted
// label's lookup path against the post-insert trie).
type InsertResult struct {
	Commitment  ozkshash.Hash
	AppendProof []trie.PathEntry
}

// Verify reports whether folding AppendProof bottom-up reproduces
// Commitment. It never returns an error: verification failure is always a
// plain false, per spec.md §7.
func (r InsertResult) Verify() bool {
	return matchesCommitment(r.AppendProof, r.Commitment)
}

// MarshalBinary encodes r as a version-tagged, length-prefixed record per
// spec.md §6's persistence requirement.
func (r InsertResult) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, ozkshash.Size+4+len(r.AppendProof)*64)
	out = append(out, r.Commitment[:]...)
	out = appendPath(out, r.AppendProof)
	return wrapRecord(1, out), nil
}

// UnmarshalInsertResult decodes a record produced by MarshalBinary.
func UnmarshalInsertResult(data []byte) (InsertResult, error) {
	body, err := unwrapRecord(1, data)
	if err != nil {
		return InsertResult{}, err
	}
	if len(body) < ozkshash.Size {
		return InsertResult{}, xerrors.Errorf("ozks: proof: %w: insert result too short", ozkserr.ErrInvalidEncoding)
	}
	var r InsertResult
	copy(r.Commitment[:], body[:ozkshash.Size])
	path, _, err := readPath(body[ozkshash.Size:])
	if err != nil {
		return InsertResult{}, err
	}
	r.AppendProof = path
	return r, nil
}

const serializationVersion = 1

func wrapRecord(version uint32, body []byte) []byte {
	out := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint32(out[0:4], version)
	binary.LittleEndian.PutUint32(out[4:8], uint32(len(body)))
	copy(out[8:], body)
	return out
}

func unwrapRecord(wantVersion uint32, data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, xerrors.Errorf("ozks: proof: %w: record header truncated", ozkserr.ErrInvalidEncoding)
	}
	version := binary.LittleEndian.Uint32(data[0:4])
	length := binary.LittleEndian.Uint32(data[4:8])
	if version != wantVersion {
		return nil, xerrors.Errorf("ozks: proof: %w: version %d, want %d", ozkserr.ErrInvalidEncoding, version, wantVersion)
	}
	if uint32(len(data)-8) < length {
		return nil, xerrors.Errorf("ozks: proof: %w: record body truncated", ozkserr.ErrInvalidEncoding)
	}
	return data[8 : 8+length], nil
}

func appendPath(out []byte, path []trie.PathEntry) []byte {
	var countBuf [4]byte
	binary.LittleEndian.PutUint32(countBuf[:], uint32(len(path)))
	out = append(out, countBuf[:]...)
	for _, e := range path {
		saved := e.Label.Save()
		out = append(out, saved...)
		out = append(out, e.Hash[:]...)
	}
	return out
}

func readPath(data []byte) ([]trie.PathEntry, []byte, error) {
	if len(data) < 4 {
		return nil, nil, xerrors.Errorf("ozks: proof: %w: path count truncated", ozkserr.ErrInvalidEncoding)
	}
	count := binary.LittleEndian.Uint32(data[0:4])
	data = data[4:]

	path := make([]trie.PathEntry, count)
	entrySize := 36 + ozkshash.Size
	for i := uint32(0); i < count; i++ {
		if len(data) < entrySize {
			return nil, nil, xerrors.Errorf("ozks: proof: %w: path entry truncated", ozkserr.ErrInvalidEncoding)
		}
		l, err := decodeLabel(data[:36])
		if err != nil {
			return nil, nil, err
		}
		var h ozkshash.Hash
		copy(h[:], data[36:entrySize])
		path[i] = trie.PathEntry{Label: l, Hash: h}
		data = data[entrySize:]
	}
	return path, data, nil
}
