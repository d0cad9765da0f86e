package ozks

import (
	"encoding/binary"

	"github.com/rs/zerolog"
	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/ozkserr"
	"github.com/iotaledger/ozks/payload"
	"github.com/iotaledger/ozks/storage"
	"github.com/iotaledger/ozks/trie"
	"github.com/iotaledger/ozks/vrf"
	"github.com/iotaledger/ozks/vrfcache"
)

const facadeVersion = 5

// Save encodes the façade's persistent state: configuration (minus the
// storage handle, which a Load caller always supplies fresh, and minus
// VRFSeed, which is not written), the trie's
// identity, and the VRF secret key when VRF labels are enabled. Trie nodes,
// the trie header, and payload-store entries live in config.Storage and
// round-trip through it directly; Save/Load only move the handle-level
// metadata needed to find them again.
func (o *OZKS) Save() ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]byte, 0, 64)
	out = append(out, byte(o.config.LabelType))
	out = append(out, byte(o.config.PayloadCommitment))
	out = append(out, byte(o.config.TrieType))

	var idBuf [8]byte
	binary.LittleEndian.PutUint64(idBuf[:], o.trie.ID())
	out = append(out, idBuf[:]...)

	var cacheBuf [4]byte
	binary.LittleEndian.PutUint32(cacheBuf[:], uint32(o.config.VRFCacheSize))
	out = append(out, cacheBuf[:]...)

	var threadBuf [4]byte
	binary.LittleEndian.PutUint32(threadBuf[:], uint32(o.config.ThreadCount))
	out = append(out, threadBuf[:]...)

	if o.vrfKey != nil {
		skBytes, err := o.vrfKey.MarshalBinary()
		if err != nil {
			return nil, xerrors.Errorf("ozks: save: vrf key: %w", err)
		}
		out = append(out, 1)
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(skBytes)))
		out = append(out, lenBuf[:]...)
		out = append(out, skBytes...)
	} else {
		out = append(out, 0)
	}

	return wrapRecord(facadeVersion, out), nil
}

// Load reconstructs an OZKS from a record produced by Save, reattaching
// store as the handle's storage backend and reloading the trie from it.
func Load(store storage.Storage, data []byte) (*OZKS, error) {
	body, err := unwrapRecord(facadeVersion, data)
	if err != nil {
		return nil, err
	}
	if len(body) < 3+8+4+4+1 {
		return nil, xerrors.Errorf("ozks: load: %w: record too short", ozkserr.ErrInvalidEncoding)
	}

	config := OZKSConfig{
		LabelType:         LabelType(body[0]),
		PayloadCommitment: payload.Mode(body[1]),
		TrieType:          trie.Kind(body[2]),
		Storage:           store,
	}
	rest := body[3:]

	id := binary.LittleEndian.Uint64(rest[:8])
	rest = rest[8:]
	config.VRFCacheSize = int(binary.LittleEndian.Uint32(rest[:4]))
	rest = rest[4:]
	config.ThreadCount = int(binary.LittleEndian.Uint32(rest[:4]))
	rest = rest[4:]

	hasVRFKey := rest[0] != 0
	rest = rest[1:]

	t, err := trie.Load(config.TrieType, store, id)
	if err != nil {
		return nil, xerrors.Errorf("ozks: load: trie: %w", err)
	}

	o := &OZKS{config: config, store: store, trie: t, log: zerolog.Nop()}

	if hasVRFKey {
		if len(rest) < 4 {
			return nil, xerrors.Errorf("ozks: load: %w: vrf key length truncated", ozkserr.ErrInvalidEncoding)
		}
		n := binary.LittleEndian.Uint32(rest[:4])
		rest = rest[4:]
		if uint32(len(rest)) < n {
			return nil, xerrors.Errorf("ozks: load: %w: vrf key body truncated", ozkserr.ErrInvalidEncoding)
		}
		sk, err := vrf.UnmarshalSecretKey(rest[:n])
		if err != nil {
			return nil, xerrors.Errorf("ozks: load: vrf key: %w", err)
		}
		o.vrfKey = &sk
		o.vrfPub = sk.PublicKey()
		o.vrfCache = vrfcache.New(config.VRFCacheSize)
	}

	return o, nil
}

