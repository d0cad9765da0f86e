// Package ozks implements the oZKS façade of spec.md §4.8: the component
// that combines VRF label derivation, payload commitment, the payload
// store, and the compressed trie into the public insert/query/flush/
// get_commitment/save/load/clear surface.
package ozks

import (
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/label"
	"github.com/iotaledger/ozks/ozkserr"
	"github.com/iotaledger/ozks/payload"
	"github.com/iotaledger/ozks/proof"
	"github.com/iotaledger/ozks/storage"
	"github.com/iotaledger/ozks/trie"
	"github.com/iotaledger/ozks/vrf"
	"github.com/iotaledger/ozks/vrfcache"
)

// PendingInsertResult is the handle returned by Insert/InsertBatch before
// the enqueueing Flush runs. Result is only meaningful after that Flush
// returns.
type PendingInsertResult struct {
	result proof.InsertResult
	err    error
}

// Result returns the insertion's outcome. Calling it before the enqueueing
// Flush has returned yields the zero InsertResult and a nil error.
func (p *PendingInsertResult) Result() (proof.InsertResult, error) {
	return p.result, p.err
}

type pendingInsert struct {
	key     []byte
	payload []byte
	handle  *PendingInsertResult

	label      label.PartialLabel
	commitment ozkshash.Hash
	randomness [ozkshash.Size]byte
	vrfProof   vrf.Proof
}

// OZKS is the authenticated dictionary façade: VRF + payload commitment +
// payload store + trie, behind a single insert/query/flush surface.
type OZKS struct {
	mu sync.Mutex

	config OZKSConfig
	store  storage.Storage
	trie   *trie.CompressedTrie

	vrfKey   *vrf.SecretKey
	vrfPub   vrf.PublicKey
	vrfCache *vrfcache.Cache

	pending []*pendingInsert

	log zerolog.Logger
}

// New constructs an empty OZKS per config.
func New(config OZKSConfig) (*OZKS, error) {
	t, err := trie.New(config.TrieType, config.Storage)
	if err != nil {
		return nil, xerrors.Errorf("ozks: new: %w", err)
	}

	store := config.Storage
	if store == nil && config.TrieType == trie.KindLinkedNoStorage {
		// The payload store still needs a home when no storage is attached.
		store = storage.NewMemory()
	}
	o := &OZKS{
		config: config,
		store:  store,
		trie:   t,
		log:    zerolog.Nop(),
	}
	if config.LabelType == VRFLabels {
		sk := vrf.GenerateSecretKey(config.VRFSeed)
		o.vrfKey = &sk
		o.vrfPub = sk.PublicKey()
		o.vrfCache = vrfcache.New(config.VRFCacheSize)
	}
	return o, nil
}

// SetLogger replaces the façade's logger (the zero value logs nowhere).
func (o *OZKS) SetLogger(log zerolog.Logger) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.log = log
}

// Insert enqueues (key, payload) for the next Flush and returns a handle
// populated once that Flush returns. Per spec.md §4.8, a duplicate key is
// only detected at Flush time, never at enqueue time.
func (o *OZKS) Insert(key, payloadBytes []byte) *PendingInsertResult {
	results := o.InsertBatch([][2][]byte{{key, payloadBytes}})
	return results[0]
}

// InsertBatch enqueues every (key, payload) pair in pairs for the next
// Flush.
func (o *OZKS) InsertBatch(pairs [][2][]byte) []*PendingInsertResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	handles := make([]*PendingInsertResult, len(pairs))
	for i, pair := range pairs {
		handle := &PendingInsertResult{}
		handles[i] = handle
		o.pending = append(o.pending, &pendingInsert{key: pair[0], payload: pair[1], handle: handle})
	}
	return handles
}

// Flush computes labels and payload commitments for every pending
// insertion (fanned out across config.ThreadCount workers), rejects the
// whole batch if any key collides with another pending key or an existing
// payload-store entry, writes the payload store, inserts into the trie,
// and populates every pending handle. On any error nothing is mutated: the
// façade validates the entire batch before touching store or trie.
func (o *OZKS) Flush() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	batch := o.pending
	o.pending = nil
	if len(batch) == 0 {
		return nil
	}
	o.log.Debug().Int("count", len(batch)).Msg("ozks: flush start")

	if err := o.computeLabelsAndCommitments(batch); err != nil {
		o.failAll(batch, err)
		o.log.Error().Err(err).Msg("ozks: flush aborted during label/commitment computation")
		return err
	}

	if err := o.checkNoDuplicateKeys(batch); err != nil {
		o.failAll(batch, err)
		o.log.Warn().Err(err).Msg("ozks: flush rejected duplicate key")
		return err
	}

	for _, item := range batch {
		if err := o.store.SavePayload(o.trie.ID(), item.key, storage.PayloadRecord{
			Payload:    item.payload,
			Randomness: item.randomness,
		}); err != nil {
			err = xerrors.Errorf("ozks: flush: save payload: %w", err)
			o.failAll(batch, err)
			return err
		}
	}

	insertions := make([]trie.Insertion, len(batch))
	for i, item := range batch {
		insertions[i] = trie.Insertion{Label: item.label, Hash: item.commitment}
	}
	proofs, err := o.trie.InsertBatch(insertions, o.config.resolvedThreadCount())
	if err != nil {
		err = xerrors.Errorf("ozks: flush: trie insert: %w", err)
		o.failAll(batch, err)
		return err
	}

	commitment, err := o.trie.Commitment()
	if err != nil {
		err = xerrors.Errorf("ozks: flush: commitment: %w", err)
		o.failAll(batch, err)
		return err
	}
	for i, item := range batch {
		item.handle.result = proof.InsertResult{Commitment: commitment, AppendProof: proofs[i]}
	}

	o.log.Debug().Int("count", len(batch)).Uint64("epoch", o.trie.Epoch()).Msg("ozks: flush done")
	return nil
}

func (o *OZKS) failAll(batch []*pendingInsert, err error) {
	for _, item := range batch {
		item.handle.err = err
	}
}

// computeLabelsAndCommitments fans the per-item label derivation and
// payload commitment work out across config.ThreadCount workers, each
// claiming a contiguous range, per spec.md §4.8's concurrency model.
func (o *OZKS) computeLabelsAndCommitments(batch []*pendingInsert) error {
	threads := o.config.resolvedThreadCount()
	if threads > len(batch) {
		threads = len(batch)
	}
	if threads < 1 {
		threads = 1
	}

	chunk := (len(batch) + threads - 1) / threads
	var g errgroup.Group
	for start := 0; start < len(batch); start += chunk {
		end := start + chunk
		if end > len(batch) {
			end = len(batch)
		}
		items := batch[start:end]
		g.Go(func() error {
			for _, item := range items {
				if err := o.computeOne(item); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

func (o *OZKS) computeOne(item *pendingInsert) error {
	l, err := o.deriveLabel(item)
	if err != nil {
		return err
	}
	item.label = l

	commitment, randomness, err := payload.Commit(o.config.PayloadCommitment, item.payload)
	if err != nil {
		return xerrors.Errorf("ozks: flush: commit payload: %w", err)
	}
	item.randomness = randomness
	item.commitment = commitment
	return nil
}

func (o *OZKS) deriveLabel(item *pendingInsert) (label.PartialLabel, error) {
	if o.config.LabelType != VRFLabels {
		return labelFromHash(ozkshash.KeyHash(item.key)), nil
	}
	if o.vrfKey == nil {
		return label.PartialLabel{}, xerrors.Errorf("ozks: %w: VRF labels enabled with no secret key", ozkserr.ErrInvariantViolated)
	}
	keyHash := ozkshash.KeyHash(item.key)
	if cached, ok := o.vrfCache.Get(keyHash); ok {
		item.vrfProof = cached.Proof
		return labelFromHash(cached.Value), nil
	}
	value, vrfProof, err := o.vrfKey.GetProof(item.key)
	if err != nil {
		return label.PartialLabel{}, xerrors.Errorf("ozks: flush: vrf: %w", err)
	}
	o.vrfCache.Add(keyHash, vrfcache.Entry{Value: value, Proof: vrfProof})
	item.vrfProof = vrfProof
	return labelFromHash(value), nil
}

// checkNoDuplicateKeys rejects a batch where a key repeats within itself or
// already has a payload-store entry, entirely before any mutation.
func (o *OZKS) checkNoDuplicateKeys(batch []*pendingInsert) error {
	seen := make(map[string]struct{}, len(batch))
	for _, item := range batch {
		k := string(item.key)
		if _, ok := seen[k]; ok {
			return xerrors.Errorf("ozks: flush: %w", ozkserr.ErrDuplicateKey)
		}
		seen[k] = struct{}{}
		if _, ok, err := o.store.LoadPayload(o.trie.ID(), item.key); err != nil {
			return xerrors.Errorf("ozks: flush: check payload store: %w", err)
		} else if ok {
			return xerrors.Errorf("ozks: flush: %w", ozkserr.ErrDuplicateKey)
		}
	}
	return nil
}

// Query computes key's label (VRF, with cache, or plain hash) and returns
// the resulting QueryResult, with payload and randomness populated iff the
// key is a member.
func (o *OZKS) Query(key []byte) (proof.QueryResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	item := &pendingInsert{key: key}
	l, err := o.deriveLabel(item)
	if err != nil {
		return proof.QueryResult{}, xerrors.Errorf("ozks: query: %w", err)
	}

	found, path, err := o.trie.Lookup(l)
	if err != nil {
		return proof.QueryResult{}, xerrors.Errorf("ozks: query: %w", err)
	}

	result := proof.QueryResult{
		Key:         key,
		IsMember:    found,
		LookupPath:  path,
		PayloadMode: o.config.PayloadCommitment,
		VRFEnabled:  o.config.LabelType == VRFLabels,
		VRFProof:    item.vrfProof,
	}
	if found {
		rec, ok, err := o.store.LoadPayload(o.trie.ID(), key)
		if err != nil {
			return proof.QueryResult{}, xerrors.Errorf("ozks: query: load payload: %w", err)
		}
		if !ok {
			return proof.QueryResult{}, xerrors.Errorf("ozks: query: %w: payload store missing member key", ozkserr.ErrNotFound)
		}
		result.Payload = rec.Payload
		result.Randomness = rec.Randomness
		switch o.config.PayloadCommitment {
		case payload.Committed:
			result.PayloadCommitment = ozkshash.RandomnessHash(rec.Payload, rec.Randomness)
		case payload.Uncommitted:
			result.PayloadCommitment = ozkshash.NonrandomHash(rec.Payload)
		}
	}
	return result, nil
}

// GetCommitment returns the current public commitment: the trie's root
// hash plus the VRF public key when VRF labels are enabled.
func (o *OZKS) GetCommitment() (Commitment, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	root, err := o.trie.Commitment()
	if err != nil {
		return Commitment{}, xerrors.Errorf("ozks: get_commitment: %w", err)
	}
	c := Commitment{RootHash: root}
	if o.config.LabelType == VRFLabels {
		c.HasVRFPublic = true
		c.VRFPublic = o.vrfPub
	}
	return c, nil
}

// Clear empties the trie and payload store but preserves the VRF secret
// key and trie identity, per spec.md §9's global-registry discussion.
func (o *OZKS) Clear() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.config.TrieType == trie.KindLinkedNoStorage {
		// The trie has no storage of its own, so its Clear leaves the
		// payload store alone.
		if err := o.store.DeleteOZKS(o.trie.ID()); err != nil {
			return xerrors.Errorf("ozks: clear: %w", err)
		}
	}
	if err := o.trie.Clear(); err != nil {
		return xerrors.Errorf("ozks: clear: %w", err)
	}
	if o.vrfCache != nil {
		o.vrfCache.ClearContents()
	}
	o.pending = nil
	return nil
}

// labelFromHash derives the 256-bit trie label from the first MaxBits of a
// 512-bit domain-separated digest, shared by VRF-derived and plain-hashed
// labels alike.
func labelFromHash(h ozkshash.Hash) label.PartialLabel {
	l, err := label.FromBytes(h[:32], 256)
	if err != nil {
		// h is always 64 bytes and 256 <= label.MaxBits; this cannot fail.
		panic(err)
	}
	return l
}
