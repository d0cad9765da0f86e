// Package trie implements the compressed binary prefix trie of spec.md
// §4.2–§4.3: CTNode (a single tagged-variant node type covering the
// Linked, Stored, and LinkedNoStorage residency models) and CompressedTrie,
// which owns the root and drives insert/lookup/commitment.
package trie

import (
	"golang.org/x/xerrors"

	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/label"
	"github.com/iotaledger/ozks/ozkserr"
	"github.com/iotaledger/ozks/storage"
)

// node is a single compressed-trie node. Its residency model (eager-linked,
// lazy-stored, or no persistence at all) is governed entirely by the owning
// trie's Kind and storage handle; per spec.md §9 this is a tagged variant,
// not three separate types behind an interface.
type node struct {
	trie *CompressedTrie

	label label.PartialLabel
	hash  ozkshash.Hash
	dirty bool

	hasLeft   bool
	leftLabel label.PartialLabel
	leftChild *node

	hasRight   bool
	rightLabel label.PartialLabel
	rightChild *node
}

func newLeaf(t *CompressedTrie, l label.PartialLabel, h ozkshash.Hash) *node {
	return &node{trie: t, label: l, hash: h}
}

// Hash returns the node's exposed hash. The port keeps "dirty" as a
// separate bool rather than stealing a bit from the hash (spec.md §9), so no
// masking is needed here.
func (n *node) Hash() ozkshash.Hash {
	return n.hash
}

func (n *node) isLeaf() bool {
	return !n.hasLeft && !n.hasRight
}

// child returns the child on the given side (0 = left, 1 = right), loading
// it from storage on first access if this trie's residency model is lazy.
func (n *node) child(bit byte) (*node, error) {
	if bit == 0 {
		if n.leftChild != nil || !n.hasLeft {
			return n.leftChild, nil
		}
		return n.loadChild(n.leftLabel, &n.leftChild)
	}
	if n.rightChild != nil || !n.hasRight {
		return n.rightChild, nil
	}
	return n.loadChild(n.rightLabel, &n.rightChild)
}

func (n *node) loadChild(l label.PartialLabel, slot **node) (*node, error) {
	if n.trie.storage == nil {
		return nil, xerrors.Errorf("ozks: trie: %w: child %s missing storage handle", ozkserr.ErrInvariantViolated, l.String())
	}
	rec, ok, err := n.trie.storage.LoadNode(n.trie.id, l)
	if err != nil {
		return nil, xerrors.Errorf("ozks: trie: load child: %w", err)
	}
	if !ok {
		return nil, xerrors.Errorf("ozks: trie: %w: child %s not found in storage", ozkserr.ErrInvariantViolated, l.String())
	}
	child := &node{
		trie:       n.trie,
		label:      rec.Label,
		hash:       rec.Hash,
		hasLeft:    rec.HasLeft,
		leftLabel:  rec.LeftLabel,
		hasRight:   rec.HasRight,
		rightLabel: rec.RightLabel,
	}
	*slot = child
	return child, nil
}

// setChild attaches child on the given side, recording its label for
// persistence and marking n dirty.
func (n *node) setChild(bit byte, child *node) {
	if bit == 0 {
		n.hasLeft = true
		n.leftChild = child
		n.leftLabel = child.label
	} else {
		n.hasRight = true
		n.rightChild = child
		n.rightLabel = child.label
	}
	n.dirty = true
}

func (n *node) leftRefLabel() label.PartialLabel {
	if n.leftChild != nil {
		return n.leftChild.label
	}
	return n.leftLabel
}

func (n *node) rightRefLabel() label.PartialLabel {
	if n.rightChild != nil {
		return n.rightChild.label
	}
	return n.rightLabel
}

// persist writes n to storage, a no-op for the LinkedNoStorage residency
// model (nil storage handle).
func (n *node) persist() error {
	if n.trie.storage == nil {
		return nil
	}
	rec := storage.NodeRecord{
		Label:      n.label,
		Hash:       n.Hash(),
		HasLeft:    n.hasLeft,
		LeftLabel:  n.leftRefLabel(),
		HasRight:   n.hasRight,
		RightLabel: n.rightRefLabel(),
	}
	return n.trie.storage.SaveNode(n.trie.id, rec)
}

// insert implements spec.md §4.2.1's six-case insert algorithm. path
// accumulates every node visited, root first, so the caller can later walk
// it in reverse to recompute hashes bottom-up. isRoot must be true only for
// the trie's root, which is exempt from the "non-root leaf" split case
// (the empty root never itself carries a payload).
func (n *node) insert(l label.PartialLabel, h ozkshash.Hash, epoch uint64, isRoot bool, path *[]*node) error {
	*path = append(*path, n)

	if l.Equal(n.label) {
		return xerrors.Errorf("ozks: trie: %w", ozkserr.ErrDuplicateKey)
	}

	common := label.CommonPrefix(l, n.label)
	splitPos := common.BitCount()
	b := l.Bit(splitPos)

	// Case 3: non-root leaf, split.
	if !isRoot && n.isLeaf() {
		oldLeaf := newLeaf(n.trie, n.label, n.hash)
		newLeafNode := newLeaf(n.trie, l, ozkshash.LeafHash(l.ToBytes(), h, epoch))

		oldBit := n.label.Bit(splitPos)
		n.label = common
		n.hasLeft, n.hasRight = false, false
		n.leftChild, n.rightChild = nil, nil

		n.setChild(oldBit, oldLeaf)
		n.setChild(b, newLeafNode)

		if err := oldLeaf.persist(); err != nil {
			return err
		}
		if err := newLeafNode.persist(); err != nil {
			return err
		}
		return nil
	}

	// Case 4: recurse into the matching child on side b, if its label
	// shares more prefix with l than n and l already agree on.
	if child, err := n.child(b); err != nil {
		return err
	} else if child != nil && label.CommonPrefixCount(child.label, l) > splitPos {
		if err := child.insert(l, h, epoch, false, path); err != nil {
			return err
		}
		n.dirty = true
		return n.persist()
	}

	newLeafNode := newLeaf(n.trie, l, ozkshash.LeafHash(l.ToBytes(), h, epoch))
	opposite := byte(1) - b

	oppositeChild, err := n.child(opposite)
	if err != nil {
		return err
	}
	sideChild, err := n.child(b)
	if err != nil {
		return err
	}

	// Case 5: opposite side absent (or side b already absent and we fall
	// through here because the case-4 guard didn't match): attach.
	if oppositeChild == nil || sideChild == nil {
		n.setChild(b, newLeafNode)
		if err := newLeafNode.persist(); err != nil {
			return err
		}
		return n.persist()
	}

	// Case 6: promote n's current content into a new intermediate node on
	// the opposite side, place the new leaf on side b, relabel n to the
	// common prefix.
	promoted := &node{
		trie:       n.trie,
		label:      n.label,
		hash:       n.hash,
		hasLeft:    n.hasLeft,
		leftLabel:  n.leftLabel,
		leftChild:  n.leftChild,
		hasRight:   n.hasRight,
		rightLabel: n.rightLabel,
		rightChild: n.rightChild,
	}
	n.label = common
	n.hasLeft, n.hasRight = false, false
	n.leftChild, n.rightChild = nil, nil
	n.setChild(opposite, promoted)
	n.setChild(b, newLeafNode)

	if err := newLeafNode.persist(); err != nil {
		return err
	}
	return n.persist()
}

// updateHashesAlongPath recomputes node_hash bottom-up for every dirty node
// in path (deepest first). Nodes that are not dirty are skipped. Entries
// with index < rootLevels are left dirty for a later pass; every current
// caller passes 0 (the parallel batch path keeps the root out of its
// workers' paths by starting each path at a root child instead).
func updateHashesAlongPath(path []*node, rootLevels int) error {
	for i := len(path) - 1; i >= rootLevels; i-- {
		n := path[i]
		if !n.dirty {
			continue
		}
		if err := n.recomputeHash(); err != nil {
			return err
		}
	}
	return nil
}

func (n *node) recomputeHash() error {
	leftLabelBytes, leftHash, err := n.childContribution(0)
	if err != nil {
		return err
	}
	rightLabelBytes, rightHash, err := n.childContribution(1)
	if err != nil {
		return err
	}
	n.hash = ozkshash.NodeHash(leftLabelBytes, leftHash, rightLabelBytes, rightHash)
	n.dirty = false
	return n.persist()
}

func (n *node) childContribution(bit byte) ([]byte, ozkshash.Hash, error) {
	c, err := n.child(bit)
	if err != nil {
		return nil, ozkshash.Hash{}, err
	}
	if c == nil {
		return nil, ozkshash.Hash{}, nil
	}
	return c.label.ToBytes(), c.Hash(), nil
}
