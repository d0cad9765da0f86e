package trie

import "github.com/iotaledger/ozks/label"
import "github.com/iotaledger/ozks/internal/ozkshash"

// PathEntry is one (label, hash) pair of a lookup or append proof, per
// spec.md §4.2.3. Folding a proof's entries from index 0 upward with
// node_hash recovers the commitment.
type PathEntry struct {
	Label label.PartialLabel
	Hash  ozkshash.Hash
}

func entryOf(n *node) PathEntry {
	return PathEntry{Label: n.label, Hash: n.Hash()}
}

// lookup implements spec.md §4.2.3's dual-mode descent: membership returns
// the matched leaf followed by ascending siblings; non-membership returns
// the closest boundary node(s) followed by ascending siblings.
func lookup(root *node, l label.PartialLabel) (bool, []PathEntry, error) {
	if root.isLeaf() && root.label.BitCount() == 0 {
		// The empty root carries no entry of its own (insert never lets it
		// become a leaf holding a payload); an empty trie can only ever
		// answer non-membership, even for a query of the empty label.
		return false, []PathEntry{entryOf(root)}, nil
	}
	return descend(root, l)
}

func descend(n *node, l label.PartialLabel) (bool, []PathEntry, error) {
	if l.Equal(n.label) {
		return true, []PathEntry{entryOf(n)}, nil
	}

	common := label.CommonPrefix(l, n.label)
	if common.BitCount() < n.label.BitCount() {
		// l diverges from n before n's own label ends: n itself is the
		// closest boundary.
		return false, []PathEntry{entryOf(n)}, nil
	}

	bit := l.Bit(n.label.BitCount())
	child, err := n.child(bit)
	if err != nil {
		return false, nil, err
	}

	if child == nil {
		// Missing route: boundary is whichever children of n exist (or n
		// itself, if n is a leaf).
		var entries []PathEntry
		if left, err := n.child(0); err != nil {
			return false, nil, err
		} else if left != nil {
			entries = append(entries, entryOf(left))
		}
		if right, err := n.child(1); err != nil {
			return false, nil, err
		} else if right != nil {
			entries = append(entries, entryOf(right))
		}
		if len(entries) == 0 {
			entries = []PathEntry{entryOf(n)}
		}
		return false, entries, nil
	}

	if label.CommonPrefixCount(child.label, l) < child.label.BitCount() {
		// l diverges partway through child's own label: child is the
		// closest boundary, not yet fully matched.
		return false, []PathEntry{entryOf(child)}, nil
	}

	found, path, err := descend(child, l)
	if err != nil {
		return false, nil, err
	}

	siblingBit := byte(1) - bit
	sibling, err := n.child(siblingBit)
	if err != nil {
		return false, nil, err
	}
	if sibling != nil {
		path = append(path, entryOf(sibling))
	}
	return found, path, nil
}
