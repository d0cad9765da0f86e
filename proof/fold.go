// Package proof implements the two self-verifying proof results of
// spec.md §4.9: InsertResult (commitment + append proof) and QueryResult
// (membership + lookup path + VRF proof + randomness), both folding their
// path bottom-up with the node_hash rule.
package proof

import (
	"github.com/iotaledger/ozks/internal/ozkshash"
	"github.com/iotaledger/ozks/label"
	"github.com/iotaledger/ozks/trie"
)

// foldPath folds path (as returned by a trie lookup or append proof, index 0
// first) bottom-up using the node_hash rule, choosing child order at each
// step by the bit at which the two labels diverge. It returns the final
// folded hash and the label remaining at the top of the fold — empty in the
// ordinary case where the fold reaches the root directly.
func foldPath(path []trie.PathEntry) (ozkshash.Hash, label.PartialLabel) {
	if len(path) == 0 {
		return ozkshash.Hash{}, label.PartialLabel{}
	}
	curLabel := path[0].Label
	curHash := path[0].Hash

	for _, sibling := range path[1:] {
		common := label.CommonPrefixCount(curLabel, sibling.Label)
		curBit := curLabel.Bit(common)

		var leftLabel, rightLabel label.PartialLabel
		var leftHash, rightHash ozkshash.Hash
		if curBit == 0 {
			leftLabel, leftHash = curLabel, curHash
			rightLabel, rightHash = sibling.Label, sibling.Hash
		} else {
			leftLabel, leftHash = sibling.Label, sibling.Hash
			rightLabel, rightHash = curLabel, curHash
		}

		curHash = ozkshash.NodeHash(leftLabel.ToBytes(), leftHash, rightLabel.ToBytes(), rightHash)
		curLabel = curLabel.Truncate(common)
	}
	return curHash, curLabel
}

// matchesCommitment reports whether folding path yields commitment,
// directly or via the root edge case: when the fold stops short of the
// empty label (the root had only one child), the folded value must be
// combined once more with an empty/zero sibling on either side.
func matchesCommitment(path []trie.PathEntry, commitment ozkshash.Hash) bool {
	folded, remaining := foldPath(path)
	if remaining.IsEmpty() {
		return folded == commitment
	}
	viaLeft := ozkshash.NodeHash(nil, ozkshash.Hash{}, remaining.ToBytes(), folded)
	viaRight := ozkshash.NodeHash(remaining.ToBytes(), folded, nil, ozkshash.Hash{})
	return viaLeft == commitment || viaRight == commitment
}

// nonMembershipBoundaryOK enforces spec.md §8's explicit adjacent-equal-label
// invariant: where two adjacent path entries share the same label, their
// hashes must also match, or the proof is rejected.
func nonMembershipBoundaryOK(path []trie.PathEntry) bool {
	for i := 0; i+1 < len(path); i++ {
		if path[i].Label.Equal(path[i+1].Label) && path[i].Hash != path[i+1].Hash {
			return false
		}
	}
	return true
}
