package codec

import (
	"fmt"

	ssz "github.com/ferranbt/fastssz"
)

// BeaconBlockHeader mirrors the beacon chain's SSZ container of the same
// name. Its tree-hash root is the header's stable identity (spec Data
// Model: "Tree-hash root is stable and is the entity's identity").
type BeaconBlockHeader struct {
	Slot          uint64
	ProposerIndex uint64
	ParentRoot    Hash32
	StateRoot     Hash32
	BodyRoot      Hash32
}

// HashTreeRoot computes the SSZ tree-hash root of the header using
// fastssz's incremental hasher, merkleizing the five fixed-size fields in
// declaration order (the container has no variable-length fields, so no
// length-mixing is required).
func (h *BeaconBlockHeader) HashTreeRoot() (Hash32, error) {
	hh := ssz.NewHasher()
	hh.PutUint64(h.Slot)
	hh.PutUint64(h.ProposerIndex)
	hh.PutBytes(h.ParentRoot[:])
	hh.PutBytes(h.StateRoot[:])
	hh.PutBytes(h.BodyRoot[:])
	root, err := hh.HashRoot()
	if err != nil {
		return Hash32{}, fmt.Errorf("codec: beacon header tree-hash: %w", err)
	}
	return Hash32(root), nil
}

// MerkleBranch is a generalized-index Merkle proof: the sibling hashes
// from a leaf up to some ancestor, used for `finality_branch`,
// `next_sync_committee_branch`, and the beacon-body receipts-root
// inclusion proof.
type MerkleBranch struct {
	// Index is the generalized index of the leaf within the tree the
	// branch proves against (SSZ generalized indexing: root is 1, its
	// left/right children are 2/3, and so on).
	Index uint64
	Hashes [][]byte
}

// VerifyMerkleBranch verifies that leaf is included under root at the
// branch's generalized index, delegating to fastssz's proof verifier so
// the bit-by-bit sibling ordering matches the beacon chain's own
// convention exactly.
func VerifyMerkleBranch(leaf Hash32, branch MerkleBranch, root Hash32) (bool, error) {
	proof := &ssz.Proof{
		Index: int(branch.Index),
		Leaf:  leaf[:],
		Hashes: branch.Hashes,
	}
	ok, err := ssz.VerifyProof(root[:], proof)
	if err != nil {
		return false, fmt.Errorf("codec: verify merkle branch: %w", err)
	}
	return ok, nil
}
