// Package queueproof reads the outgoing message queue's Merkle root from a
// sidechain storage-trie proof, the commitment the GRANDPA proof pipeline's
// StorageTrieProof circuit attests over (spec section 4.2.4 step 3).
package queueproof

import "github.com/gear-tech/gear-bridges-sub000/pkg/codec"

// QueueStorageKey is the well-known storage key under which the sidechain's
// gear-eth-bridge built-in actor keeps the outgoing message queue's current
// Merkle root.
var QueueStorageKey = []byte(":gear-eth-bridge:queue_merkle_root")

// NodeKind identifies the shape of one decoded trie node. Leaf and branch
// correspond to circuits.StorageTrieProofCircuit's node kinds; branch with
// value has no circuit counterpart, and the numeric values differ.
type NodeKind uint8

const (
	NodeLeaf NodeKind = iota
	NodeBranch
	NodeBranchWithValue
)

// Node is a single decoded trie node along the path from a storage root
// down to the leaf holding the queue Merkle root.
type Node struct {
	Kind NodeKind

	// NibblePath is this node's partial key, as half-byte nibbles (0-15).
	NibblePath []byte

	// Children holds, per nibble 0-15, the child's node hash, or nil if
	// that branch is absent. Populated only for NodeBranch/NodeBranchWithValue.
	Children [16]*codec.Hash32

	// Value is the stored payload: the SCALE-encoded queue Merkle root when
	// this is the terminal node, empty otherwise.
	Value []byte
}

// Proof is an ordered list of trie nodes from the storage root down to the
// leaf holding the queue Merkle root, as returned by a sidechain state
// query against QueueStorageKey.
type Proof struct {
	Nodes []Node
}
