// Package grandpa composes the circuit ladder in pkg/grandpa/circuits
// into the finality-to-Ethereum proof pipeline of spec section 4.2: a
// validator set signed a GRANDPA finality message for a sidechain block,
// that block's storage root commits to a given outbound-message Merkle
// root, and the signing validator set's id chains back to a trusted
// genesis via the authority-set cache.
package grandpa

import "github.com/gear-tech/gear-bridges-sub000/pkg/codec"

// Validator is one member of a GRANDPA authority set: an Ed25519 public
// key in its raw 32-byte form.
type Validator struct {
	PublicKey [32]byte
}

// PreCommit is one validator's signed vote for a GRANDPA round target.
type PreCommit struct {
	ValidatorIndex int
	Signature      [64]byte
}

// BlockFinality is the witness for a ValidatorSignsChain proof: a target
// block hash signed by a supermajority of ValidatorSet, identified by
// AuthoritySetID.
type BlockFinality struct {
	AuthoritySetID uint64
	ValidatorSet   []Validator
	TargetHash     codec.Hash32
	RoundNumber    uint64
	PreCommits     []PreCommit
}

// QueueCommitment is the witness for a StorageTrieProof: a sidechain
// block's storage root commits MerkleRoot at the well-known
// queue-storage key, demonstrated by TrieNodes walked from root to leaf.
type QueueCommitment struct {
	BlockStateRoot codec.Hash32
	MerkleRoot     codec.Hash32
	TrieNodes      []TrieNode
}

// TrieNode is one decoded Substrate-style compact trie node along the
// proof path.
type TrieNode struct {
	Kind     TrieNodeKind
	Children [][]byte // branch: up to 16 child hashes/inline values
	Value    []byte   // leaf/extension payload
}

// TrieNodeKind names a Substrate compact trie node's shape.
type TrieNodeKind int

const (
	TrieNodeBranch TrieNodeKind = iota
	TrieNodeLeaf
	TrieNodeExtension
)

// FinalityProof is the pipeline's final composed artifact: the public
// statement "(block_number, merkle_root, genesis_authority_set_hash) is
// attested", per spec section 4.2.4 step 5.
type FinalityProof struct {
	BlockNumber            uint64
	MerkleRoot             codec.Hash32
	GenesisAuthoritySetHash codec.Hash32

	// ProofBytes is the serialized Groth16 proof over the wrapper
	// circuit's public inputs above.
	ProofBytes []byte
}
