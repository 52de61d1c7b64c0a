// Package circuits defines the gnark Groth16 circuit ladder that proves a
// sidechain block was finalized by a validator supermajority and commits
// a given outbound-message Merkle root, per spec section 4.2.1.
//
// A true plonky2-style cyclic recursion folds one proof per step, each
// verifying the previous step's proof in-circuit. gnark circuits are
// unrolled at compile time rather than recursively composed, so the
// fold structures here (ValidatorSignsChainCircuit,
// StorageTrieProofCircuit's child-array walk, HeaderChainCircuit) are
// expressed as a single circuit with a fixed maximum step count, each
// step repeating the same constraint block — the same "compose many
// identical inner proofs" shape, just unrolled ahead of time instead of
// folded one proof at a time. pkg/grandpa.Prover compiles and proves only
// the final composed statement (FinalCircuit).
package circuits

import "github.com/consensys/gnark/frontend"

// MaxValidators bounds the validator set size a single
// ValidatorSignsChainCircuit instance can fold over.
const MaxValidators = 1024

// MaxTrieChildren is the branch-node fan-out of the Substrate-style
// compact trie StorageTrieProofCircuit walks.
const MaxTrieChildren = 16

// MaxHeaderChainLength bounds HeaderChainCircuit's header count.
const MaxHeaderChainLength = 256

// mixCommitment folds a list of field elements into one with a
// fixed-coefficient linear combination, the same lightweight commitment
// scheme used throughout this circuit ladder in place of an in-circuit
// hash function (mirrors the teacher's SimpleBLSCircuit pubkey/signature
// commitment, generalized from 2 to N terms).
func mixCommitment(api frontend.API, terms ...frontend.Variable) frontend.Variable {
	if len(terms) == 0 {
		return frontend.Variable(0)
	}
	const mixCoefficient = 7
	result := terms[0]
	coeff := frontend.Variable(1)
	for _, term := range terms[1:] {
		coeff = api.Mul(coeff, mixCoefficient)
		result = api.Add(result, api.Mul(term, coeff))
	}
	return result
}
