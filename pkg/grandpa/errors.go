package grandpa

import "errors"

var (
	// ErrNotInitialized is returned when a Prover method is called before
	// Setup.
	ErrNotInitialized = errors.New("grandpa: prover not initialized")

	// ErrAuthoritySetNotFound is returned by the ProofCache when no cache
	// entry exists for a requested authority set id.
	ErrAuthoritySetNotFound = errors.New("grandpa: authority set proof not found")

	// ErrMalformedHeader is returned when a sidechain header fails to
	// decode or its fields are inconsistent.
	ErrMalformedHeader = errors.New("grandpa: malformed sidechain header")

	// ErrTrieMismatch is returned when a storage-trie proof's claimed
	// leaf value does not match the queue Merkle root being proven.
	ErrTrieMismatch = errors.New("grandpa: storage trie proof does not match claimed leaf")

	// ErrLowVoteCount is returned when a ValidatorSignsChain witness does
	// not meet the 3*sign_count > 2*validator_count supermajority.
	ErrLowVoteCount = errors.New("grandpa: validator signatures below supermajority threshold")

	// ErrDuplicateValidatorIndex is returned when witness construction
	// detects a non-strictly-increasing validator index.
	ErrDuplicateValidatorIndex = errors.New("grandpa: validator index out of order or duplicated")
)
