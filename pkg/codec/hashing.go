package codec

import (
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// Keccak256 hashes the concatenation of parts with Keccak-256, the digest
// used throughout the Ethereum side: message hashes, the outbound-message
// queue Merkle tree, and the MerkleRoot entries recorded on Ethereum.
func Keccak256(parts ...[]byte) Hash32 {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash32
	h.Sum(out[:0])
	return out
}

// Blake2b256 hashes the concatenation of parts with Blake2b-256, the digest
// the sidechain uses to commit a ValidatorSet (see spec Data Model:
// "its Blake2 hash is committed on-chain at the start of each era").
func Blake2b256(parts ...[]byte) Hash32 {
	h, err := blake2b.New256(nil)
	if err != nil {
		// blake2b.New256 only fails for a bad MAC key, which we never pass.
		panic("codec: blake2b.New256: " + err.Error())
	}
	for _, p := range parts {
		h.Write(p)
	}
	var out Hash32
	h.Sum(out[:0])
	return out
}
