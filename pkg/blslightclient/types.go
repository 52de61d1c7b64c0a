// Package blslightclient verifies Ethereum sync-committee BLS12-381
// aggregate signatures, per spec section 4.1.2. Public keys are G1 points
// (48 bytes compressed) and signatures are G2 points (96 bytes compressed),
// matching the Ethereum consensus-layer convention (the reverse of the
// scheme the teacher's own pkg/crypto/bls package used for validator
// attestations).
package blslightclient

// CommitteeSize is the fixed size of an Ethereum sync committee.
const CommitteeSize = 512

// SupermajorityNumerator/Denominator express the 2/3 participation
// threshold: count*3 >= CommitteeSize*2 (count >= 342).
const (
	SupermajorityNumerator   = 2
	SupermajorityDenominator = 3
)

// PubKeySize is the compressed encoding size of a BLS12-381 G1 point.
const PubKeySize = 48

// SignatureSize is the compressed encoding size of a BLS12-381 G2 point.
const SignatureSize = 96

// Bitlist is a fixed 512-bit participation bitmap, packed 8 bits per byte
// little-endian within each byte, matching SSZ Bitvector[512] encoding.
type Bitlist [CommitteeSize / 8]byte

// Get reports whether bit i is set.
func (b Bitlist) Get(i int) bool {
	return b[i/8]&(1<<uint(i%8)) != 0
}

// Count returns the number of set bits.
func (b Bitlist) Count() int {
	n := 0
	for _, byt := range b {
		for byt != 0 {
			n++
			byt &= byt - 1
		}
	}
	return n
}

// SyncAggregate bundles a sync committee's participation bitlist and its
// aggregate BLS signature over a signing root.
type SyncAggregate struct {
	Bits      Bitlist
	Signature [SignatureSize]byte
}

// Committee is a sync committee's ordered public keys and the committee's
// own aggregate public key (spec Data Model: SyncCommittee).
type Committee struct {
	Pubkeys         [CommitteeSize][PubKeySize]byte
	AggregatePubkey [PubKeySize]byte
}
