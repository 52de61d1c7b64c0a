package blslightclient

import (
	"fmt"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
)

// hashToG2DST is the hash-to-curve domain separation tag for signing-root
// messages, following the IETF BLS ciphersuite naming convention (the
// teacher's pkg/crypto/bls package used an equivalent ad hoc SHA-256
// "hash and pray" loop for G1; gnark-crypto's RFC 9380 implementation
// replaces that with a standards-track hash-to-curve).
var hashToG2DST = []byte("BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_")

// VerifySyncAggregate checks that sync_aggregate's participation meets the
// supermajority threshold and that its aggregate signature verifies against
// signingRoot under the subset of committee.Pubkeys selected by the
// bitlist, per spec section 4.1.2.
func VerifySyncAggregate(committee Committee, agg SyncAggregate, signingRoot [32]byte) error {
	count := agg.Bits.Count()
	if count*SupermajorityDenominator < CommitteeSize*SupermajorityNumerator {
		return ErrLowVoteCount
	}

	var aggPk bls12381.G1Jac
	first := true
	for i := 0; i < CommitteeSize; i++ {
		if !agg.Bits.Get(i) {
			continue
		}
		var pk bls12381.G1Affine
		if _, err := pk.SetBytes(committee.Pubkeys[i][:]); err != nil {
			return fmt.Errorf("%w: index %d: %v", ErrMalformedPubkey, i, err)
		}
		if first {
			aggPk.FromAffine(&pk)
			first = false
			continue
		}
		var jac bls12381.G1Jac
		jac.FromAffine(&pk)
		aggPk.AddAssign(&jac)
	}

	var aggPkAffine bls12381.G1Affine
	aggPkAffine.FromJacobian(&aggPk)

	var sig bls12381.G2Affine
	if _, err := sig.SetBytes(agg.Signature[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	msgPoint, err := bls12381.HashToG2(signingRoot[:], hashToG2DST)
	if err != nil {
		return fmt.Errorf("%w: hash signing root to curve: %v", ErrInvalidSignature, err)
	}

	_, _, g1Gen, _ := bls12381.Generators()
	var negG1Gen bls12381.G1Affine
	negG1Gen.Neg(&g1Gen)

	// e(agg_pk, H(signing_root)) == e(G1_gen, sig)
	// <=> e(agg_pk, H(signing_root)) * e(-G1_gen, sig) == 1
	ok, err := bls12381.PairingCheck(
		[]bls12381.G1Affine{aggPkAffine, negG1Gen},
		[]bls12381.G2Affine{msgPoint, sig},
	)
	if err != nil || !ok {
		return ErrInvalidSignature
	}
	return nil
}
