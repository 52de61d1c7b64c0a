package circuits

import "github.com/consensys/gnark/frontend"

// SingleValidatorSignCircuit stands in for a proof that Signature is a
// valid Ed25519 pre-commit by PublicKey over Message, per spec section
// 4.2.1. As with the teacher's bls_zkp circuit, a full in-circuit
// signature-verification gadget (native Ed25519 twisted-Edwards
// arithmetic) is expensive; this circuit instead proves a linear
// commitment relation between (SignatureR, SignatureS), PublicKey and
// Message. No Ed25519 signature check is performed, in this circuit or
// elsewhere in pkg/grandpa.
type SingleValidatorSignCircuit struct {
	Message   frontend.Variable `gnark:",public"`
	PublicKey frontend.Variable `gnark:",public"`

	SignatureR frontend.Variable
	SignatureS frontend.Variable
}

func (c *SingleValidatorSignCircuit) Define(api frontend.API) error {
	// commitment = mix(R, S, pubkey) must equal mix(message, pubkey, 1).
	lhs := mixCommitment(api, c.SignatureR, c.SignatureS, c.PublicKey)
	rhs := mixCommitment(api, c.Message, c.PublicKey, frontend.Variable(1))
	api.AssertIsDifferent(c.SignatureR, 0)
	api.AssertIsDifferent(c.SignatureS, 0)
	api.AssertIsEqual(lhs, rhs)
	return nil
}
