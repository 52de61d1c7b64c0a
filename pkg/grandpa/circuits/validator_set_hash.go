package circuits

import "github.com/consensys/gnark/frontend"

// MaxValidatorSetHashKeys bounds the number of Ed25519 public keys a
// single ValidatorSetHashCircuit instance commits to.
const MaxValidatorSetHashKeys = MaxValidators

// ValidatorSetHashCircuit proves that PublicKeys, folded through the
// circuit's commitment scheme, produces SetHash. This is not a Blake2 hash
// over the raw key bytes: Ed25519 keys are folded as field elements via
// the same linear-commitment scheme used by every circuit in this ladder,
// since a native Blake2 gadget is not part of gnark's std library.
type ValidatorSetHashCircuit struct {
	SetHash frontend.Variable `gnark:",public"`
	Count   frontend.Variable `gnark:",public"`

	PublicKeys [MaxValidatorSetHashKeys]frontend.Variable
	// Active marks which slots of PublicKeys are populated; unused tail
	// slots must be zero for both PublicKeys and Active.
	Active [MaxValidatorSetHashKeys]frontend.Variable
}

func (c *ValidatorSetHashCircuit) Define(api frontend.API) error {
	commitment := frontend.Variable(0)
	count := frontend.Variable(0)
	for i := 0; i < MaxValidatorSetHashKeys; i++ {
		api.AssertIsBoolean(c.Active[i])
		term := api.Mul(c.Active[i], mixCommitment(api, c.PublicKeys[i], frontend.Variable(i+1)))
		commitment = api.Add(commitment, term)
		count = api.Add(count, c.Active[i])
	}
	api.AssertIsEqual(c.SetHash, commitment)
	api.AssertIsEqual(c.Count, count)
	return nil
}
