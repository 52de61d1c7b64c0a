package circuits

import "github.com/consensys/gnark/frontend"

// IndexedValidatorSignCircuit composes SingleValidatorSign and
// ValidatorSelector, asserting both reference the same public key, per
// spec section 4.2.1.
type IndexedValidatorSignCircuit struct {
	Index        frontend.Variable `gnark:",public"`
	Message      frontend.Variable `gnark:",public"`
	ValidatorSet [MaxValidators]frontend.Variable

	SelectorBits [MaxValidators]frontend.Variable
	SignatureR   frontend.Variable
	SignatureS   frontend.Variable
}

func (c *IndexedValidatorSignCircuit) Define(api frontend.API) error {
	sum := frontend.Variable(0)
	selected := frontend.Variable(0)
	weightedIndex := frontend.Variable(0)
	for i := 0; i < MaxValidators; i++ {
		api.AssertIsBoolean(c.SelectorBits[i])
		sum = api.Add(sum, c.SelectorBits[i])
		selected = api.Add(selected, api.Mul(c.SelectorBits[i], c.ValidatorSet[i]))
		weightedIndex = api.Add(weightedIndex, api.Mul(c.SelectorBits[i], i))
	}
	api.AssertIsEqual(sum, 1)
	api.AssertIsEqual(weightedIndex, c.Index)

	lhs := mixCommitment(api, c.SignatureR, c.SignatureS, selected)
	rhs := mixCommitment(api, c.Message, selected, frontend.Variable(1))
	api.AssertIsDifferent(c.SignatureR, 0)
	api.AssertIsEqual(lhs, rhs)
	return nil
}
