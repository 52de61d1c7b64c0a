package circuits

import "github.com/consensys/gnark/frontend"

// ValidatorSelectorCircuit proves that ValidatorSet[Index] == ClaimedKey,
// per spec section 4.2.1, via a selector-bit dot product rather than a
// native array-index gadget.
type ValidatorSelectorCircuit struct {
	Index      frontend.Variable `gnark:",public"`
	ClaimedKey frontend.Variable `gnark:",public"`

	ValidatorSet [MaxValidators]frontend.Variable
	// SelectorBits must be all-zero except a single 1 at position Index;
	// the circuit enforces this rather than trusting the prover.
	SelectorBits [MaxValidators]frontend.Variable
}

func (c *ValidatorSelectorCircuit) Define(api frontend.API) error {
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
	api.AssertIsEqual(selected, c.ClaimedKey)
	return nil
}
