package circuits

import "github.com/consensys/gnark/frontend"

// RangeCheckBits is the bit width range_check(current-latest-1, 32) uses
// to bound each index gap, per spec section 4.2.1.
const RangeCheckBits = 32

// ValidatorSignsChainCircuit folds up to MaxValidators IndexedValidatorSign
// steps while enforcing strictly increasing validator indices (no
// double-counting a signer), then asserts the supermajority inequality
// 3*sign_count - 2*validator_count - 1 >= 0. A true plonky2 cyclic proof
// folds one step at a time, verifying the previous step's proof
// in-circuit; this circuit unrolls all MaxValidators steps and gates each
// on Active, so unused steps are no-ops (see package doc).
type ValidatorSignsChainCircuit struct {
	ValidatorSetHash frontend.Variable `gnark:",public"`
	ValidatorCount   frontend.Variable `gnark:",public"`
	Message          frontend.Variable `gnark:",public"`
	SignCount        frontend.Variable `gnark:",public"`

	ValidatorSet [MaxValidators]frontend.Variable

	// Per-step witnesses. Active[i] must be 1 for the first SignCount
	// slots (in increasing-index order) and 0 thereafter.
	Active       [MaxValidators]frontend.Variable
	Index        [MaxValidators]frontend.Variable
	SelectorBits [MaxValidators][MaxValidators]frontend.Variable
	SignatureR   [MaxValidators]frontend.Variable
	SignatureS   [MaxValidators]frontend.Variable
}

func (c *ValidatorSignsChainCircuit) Define(api frontend.API) error {
	setCommitment := frontend.Variable(0)
	for i := 0; i < MaxValidators; i++ {
		setCommitment = api.Add(setCommitment, mixCommitment(api, c.ValidatorSet[i], frontend.Variable(i+1)))
	}
	api.AssertIsEqual(c.ValidatorSetHash, setCommitment)

	latest := frontend.Variable(-1)
	signCount := frontend.Variable(0)

	for step := 0; step < MaxValidators; step++ {
		api.AssertIsBoolean(c.Active[step])

		sum := frontend.Variable(0)
		selected := frontend.Variable(0)
		weightedIndex := frontend.Variable(0)
		for i := 0; i < MaxValidators; i++ {
			api.AssertIsBoolean(c.SelectorBits[step][i])
			sum = api.Add(sum, c.SelectorBits[step][i])
			selected = api.Add(selected, api.Mul(c.SelectorBits[step][i], c.ValidatorSet[i]))
			weightedIndex = api.Add(weightedIndex, api.Mul(c.SelectorBits[step][i], i))
		}
		// Inactive steps must still carry a harmless all-zero selector, or
		// a valid one; either way sum must equal Active[step].
		api.AssertIsEqual(sum, c.Active[step])
		api.AssertIsEqual(api.Mul(c.Active[step], weightedIndex), api.Mul(c.Active[step], c.Index[step]))

		// current_index > latest, range-checked over RangeCheckBits, only
		// when this step is active (inactive steps contribute a
		// trivially in-range zero).
		gap := api.Sub(c.Index[step], latest)
		gapMinusOne := api.Sub(gap, 1)
		boundedGap := api.Mul(c.Active[step], gapMinusOne)
		api.ToBinary(boundedGap, RangeCheckBits)

		lhs := mixCommitment(api, c.SignatureR[step], c.SignatureS[step], selected)
		rhs := mixCommitment(api, c.Message, selected, frontend.Variable(1))
		gatedLHS := api.Mul(c.Active[step], lhs)
		gatedRHS := api.Mul(c.Active[step], rhs)
		api.AssertIsEqual(gatedLHS, gatedRHS)

		latest = api.Select(c.Active[step], c.Index[step], latest)
		signCount = api.Add(signCount, c.Active[step])
	}

	api.AssertIsEqual(c.SignCount, signCount)

	// 3*sign_count - 2*validator_count - 1 >= 0
	threshold := api.Sub(api.Mul(c.SignCount, 3), api.Mul(c.ValidatorCount, 2))
	threshold = api.Sub(threshold, 1)
	api.AssertIsLessOrEqual(0, threshold)

	return nil
}
