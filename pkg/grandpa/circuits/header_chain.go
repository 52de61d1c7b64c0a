package circuits

import "github.com/consensys/gnark/frontend"

// HeaderChainCircuit proves a chain of sidechain block headers linked by
// parent_hash, counting its length, per spec section 4.2.1 — used when
// the block committing the queue Merkle root differs from the block the
// GRANDPA finality proof targets.
type HeaderChainCircuit struct {
	HeadHash  frontend.Variable `gnark:",public"`
	TailHash  frontend.Variable `gnark:",public"`
	Length    frontend.Variable `gnark:",public"`

	// HeaderCommitment[i] is header i's commitment (parent hash mixed with
	// its own identity); the chain proceeds head (i=0) to tail.
	HeaderCommitment [MaxHeaderChainLength]frontend.Variable
	ParentHash       [MaxHeaderChainLength]frontend.Variable
	Active           [MaxHeaderChainLength]frontend.Variable
}

func (c *HeaderChainCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.HeaderCommitment[0], c.HeadHash)

	length := frontend.Variable(1)
	lastCommitment := c.HeaderCommitment[0]

	for i := 0; i+1 < MaxHeaderChainLength; i++ {
		api.AssertIsBoolean(c.Active[i])
		// When active, header i's parent hash must equal header i+1's
		// commitment, chaining them together.
		linkOK := api.Sub(c.ParentHash[i], c.HeaderCommitment[i+1])
		api.AssertIsEqual(api.Mul(c.Active[i], linkOK), 0)

		length = api.Add(length, c.Active[i])
		lastCommitment = api.Select(c.Active[i], c.HeaderCommitment[i+1], lastCommitment)
	}

	api.AssertIsEqual(c.Length, length)
	api.AssertIsEqual(c.TailHash, lastCommitment)
	return nil
}
