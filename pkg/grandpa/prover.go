package grandpa

import (
	"bytes"
	"fmt"
	"math/big"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/grandpa/circuits"
)

// Prover compiles circuits.FinalCircuit once and generates/verifies
// Groth16 proofs over it, following the one-time-setup shape of the
// teacher's BLSZKProver (pkg/crypto/bls_zkp/prover.go): compile to R1CS,
// run trusted setup, reuse the proving/verifying keys for every proof.
type Prover struct {
	mu sync.RWMutex

	cs          constraint.ConstraintSystem
	pk          groth16.ProvingKey
	vk          groth16.VerifyingKey
	initialized bool
}

// NewProver creates an uninitialized Prover.
func NewProver() *Prover {
	return &Prover{}
}

// Setup compiles circuits.FinalCircuit and runs Groth16's trusted setup.
// One-time and can take several seconds; safe to call once per process.
func (p *Prover) Setup() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initialized {
		return nil
	}

	var circuit circuits.FinalCircuit
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return fmt.Errorf("grandpa: compile final circuit: %w", err)
	}
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return fmt.Errorf("grandpa: groth16 setup: %w", err)
	}

	p.cs, p.pk, p.vk = cs, pk, vk
	p.initialized = true
	return nil
}

// Witness is the assembled statement fed to Prove: the finality half
// (who signed, over what, rooted in which authority set) and the trie
// half (what that block's storage root commits to), with the hash-valued
// fields already reduced to field elements by the caller.
type Witness struct {
	BlockNumber             uint64
	MerkleRoot              codec.Hash32
	GenesisAuthoritySetHash codec.Hash32

	ValidatorSetHash  *big.Int
	ValidatorCount    uint64
	FinalityMessage   *big.Int
	SignCount         uint64
	TargetBlockHash   *big.Int
	RotationChainHash *big.Int

	StorageRoot *big.Int
	LeafValue   *big.Int
}

// Prove generates a Groth16 proof that w's final-circuit assignment
// satisfies every constraint in circuits.FinalCircuit.
func (p *Prover) Prove(w Witness) (*FinalityProof, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.initialized {
		return nil, ErrNotInitialized
	}

	assignment := toAssignment(w)
	witnessData, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("grandpa: build witness: %w", err)
	}

	proof, err := groth16.Prove(p.cs, p.pk, witnessData)
	if err != nil {
		return nil, fmt.Errorf("grandpa: prove: %w", err)
	}

	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("grandpa: serialize proof: %w", err)
	}

	return &FinalityProof{
		BlockNumber:             w.BlockNumber,
		MerkleRoot:              w.MerkleRoot,
		GenesisAuthoritySetHash: w.GenesisAuthoritySetHash,
		ProofBytes:              buf.Bytes(),
	}, nil
}

// Verify checks proof against w's public inputs only (block number,
// merkle root, genesis authority set hash), matching the teacher's VerifyProofLocally's public-only
// witness pattern.
func (p *Prover) Verify(proof *FinalityProof, w Witness) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.initialized {
		return false, ErrNotInitialized
	}

	assignment := toAssignment(w)
	publicWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("grandpa: build public witness: %w", err)
	}

	groth16Proof := groth16.NewProof(ecc.BN254)
	if _, err := groth16Proof.ReadFrom(bytes.NewReader(proof.ProofBytes)); err != nil {
		return false, fmt.Errorf("grandpa: deserialize proof: %w", err)
	}

	if err := groth16.Verify(groth16Proof, p.vk, publicWitness); err != nil {
		return false, nil
	}
	return true, nil
}

func toAssignment(w Witness) *circuits.FinalCircuit {
	return &circuits.FinalCircuit{
		BlockNumber:             new(big.Int).SetUint64(w.BlockNumber),
		MerkleRoot:              new(big.Int).SetBytes(w.MerkleRoot[:]),
		GenesisAuthoritySetHash: new(big.Int).SetBytes(w.GenesisAuthoritySetHash[:]),
		ValidatorSetHash:        w.ValidatorSetHash,
		ValidatorCount:          new(big.Int).SetUint64(w.ValidatorCount),
		FinalityMessage:         w.FinalityMessage,
		SignCount:               new(big.Int).SetUint64(w.SignCount),
		TargetBlockHash:         w.TargetBlockHash,
		RotationChainHash:       w.RotationChainHash,
		StorageRoot:             w.StorageRoot,
		LeafValue:               w.LeafValue,
	}
}
