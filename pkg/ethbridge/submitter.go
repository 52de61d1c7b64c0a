package ethbridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/ethbridge/contracts"
)

// ProcessedNonces tracks which message nonces this relayer has already
// submitted to IMessageQueue, so a crash-restart doesn't resend a message
// whose on-chain transaction is still pending (spec Data Model:
// `ProcessedNonces`). It is a local cache the submitter consults before
// spending gas; the Ethereum contract's own `processed[nonce]` mapping
// remains the source of truth.
type ProcessedNonces struct {
	mu   sync.RWMutex
	seen map[[32]byte]struct{}
}

// NewProcessedNonces creates an empty tracker.
func NewProcessedNonces() *ProcessedNonces {
	return &ProcessedNonces{seen: make(map[[32]byte]struct{})}
}

// IsMarked reports whether nonce has already been submitted.
func (p *ProcessedNonces) IsMarked(nonce [32]byte) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.seen[nonce]
	return ok
}

// Mark records nonce as submitted.
func (p *ProcessedNonces) Mark(nonce [32]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen[nonce] = struct{}{}
}

// Submitter drives the Ethereum-side half of sidechain-to-Ethereum message
// delivery and Merkle-root relay (spec section 4.3.1 and the merkle-root
// relayer's suppression rule in section 4.4.2).
type Submitter struct {
	Queue    contracts.IMessageQueue
	Relayer  contracts.IRelayer
	Nonces   *ProcessedNonces
}

// NewSubmitter wires a Submitter with a fresh ProcessedNonces tracker.
func NewSubmitter(queue contracts.IMessageQueue, relayer contracts.IRelayer) *Submitter {
	return &Submitter{Queue: queue, Relayer: relayer, Nonces: NewProcessedNonces()}
}

// SubmitMessage locally re-derives the Merkle inclusion proof against root
// before spending gas, skips messages already marked processed, and then
// calls IMessageQueue.processMessage (spec section 4.3.1: "the Ethereum
// contract verifies the Merkle branch... checks !processed[nonce]...").
func (s *Submitter) SubmitMessage(ctx context.Context, blockNumber uint64, root codec.Hash32, totalLeaves, leafIndex uint64, msg contracts.VaraMessage, proof [][32]byte) error {
	if s.Nonces.IsMarked(msg.Nonce) {
		return fmt.Errorf("%w: nonce %x", ErrAlreadyProcessed, msg.Nonce)
	}

	leaf := codec.MessageLeaf(msg.Nonce, msg.Sender, [20]byte(msg.Receiver), msg.Data)
	siblings := make([][]byte, len(proof))
	for i, p := range proof {
		sib := p
		siblings[i] = sib[:]
	}
	if !codec.VerifyProof(root, leaf, int(leafIndex), int(totalLeaves), siblings) {
		return ErrInvalidInclusionProof
	}

	if processed, err := s.Queue.IsProcessed(ctx, msg); err != nil {
		return fmt.Errorf("ethbridge: check processed status: %w", err)
	} else if processed {
		s.Nonces.Mark(msg.Nonce)
		return fmt.Errorf("%w: nonce %x", ErrAlreadyProcessed, msg.Nonce)
	}

	if _, err := s.Queue.ProcessMessage(ctx, blockNumber, totalLeaves, leafIndex, msg, proof); err != nil {
		return fmt.Errorf("ethbridge: process message: %w", err)
	}
	s.Nonces.Mark(msg.Nonce)
	return nil
}

// RelayMerkleRoot submits root for blockNumber, first checking whether it
// is already present on-chain to avoid a redundant, gas-wasting
// resubmission (spec section 4.4.2).
func (s *Submitter) RelayMerkleRoot(ctx context.Context, blockNumber uint64, root codec.Hash32, proof []byte) error {
	existing, err := s.Relayer.GetMerkleRoot(ctx, blockNumber)
	if err != nil {
		return fmt.Errorf("ethbridge: check existing merkle root: %w", err)
	}
	if existing == [32]byte(root) {
		return nil
	}

	if _, err := s.Relayer.SubmitMerkleRoot(ctx, blockNumber, root, proof); err != nil {
		return fmt.Errorf("ethbridge: submit merkle root: %w", err)
	}
	return nil
}

// GetMerkleRoot returns the root relayed for blockNumber, or
// ErrRootNotRelayed if none has been submitted yet.
func (s *Submitter) GetMerkleRoot(ctx context.Context, blockNumber uint64) (codec.Hash32, error) {
	root, err := s.Relayer.GetMerkleRoot(ctx, blockNumber)
	if err != nil {
		return codec.Hash32{}, fmt.Errorf("ethbridge: get merkle root: %w", err)
	}
	if root == ([32]byte{}) {
		return codec.Hash32{}, ErrRootNotRelayed
	}
	return codec.Hash32(root), nil
}
