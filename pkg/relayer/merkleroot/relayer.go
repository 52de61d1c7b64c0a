// Package merkleroot implements the sidechain→Ethereum Merkle-root relayer
// of spec section 4.4.2: per-block detection of a new queue_merkle_root,
// authority-set-aware proof enqueueing, and submission with re-submission
// suppression when the root is already present on-chain.
package merkleroot

import (
	"context"
	"log"
	"sync"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

// WorkItem is a detected new queue_merkle_root awaiting a finality proof.
type WorkItem struct {
	BlockNumber   uint64
	Root          codec.Hash32
	AuthoritySetID uint64
}

// ProofCache reports whether a finality proof is already cached for an
// authority-set id. pkg/grandpa.ProofCache exposes Get/Put rather than
// this Has method.
type ProofCache interface {
	Has(setID uint64) bool
}

// FinalityProver produces a Merkle-root inclusion proof for a work item
// once its authority set's proof is available.
type FinalityProver interface {
	Prove(ctx context.Context, item WorkItem) (proof []byte, err error)
}

// AuthoritySetSyncer triggers synchronization of a not-yet-cached
// authority set; AuthoritySetSynced is called back once it lands.
type AuthoritySetSyncer interface {
	SyncAuthoritySet(ctx context.Context, setID uint64) error
}

// Submitter submits a proved root to Ethereum and reports whether it is
// already present on-chain.
type Submitter interface {
	RelayMerkleRoot(ctx context.Context, blockNumber uint64, root codec.Hash32, proof []byte) error
	GetMerkleRoot(ctx context.Context, blockNumber uint64) (codec.Hash32, error)
}

// Relayer drives the detect → prove → submit pipeline for one chain of
// queue_merkle_root updates.
type Relayer struct {
	mu sync.Mutex

	cache     ProofCache
	prover    FinalityProver
	syncer    AuthoritySetSyncer
	submitter Submitter
	logger    *log.Logger

	lastRoot codec.Hash32
	waiting  map[uint64][]WorkItem
}

// New creates a Relayer wired to the given backends.
func New(cache ProofCache, prover FinalityProver, syncer AuthoritySetSyncer, submitter Submitter, logger *log.Logger) *Relayer {
	return &Relayer{
		cache:     cache,
		prover:    prover,
		syncer:    syncer,
		submitter: submitter,
		logger:    logger,
		waiting:   make(map[uint64][]WorkItem),
	}
}

// HandleBlock inspects a block's queue_merkle_root and, if it is non-zero
// and differs from the last root it handled (recorded on detection, before
// proving or submitting), enqueues it for proving.
func (r *Relayer) HandleBlock(ctx context.Context, blockNumber uint64, root codec.Hash32, authoritySetID uint64) error {
	if root == (codec.Hash32{}) || root == r.lastRoot {
		return nil
	}
	r.lastRoot = root

	item := WorkItem{BlockNumber: blockNumber, Root: root, AuthoritySetID: authoritySetID}

	if r.cache.Has(authoritySetID) {
		return r.proveAndSubmit(ctx, item)
	}

	r.mu.Lock()
	r.waiting[authoritySetID] = append(r.waiting[authoritySetID], item)
	r.mu.Unlock()

	return r.syncer.SyncAuthoritySet(ctx, authoritySetID)
}

// AuthoritySetSynced drains every work item waiting on setID through the
// prover, once the proof cache has it.
func (r *Relayer) AuthoritySetSynced(ctx context.Context, setID uint64) error {
	r.mu.Lock()
	items := r.waiting[setID]
	delete(r.waiting, setID)
	r.mu.Unlock()

	for _, item := range items {
		if err := r.proveAndSubmit(ctx, item); err != nil {
			if r.logger != nil {
				r.logger.Printf("drain authority set %d: proving block %d failed: %v", setID, item.BlockNumber, err)
			}
			return err
		}
	}
	return nil
}

func (r *Relayer) proveAndSubmit(ctx context.Context, item WorkItem) error {
	proof, err := r.prover.Prove(ctx, item)
	if err != nil {
		return err
	}
	return r.submit(ctx, item, proof)
}

// submit submits the proved root, first checking whether it is already
// present on-chain to suppress a redundant transaction.
func (r *Relayer) submit(ctx context.Context, item WorkItem, proof []byte) error {
	existing, err := r.submitter.GetMerkleRoot(ctx, item.BlockNumber)
	if err == nil && existing == item.Root {
		if r.logger != nil {
			r.logger.Printf("block %d root already present on-chain, skipping submit", item.BlockNumber)
		}
		return nil
	}
	return r.submitter.RelayMerkleRoot(ctx, item.BlockNumber, item.Root, proof)
}
