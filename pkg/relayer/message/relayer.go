// Package message implements the per-message relayer of spec section
// 4.4.3: check for a submitted Merkle-root covering the message's block,
// fetch its inclusion path, and submit processMessage on Ethereum.
package message

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/ethbridge/contracts"
)

// ErrMessageAlreadyProcessed is the additional terminal state named in
// spec section 4.4.3, reached when isProcessed(nonce) becomes true
// mid-flight.
var ErrMessageAlreadyProcessed = errors.New("message: already processed on ethereum")

// MessageInBlock is a queued sidechain message awaiting relay, keyed by
// the block it was enqueued in.
type MessageInBlock struct {
	BlockNumber uint64
	Message     contracts.VaraMessage
}

// RootIndex reports the highest submitted Merkle-root block number
// observed so far, letting the relayer know when a message's block is
// covered.
type RootIndex interface {
	HighestSubmittedRoot(ctx context.Context) (blockNumber uint64, root codec.Hash32, ok bool)
}

// InclusionSource fetches a message's Merkle inclusion path from the
// sidechain.
type InclusionSource interface {
	MessageInclusionPath(ctx context.Context, blockNumber uint64, msg contracts.VaraMessage) (totalLeaves, leafIndex uint64, proof [][32]byte, err error)
}

// Submitter submits a proved message to Ethereum and reports whether it
// was already processed.
type Submitter interface {
	SubmitMessage(ctx context.Context, blockNumber uint64, root codec.Hash32, totalLeaves, leafIndex uint64, msg contracts.VaraMessage, proof [][32]byte) error
	IsProcessed(ctx context.Context, msg contracts.VaraMessage) (bool, error)
}

// Relayer drives one MessageInBlock through the wait-fetch-submit
// pipeline.
type Relayer struct {
	roots     RootIndex
	inclusion InclusionSource
	submitter Submitter
	logger    *log.Logger
}

// New creates a Relayer wired to the given backends.
func New(roots RootIndex, inclusion InclusionSource, submitter Submitter, logger *log.Logger) *Relayer {
	return &Relayer{roots: roots, inclusion: inclusion, submitter: submitter, logger: logger}
}

// Relay checks that a submitted root covers item's block, then fetches the
// inclusion path and submits it. When no submitted root covers the block
// yet it returns an error at once; it does not wait or poll. It returns
// ErrMessageAlreadyProcessed
// (not an error the caller should retry) if the message lands as processed
// mid-flight.
func (r *Relayer) Relay(ctx context.Context, item MessageInBlock) error {
	rootBlock, root, ok := r.roots.HighestSubmittedRoot(ctx)
	if !ok || rootBlock < item.BlockNumber {
		return fmt.Errorf("message: no submitted root covers block %d yet", item.BlockNumber)
	}

	processed, err := r.submitter.IsProcessed(ctx, item.Message)
	if err != nil {
		return fmt.Errorf("message: check processed: %w", err)
	}
	if processed {
		return ErrMessageAlreadyProcessed
	}

	totalLeaves, leafIndex, proof, err := r.inclusion.MessageInclusionPath(ctx, item.BlockNumber, item.Message)
	if err != nil {
		return fmt.Errorf("message: fetch inclusion path: %w", err)
	}

	if err := r.submitter.SubmitMessage(ctx, rootBlock, root, totalLeaves, leafIndex, item.Message, proof); err != nil {
		processed, checkErr := r.submitter.IsProcessed(ctx, item.Message)
		if checkErr == nil && processed {
			return ErrMessageAlreadyProcessed
		}
		return fmt.Errorf("message: submit: %w", err)
	}

	if r.logger != nil {
		r.logger.Printf("relayed message nonce=%x block=%d", item.Message.Nonce, item.BlockNumber)
	}
	return nil
}
