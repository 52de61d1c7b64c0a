// Package killswitch implements the independent observer and challenge
// state machine of spec section 4.4.5: scan submitted Merkle-roots on
// Ethereum, compare each to the authoritative root recomputed from the
// sidechain, and on mismatch dispute then (given admin credentials)
// re-submit the authentic root.
package killswitch

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/relayer/transport"
)

// State is one of the four named states of the challenge path.
type State int

const (
	ScanForEvents State = iota
	ChallengeRoot
	SubmitMerkleRoot
	Exit
)

func (s State) String() string {
	switch s {
	case ScanForEvents:
		return "ScanForEvents"
	case ChallengeRoot:
		return "ChallengeRoot"
	case SubmitMerkleRoot:
		return "SubmitMerkleRoot"
	case Exit:
		return "Exit"
	default:
		return "Unknown"
	}
}

// SubmittedRoot is one Merkle-root entry observed on Ethereum.
type SubmittedRoot struct {
	BlockNumber uint64
	Root        codec.Hash32
}

// EthereumRootSource scans submitted Merkle-roots on Ethereum.
type EthereumRootSource interface {
	ScanSubmittedRoots(ctx context.Context, fromBlock uint64) ([]SubmittedRoot, error)
}

// SidechainRootSource recomputes the authoritative root for a block by
// re-reading the corresponding sidechain block.
type SidechainRootSource interface {
	AuthoritativeRoot(ctx context.Context, blockNumber uint64) (codec.Hash32, error)
}

// Disputer submits a challenge transaction disputing a mismatched root,
// and, separately, a corrective re-submission once admin-authorized.
type Disputer interface {
	ChallengeRoot(ctx context.Context, blockNumber uint64, submitted codec.Hash32) (txHash [32]byte, err error)
	SubmitAuthenticRoot(ctx context.Context, blockNumber uint64, authentic codec.Hash32) (txHash [32]byte, err error)
}

// Observer runs the scan/challenge/resubmit loop, transitioning through
// State as mismatches are found and resolved.
type Observer struct {
	ethereum  EthereumRootSource
	sidechain SidechainRootSource
	disputer  Disputer
	backoff   transport.Backoff
	logger    *log.Logger

	state       State
	lastChecked uint64
}

// New creates an Observer starting its scan at fromBlock.
func New(ethereum EthereumRootSource, sidechain SidechainRootSource, disputer Disputer, fromBlock uint64, logger *log.Logger) *Observer {
	return &Observer{
		ethereum:    ethereum,
		sidechain:   sidechain,
		disputer:    disputer,
		backoff:     transport.DefaultBackoff(),
		logger:      logger,
		state:       ScanForEvents,
		lastChecked: fromBlock,
	}
}

// State returns the observer's current state.
func (o *Observer) State() State { return o.state }

// Mismatch is a detected divergence between a submitted root and the
// authoritative sidechain root, surfaced to the caller so it can gate
// SubmitAuthenticRoot on admin authorization.
type Mismatch struct {
	BlockNumber   uint64
	Submitted     codec.Hash32
	Authoritative codec.Hash32
	ChallengeTx   [32]byte
}

// ErrNonRecoverable is returned when a scan hits a non-recoverable
// transport error; the caller should terminate the observer (state Exit).
var ErrNonRecoverable = errors.New("killswitch: non-recoverable error, observer exiting")

// Scan performs one round: fetch newly submitted roots, compare each to
// the sidechain's authoritative root, and challenge any mismatch. It
// returns the mismatches found (already challenged) for the caller to
// resolve via Resubmit once admin-authorized.
func (o *Observer) Scan(ctx context.Context) ([]Mismatch, error) {
	o.state = ScanForEvents

	roots, err := o.ethereum.ScanSubmittedRoots(ctx, o.lastChecked+1)
	if err != nil {
		if !transport.IsRecoverable(err) {
			o.state = Exit
			return nil, fmt.Errorf("%w: %v", ErrNonRecoverable, err)
		}
		return nil, err
	}

	var mismatches []Mismatch
	for _, sr := range roots {
		if sr.BlockNumber > o.lastChecked {
			o.lastChecked = sr.BlockNumber
		}

		authentic, err := o.sidechain.AuthoritativeRoot(ctx, sr.BlockNumber)
		if err != nil {
			if !transport.IsRecoverable(err) {
				o.state = Exit
				return mismatches, fmt.Errorf("%w: %v", ErrNonRecoverable, err)
			}
			if o.logger != nil {
				o.logger.Printf("recompute root for block %d failed: %v", sr.BlockNumber, err)
			}
			continue
		}

		if authentic == sr.Root {
			continue
		}

		o.state = ChallengeRoot
		txHash, err := o.disputer.ChallengeRoot(ctx, sr.BlockNumber, sr.Root)
		if err != nil {
			return mismatches, fmt.Errorf("killswitch: challenge block %d: %w", sr.BlockNumber, err)
		}
		if o.logger != nil {
			o.logger.Printf("challenged mismatched root at block %d: submitted=%x authentic=%x", sr.BlockNumber, sr.Root, authentic)
		}

		mismatches = append(mismatches, Mismatch{
			BlockNumber:   sr.BlockNumber,
			Submitted:     sr.Root,
			Authoritative: authentic,
			ChallengeTx:   txHash,
		})
	}

	o.state = ScanForEvents
	return mismatches, nil
}

// Resubmit re-submits the authentic root for a challenged mismatch, given
// admin authorization has already been obtained by the caller.
func (o *Observer) Resubmit(ctx context.Context, m Mismatch) error {
	o.state = SubmitMerkleRoot
	_, err := o.disputer.SubmitAuthenticRoot(ctx, m.BlockNumber, m.Authoritative)
	o.state = ScanForEvents
	if err != nil {
		return fmt.Errorf("killswitch: resubmit authentic root for block %d: %w", m.BlockNumber, err)
	}
	return nil
}
