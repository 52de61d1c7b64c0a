package lightclient

import (
	"fmt"

	"github.com/gear-tech/gear-bridges-sub000/pkg/blslightclient"
	"github.com/gear-tech/gear-bridges-sub000/pkg/checkpoint"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

// State is the light client's mutable view of the finalized Ethereum
// beacon chain: the two sync committees straddling the current period,
// the latest finalized header, a checkpoint buffer for gap recovery, and
// the in-progress replay-back sub-state machine.
type State struct {
	fork ForkSchedule

	initialized     bool
	finalizedHeader Header

	currentCommittee blslightclient.Committee
	nextCommittee    *blslightclient.Committee

	checkpoints *checkpoint.Store

	replayBack replayBackState
}

// New creates an uninitialized light client targeting the given fork
// schedule and checkpoint buffer capacity.
func New(fork ForkSchedule, checkpointCapacity int) *State {
	return &State{
		fork:        fork,
		checkpoints: checkpoint.New(checkpointCapacity),
	}
}

// State returns a read-only snapshot of the client's current view,
// matching spec section 4.1.4's read accessor.
func (s *State) State() (finalized Header, initialized bool) {
	return s.finalizedHeader, s.initialized
}

// Init bootstraps the client from a trusted checkpoint and an initial
// sync update that establishes the next sync committee.
func (s *State) Init(bootstrap Bootstrap, initialUpdate SyncUpdate) error {
	headerRoot, err := bootstrap.Header.Root()
	if err != nil {
		return fmt.Errorf("lightclient: bootstrap header root: %w", err)
	}

	committeeRoot, err := committeeHashTreeRoot(bootstrap.CurrentSyncCommittee)
	if err != nil {
		return fmt.Errorf("lightclient: bootstrap committee root: %w", err)
	}
	ok, err := codec.VerifyMerkleBranch(committeeRoot, bootstrap.CurrentSyncCommitteeBranch, bootstrap.Header.StateRoot)
	if err != nil {
		return fmt.Errorf("lightclient: verify bootstrap committee branch: %w", err)
	}
	if !ok {
		return ErrInvalidFinalityProof
	}

	s.finalizedHeader = bootstrap.Header
	s.currentCommittee = bootstrap.CurrentSyncCommittee
	s.nextCommittee = nil
	s.initialized = true
	s.checkpoints.Push(bootstrap.Header.Slot, headerRoot)

	if _, err := s.ApplySyncUpdate(initialUpdate); err != nil {
		if _, ok := err.(ReplayBackRequired); ok {
			return nil
		}
		return fmt.Errorf("lightclient: apply initial update: %w", err)
	}
	return nil
}

// ApplySyncUpdateResult reports whether an accepted update rotated the
// sync committee at a period boundary.
type ApplySyncUpdateResult struct {
	Rotated bool
}

// ApplySyncUpdate validates and applies a light-client update, following
// the precondition ladder (a)-(g) of spec section 4.1.3 in order; the
// first failing precondition determines the returned error.
func (s *State) ApplySyncUpdate(update SyncUpdate) (ApplySyncUpdateResult, error) {
	if !s.initialized {
		return ApplySyncUpdateResult{}, ErrNotInitialized
	}

	// (a) signature_slot >= attested_header.slot >= finalized_header.slot
	if !(update.SignatureSlot >= update.AttestedHeader.Slot &&
		update.AttestedHeader.Slot >= update.FinalizedHeader.Slot) {
		return ApplySyncUpdateResult{}, ErrInvalidTimestamp
	}
	if update.SignatureSlot == update.AttestedHeader.Slot {
		// Tolerate equality per spec section 9's documented producer
		// behavior; reject only strict less-than, already excluded above.
	}

	// (b) the committee in effect at signature_slot is current or next.
	committee, err := s.committeeForSlot(update.SignatureSlot)
	if err != nil {
		return ApplySyncUpdateResult{}, err
	}

	// (c) >=2/3 participation and valid BLS signature.
	if err := blslightclient.VerifySyncAggregate(committee, update.SyncAggregate, update.SigningRoot); err != nil {
		return ApplySyncUpdateResult{}, fmt.Errorf("%w: %v", ErrLowVoteCount, err)
	}

	// (d) finality_branch verifies finalized_header against
	// attested_header.state_root.
	finalizedRoot, err := update.FinalizedHeader.Root()
	if err != nil {
		return ApplySyncUpdateResult{}, fmt.Errorf("lightclient: finalized header root: %w", err)
	}
	ok, err := codec.VerifyMerkleBranch(finalizedRoot, update.FinalityBranch, update.AttestedHeader.StateRoot)
	if err != nil {
		return ApplySyncUpdateResult{}, fmt.Errorf("lightclient: verify finality branch: %w", err)
	}
	if !ok {
		return ApplySyncUpdateResult{}, ErrInvalidFinalityProof
	}

	// (e) idempotent no-op if the update does not advance the tip.
	if update.FinalizedHeader.Slot <= s.finalizedHeader.Slot {
		return ApplySyncUpdateResult{}, ErrNotActual
	}

	// (f) replay-back required if the gap spans a full sync-committee
	// period without intermediate updates.
	if update.FinalizedHeader.Slot-s.finalizedHeader.Slot > SlotsPerSyncCommitteePeriod {
		checkpointSlot, checkpointHash, cpErr := s.checkpoints.Checkpoint(s.finalizedHeader.Slot)
		if cpErr != nil {
			checkpointSlot, checkpointHash = s.finalizedHeader.Slot, codec.Hash32{}
		}
		return ApplySyncUpdateResult{}, ReplayBackRequired{
			LastProvedSlot:     s.finalizedHeader.Slot,
			CheckpointSlot:     checkpointSlot,
			CheckpointHeadHash: checkpointHash,
		}
	}

	// (g) commit: verify next_sync_committee_branch if a period boundary
	// is crossed and the update carries one, then advance state.
	rotated := crossesPeriodBoundary(s.finalizedHeader.Slot, update.FinalizedHeader.Slot)
	if rotated {
		if update.NextSyncCommittee == nil {
			return ApplySyncUpdateResult{}, ErrInvalidNextCommitteeProof
		}
		nextRoot, err := committeeHashTreeRoot(*update.NextSyncCommittee)
		if err != nil {
			return ApplySyncUpdateResult{}, fmt.Errorf("lightclient: next committee root: %w", err)
		}
		ok, err := codec.VerifyMerkleBranch(nextRoot, update.NextSyncCommitteeBranch, update.AttestedHeader.StateRoot)
		if err != nil {
			return ApplySyncUpdateResult{}, fmt.Errorf("lightclient: verify next committee branch: %w", err)
		}
		if !ok {
			return ApplySyncUpdateResult{}, ErrInvalidNextCommitteeProof
		}
	}

	s.checkpoints.Push(update.FinalizedHeader.Slot, finalizedRoot)
	s.finalizedHeader = update.FinalizedHeader
	if rotated {
		s.currentCommittee = *s.nextCommittee
		s.nextCommittee = update.NextSyncCommittee
	} else if update.NextSyncCommittee != nil && s.nextCommittee == nil {
		s.nextCommittee = update.NextSyncCommittee
	}

	return ApplySyncUpdateResult{Rotated: rotated}, nil
}

func (s *State) committeeForSlot(slot uint64) (blslightclient.Committee, error) {
	currentPeriod := s.finalizedHeader.Slot / SlotsPerSyncCommitteePeriod
	slotPeriod := slot / SlotsPerSyncCommitteePeriod

	switch {
	case slotPeriod == currentPeriod:
		return s.currentCommittee, nil
	case slotPeriod == currentPeriod+1 && s.nextCommittee != nil:
		return *s.nextCommittee, nil
	default:
		return blslightclient.Committee{}, ErrLowVoteCount
	}
}

func crossesPeriodBoundary(oldSlot, newSlot uint64) bool {
	return oldSlot/SlotsPerSyncCommitteePeriod != newSlot/SlotsPerSyncCommitteePeriod
}

// committeeHashTreeRoot computes a sync committee's SSZ tree-hash root:
// the pubkeys vector merkleized together with the aggregate pubkey.
func committeeHashTreeRoot(c blslightclient.Committee) (codec.Hash32, error) {
	leaves := make([][]byte, 0, blslightclient.CommitteeSize+1)
	for _, pk := range c.Pubkeys {
		h := codec.Keccak256(pk[:])
		leaves = append(leaves, append([]byte(nil), h[:]...))
	}
	aggH := codec.Keccak256(c.AggregatePubkey[:])
	leaves = append(leaves, append([]byte(nil), aggH[:]...))

	tree, err := codec.BuildTree(leaves)
	if err != nil {
		return codec.Hash32{}, err
	}
	return tree.Root(), nil
}
