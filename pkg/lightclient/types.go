// Package lightclient implements an Ethereum beacon-chain light client:
// a running view of the finalized chain advanced by verifying
// sync-committee signatures over light-client updates, per spec section
// 4.1.3.
package lightclient

import (
	"github.com/gear-tech/gear-bridges-sub000/pkg/blslightclient"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

// SlotsPerEpoch and EpochsPerSyncCommitteePeriod fix the Ethereum beacon
// chain's timing grid.
const (
	SlotsPerEpoch                = 32
	EpochsPerSyncCommitteePeriod = 256
	SlotsPerSyncCommitteePeriod  = SlotsPerEpoch * EpochsPerSyncCommitteePeriod
)

// ForkSchedule resolves the generalized indices that vary by fork, since
// the beacon-state Merkle tree layout shifted between Altair and Electra
// (spec section 9 Open Question: index 5 pre-Electra, 55 at Electra).
type ForkSchedule struct {
	NextSyncCommitteeIndex uint64
	FinalizedRootIndex     uint64
}

// AltairForkSchedule is the generalized-index layout used from the Altair
// fork through the pre-Electra forks.
var AltairForkSchedule = ForkSchedule{
	NextSyncCommitteeIndex: 5,
	FinalizedRootIndex:     41,
}

// ElectraForkSchedule is the generalized-index layout from the Electra
// fork onward, after the beacon state gained additional top-level fields.
var ElectraForkSchedule = ForkSchedule{
	NextSyncCommitteeIndex: 55,
	FinalizedRootIndex:     41,
}

// Header is the subset of a beacon block header the light client tracks.
type Header struct {
	Slot          uint64
	ProposerIndex uint64
	ParentRoot    codec.Hash32
	StateRoot     codec.Hash32
	BodyRoot      codec.Hash32
}

// Root computes the header's SSZ tree-hash root.
func (h Header) Root() (codec.Hash32, error) {
	bh := codec.BeaconBlockHeader{
		Slot:          h.Slot,
		ProposerIndex: h.ProposerIndex,
		ParentRoot:    h.ParentRoot,
		StateRoot:     h.StateRoot,
		BodyRoot:      h.BodyRoot,
	}
	return bh.HashTreeRoot()
}

// Bootstrap seeds a new light client: the client trusts header out of
// band (e.g. a weak-subjectivity checkpoint) and verifies that
// CurrentSyncCommittee is committed under it.
type Bootstrap struct {
	Header                     Header
	CurrentSyncCommittee       blslightclient.Committee
	CurrentSyncCommitteeBranch codec.MerkleBranch
}

// SyncUpdate is a single light-client update message, spec Data Model
// SyncCommitteeUpdate.
type SyncUpdate struct {
	AttestedHeader  Header
	FinalizedHeader Header
	FinalityBranch  codec.MerkleBranch

	SyncAggregate blslightclient.SyncAggregate
	SigningRoot   codec.Hash32
	SignatureSlot uint64

	NextSyncCommittee       *blslightclient.Committee
	NextSyncCommitteeBranch codec.MerkleBranch
}

// ReplayBackState names the streaming replay-back sub-state machine's
// three states (spec section 4.1.3).
type ReplayBackState int

const (
	ReplayBackIdle ReplayBackState = iota
	ReplayBackInProcess
	ReplayBackFinished
)

// ReplayBackRequired is returned by ApplySyncUpdate when the gap between
// the current and incoming finalized header spans a full sync-committee
// period without intermediate updates.
type ReplayBackRequired struct {
	LastProvedSlot     uint64
	CheckpointSlot     uint64
	CheckpointHeadHash  codec.Hash32
}

func (r ReplayBackRequired) Error() string {
	return "lightclient: replay-back required to close sync-committee-period gap"
}
