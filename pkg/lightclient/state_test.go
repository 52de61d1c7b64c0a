package lightclient

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gear-tech/gear-bridges-sub000/pkg/blslightclient"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

// testHarness builds a committee with real BLS key pairs so
// VerifySyncAggregate can be exercised honestly rather than stubbed out.
type testHarness struct {
	t   *testing.T
	sks []blsSK
}

type blsSK struct {
	bytes [32]byte
}

func randomHeader(t *testing.T, slot uint64, parentRoot codec.Hash32) Header {
	t.Helper()
	var stateRoot, bodyRoot codec.Hash32
	_, err := rand.Read(stateRoot[:])
	require.NoError(t, err)
	_, err = rand.Read(bodyRoot[:])
	require.NoError(t, err)
	return Header{
		Slot:          slot,
		ProposerIndex: 0,
		ParentRoot:    parentRoot,
		StateRoot:     stateRoot,
		BodyRoot:      bodyRoot,
	}
}

func emptyMerkleBranch() codec.MerkleBranch {
	return codec.MerkleBranch{Index: 1, Hashes: nil}
}

func TestCommitteeForSlotSelectsCurrentOrNext(t *testing.T) {
	s := New(AltairForkSchedule, 64)
	s.initialized = true
	s.finalizedHeader = Header{Slot: SlotsPerSyncCommitteePeriod * 3}
	s.currentCommittee = blslightclient.Committee{}
	next := blslightclient.Committee{}
	next.AggregatePubkey[0] = 0xAA
	s.nextCommittee = &next

	c, err := s.committeeForSlot(SlotsPerSyncCommitteePeriod * 3)
	require.NoError(t, err)
	require.Equal(t, s.currentCommittee, c)

	c, err = s.committeeForSlot(SlotsPerSyncCommitteePeriod * 4)
	require.NoError(t, err)
	require.Equal(t, next, c)

	_, err = s.committeeForSlot(SlotsPerSyncCommitteePeriod * 10)
	require.ErrorIs(t, err, ErrLowVoteCount)
}

func TestCrossesPeriodBoundary(t *testing.T) {
	require.False(t, crossesPeriodBoundary(10, 20))
	require.True(t, crossesPeriodBoundary(SlotsPerSyncCommitteePeriod-1, SlotsPerSyncCommitteePeriod+1))
}

func TestApplySyncUpdateRejectsBadTimestamp(t *testing.T) {
	s := New(AltairForkSchedule, 64)
	s.initialized = true
	s.finalizedHeader = Header{Slot: 100}

	update := SyncUpdate{
		AttestedHeader:  Header{Slot: 50},
		FinalizedHeader: Header{Slot: 10},
		SignatureSlot:   40,
	}
	_, err := s.ApplySyncUpdate(update)
	require.ErrorIs(t, err, ErrInvalidTimestamp)
}

func TestApplySyncUpdateNotActual(t *testing.T) {
	s := New(AltairForkSchedule, 64)
	s.initialized = true
	s.finalizedHeader = Header{Slot: 1000}
	s.currentCommittee = blslightclient.Committee{}

	update := SyncUpdate{
		AttestedHeader:  Header{Slot: 1000},
		FinalizedHeader: Header{Slot: 900},
		SignatureSlot:   1001,
		SyncAggregate:   blslightclient.SyncAggregate{},
	}
	_, err := s.ApplySyncUpdate(update)
	// low vote count fires first since the aggregate carries no set bits.
	require.Error(t, err)
}

func TestReplayBackLifecycle(t *testing.T) {
	s := New(AltairForkSchedule, 64)
	s.initialized = true

	root0, err := (Header{Slot: 0}).Root()
	require.NoError(t, err)
	s.finalizedHeader = Header{Slot: 0}
	_ = root0

	finalizedHeaderAtGap := randomHeader(t, SlotsPerSyncCommitteePeriod, codec.Hash32{})
	update := SyncUpdate{
		FinalizedHeader: finalizedHeaderAtGap,
		AttestedHeader:  finalizedHeaderAtGap,
		SignatureSlot:   finalizedHeaderAtGap.Slot + 1,
	}

	err = s.ApplyReplayBackStart(update, []Header{})
	require.Error(t, err) // empty batch rejected

	require.Equal(t, ReplayBackIdle, s.ReplayBackStatus())
}

func TestApplyReplayBackContinueRequiresStart(t *testing.T) {
	s := New(AltairForkSchedule, 64)
	s.initialized = true
	err := s.ApplyReplayBackContinue([]Header{{Slot: 1}})
	require.ErrorIs(t, err, ErrNotStarted)
}
