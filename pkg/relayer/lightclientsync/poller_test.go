package lightclientsync

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gear-tech/gear-bridges-sub000/pkg/checkpoint"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/lightclient"
	"github.com/gear-tech/gear-bridges-sub000/pkg/sidechain"
)

// fakeLocal stands in for *lightclient.State: the poller's own logic (what
// to forward to the remote program, how to batch a replay-back chain) is
// what these tests exercise, not lightclient.State's BLS signature
// verification, which has its own test suite.
type fakeLocal struct {
	tip lightclient.Header

	applyErr    error
	applyResult lightclient.ApplySyncUpdateResult

	replayStartCalls      int
	replayStartHeaders    [][]lightclient.Header
	replayContinueCalls   int
	replayContinueHeaders [][]lightclient.Header
}

func (f *fakeLocal) Init(lightclient.Bootstrap, lightclient.SyncUpdate) error { return nil }

func (f *fakeLocal) ApplySyncUpdate(lightclient.SyncUpdate) (lightclient.ApplySyncUpdateResult, error) {
	return f.applyResult, f.applyErr
}

func (f *fakeLocal) ApplyReplayBackStart(_ lightclient.SyncUpdate, headers []lightclient.Header) error {
	f.replayStartCalls++
	f.replayStartHeaders = append(f.replayStartHeaders, headers)
	return nil
}

func (f *fakeLocal) ApplyReplayBackContinue(headers []lightclient.Header) error {
	f.replayContinueCalls++
	f.replayContinueHeaders = append(f.replayContinueHeaders, headers)
	return nil
}

func (f *fakeLocal) State() (lightclient.Header, bool) { return f.tip, true }

// fakeBeacon serves Header lookups by root hex, the only beacon call
// walkChain makes once a finality update is in hand.
type fakeBeacon struct {
	headersByRoot map[string]lightclient.Header
}

func (f *fakeBeacon) Bootstrap(context.Context, codec.Hash32, lightclient.ForkSchedule) (*lightclient.Bootstrap, error) {
	return nil, nil
}

func (f *fakeBeacon) FinalityUpdate(context.Context, lightclient.ForkSchedule) (*lightclient.SyncUpdate, error) {
	return nil, nil
}

func (f *fakeBeacon) Header(_ context.Context, slotOrRoot string) (lightclient.Header, error) {
	h, ok := f.headersByRoot[slotOrRoot]
	if !ok {
		return lightclient.Header{}, errNoSuchHeader(slotOrRoot)
	}
	return h, nil
}

type errNoSuchHeader string

func (e errNoSuchHeader) Error() string { return "no header for " + string(e) }

// fakeProgram stands in for the sidechain's remote light client program.
type fakeProgram struct {
	syncUpdateOutcome sidechain.SyncUpdateOutcome
	syncUpdateErr     error

	replayStartOutcome     sidechain.ReplayBackOutcome
	replayContinueOutcomes []sidechain.ReplayBackOutcome
	continueCall           int
}

func (f *fakeProgram) SubmitFinalityProof(context.Context, sidechain.ActorID, []byte) error {
	return nil
}

func (f *fakeProgram) CurrentAuthoritySetID(context.Context, sidechain.ActorID) (uint64, error) {
	return 0, nil
}

func (f *fakeProgram) SubmitSyncUpdate(context.Context, sidechain.ActorID, []byte) (sidechain.SyncUpdateOutcome, error) {
	return f.syncUpdateOutcome, f.syncUpdateErr
}

func (f *fakeProgram) SubmitReplayBackStart(context.Context, sidechain.ActorID, []byte, []byte) (sidechain.ReplayBackOutcome, error) {
	return f.replayStartOutcome, nil
}

func (f *fakeProgram) SubmitReplayBackContinue(context.Context, sidechain.ActorID, []byte) (sidechain.ReplayBackOutcome, error) {
	outcome := f.replayContinueOutcomes[f.continueCall]
	f.continueCall++
	return outcome, nil
}

func mustRoot(t *testing.T, h lightclient.Header) codec.Hash32 {
	t.Helper()
	root, err := h.Root()
	require.NoError(t, err)
	return root
}

func TestPollerCommitsSyncUpdateAndAdvancesGate(t *testing.T) {
	finalized := lightclient.Header{Slot: 500, StateRoot: codec.Hash32{0x11}, BodyRoot: codec.Hash32{0x22}}
	update := lightclient.SyncUpdate{FinalizedHeader: finalized}

	local := &fakeLocal{applyResult: lightclient.ApplySyncUpdateResult{Rotated: true}}
	program := &fakeProgram{}
	gate := checkpoint.New(16)

	p := New(&fakeBeacon{}, program, sidechain.ActorID{}, local, gate, lightclient.ElectraForkSchedule, nil)

	err := p.apply(context.Background(), update)
	require.NoError(t, err)

	slot, ok := gate.HeadSlot()
	require.True(t, ok)
	require.Equal(t, finalized.Slot, slot)
}

func TestPollerSkipsGateAdvanceWhenProgramStillNeedsReplayBack(t *testing.T) {
	finalized := lightclient.Header{Slot: 500}
	update := lightclient.SyncUpdate{FinalizedHeader: finalized}

	local := &fakeLocal{}
	program := &fakeProgram{syncUpdateOutcome: sidechain.SyncUpdateOutcome{ReplayBackRequired: true, LastProvedSlot: 100}}
	gate := checkpoint.New(16)

	p := New(&fakeBeacon{}, program, sidechain.ActorID{}, local, gate, lightclient.ElectraForkSchedule, nil)

	err := p.apply(context.Background(), update)
	require.NoError(t, err)

	_, ok := gate.HeadSlot()
	require.False(t, ok)
}

func TestPollerIgnoresNotActualUpdate(t *testing.T) {
	local := &fakeLocal{applyErr: lightclient.ErrNotActual}
	gate := checkpoint.New(16)
	p := New(&fakeBeacon{}, &fakeProgram{}, sidechain.ActorID{}, local, gate, lightclient.ElectraForkSchedule, nil)

	err := p.apply(context.Background(), lightclient.SyncUpdate{})
	require.NoError(t, err)
	_, ok := gate.HeadSlot()
	require.False(t, ok)
}

// TestPollerReplayBackWalksChainAndSubmitsBatches builds a 3-header chain
// (tip -> headerC -> headerB, the incoming finalized header) and checks the
// poller walks it backward by root, hands the whole gap to the local mirror
// and the remote program as a single batch, and advances the gate only once
// the remote program reports the replay-back sequence finished.
func TestPollerReplayBackWalksChainAndSubmitsBatches(t *testing.T) {
	tip := lightclient.Header{Slot: 100, StateRoot: codec.Hash32{0xAA}, BodyRoot: codec.Hash32{0xAA}}
	tipRoot := mustRoot(t, tip)

	headerC := lightclient.Header{Slot: 150, ParentRoot: tipRoot, StateRoot: codec.Hash32{0xCC}, BodyRoot: codec.Hash32{0xCC}}
	headerCRoot := mustRoot(t, headerC)

	headerB := lightclient.Header{Slot: 200, ParentRoot: headerCRoot, StateRoot: codec.Hash32{0xBB}, BodyRoot: codec.Hash32{0xBB}}

	update := lightclient.SyncUpdate{FinalizedHeader: headerB}
	gap := lightclient.ReplayBackRequired{LastProvedSlot: tip.Slot, CheckpointSlot: tip.Slot}

	beacon := &fakeBeacon{headersByRoot: map[string]lightclient.Header{
		headerCRoot.Hex(): headerC,
		tipRoot.Hex():     tip,
	}}

	local := &fakeLocal{tip: tip, applyErr: gap}
	program := &fakeProgram{replayStartOutcome: sidechain.ReplayBackOutcome{Finished: true}}
	gate := checkpoint.New(16)

	p := New(beacon, program, sidechain.ActorID{}, local, gate, lightclient.ElectraForkSchedule, nil)

	err := p.apply(context.Background(), update)
	require.NoError(t, err)

	require.Equal(t, 1, local.replayStartCalls)
	require.Equal(t, 0, local.replayContinueCalls)
	require.Len(t, local.replayStartHeaders[0], 2)
	require.Equal(t, headerC.Slot, local.replayStartHeaders[0][0].Slot)
	require.Equal(t, tip.Slot, local.replayStartHeaders[0][1].Slot)

	slot, ok := gate.HeadSlot()
	require.True(t, ok)
	require.Equal(t, headerB.Slot, slot)
}

// TestPollerReplayBackSpansMultipleBatches forces a small batch size so a
// two-header gap splits into two submissions, exercising
// ApplyReplayBackContinue and SubmitReplayBackContinue.
func TestPollerReplayBackSpansMultipleBatches(t *testing.T) {
	tip := lightclient.Header{Slot: 100, StateRoot: codec.Hash32{0xAA}, BodyRoot: codec.Hash32{0xAA}}
	tipRoot := mustRoot(t, tip)

	headerC := lightclient.Header{Slot: 150, ParentRoot: tipRoot, StateRoot: codec.Hash32{0xCC}, BodyRoot: codec.Hash32{0xCC}}
	headerCRoot := mustRoot(t, headerC)

	headerB := lightclient.Header{Slot: 200, ParentRoot: headerCRoot, StateRoot: codec.Hash32{0xBB}, BodyRoot: codec.Hash32{0xBB}}

	update := lightclient.SyncUpdate{FinalizedHeader: headerB}
	gap := lightclient.ReplayBackRequired{LastProvedSlot: tip.Slot, CheckpointSlot: tip.Slot}

	beacon := &fakeBeacon{headersByRoot: map[string]lightclient.Header{
		headerCRoot.Hex(): headerC,
		tipRoot.Hex():     tip,
	}}

	local := &fakeLocal{tip: tip, applyErr: gap}
	program := &fakeProgram{
		replayStartOutcome:     sidechain.ReplayBackOutcome{Finished: false},
		replayContinueOutcomes: []sidechain.ReplayBackOutcome{{Finished: true}},
	}
	gate := checkpoint.New(16)

	p := &Poller{beacon: beacon, program: program, actor: sidechain.ActorID{}, local: local, gate: gate, fork: lightclient.ElectraForkSchedule}

	err := p.replayBackWithBatchSize(context.Background(), update, gap, 1)
	require.NoError(t, err)

	require.Equal(t, 1, local.replayStartCalls)
	require.Equal(t, 1, local.replayContinueCalls)
	require.Len(t, local.replayStartHeaders[0], 1)
	require.Equal(t, headerC.Slot, local.replayStartHeaders[0][0].Slot)
	require.Len(t, local.replayContinueHeaders[0], 1)
	require.Equal(t, tip.Slot, local.replayContinueHeaders[0][0].Slot)

	slot, ok := gate.HeadSlot()
	require.True(t, ok)
	require.Equal(t, headerB.Slot, slot)
}

func TestBatchHeadersSplitsInOrder(t *testing.T) {
	headers := make([]lightclient.Header, 5)
	for i := range headers {
		headers[i] = lightclient.Header{Slot: uint64(i)}
	}
	batches := batchHeaders(headers, 2)
	require.Len(t, batches, 3)
	require.Len(t, batches[0], 2)
	require.Len(t, batches[1], 2)
	require.Len(t, batches[2], 1)
}
