// Package lightclientsync drives pkg/lightclient's state machine from a
// live beacon node: it bootstraps from a trusted checkpoint, polls finality
// updates, and closes sync-committee-period gaps with a batched replay-back
// sequence, forwarding every accepted step to the sidechain's remote light
// client program alongside the local mirror (spec section 4.1).
package lightclientsync

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gear-tech/gear-bridges-sub000/pkg/checkpoint"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/lightclient"
	"github.com/gear-tech/gear-bridges-sub000/pkg/sidechain"
)

// replayBackBatchSize caps how many headers are submitted per replay-back
// step, following the original relayer's 26-epoch batch.
const replayBackBatchSize = 26 * lightclient.SlotsPerEpoch

// maxReplayBackHops bounds how far the poller walks the header chain
// backward before giving up: two sync-committee periods' worth of slots.
const maxReplayBackHops = 2 * lightclient.SlotsPerSyncCommitteePeriod

// BeaconSource is the subset of beaconapi.Client the poller depends on.
type BeaconSource interface {
	Bootstrap(ctx context.Context, checkpointRoot codec.Hash32, fork lightclient.ForkSchedule) (*lightclient.Bootstrap, error)
	FinalityUpdate(ctx context.Context, fork lightclient.ForkSchedule) (*lightclient.SyncUpdate, error)
	Header(ctx context.Context, slotOrRoot string) (lightclient.Header, error)
}

// Poller periodically fetches the beacon chain's latest finality update and
// drives both a local lightclient.State mirror and the sidechain's remote
// light-client program through it. The local mirror lets the poller decide
// on its own whether an update is a plain commit or the start of a
// replay-back sequence before ever touching the network program; gate is
// the relayer's shared checkpoint store, advanced in lockstep so other
// relayer components (ethtosidechain.Relayer.Ready) observe the same tip.
type Poller struct {
	beacon  BeaconSource
	program sidechain.LightClientProgram
	actor   sidechain.ActorID
	local   LocalClient
	gate    *checkpoint.Store
	fork    lightclient.ForkSchedule
	logger  *log.Logger
}

// LocalClient is the subset of *lightclient.State the poller drives;
// *lightclient.State satisfies it directly. Kept as an interface so tests
// can exercise the poller's replay-back batching and program-forwarding
// logic without constructing BLS-signed sync-committee fixtures.
type LocalClient interface {
	Init(bootstrap lightclient.Bootstrap, initialUpdate lightclient.SyncUpdate) error
	ApplySyncUpdate(update lightclient.SyncUpdate) (lightclient.ApplySyncUpdateResult, error)
	ApplyReplayBackStart(update lightclient.SyncUpdate, headers []lightclient.Header) error
	ApplyReplayBackContinue(headers []lightclient.Header) error
	State() (lightclient.Header, bool)
}

// New creates a Poller. local should be freshly constructed (lightclient.New)
// and is bootstrapped by Bootstrap before Run is started.
func New(beacon BeaconSource, program sidechain.LightClientProgram, actor sidechain.ActorID, local LocalClient, gate *checkpoint.Store, fork lightclient.ForkSchedule, logger *log.Logger) *Poller {
	return &Poller{beacon: beacon, program: program, actor: actor, local: local, gate: gate, fork: fork, logger: logger}
}

// Bootstrap seeds the local mirror from checkpointRoot and an initial
// finality update, and records the bootstrap header in the shared
// checkpoint store so dependent relayer components can start as soon as
// bootstrap completes, before the first poll tick.
func (p *Poller) Bootstrap(ctx context.Context, checkpointRoot codec.Hash32) error {
	bootstrap, err := p.beacon.Bootstrap(ctx, checkpointRoot, p.fork)
	if err != nil {
		return fmt.Errorf("lightclientsync: fetch bootstrap: %w", err)
	}
	initialUpdate, err := p.beacon.FinalityUpdate(ctx, p.fork)
	if err != nil {
		return fmt.Errorf("lightclientsync: fetch initial finality update: %w", err)
	}
	if err := p.local.Init(*bootstrap, *initialUpdate); err != nil {
		return fmt.Errorf("lightclientsync: init local mirror: %w", err)
	}

	root, err := bootstrap.Header.Root()
	if err != nil {
		return fmt.Errorf("lightclientsync: bootstrap header root: %w", err)
	}
	p.gate.Push(bootstrap.Header.Slot, root)

	if p.logger != nil {
		p.logger.Printf("light client bootstrapped at slot %d", bootstrap.Header.Slot)
	}
	return nil
}

// Run polls FinalityUpdate every interval until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := p.poll(ctx); err != nil {
				if p.logger != nil {
					p.logger.Printf("poll failed: %v", err)
				}
			}
		}
	}
}

func (p *Poller) poll(ctx context.Context) error {
	update, err := p.beacon.FinalityUpdate(ctx, p.fork)
	if err != nil {
		return fmt.Errorf("lightclientsync: fetch finality update: %w", err)
	}
	return p.apply(ctx, *update)
}

func (p *Poller) apply(ctx context.Context, update lightclient.SyncUpdate) error {
	result, err := p.local.ApplySyncUpdate(update)
	switch e := err.(type) {
	case nil:
		return p.commit(ctx, update, result)
	case lightclient.ReplayBackRequired:
		return p.replayBack(ctx, update, e)
	default:
		if err == lightclient.ErrNotActual {
			return nil
		}
		return fmt.Errorf("lightclientsync: apply sync update locally: %w", err)
	}
}

func (p *Poller) commit(ctx context.Context, update lightclient.SyncUpdate, result lightclient.ApplySyncUpdateResult) error {
	encoded, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("lightclientsync: encode sync update: %w", err)
	}
	outcome, err := p.program.SubmitSyncUpdate(ctx, p.actor, encoded)
	if err != nil {
		return fmt.Errorf("lightclientsync: submit sync update: %w", err)
	}
	if outcome.ReplayBackRequired {
		// The remote program's tip lags further behind than the local
		// mirror's; the next poll's commit or replay-back pass will
		// observe the program having caught up, or will itself report
		// this same gap once it re-derives it from a fresh update.
		if p.logger != nil {
			p.logger.Printf("sidechain program still needs replay-back from slot %d, local mirror already past it", outcome.LastProvedSlot)
		}
		return nil
	}

	root, err := update.FinalizedHeader.Root()
	if err != nil {
		return fmt.Errorf("lightclientsync: finalized header root: %w", err)
	}
	p.gate.Push(update.FinalizedHeader.Slot, root)

	if p.logger != nil {
		p.logger.Printf("sync update applied, finalized slot %d (committee rotated=%v)", update.FinalizedHeader.Slot, result.Rotated)
	}
	return nil
}

// replayBack walks the header chain backward from update's finalized header
// to the local mirror's current tip, then drives both the local mirror and
// the remote program through ApplyReplayBackStart/Continue in lockstep,
// batching headers the same size the original relayer's replay-back loop
// used.
func (p *Poller) replayBack(ctx context.Context, update lightclient.SyncUpdate, gap lightclient.ReplayBackRequired) error {
	return p.replayBackWithBatchSize(ctx, update, gap, replayBackBatchSize)
}

func (p *Poller) replayBackWithBatchSize(ctx context.Context, update lightclient.SyncUpdate, gap lightclient.ReplayBackRequired, batchSize int) error {
	currentTip, _ := p.local.State()
	target, err := currentTip.Root()
	if err != nil {
		return fmt.Errorf("lightclientsync: current tip root: %w", err)
	}

	if p.logger != nil {
		p.logger.Printf("replay-back required: closing gap from slot %d (checkpoint slot %d) to %d",
			gap.LastProvedSlot, gap.CheckpointSlot, update.FinalizedHeader.Slot)
	}

	headers, err := p.walkChain(ctx, update.FinalizedHeader, target)
	if err != nil {
		return fmt.Errorf("lightclientsync: walk replay-back header chain: %w", err)
	}

	encodedUpdate, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("lightclientsync: encode replay-back anchor update: %w", err)
	}

	batches := batchHeaders(headers, batchSize)
	if len(batches) == 0 {
		return fmt.Errorf("lightclientsync: replay-back produced no header batches")
	}

	if err := p.local.ApplyReplayBackStart(update, batches[0]); err != nil {
		return fmt.Errorf("lightclientsync: replay-back start locally: %w", err)
	}
	encodedFirst, err := json.Marshal(batches[0])
	if err != nil {
		return fmt.Errorf("lightclientsync: encode replay-back batch: %w", err)
	}
	outcome, err := p.program.SubmitReplayBackStart(ctx, p.actor, encodedUpdate, encodedFirst)
	if err != nil {
		return fmt.Errorf("lightclientsync: replay-back start remotely: %w", err)
	}

	for _, next := range batches[1:] {
		if outcome.Finished {
			break
		}
		if err := p.local.ApplyReplayBackContinue(next); err != nil {
			return fmt.Errorf("lightclientsync: replay-back continue locally: %w", err)
		}
		encodedNext, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("lightclientsync: encode replay-back batch: %w", err)
		}
		outcome, err = p.program.SubmitReplayBackContinue(ctx, p.actor, encodedNext)
		if err != nil {
			return fmt.Errorf("lightclientsync: replay-back continue remotely: %w", err)
		}
	}

	if !outcome.Finished {
		return fmt.Errorf("lightclientsync: replay-back did not finish after %d header batches", len(batches))
	}

	root, err := update.FinalizedHeader.Root()
	if err != nil {
		return fmt.Errorf("lightclientsync: finalized header root: %w", err)
	}
	p.gate.Push(update.FinalizedHeader.Slot, root)

	if p.logger != nil {
		p.logger.Printf("replay-back closed gap to slot %d over %d header batches", update.FinalizedHeader.Slot, len(batches))
	}
	return nil
}

// walkChain fetches parent headers one hop at a time starting from from's
// parent, by root rather than by slot to skip over empty slots cleanly,
// until it reaches a header whose root equals target.
func (p *Poller) walkChain(ctx context.Context, from lightclient.Header, target codec.Hash32) ([]lightclient.Header, error) {
	var chain []lightclient.Header
	cur := from
	for i := 0; i < maxReplayBackHops; i++ {
		parent, err := p.beacon.Header(ctx, cur.ParentRoot.Hex())
		if err != nil {
			return nil, fmt.Errorf("fetch header %s: %w", cur.ParentRoot.Hex(), err)
		}
		chain = append(chain, parent)

		parentRoot, err := parent.Root()
		if err != nil {
			return nil, fmt.Errorf("header root at slot %d: %w", parent.Slot, err)
		}
		if parentRoot == target {
			return chain, nil
		}
		cur = parent
	}
	return nil, fmt.Errorf("chain did not reach target after %d hops", len(chain))
}

// batchHeaders splits headers into fixed-size chunks in order, the shape
// ApplyReplayBackStart/Continue expect one batch at a time.
func batchHeaders(headers []lightclient.Header, size int) [][]lightclient.Header {
	var batches [][]lightclient.Header
	for i := 0; i < len(headers); i += size {
		end := i + size
		if end > len(headers) {
			end = len(headers)
		}
		batches = append(batches, headers[i:end])
	}
	return batches
}
