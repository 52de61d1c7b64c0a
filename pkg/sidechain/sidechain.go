// Package sidechain defines the interfaces the relayer uses to reach the
// sidechain's on-chain programs: the light client, the VFT manager, and
// the gear-eth-bridge built-in actor. Each program is addressed by a
// 32-byte ActorID; pkg/sidechain/rpcclient supplies a JSON-RPC-backed
// implementation.
package sidechain

import (
	"context"
	"encoding/hex"
	"math/big"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

// ActorID addresses a program (actor) on the sidechain.
type ActorID [32]byte

func (a ActorID) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

func (a ActorID) String() string { return a.Hex() }

// BytesToActorID copies b into an ActorID, failing if the length is wrong.
func BytesToActorID(b []byte) (ActorID, error) {
	var a ActorID
	if len(b) != len(a) {
		return a, codec.ErrWrongLength
	}
	copy(a[:], b)
	return a, nil
}

// LightClientProgram is the sidechain's Ethereum light client actor: it
// accepts GRANDPA finality proofs and reports the authority set currently
// trusted for verification, and separately tracks the Ethereum beacon
// chain's finalized header through sync updates and, on a sync-committee
// gap, a replay-back batch sequence (spec section 4.1).
type LightClientProgram interface {
	SubmitFinalityProof(ctx context.Context, actor ActorID, encodedProof []byte) error
	CurrentAuthoritySetID(ctx context.Context, actor ActorID) (uint64, error)

	// SubmitSyncUpdate forwards a JSON-encoded pkg/lightclient.SyncUpdate.
	// The program applies it the same way the local lightclient.State
	// mirror does, reporting ReplayBackRequired when the update's
	// finalized header extends past its current tip by more than one
	// sync-committee period.
	SubmitSyncUpdate(ctx context.Context, actor ActorID, encodedUpdate []byte) (SyncUpdateOutcome, error)

	// SubmitReplayBackStart forwards the anchor update plus the first
	// batch of a JSON-encoded []lightclient.Header chain closing a
	// sync-committee-period gap.
	SubmitReplayBackStart(ctx context.Context, actor ActorID, encodedUpdate, encodedHeaders []byte) (ReplayBackOutcome, error)

	// SubmitReplayBackContinue forwards a subsequent batch of the header
	// chain an in-progress replay-back session started by
	// SubmitReplayBackStart is still accumulating.
	SubmitReplayBackContinue(ctx context.Context, actor ActorID, encodedHeaders []byte) (ReplayBackOutcome, error)
}

// SyncUpdateOutcome reports how the light client program handled a
// submitted sync update, mirroring pkg/lightclient.ApplySyncUpdate's
// accept/no-op/replay-back-required trichotomy without this package
// depending on pkg/lightclient directly.
type SyncUpdateOutcome struct {
	NotActual          bool
	ReplayBackRequired bool
	LastProvedSlot     uint64
	CheckpointSlot     uint64
}

// ReplayBackOutcome reports the replay-back sub-state machine's status
// after a submitted batch.
type ReplayBackOutcome struct {
	Finished bool
}

// VftManagerProgram is the sidechain's VFT manager actor: it mints and
// unlocks tokens on delivery of a verified Ethereum-originated transfer.
type VftManagerProgram interface {
	Mint(ctx context.Context, actor ActorID, token ActorID, to ActorID, amount *big.Int) error
	Unlock(ctx context.Context, actor ActorID, token ActorID, to ActorID, amount *big.Int) error
	TransferFrom(ctx context.Context, actor ActorID, token ActorID, owner ActorID, to ActorID, amount *big.Int) error
	Burn(ctx context.Context, actor ActorID, token ActorID, owner ActorID, amount *big.Int) error
}

// BridgeBuiltinProgram is the gear-eth-bridge built-in actor: it accepts
// outbound messages destined for Ethereum and assigns them a nonce that
// becomes their position in the outgoing message queue.
type BridgeBuiltinProgram interface {
	SendMessage(ctx context.Context, actor ActorID, sender ActorID, receiver codec.Address20, payload []byte) (codec.Nonce32, error)
}

// HistoricalProxyProgram is the sidechain's historical-proxy actor: it
// records verified Ethereum-to-sidechain deliveries for replay protection
// and downstream consumption by other sidechain programs.
type HistoricalProxyProgram interface {
	SubmitDelivery(ctx context.Context, actor ActorID, blockNumber uint64, erc20Manager codec.Address20, encodedEvent []byte) error
}

// FinalizedBlock is one sidechain block the node reports as finalized.
// cmd/relayer converts it to pkg/relayer/listener.SidechainBlock, the
// payload SidechainListener republishes to its subscribers.
type FinalizedBlock struct {
	BlockNumber uint64
	BlockHash   [32]byte
}
