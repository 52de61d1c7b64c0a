// Package rpcclient implements pkg/sidechain's program interfaces over a
// generic JSON-RPC 2.0 connection to a sidechain node, reusing
// go-ethereum's transport-agnostic rpc.Client rather than anything
// Ethereum-specific (the sidechain's own wire encoding for call arguments
// and results is out of scope; this client assumes a node exposing one
// JSON-RPC method per program entry point, each taking hex-encoded
// SCALE-ish byte arguments and returning a hex-encoded byte result).
package rpcclient

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/sidechain"
)

// Client is a JSON-RPC-backed implementation of every pkg/sidechain
// program interface, multiplexed over a single connection.
type Client struct {
	rpc    *gethrpc.Client
	logger *log.Logger
}

var (
	_ sidechain.LightClientProgram     = (*Client)(nil)
	_ sidechain.VftManagerProgram      = (*Client)(nil)
	_ sidechain.BridgeBuiltinProgram   = (*Client)(nil)
	_ sidechain.HistoricalProxyProgram = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithLogger overrides the default logger used to report background
// subscription errors.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Dial connects to the sidechain node's JSON-RPC endpoint (ws:// or
// http://).
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	rpc, err := gethrpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("rpcclient: dial %s: %w", url, err)
	}
	c := &Client{rpc: rpc, logger: log.New(os.Stderr, "[SidechainRPC] ", log.LstdFlags)}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Close() { c.rpc.Close() }

func (c *Client) SubmitFinalityProof(ctx context.Context, actor sidechain.ActorID, encodedProof []byte) error {
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.rpc.CallContext(ctx, &result, "sidechain_submitFinalityProof", actor.Hex(), hexBytes(encodedProof)); err != nil {
		return fmt.Errorf("rpcclient: submitFinalityProof: %w", err)
	}
	if !result.Success {
		return fmt.Errorf("rpcclient: submitFinalityProof rejected: %s", result.Error)
	}
	return nil
}

func (c *Client) CurrentAuthoritySetID(ctx context.Context, actor sidechain.ActorID) (uint64, error) {
	var result uint64
	if err := c.rpc.CallContext(ctx, &result, "sidechain_currentAuthoritySetId", actor.Hex()); err != nil {
		return 0, fmt.Errorf("rpcclient: currentAuthoritySetId: %w", err)
	}
	return result, nil
}

func (c *Client) Mint(ctx context.Context, actor, token, to sidechain.ActorID, amount *big.Int) error {
	return c.callVoid(ctx, "vft_mint", actor.Hex(), token.Hex(), to.Hex(), amount.String())
}

func (c *Client) Unlock(ctx context.Context, actor, token, to sidechain.ActorID, amount *big.Int) error {
	return c.callVoid(ctx, "vft_unlock", actor.Hex(), token.Hex(), to.Hex(), amount.String())
}

func (c *Client) TransferFrom(ctx context.Context, actor, token, owner, to sidechain.ActorID, amount *big.Int) error {
	return c.callVoid(ctx, "vft_transferFrom", actor.Hex(), token.Hex(), owner.Hex(), to.Hex(), amount.String())
}

func (c *Client) Burn(ctx context.Context, actor, token, owner sidechain.ActorID, amount *big.Int) error {
	return c.callVoid(ctx, "vft_burn", actor.Hex(), token.Hex(), owner.Hex(), amount.String())
}

func (c *Client) SendMessage(ctx context.Context, actor, sender sidechain.ActorID, receiver codec.Address20, payload []byte) (codec.Nonce32, error) {
	var result struct {
		Nonce string `json:"nonce"`
	}
	if err := c.rpc.CallContext(ctx, &result, "bridge_sendMessage", actor.Hex(), sender.Hex(), receiver.Hex(), hexBytes(payload)); err != nil {
		return codec.Nonce32{}, fmt.Errorf("rpcclient: sendMessage: %w", err)
	}
	nonce, err := codec.HexToHash32(result.Nonce)
	if err != nil {
		return codec.Nonce32{}, fmt.Errorf("rpcclient: sendMessage: decode nonce: %w", err)
	}
	return codec.Nonce32(nonce), nil
}

func (c *Client) SubmitDelivery(ctx context.Context, actor sidechain.ActorID, blockNumber uint64, erc20Manager codec.Address20, encodedEvent []byte) error {
	return c.callVoid(ctx, "historicalProxy_submitDelivery", actor.Hex(), blockNumber, erc20Manager.Hex(), hexBytes(encodedEvent))
}

func (c *Client) SubmitSyncUpdate(ctx context.Context, actor sidechain.ActorID, encodedUpdate []byte) (sidechain.SyncUpdateOutcome, error) {
	var result struct {
		Success            bool   `json:"success"`
		Error              string `json:"error"`
		NotActual          bool   `json:"notActual"`
		ReplayBackRequired bool   `json:"replayBackRequired"`
		LastProvedSlot     uint64 `json:"lastProvedSlot"`
		CheckpointSlot     uint64 `json:"checkpointSlot"`
	}
	if err := c.rpc.CallContext(ctx, &result, "lightclient_submitSyncUpdate", actor.Hex(), hexBytes(encodedUpdate)); err != nil {
		return sidechain.SyncUpdateOutcome{}, fmt.Errorf("rpcclient: submitSyncUpdate: %w", err)
	}
	if !result.Success && !result.ReplayBackRequired {
		return sidechain.SyncUpdateOutcome{}, fmt.Errorf("rpcclient: submitSyncUpdate rejected: %s", result.Error)
	}
	return sidechain.SyncUpdateOutcome{
		NotActual:          result.NotActual,
		ReplayBackRequired: result.ReplayBackRequired,
		LastProvedSlot:     result.LastProvedSlot,
		CheckpointSlot:     result.CheckpointSlot,
	}, nil
}

func (c *Client) SubmitReplayBackStart(ctx context.Context, actor sidechain.ActorID, encodedUpdate, encodedHeaders []byte) (sidechain.ReplayBackOutcome, error) {
	var result struct {
		Success  bool   `json:"success"`
		Error    string `json:"error"`
		Finished bool   `json:"finished"`
	}
	if err := c.rpc.CallContext(ctx, &result, "lightclient_submitReplayBackStart", actor.Hex(), hexBytes(encodedUpdate), hexBytes(encodedHeaders)); err != nil {
		return sidechain.ReplayBackOutcome{}, fmt.Errorf("rpcclient: submitReplayBackStart: %w", err)
	}
	if !result.Success {
		return sidechain.ReplayBackOutcome{}, fmt.Errorf("rpcclient: submitReplayBackStart rejected: %s", result.Error)
	}
	return sidechain.ReplayBackOutcome{Finished: result.Finished}, nil
}

func (c *Client) SubmitReplayBackContinue(ctx context.Context, actor sidechain.ActorID, encodedHeaders []byte) (sidechain.ReplayBackOutcome, error) {
	var result struct {
		Success  bool   `json:"success"`
		Error    string `json:"error"`
		Finished bool   `json:"finished"`
	}
	if err := c.rpc.CallContext(ctx, &result, "lightclient_submitReplayBackContinue", actor.Hex(), hexBytes(encodedHeaders)); err != nil {
		return sidechain.ReplayBackOutcome{}, fmt.Errorf("rpcclient: submitReplayBackContinue: %w", err)
	}
	if !result.Success {
		return sidechain.ReplayBackOutcome{}, fmt.Errorf("rpcclient: submitReplayBackContinue rejected: %s", result.Error)
	}
	return sidechain.ReplayBackOutcome{Finished: result.Finished}, nil
}

// SubscribeFinalized opens a JSON-RPC pub-sub subscription to the
// sidechain node's finalized-block notifications over the same
// gethrpc.Client transport used for ordinary request/response calls.
// cmd/relayer adapts its sidechain.FinalizedBlock channel to
// pkg/relayer/listener.SidechainFinalitySource.
func (c *Client) SubscribeFinalized(ctx context.Context) (<-chan sidechain.FinalizedBlock, error) {
	notifications := make(chan finalizedBlockNotification, 16)
	sub, err := c.rpc.Subscribe(ctx, "sidechain", notifications, "finalized")
	if err != nil {
		return nil, fmt.Errorf("rpcclient: subscribeFinalized: %w", err)
	}

	out := make(chan sidechain.FinalizedBlock, 16)
	go func() {
		defer close(out)
		defer sub.Unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case err := <-sub.Err():
				if err != nil {
					c.logger.Printf("finalized-block subscription ended: %v", err)
				}
				return
			case n := <-notifications:
				out <- sidechain.FinalizedBlock{BlockNumber: n.BlockNumber, BlockHash: n.BlockHash}
			}
		}
	}()
	return out, nil
}

type finalizedBlockNotification struct {
	BlockNumber uint64   `json:"blockNumber"`
	BlockHash   [32]byte `json:"blockHash"`
}

func (c *Client) callVoid(ctx context.Context, method string, args ...interface{}) error {
	var result struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := c.rpc.CallContext(ctx, &result, method, args...); err != nil {
		return fmt.Errorf("rpcclient: %s: %w", method, err)
	}
	if !result.Success {
		return fmt.Errorf("rpcclient: %s rejected: %s", method, result.Error)
	}
	return nil
}

func hexBytes(b []byte) string {
	return "0x" + fmt.Sprintf("%x", b)
}
