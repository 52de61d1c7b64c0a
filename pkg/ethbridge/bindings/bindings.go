// Package bindings implements pkg/ethbridge/contracts' interfaces
// generically on top of ethbridge.Client's ABI-driven
// CallContract/SendContractTransaction, the same way the teacher's own
// CallContract/SendContractTransaction were written to be method-agnostic
// given any ABI JSON. The concrete contract ABI is supplied at
// construction (read from the ABI file each contract entry of the
// relayer's contracts config file names), not hardcoded,
// since the bridge's Ethereum contracts are external collaborators named
// by interface only.
package bindings

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gear-tech/gear-bridges-sub000/pkg/ethbridge"
	"github.com/gear-tech/gear-bridges-sub000/pkg/ethbridge/contracts"
)

// Config names the deployed contract's address, ABI, and the gas/signing
// parameters needed for state-changing calls.
type Config struct {
	Address       common.Address
	ABIJSON       string
	PrivateKeyHex string
	GasLimit      uint64
	MaxRetries    int
}

// Relayer is a generic IRelayer implementation.
type Relayer struct {
	client *ethbridge.Client
	cfg    Config
}

var _ contracts.IRelayer = (*Relayer)(nil)

func NewRelayer(client *ethbridge.Client, cfg Config) *Relayer {
	return &Relayer{client: client, cfg: cfg}
}

func (r *Relayer) SubmitMerkleRoot(ctx context.Context, blockNumber uint64, root [32]byte, proof []byte) (common.Hash, error) {
	res, err := r.client.SendContractTransactionWithRetry(ctx, r.cfg.Address, r.cfg.ABIJSON, r.cfg.PrivateKeyHex,
		"submitMerkleRoot", r.cfg.GasLimit, r.cfg.MaxRetries, blockNumber, root, proof)
	if err != nil {
		return common.Hash{}, fmt.Errorf("bindings: submitMerkleRoot: %w", err)
	}
	return res.TransactionHash, nil
}

func (r *Relayer) GetMerkleRoot(ctx context.Context, blockNumber uint64) ([32]byte, error) {
	outputs, err := r.client.CallContract(ctx, r.cfg.Address, r.cfg.ABIJSON, "getMerkleRoot", new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return [32]byte{}, fmt.Errorf("bindings: getMerkleRoot: %w", err)
	}
	return firstBytes32(outputs)
}

// MessageQueue is a generic IMessageQueue implementation.
type MessageQueue struct {
	client *ethbridge.Client
	cfg    Config
}

var _ contracts.IMessageQueue = (*MessageQueue)(nil)

func NewMessageQueue(client *ethbridge.Client, cfg Config) *MessageQueue {
	return &MessageQueue{client: client, cfg: cfg}
}

func (m *MessageQueue) ProcessMessage(ctx context.Context, blockNumber, totalLeaves, leafIndex uint64, msg contracts.VaraMessage, proof [][32]byte) (common.Hash, error) {
	res, err := m.client.SendContractTransactionWithRetry(ctx, m.cfg.Address, m.cfg.ABIJSON, m.cfg.PrivateKeyHex,
		"processMessage", m.cfg.GasLimit, m.cfg.MaxRetries, blockNumber, totalLeaves, leafIndex, msg, proof)
	if err != nil {
		return common.Hash{}, fmt.Errorf("bindings: processMessage: %w", err)
	}
	return res.TransactionHash, nil
}

func (m *MessageQueue) IsProcessed(ctx context.Context, msg contracts.VaraMessage) (bool, error) {
	outputs, err := m.client.CallContract(ctx, m.cfg.Address, m.cfg.ABIJSON, "isProcessed", msg.Nonce)
	if err != nil {
		return false, fmt.Errorf("bindings: isProcessed: %w", err)
	}
	if len(outputs) == 0 {
		return false, fmt.Errorf("bindings: isProcessed: empty result")
	}
	processed, ok := outputs[0].(bool)
	if !ok {
		return false, fmt.Errorf("bindings: isProcessed: unexpected result type %T", outputs[0])
	}
	return processed, nil
}

// ERC20Manager is a generic IERC20Manager implementation.
type ERC20Manager struct {
	client *ethbridge.Client
	cfg    Config
}

var _ contracts.IERC20Manager = (*ERC20Manager)(nil)

func NewERC20Manager(client *ethbridge.Client, cfg Config) *ERC20Manager {
	return &ERC20Manager{client: client, cfg: cfg}
}

func (e *ERC20Manager) Mint(ctx context.Context, token, to common.Address, amount *big.Int) (common.Hash, error) {
	res, err := e.client.SendContractTransactionWithRetry(ctx, e.cfg.Address, e.cfg.ABIJSON, e.cfg.PrivateKeyHex,
		"mint", e.cfg.GasLimit, e.cfg.MaxRetries, token, to, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("bindings: mint: %w", err)
	}
	return res.TransactionHash, nil
}

func (e *ERC20Manager) Unlock(ctx context.Context, token, to common.Address, amount *big.Int) (common.Hash, error) {
	res, err := e.client.SendContractTransactionWithRetry(ctx, e.cfg.Address, e.cfg.ABIJSON, e.cfg.PrivateKeyHex,
		"unlock", e.cfg.GasLimit, e.cfg.MaxRetries, token, to, amount)
	if err != nil {
		return common.Hash{}, fmt.Errorf("bindings: unlock: %w", err)
	}
	return res.TransactionHash, nil
}

// BridgingPayment is a generic BridgingPayment implementation.
type BridgingPayment struct {
	client *ethbridge.Client
	cfg    Config
}

var _ contracts.BridgingPayment = (*BridgingPayment)(nil)

func NewBridgingPayment(client *ethbridge.Client, cfg Config) *BridgingPayment {
	return &BridgingPayment{client: client, cfg: cfg}
}

func (b *BridgingPayment) FeeFor(ctx context.Context, token common.Address) (*big.Int, error) {
	outputs, err := b.client.CallContract(ctx, b.cfg.Address, b.cfg.ABIJSON, "feeFor", token)
	if err != nil {
		return nil, fmt.Errorf("bindings: feeFor: %w", err)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("bindings: feeFor: empty result")
	}
	fee, ok := outputs[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("bindings: feeFor: unexpected result type %T", outputs[0])
	}
	return fee, nil
}

func firstBytes32(outputs []interface{}) ([32]byte, error) {
	if len(outputs) == 0 {
		return [32]byte{}, fmt.Errorf("bindings: empty result")
	}
	root, ok := outputs[0].([32]byte)
	if !ok {
		return [32]byte{}, fmt.Errorf("bindings: unexpected result type %T", outputs[0])
	}
	return root, nil
}
