package ethbridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gear-tech/gear-bridges-sub000/pkg/ethbridge/contracts"
)

const messageQueueABI = `[
  {"name":"processMessage","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"blockNumber","type":"uint256"},{"name":"totalLeaves","type":"uint256"},
             {"name":"leafIndex","type":"uint256"},
             {"name":"message","type":"tuple","components":[
                {"name":"nonce","type":"bytes32"},{"name":"sender","type":"bytes32"},
                {"name":"receiver","type":"address"},{"name":"data","type":"bytes"}]},
             {"name":"proof","type":"bytes32[]"}],
   "outputs":[]},
  {"name":"isProcessed","type":"function","stateMutability":"view",
   "inputs":[{"name":"message","type":"tuple","components":[
                {"name":"nonce","type":"bytes32"},{"name":"sender","type":"bytes32"},
                {"name":"receiver","type":"address"},{"name":"data","type":"bytes"}]}],
   "outputs":[{"name":"","type":"bool"}]}
]`

const relayerABI = `[
  {"name":"submitMerkleRoot","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"blockNumber","type":"uint256"},{"name":"root","type":"bytes32"},
             {"name":"proof","type":"bytes"}],"outputs":[]},
  {"name":"getMerkleRoot","type":"function","stateMutability":"view",
   "inputs":[{"name":"blockNumber","type":"uint256"}],
   "outputs":[{"name":"","type":"bytes32"}]}
]`

const erc20ManagerABI = `[
  {"name":"mint","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"token","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[]},
  {"name":"unlock","type":"function","stateMutability":"nonpayable",
   "inputs":[{"name":"token","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
   "outputs":[]}
]`

// MessageQueueBinding implements contracts.IMessageQueue against a
// deployed MessageQueue contract, reusing Client's generic ABI pack/call
// helpers rather than a generated abigen binding.
type MessageQueueBinding struct {
	Client       *Client
	Address      common.Address
	SubmitterKey string
	GasLimit     uint64
}

func (b *MessageQueueBinding) ProcessMessage(ctx context.Context, blockNumber, totalLeaves, leafIndex uint64, msg contracts.VaraMessage, proof [][32]byte) (common.Hash, error) {
	result, err := b.Client.SendContractTransaction(ctx, b.Address, messageQueueABI, b.SubmitterKey, "processMessage", b.GasLimit,
		new(big.Int).SetUint64(blockNumber), new(big.Int).SetUint64(totalLeaves), new(big.Int).SetUint64(leafIndex), msg, proof)
	if err != nil {
		return common.Hash{}, err
	}
	return result.TransactionHash, nil
}

func (b *MessageQueueBinding) IsProcessed(ctx context.Context, msg contracts.VaraMessage) (bool, error) {
	outputs, err := b.Client.CallContract(ctx, b.Address, messageQueueABI, "isProcessed", msg)
	if err != nil {
		return false, err
	}
	processed, ok := outputs[0].(bool)
	if !ok {
		return false, fmt.Errorf("ethbridge: isProcessed returned unexpected type %T", outputs[0])
	}
	return processed, nil
}

// RelayerBinding implements contracts.IRelayer.
type RelayerBinding struct {
	Client       *Client
	Address      common.Address
	SubmitterKey string
	GasLimit     uint64
}

func (b *RelayerBinding) SubmitMerkleRoot(ctx context.Context, blockNumber uint64, root [32]byte, proof []byte) (common.Hash, error) {
	result, err := b.Client.SendContractTransaction(ctx, b.Address, relayerABI, b.SubmitterKey, "submitMerkleRoot", b.GasLimit,
		new(big.Int).SetUint64(blockNumber), root, proof)
	if err != nil {
		return common.Hash{}, err
	}
	return result.TransactionHash, nil
}

func (b *RelayerBinding) GetMerkleRoot(ctx context.Context, blockNumber uint64) ([32]byte, error) {
	outputs, err := b.Client.CallContract(ctx, b.Address, relayerABI, "getMerkleRoot", new(big.Int).SetUint64(blockNumber))
	if err != nil {
		return [32]byte{}, err
	}
	root, ok := outputs[0].([32]byte)
	if !ok {
		return [32]byte{}, fmt.Errorf("ethbridge: getMerkleRoot returned unexpected type %T", outputs[0])
	}
	return root, nil
}

// ERC20ManagerBinding implements contracts.IERC20Manager.
type ERC20ManagerBinding struct {
	Client       *Client
	Address      common.Address
	SubmitterKey string
	GasLimit     uint64
}

func (b *ERC20ManagerBinding) Mint(ctx context.Context, token, to common.Address, amount *big.Int) (common.Hash, error) {
	result, err := b.Client.SendContractTransaction(ctx, b.Address, erc20ManagerABI, b.SubmitterKey, "mint", b.GasLimit, token, to, amount)
	if err != nil {
		return common.Hash{}, err
	}
	return result.TransactionHash, nil
}

func (b *ERC20ManagerBinding) Unlock(ctx context.Context, token, to common.Address, amount *big.Int) (common.Hash, error) {
	result, err := b.Client.SendContractTransaction(ctx, b.Address, erc20ManagerABI, b.SubmitterKey, "unlock", b.GasLimit, token, to, amount)
	if err != nil {
		return common.Hash{}, err
	}
	return result.TransactionHash, nil
}
