// Package contracts declares the Ethereum contract surfaces the relayer
// drives, per spec section 6.
package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// VaraMessage is a single outbound sidechain-to-Ethereum message, matching
// IMessageQueue.processMessage's VaraMessage struct argument.
type VaraMessage struct {
	Nonce    [32]byte
	Sender   [32]byte
	Receiver common.Address
	Data     []byte
}

// IMessageQueue is the deployed message-queue contract: it verifies a
// Merkle inclusion proof against a previously relayed root and delivers
// the message payload to its receiver exactly once.
type IMessageQueue interface {
	ProcessMessage(ctx context.Context, blockNumber, totalLeaves, leafIndex uint64, msg VaraMessage, proof [][32]byte) (common.Hash, error)
	IsProcessed(ctx context.Context, msg VaraMessage) (bool, error)
}

// IRelayer is the deployed Merkle-root relay contract.
type IRelayer interface {
	SubmitMerkleRoot(ctx context.Context, blockNumber uint64, root [32]byte, proof []byte) (common.Hash, error)
	GetMerkleRoot(ctx context.Context, blockNumber uint64) ([32]byte, error)
}

// IERC20Manager is the deployed wrapped-token manager contract: mints or
// unlocks tokens on inbound delivery, per spec section 4.3.3's
// Ethereum-supply and sidechain-supply dichotomy.
type IERC20Manager interface {
	Mint(ctx context.Context, token, to common.Address, amount *big.Int) (common.Hash, error)
	Unlock(ctx context.Context, token, to common.Address, amount *big.Int) (common.Hash, error)
}

// BridgingPayment is the optional fee-collection sidecar contract that
// charges a flat fee per bridging request on top of IMessageQueue.
type BridgingPayment interface {
	FeeFor(ctx context.Context, token common.Address) (*big.Int, error)
}
