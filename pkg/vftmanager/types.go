// Package vftmanager implements the sidechain-side token manager state
// machine: request_bridging, inbound delivery, and interrupted-transfer
// recovery for both token-supply dichotomies (spec section 4.3.3). The
// admin and pause-admin identities are stored, but no governance operation
// (pause, unpause, token mapping, address or admin changes, upgrade) is
// exposed.
package vftmanager

import (
	"math/big"

	"github.com/google/uuid"
)

// Supply identifies which chain holds a token's canonical supply.
type Supply uint8

const (
	// EthereumSupply tokens are canonical on Ethereum and wrapped on the
	// sidechain: outbound is burn-on-sidechain/unlock-on-Ethereum, inbound
	// is lock-on-Ethereum/mint-on-sidechain.
	EthereumSupply Supply = iota
	// SidechainSupply tokens are canonical on the sidechain and wrapped on
	// Ethereum: outbound is lock-on-sidechain/mint-on-Ethereum, inbound is
	// burn-on-Ethereum/unlock-on-sidechain.
	SidechainSupply
)

// TokenMapping pairs a sidechain-side token actor id with its Ethereum
// counterpart address and supply dichotomy.
type TokenMapping struct {
	Supply       Supply
	EthAddress   [20]byte
}

// TransferStatus is the recovery state of an interrupted outbound
// transfer, recorded when either the token op or the built-in
// message-queue call that follows it fails.
type TransferStatus uint8

const (
	StatusNone TransferStatus = iota
	// SendingMessageToBridgeBuiltin is recorded when the token op itself
	// failed, before any message was ever sent; spec section 4.3.3 step 3
	// names this status for that branch even though no message send was
	// attempted, matching the original implementation's state naming.
	StatusSendingMessageToBridgeBuiltin
	// StatusMintTokensStep is recorded when the token op succeeded but the
	// built-in message-queue call failed; HandleInterruptedTransfer refunds
	// the sender from this state.
	StatusMintTokensStep
)

// InterruptedTransfer is a recoverable in-flight request_bridging call,
// keyed by a locally generated request id (the sidechain runtime's own
// async correlation id for the built-in actor call, stood in for here
// since the built-in actor's own id scheme is out of scope per spec.md).
type InterruptedTransfer struct {
	Status   TransferStatus
	Token    [32]byte
	Sender   [32]byte
	Amount   *big.Int
	Receiver [20]byte
}

// RequestResult is returned by a fully successful RequestBridging call.
type RequestResult struct {
	RequestID  uuid.UUID
	Nonce      [32]byte
	EthTokenID [20]byte
}
