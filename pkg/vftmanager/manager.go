package vftmanager

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"
)

// TokenOps is the sidechain-side token program surface Manager drives:
// burn/transfer on outbound, mint/unlock on inbound and on recovery.
type TokenOps interface {
	Burn(token, owner [32]byte, amount *big.Int) error
	TransferFrom(token, owner, to [32]byte, amount *big.Int) error
	Mint(token, to [32]byte, amount *big.Int) error
	Unlock(token, to [32]byte, amount *big.Int) error
}

// BridgeBuiltin is the sidechain's built-in gear-eth-bridge message-queue
// actor, consumed via interface only (its own wire encoding is out of
// scope, per spec.md).
type BridgeBuiltin interface {
	SendMessage(sender [32]byte, receiver [20]byte, payload []byte) (nonce [32]byte, err error)
}

// Manager is the token-manager state machine of spec section 4.3.3.
//
// CONCURRENCY: Manager assumes single-writer access, called only from the
// sidechain runtime's message-handling thread for this program. Callers
// needing concurrent access from multiple goroutines must add their own
// synchronization; Manager itself does not lock, mirroring the
// single-writer assumption the sidechain runtime already provides for any
// one program's handlers.
type Manager struct {
	admin      [32]byte
	pauseAdmin [32]byte
	paused     bool

	erc20Manager    [20]byte
	historicalProxy [20]byte

	feeBridge   *big.Int
	feeIncoming *big.Int

	managerActorID [32]byte
	tokens         map[[32]byte]TokenMapping
	interrupted    map[uuid.UUID]InterruptedTransfer

	tokenOps TokenOps
	bridge   BridgeBuiltin
}

// Config seeds a new Manager.
type Config struct {
	Admin           [32]byte
	PauseAdmin      [32]byte
	ERC20Manager    [20]byte
	HistoricalProxy [20]byte
	FeeBridge       *big.Int
	FeeIncoming     *big.Int
	ManagerActorID  [32]byte
}

// New creates a Manager wired to the given token and bridge-builtin
// backends.
func New(cfg Config, tokenOps TokenOps, bridge BridgeBuiltin) *Manager {
	feeBridge, feeIncoming := cfg.FeeBridge, cfg.FeeIncoming
	if feeBridge == nil {
		feeBridge = big.NewInt(0)
	}
	if feeIncoming == nil {
		feeIncoming = big.NewInt(0)
	}
	return &Manager{
		admin:           cfg.Admin,
		pauseAdmin:      cfg.PauseAdmin,
		erc20Manager:    cfg.ERC20Manager,
		historicalProxy: cfg.HistoricalProxy,
		feeBridge:       feeBridge,
		feeIncoming:     feeIncoming,
		managerActorID:  cfg.ManagerActorID,
		tokens:          make(map[[32]byte]TokenMapping),
		interrupted:     make(map[uuid.UUID]InterruptedTransfer),
		tokenOps:        tokenOps,
		bridge:          bridge,
	}
}

// RequestBridging runs the six-step outbound lifecycle of spec section
// 4.3.3: pause/mapping checks, the burn-or-lock token op, the built-in
// message-queue enqueue, and interrupted-transfer bookkeeping on either
// failure branch.
func (m *Manager) RequestBridging(token [32]byte, amount *big.Int, sender [32]byte, receiver [20]byte) (*RequestResult, error) {
	if m.paused {
		return nil, ErrPaused
	}

	mapping, ok := m.tokens[token]
	if !ok {
		return nil, ErrNoCorrespondingEthAddress
	}

	if amount.Cmp(m.feeBridge) <= 0 {
		return nil, ErrAmountBelowFee
	}
	netAmount := new(big.Int).Sub(amount, m.feeBridge)

	requestID := uuid.New()

	if err := m.lockOutbound(mapping, token, sender, amount); err != nil {
		m.interrupted[requestID] = InterruptedTransfer{
			Status:   StatusSendingMessageToBridgeBuiltin,
			Token:    token,
			Sender:   sender,
			Amount:   amount,
			Receiver: receiver,
		}
		return nil, fmt.Errorf("%w: %v", ErrBurnTokensFailed, err)
	}

	payload := netAmount.FillBytes(make([]byte, 32))
	reverseBytes(payload)
	nonce, err := m.bridge.SendMessage(sender, receiver, payload)
	if err != nil {
		m.interrupted[requestID] = InterruptedTransfer{
			Status:   StatusMintTokensStep,
			Token:    token,
			Sender:   sender,
			Amount:   amount,
			Receiver: receiver,
		}
		return nil, fmt.Errorf("%w: %v", ErrReplyFailure, err)
	}

	return &RequestResult{RequestID: requestID, Nonce: nonce, EthTokenID: mapping.EthAddress}, nil
}

// lockOutbound performs the token op matching the mapping's supply
// dichotomy: burn the wrapped token for Ethereum-supply tokens, or lock
// (transfer to the manager) the canonical token for sidechain-supply
// tokens.
func (m *Manager) lockOutbound(mapping TokenMapping, token, sender [32]byte, amount *big.Int) error {
	if mapping.Supply == EthereumSupply {
		return m.tokenOps.Burn(token, sender, amount)
	}
	return m.tokenOps.TransferFrom(token, sender, m.managerActorID, amount)
}

// HandleInterruptedTransfer recovers a request left in StatusMintTokensStep
// by refunding the sender: mint back a burned wrapped token, or unlock a
// locked canonical one, per the token's supply dichotomy.
func (m *Manager) HandleInterruptedTransfer(requestID uuid.UUID) error {
	pending, ok := m.interrupted[requestID]
	if !ok {
		return ErrInterruptedTransferNotFound
	}
	if pending.Status != StatusMintTokensStep {
		return ErrNotRecoverable
	}

	mapping, ok := m.tokens[pending.Token]
	if !ok {
		return ErrNoCorrespondingEthAddress
	}

	var err error
	if mapping.Supply == EthereumSupply {
		err = m.tokenOps.Mint(pending.Token, pending.Sender, pending.Amount)
	} else {
		err = m.tokenOps.Unlock(pending.Token, pending.Sender, pending.Amount)
	}
	if err != nil {
		return fmt.Errorf("vftmanager: refund interrupted transfer: %w", err)
	}

	delete(m.interrupted, requestID)
	return nil
}

// DeliverInbound applies an inbound transfer verified by
// pkg/receiptproof: mint the wrapped token for Ethereum-supply tokens, or
// unlock the canonical one for sidechain-supply tokens, charging
// FeeIncoming from the delivered amount.
func (m *Manager) DeliverInbound(token [32]byte, receiver [32]byte, amount *big.Int) error {
	mapping, ok := m.tokens[token]
	if !ok {
		return ErrNoCorrespondingEthAddress
	}
	if amount.Cmp(m.feeIncoming) <= 0 {
		return ErrAmountBelowFee
	}
	netAmount := new(big.Int).Sub(amount, m.feeIncoming)

	if mapping.Supply == EthereumSupply {
		return m.tokenOps.Mint(token, receiver, netAmount)
	}
	return m.tokenOps.Unlock(token, receiver, netAmount)
}

// InterruptedTransfer returns the recorded recovery state for requestID,
// if any.
func (m *Manager) InterruptedTransfer(requestID uuid.UUID) (InterruptedTransfer, bool) {
	t, ok := m.interrupted[requestID]
	return t, ok
}

// Paused reports whether bridging is currently paused.
func (m *Manager) Paused() bool { return m.paused }

// reverseBytes flips b in place, turning big.Int.FillBytes' big-endian
// output into the amount_le_bytes little-endian encoding the outbound
// bridge message wire format uses (spec section 4.3.3 step 4).
func reverseBytes(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
