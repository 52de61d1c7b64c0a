package vftmanager

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeTokenOps struct {
	burnErr, transferErr, mintErr, unlockErr error
	burned, minted, unlocked, transferred    *big.Int
}

func (f *fakeTokenOps) Burn(token, owner [32]byte, amount *big.Int) error {
	if f.burnErr != nil {
		return f.burnErr
	}
	f.burned = amount
	return nil
}

func (f *fakeTokenOps) TransferFrom(token, owner, to [32]byte, amount *big.Int) error {
	if f.transferErr != nil {
		return f.transferErr
	}
	f.transferred = amount
	return nil
}

func (f *fakeTokenOps) Mint(token, to [32]byte, amount *big.Int) error {
	if f.mintErr != nil {
		return f.mintErr
	}
	f.minted = amount
	return nil
}

func (f *fakeTokenOps) Unlock(token, to [32]byte, amount *big.Int) error {
	if f.unlockErr != nil {
		return f.unlockErr
	}
	f.unlocked = amount
	return nil
}

type fakeBridge struct {
	sendErr error
	nonce   [32]byte
	calls   int
	payload []byte
}

func (f *fakeBridge) SendMessage(sender [32]byte, receiver [20]byte, payload []byte) ([32]byte, error) {
	f.calls++
	f.payload = payload
	if f.sendErr != nil {
		return [32]byte{}, f.sendErr
	}
	return f.nonce, nil
}

var testToken = [32]byte{0xaa}

func newTestManager(tokenOps TokenOps, bridge BridgeBuiltin, supply Supply) *Manager {
	m := New(Config{}, tokenOps, bridge)
	m.tokens[testToken] = TokenMapping{Supply: supply, EthAddress: [20]byte{0x01}}
	return m
}

func TestRequestBridgingHappyPathEthereumSupply(t *testing.T) {
	ops := &fakeTokenOps{}
	bridge := &fakeBridge{nonce: [32]byte{0x09}}
	m := newTestManager(ops, bridge, EthereumSupply)

	result, err := m.RequestBridging(testToken, big.NewInt(100), [32]byte{0x11}, [20]byte{0x22})
	require.NoError(t, err)
	require.Equal(t, [32]byte{0x09}, result.Nonce)
	require.Equal(t, big.NewInt(100), ops.burned)
	require.Nil(t, ops.transferred)
	require.Equal(t, 1, bridge.calls)
	_, recorded := m.InterruptedTransfer(result.RequestID)
	require.False(t, recorded)
}

func TestRequestBridgingHappyPathSidechainSupply(t *testing.T) {
	ops := &fakeTokenOps{}
	bridge := &fakeBridge{nonce: [32]byte{0x09}}
	m := newTestManager(ops, bridge, SidechainSupply)

	_, err := m.RequestBridging(testToken, big.NewInt(100), [32]byte{0x11}, [20]byte{0x22})
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), ops.transferred)
	require.Nil(t, ops.burned)
}

func TestRequestBridgingEncodesAmountLittleEndian(t *testing.T) {
	ops := &fakeTokenOps{}
	bridge := &fakeBridge{nonce: [32]byte{0x09}}
	m := newTestManager(ops, bridge, EthereumSupply)

	// 1e10 = 0x2540BE400, scenario C's example amount.
	amount := big.NewInt(10000000000)
	_, err := m.RequestBridging(testToken, amount, [32]byte{0x11}, [20]byte{0x22})
	require.NoError(t, err)

	want := make([]byte, 32)
	amount.FillBytes(want)
	for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
		want[i], want[j] = want[j], want[i]
	}
	require.Equal(t, want, bridge.payload)
	// 1e10 = 0x02_54_0b_e4_00, so the least-significant byte (0x00) comes
	// first in little-endian order, followed by 0xe4, 0x0b, 0x54, 0x02.
	require.Equal(t, byte(0x00), bridge.payload[0])
	require.Equal(t, byte(0xe4), bridge.payload[1])
	require.Equal(t, byte(0x0b), bridge.payload[2])
	require.Equal(t, byte(0x54), bridge.payload[3])
	require.Equal(t, byte(0x02), bridge.payload[4])
	require.Equal(t, byte(0x00), bridge.payload[5])
}

func TestRequestBridgingRejectsWhenPaused(t *testing.T) {
	m := newTestManager(&fakeTokenOps{}, &fakeBridge{}, EthereumSupply)
	m.paused = true
	_, err := m.RequestBridging(testToken, big.NewInt(100), [32]byte{0x11}, [20]byte{0x22})
	require.ErrorIs(t, err, ErrPaused)
}

func TestRequestBridgingRejectsUnmappedToken(t *testing.T) {
	m := New(Config{}, &fakeTokenOps{}, &fakeBridge{})
	_, err := m.RequestBridging([32]byte{0xff}, big.NewInt(100), [32]byte{0x11}, [20]byte{0x22})
	require.ErrorIs(t, err, ErrNoCorrespondingEthAddress)
}

func TestRequestBridgingRecordsInterruptedOnTokenOpFailure(t *testing.T) {
	ops := &fakeTokenOps{burnErr: errors.New("burn failed")}
	bridge := &fakeBridge{}
	m := newTestManager(ops, bridge, EthereumSupply)

	_, err := m.RequestBridging(testToken, big.NewInt(100), [32]byte{0x11}, [20]byte{0x22})
	require.ErrorIs(t, err, ErrBurnTokensFailed)
	require.Equal(t, 0, bridge.calls)

	var found InterruptedTransfer
	var foundAny bool
	for _, v := range m.interrupted {
		found = v
		foundAny = true
	}
	require.True(t, foundAny)
	require.Equal(t, StatusSendingMessageToBridgeBuiltin, found.Status)
}

func TestRequestBridgingRecordsInterruptedOnBridgeSendFailure(t *testing.T) {
	ops := &fakeTokenOps{}
	bridge := &fakeBridge{sendErr: errors.New("queue full")}
	m := newTestManager(ops, bridge, EthereumSupply)

	_, err := m.RequestBridging(testToken, big.NewInt(100), [32]byte{0x11}, [20]byte{0x22})
	require.ErrorIs(t, err, ErrReplyFailure)
	require.Equal(t, big.NewInt(100), ops.burned)

	var requestID [16]byte
	for id := range m.interrupted {
		requestID = id
	}
	pending, ok := m.InterruptedTransfer(requestID)
	require.True(t, ok)
	require.Equal(t, StatusMintTokensStep, pending.Status)
}

func TestHandleInterruptedTransferRefundsEthereumSupplyByMinting(t *testing.T) {
	ops := &fakeTokenOps{}
	bridge := &fakeBridge{sendErr: errors.New("queue full")}
	m := newTestManager(ops, bridge, EthereumSupply)

	_, err := m.RequestBridging(testToken, big.NewInt(100), [32]byte{0x11}, [20]byte{0x22})
	require.ErrorIs(t, err, ErrReplyFailure)

	var requestID [16]byte
	for id := range m.interrupted {
		requestID = id
	}

	require.NoError(t, m.HandleInterruptedTransfer(requestID))
	require.Equal(t, big.NewInt(100), ops.minted)
	_, ok := m.InterruptedTransfer(requestID)
	require.False(t, ok)
}

func TestHandleInterruptedTransferRefundsSidechainSupplyByUnlocking(t *testing.T) {
	ops := &fakeTokenOps{}
	bridge := &fakeBridge{sendErr: errors.New("queue full")}
	m := newTestManager(ops, bridge, SidechainSupply)

	_, err := m.RequestBridging(testToken, big.NewInt(100), [32]byte{0x11}, [20]byte{0x22})
	require.ErrorIs(t, err, ErrReplyFailure)

	var requestID [16]byte
	for id := range m.interrupted {
		requestID = id
	}

	require.NoError(t, m.HandleInterruptedTransfer(requestID))
	require.Equal(t, big.NewInt(100), ops.unlocked)
}

func TestHandleInterruptedTransferRejectsUnrecoverableStatus(t *testing.T) {
	ops := &fakeTokenOps{burnErr: errors.New("burn failed")}
	bridge := &fakeBridge{}
	m := newTestManager(ops, bridge, EthereumSupply)

	_, err := m.RequestBridging(testToken, big.NewInt(100), [32]byte{0x11}, [20]byte{0x22})
	require.ErrorIs(t, err, ErrBurnTokensFailed)

	var requestID [16]byte
	for id := range m.interrupted {
		requestID = id
	}

	err = m.HandleInterruptedTransfer(requestID)
	require.ErrorIs(t, err, ErrNotRecoverable)
}

func TestHandleInterruptedTransferRejectsUnknownID(t *testing.T) {
	m := newTestManager(&fakeTokenOps{}, &fakeBridge{}, EthereumSupply)
	err := m.HandleInterruptedTransfer([16]byte{0x01})
	require.ErrorIs(t, err, ErrInterruptedTransferNotFound)
}

func TestDeliverInboundMintsForEthereumSupply(t *testing.T) {
	ops := &fakeTokenOps{}
	m := newTestManager(ops, &fakeBridge{}, EthereumSupply)
	err := m.DeliverInbound(testToken, [32]byte{0x44}, big.NewInt(50))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(50), ops.minted)
}

func TestDeliverInboundUnlocksForSidechainSupply(t *testing.T) {
	ops := &fakeTokenOps{}
	m := newTestManager(ops, &fakeBridge{}, SidechainSupply)
	err := m.DeliverInbound(testToken, [32]byte{0x44}, big.NewInt(50))
	require.NoError(t, err)
	require.Equal(t, big.NewInt(50), ops.unlocked)
}

func TestDeliverInboundRejectsAmountBelowFee(t *testing.T) {
	ops := &fakeTokenOps{}
	m := New(Config{FeeIncoming: big.NewInt(10)}, ops, &fakeBridge{})
	m.tokens[testToken] = TokenMapping{Supply: EthereumSupply, EthAddress: [20]byte{0x01}}
	err := m.DeliverInbound(testToken, [32]byte{0x44}, big.NewInt(5))
	require.ErrorIs(t, err, ErrAmountBelowFee)
}
