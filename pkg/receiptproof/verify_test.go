package receiptproof

import (
	"crypto/sha256"
	"testing"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	gethrlp "github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"

	"github.com/gear-tech/gear-bridges-sub000/pkg/checkpoint"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

var testERC20Manager = codec.Address20{0xaa, 0xbb, 0xcc}

func buildReceiptRLP(t *testing.T, erc20Manager codec.Address20, from, token codec.Address20, to codec.Hash32, amount []byte) []byte {
	t.Helper()
	log := &types.Log{
		Address: gethcommon.Address(erc20Manager),
		Topics: []gethcommon.Hash{
			bridgingRequestedSignature,
			gethcommon.BytesToHash(from[:]),
			gethcommon.Hash(to),
			gethcommon.BytesToHash(token[:]),
		},
		Data: amount,
	}
	receipt := &types.Receipt{
		Status: types.ReceiptStatusSuccessful,
		Logs:   []*types.Log{log},
	}
	raw, err := gethrlp.EncodeToBytes(receipt)
	require.NoError(t, err)
	return raw
}

// hexPrefix is the Ethereum hex-prefix (HP) encoding for a Merkle-Patricia
// leaf node's key, duplicated from pkg/codec's own test fixture builder
// since it exercises the same real go-ethereum trie decoder from a
// different package.
func hexPrefix(nibbles []byte, terminating bool) []byte {
	flags := byte(0)
	if terminating {
		flags = 2
	}
	odd := len(nibbles) % 2
	flags += byte(odd)

	buf := make([]byte, 0, len(nibbles)/2+1)
	if odd == 1 {
		buf = append(buf, flags<<4|nibbles[0])
		nibbles = nibbles[1:]
	} else {
		buf = append(buf, flags<<4)
	}
	for i := 0; i < len(nibbles); i += 2 {
		buf = append(buf, nibbles[i]<<4|nibbles[i+1])
	}
	return buf
}

func toNibbles(key []byte) []byte {
	out := make([]byte, 0, len(key)*2)
	for _, b := range key {
		out = append(out, b>>4, b&0x0f)
	}
	return out
}

func buildSingleLeafReceiptProof(t *testing.T, receiptRLP []byte) (codec.Hash32, [][]byte) {
	t.Helper()
	key := []byte{0x80} // RLP encoding of transaction index 0
	leafNode, err := gethrlp.EncodeToBytes([][]byte{hexPrefix(toNibbles(key), true), receiptRLP})
	require.NoError(t, err)
	return codec.Keccak256(leafNode), [][]byte{leafNode}
}

func buildReceiptsRootBranch(t *testing.T, receiptsRoot codec.Hash32) (codec.Hash32, codec.MerkleBranch) {
	t.Helper()
	sibling := codec.Keccak256([]byte("execution-payload-sibling-field"))
	sum := sha256.Sum256(append(append([]byte{}, receiptsRoot[:]...), sibling[:]...))
	var bodyRoot codec.Hash32
	copy(bodyRoot[:], sum[:])
	return bodyRoot, codec.MerkleBranch{Index: 2, Hashes: [][]byte{sibling[:]}}
}

func TestVerifyEthToSidechainEventHappyPath(t *testing.T) {
	store := checkpoint.New(64)

	proofBlock := ProofBlock{Slot: 100, ProposerIndex: 7, ParentRoot: codec.Hash32{0x01}, StateRoot: codec.Hash32{0x02}}
	receiptRLP := buildReceiptRLP(t, testERC20Manager, codec.Address20{0x11}, codec.Address20{0x22}, codec.Hash32{0x33}, make([]byte, 32))
	receiptsRoot, proofNodes := buildSingleLeafReceiptProof(t, receiptRLP)
	bodyRoot, branch := buildReceiptsRootBranch(t, receiptsRoot)
	proofBlock.BodyRoot = bodyRoot

	blockRoot, err := proofBlock.header().HashTreeRoot()
	require.NoError(t, err)
	store.Push(proofBlock.Slot, blockRoot)

	ev := EthToSidechainEvent{
		ProofBlock:         proofBlock,
		TransactionIndex:   0,
		ReceiptRLP:         receiptRLP,
		ReceiptMerkleProof: proofNodes,
		ReceiptsRootBranch: branch,
		ReceiptsRoot:       receiptsRoot,
	}

	delivery, err := VerifyEthToSidechainEvent(store, testERC20Manager, ev)
	require.NoError(t, err)
	require.Equal(t, codec.Address20{0x11}, delivery.Event.From)
	require.Equal(t, codec.Address20{0x22}, delivery.Event.Token)
	require.Equal(t, deriveNonce(100, 0), delivery.Nonce)
}

func TestVerifyEthToSidechainEventRejectsNoCheckpoint(t *testing.T) {
	store := checkpoint.New(64)
	ev := EthToSidechainEvent{ProofBlock: ProofBlock{Slot: 100}}
	_, err := VerifyEthToSidechainEvent(store, testERC20Manager, ev)
	require.ErrorIs(t, err, ErrNoCheckpoint)
}

func TestVerifyEthToSidechainEventRejectsBadReceiptInclusion(t *testing.T) {
	store := checkpoint.New(64)

	proofBlock := ProofBlock{Slot: 100, StateRoot: codec.Hash32{0x02}}
	receiptRLP := buildReceiptRLP(t, testERC20Manager, codec.Address20{0x11}, codec.Address20{0x22}, codec.Hash32{0x33}, make([]byte, 32))
	receiptsRoot, proofNodes := buildSingleLeafReceiptProof(t, receiptRLP)
	bodyRoot, branch := buildReceiptsRootBranch(t, receiptsRoot)
	proofBlock.BodyRoot = bodyRoot

	blockRoot, err := proofBlock.header().HashTreeRoot()
	require.NoError(t, err)
	store.Push(proofBlock.Slot, blockRoot)

	ev := EthToSidechainEvent{
		ProofBlock:         proofBlock,
		TransactionIndex:   0,
		ReceiptRLP:         []byte("a tampered receipt body"),
		ReceiptMerkleProof: proofNodes,
		ReceiptsRootBranch: branch,
		ReceiptsRoot:       receiptsRoot,
	}

	_, err = VerifyEthToSidechainEvent(store, testERC20Manager, ev)
	require.ErrorIs(t, err, ErrReceiptInclusion)
}

func TestDeriveNonceIsStableAndDistinct(t *testing.T) {
	a := deriveNonce(1, 2)
	b := deriveNonce(1, 2)
	c := deriveNonce(1, 3)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}
