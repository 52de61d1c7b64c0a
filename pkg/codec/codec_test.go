package codec

import (
	"testing"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/require"
)

// rlpEncodeList RLP-encodes a 2-element list of byte strings, the shape a
// Merkle-Patricia leaf/short node takes: [encoded_key, value].
func rlpEncodeList(key, value []byte) ([]byte, error) {
	return rlp.EncodeToBytes([][]byte{key, value})
}

func TestMerkleTreeRoundTrip(t *testing.T) {
	leaves := make([][]byte, 0, 5)
	for i := 0; i < 5; i++ {
		h := Keccak256([]byte{byte(i)})
		leaves = append(leaves, h[:])
	}

	tree, err := BuildTree(leaves)
	require.NoError(t, err)
	require.Equal(t, 5, tree.Leaves())

	for i := range leaves {
		proof, total, err := tree.Proof(i)
		require.NoError(t, err)
		require.Equal(t, 5, total)

		var leaf Hash32
		copy(leaf[:], leaves[i])
		require.True(t, VerifyProof(tree.Root(), leaf, i, total, proof))
	}
}

func TestMerkleTreeRejectsWrongLeaf(t *testing.T) {
	leaves := [][]byte{}
	for i := 0; i < 3; i++ {
		h := Keccak256([]byte{byte(i)})
		leaves = append(leaves, h[:])
	}
	tree, err := BuildTree(leaves)
	require.NoError(t, err)

	proof, total, err := tree.Proof(0)
	require.NoError(t, err)

	wrong := Keccak256([]byte("not a leaf"))
	require.False(t, VerifyProof(tree.Root(), wrong, 0, total, proof))
}

func TestEmptyTreeRejected(t *testing.T) {
	_, err := BuildTree(nil)
	require.ErrorIs(t, err, ErrEmptyTree)
}

func TestCompactIntegerRoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 63, 64, 16383, 16384, 1 << 29, 1 << 30}
	for _, v := range cases {
		encoded := EncodeCompactU32(v)
		decoded, consumed, err := DecodeCompactU32(encoded)
		require.NoError(t, err)
		require.Equal(t, len(encoded), consumed)
		require.Equal(t, v, decoded)
	}
}

func TestHash32ZeroCheck(t *testing.T) {
	var z Hash32
	require.True(t, z.IsZero())
	nz := Keccak256([]byte("x"))
	require.False(t, nz.IsZero())
}

// hexPrefix implements Ethereum's hex-prefix (HP) encoding for a
// Merkle-Patricia trie leaf node's key: a high nibble of flags (terminator
// bit plus odd-length bit) followed by the key's nibbles packed two per
// byte, with an odd leading nibble folded into the flags byte.
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

func toNibblesForTest(key []byte) []byte {
	out := make([]byte, 0, len(key)*2)
	for _, b := range key {
		out = append(out, b>>4, b&0x0f)
	}
	return out
}

// TestVerifyReceiptProofSingleLeafTrie builds the trie a single-receipt
// block reduces to: one leaf node holding the whole receipt, keyed by the
// RLP encoding of its transaction index, and checks VerifyReceiptProof
// accepts the real go-ethereum trie decoder's view of it.
func TestVerifyReceiptProofSingleLeafTrie(t *testing.T) {
	receiptRLP := []byte("a stand-in for a real RLP-encoded receipt, long enough to force hashing")

	key := []byte{0x80} // RLP encoding of transaction index 0
	leafNode, err := rlpEncodeList(hexPrefix(toNibblesForTest(key), true), receiptRLP)
	require.NoError(t, err)

	root := Keccak256(leafNode)

	err = VerifyReceiptProof(root, 0, receiptRLP, [][]byte{leafNode})
	require.NoError(t, err)
}

func TestVerifyReceiptProofRejectsWrongReceipt(t *testing.T) {
	receiptRLP := []byte("a stand-in for a real RLP-encoded receipt, long enough to force hashing")

	key := []byte{0x80}
	leafNode, err := rlpEncodeList(hexPrefix(toNibblesForTest(key), true), receiptRLP)
	require.NoError(t, err)
	root := Keccak256(leafNode)

	err = VerifyReceiptProof(root, 0, []byte("a different receipt entirely"), [][]byte{leafNode})
	require.Error(t, err)
}

// TestBuildReceiptProofRoundTripsWithVerify builds a multi-receipt trie the
// way a relayer composing an EthToSidechainEvent would, and checks the
// result verifies against itself for every index, not just the one proved.
func TestBuildReceiptProofRoundTripsWithVerify(t *testing.T) {
	receipts := []*types.Receipt{
		{Status: types.ReceiptStatusSuccessful, CumulativeGasUsed: 21000},
		{Status: types.ReceiptStatusSuccessful, CumulativeGasUsed: 42000, Logs: []*types.Log{{}}},
		{Status: types.ReceiptStatusFailed, CumulativeGasUsed: 63000},
	}

	for i := range receipts {
		receiptRLP, proof, root, err := BuildReceiptProof(receipts, uint64(i))
		require.NoError(t, err)
		require.NotEmpty(t, proof)
		require.NoError(t, VerifyReceiptProof(root, uint64(i), receiptRLP, proof))
	}
}

func TestBuildReceiptProofRejectsOutOfRangeIndex(t *testing.T) {
	receipts := []*types.Receipt{{Status: types.ReceiptStatusSuccessful}}
	_, _, _, err := BuildReceiptProof(receipts, 5)
	require.Error(t, err)
}
