package queueproof

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

func buildTwoLevelProof(t *testing.T, key []byte, root codec.Hash32) (codec.Hash32, Proof) {
	t.Helper()
	nibbles := toNibbles(key)
	require.NotEmpty(t, nibbles)

	leaf := Node{
		Kind:       NodeLeaf,
		NibblePath: nibbles[1:],
		Value:      root[:],
	}
	leafHash := hashNode(leaf)

	branch := Node{Kind: NodeBranch}
	branch.Children[nibbles[0]] = &leafHash

	stateRoot := hashNode(branch)
	return stateRoot, Proof{Nodes: []Node{branch, leaf}}
}

func TestReadQueueMerkleRootWalksProof(t *testing.T) {
	want := codec.Keccak256([]byte("queue-root"))
	stateRoot, proof := buildTwoLevelProof(t, QueueStorageKey, want)

	got, err := ReadQueueMerkleRoot(stateRoot, QueueStorageKey, proof)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestReadQueueMerkleRootRejectsWrongStateRoot(t *testing.T) {
	want := codec.Keccak256([]byte("queue-root"))
	_, proof := buildTwoLevelProof(t, QueueStorageKey, want)

	_, err := ReadQueueMerkleRoot(codec.Hash32{0xff}, QueueStorageKey, proof)
	require.ErrorIs(t, err, ErrRootMismatch)
}

func TestReadQueueMerkleRootRejectsBrokenChildLink(t *testing.T) {
	want := codec.Keccak256([]byte("queue-root"))
	stateRoot, proof := buildTwoLevelProof(t, QueueStorageKey, want)

	proof.Nodes[1].Value = append([]byte(nil), proof.Nodes[1].Value...)
	proof.Nodes[1].Value[0] ^= 0xff // mutate the leaf after its hash was fixed into the branch

	_, err := ReadQueueMerkleRoot(stateRoot, QueueStorageKey, proof)
	require.ErrorIs(t, err, ErrChildMismatch)
}

func TestReadQueueMerkleRootRejectsEmptyProof(t *testing.T) {
	_, err := ReadQueueMerkleRoot(codec.Hash32{}, QueueStorageKey, Proof{})
	require.ErrorIs(t, err, ErrEmptyProof)
}
