package queueproof

import "github.com/gear-tech/gear-bridges-sub000/pkg/codec"

// ReadQueueMerkleRoot walks proof from stateRoot down to the leaf holding
// the queue Merkle root, verifying each step's hash linkage against key's
// nibble path, and decodes the terminal node's value as a 32-byte root
// (spec section 4.2.4 step 3: "B's state_root contains M at the well-known
// queue-storage key").
func ReadQueueMerkleRoot(stateRoot codec.Hash32, key []byte, proof Proof) (codec.Hash32, error) {
	if len(proof.Nodes) == 0 {
		return codec.Hash32{}, ErrEmptyProof
	}

	if hashNode(proof.Nodes[0]) != stateRoot {
		return codec.Hash32{}, ErrRootMismatch
	}

	nibbles := toNibbles(key)

	for i, node := range proof.Nodes {
		if len(nibbles) < len(node.NibblePath) {
			return codec.Hash32{}, ErrKeyExhausted
		}
		nibbles = nibbles[len(node.NibblePath):]

		last := i == len(proof.Nodes)-1
		if last {
			if len(node.Value) == 0 {
				return codec.Hash32{}, ErrNoValue
			}
			return decodeScaleRoot(node.Value)
		}

		if len(nibbles) == 0 {
			return codec.Hash32{}, ErrKeyExhausted
		}
		child := node.Children[nibbles[0]]
		if child == nil {
			return codec.Hash32{}, ErrChildMismatch
		}
		nibbles = nibbles[1:]

		if *child != hashNode(proof.Nodes[i+1]) {
			return codec.Hash32{}, ErrChildMismatch
		}
	}

	return codec.Hash32{}, ErrNoValue
}

func toNibbles(key []byte) []byte {
	out := make([]byte, 0, len(key)*2)
	for _, b := range key {
		out = append(out, b>>4, b&0x0f)
	}
	return out
}

func hashNode(n Node) codec.Hash32 {
	return codec.Blake2b256(EncodeNode(n))
}

// EncodeNode renders a Node into the canonical byte sequence it hashes to,
// the same encoding a sidechain RPC client decodes raw trie-node bytes into
// before handing a Proof to ReadQueueMerkleRoot.
func EncodeNode(n Node) []byte {
	buf := []byte{byte(n.Kind), byte(len(n.NibblePath))}
	buf = append(buf, n.NibblePath...)

	if n.Kind == NodeBranch || n.Kind == NodeBranchWithValue {
		for _, c := range n.Children {
			if c == nil {
				buf = append(buf, 0)
				continue
			}
			buf = append(buf, 1)
			buf = append(buf, c[:]...)
		}
	}

	buf = append(buf, byte(len(n.Value)))
	return append(buf, n.Value...)
}

// decodeScaleRoot strips a SCALE compact-length prefix if present and
// returns the trailing 32 bytes as the queue Merkle root.
func decodeScaleRoot(value []byte) (codec.Hash32, error) {
	if len(value) < 32 {
		return codec.Hash32{}, ErrShortValue
	}
	var root codec.Hash32
	copy(root[:], value[len(value)-32:])
	return root, nil
}
