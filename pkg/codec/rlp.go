package codec

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
)

// DecodeReceipt RLP-decodes a single Ethereum transaction receipt, the
// format `receipt_rlp` arrives in over an EthToSidechainEvent.
func DecodeReceipt(raw []byte) (*types.Receipt, error) {
	var r types.Receipt
	if err := rlp.DecodeBytes(raw, &r); err != nil {
		return nil, fmt.Errorf("codec: decode receipt rlp: %w", err)
	}
	return &r, nil
}

// VerifyReceiptProof verifies that receiptRLP is the leaf at transactionIndex
// in the Merkle-Patricia receipts trie committed to by receiptsRoot, using
// the supplied proof nodes. The trie key is the RLP encoding of the
// transaction index, matching Ethereum's receipts-trie convention.
func VerifyReceiptProof(receiptsRoot Hash32, transactionIndex uint64, receiptRLP []byte, proofNodes [][]byte) error {
	db := memorydb.New()
	for _, node := range proofNodes {
		db.Put(keccakNodeKey(node), node)
	}

	key, err := rlp.EncodeToBytes(transactionIndex)
	if err != nil {
		return fmt.Errorf("codec: encode receipt trie key: %w", err)
	}

	value, err := trie.VerifyProof(commonHash(receiptsRoot), key, db)
	if err != nil {
		return fmt.Errorf("codec: verify receipt trie proof: %w", err)
	}
	if string(value) != string(receiptRLP) {
		return fmt.Errorf("codec: receipt at index %d does not match proven leaf", transactionIndex)
	}
	return nil
}

// BuildReceiptProof rebuilds the Merkle-Patricia receipts trie for a block
// from its full, in-order receipt list and returns the RLP encoding of the
// receipt at transactionIndex plus the proof nodes VerifyReceiptProof
// checks against the trie's root. The trie key convention (RLP-encoded
// index) and value encoding (plain RLP, matching DecodeReceipt) mirror
// VerifyReceiptProof exactly so a proof built here always verifies there.
func BuildReceiptProof(receipts []*types.Receipt, transactionIndex uint64) (receiptRLP []byte, proofNodes [][]byte, receiptsRoot Hash32, err error) {
	if int(transactionIndex) >= len(receipts) {
		return nil, nil, Hash32{}, fmt.Errorf("codec: transaction index %d out of range (%d receipts)", transactionIndex, len(receipts))
	}

	triedb := trie.NewDatabase(rawdb.NewMemoryDatabase(), nil)
	tr := trie.NewEmpty(triedb)

	for i, receipt := range receipts {
		key, kerr := rlp.EncodeToBytes(uint64(i))
		if kerr != nil {
			return nil, nil, Hash32{}, fmt.Errorf("codec: encode receipt trie key %d: %w", i, kerr)
		}
		encoded, rerr := rlp.EncodeToBytes(receipt)
		if rerr != nil {
			return nil, nil, Hash32{}, fmt.Errorf("codec: encode receipt %d: %w", i, rerr)
		}
		if uerr := tr.Update(key, encoded); uerr != nil {
			return nil, nil, Hash32{}, fmt.Errorf("codec: insert receipt %d into trie: %w", i, uerr)
		}
	}

	key, err := rlp.EncodeToBytes(transactionIndex)
	if err != nil {
		return nil, nil, Hash32{}, fmt.Errorf("codec: encode target trie key: %w", err)
	}
	receiptRLP, err = rlp.EncodeToBytes(receipts[transactionIndex])
	if err != nil {
		return nil, nil, Hash32{}, fmt.Errorf("codec: encode target receipt: %w", err)
	}

	proofDB := memorydb.New()
	if err := tr.Prove(key, proofDB); err != nil {
		return nil, nil, Hash32{}, fmt.Errorf("codec: build receipt trie proof: %w", err)
	}

	it := proofDB.NewIterator(nil, nil)
	defer it.Release()
	for it.Next() {
		proofNodes = append(proofNodes, append([]byte(nil), it.Value()...))
	}

	return receiptRLP, proofNodes, Hash32(tr.Hash()), nil
}

func commonHash(h Hash32) common.Hash {
	return common.Hash(h)
}

// keccakNodeKey is the key trie nodes are stored under in a proof
// database: the Keccak-256 hash of the node's RLP encoding, exactly how
// go-ethereum's trie package looks nodes up by hash.
func keccakNodeKey(node []byte) []byte {
	h := crypto.Keccak256(node)
	return h
}
