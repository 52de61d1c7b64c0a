package receiptproof

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/gear-tech/gear-bridges-sub000/pkg/checkpoint"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

// bridgingRequestedSignature is the event selector for
// BridgingRequested(address indexed from, bytes32 indexed to, address
// indexed token, uint256 amount).
var bridgingRequestedSignature = crypto.Keccak256Hash([]byte("BridgingRequested(address,bytes32,address,uint256)"))

// VerifyEthToSidechainEvent runs the six validation steps of spec section
// 4.3.2 against a checkpoint store the light client maintains, and returns
// the decoded event plus its derived processed-set nonce on success.
func VerifyEthToSidechainEvent(store *checkpoint.Store, erc20Manager codec.Address20, ev EthToSidechainEvent) (*VerifiedDelivery, error) {
	// Step 1: find a known checkpoint at slot >= proof_block.slot.
	checkpointSlot, checkpointRoot, err := store.Checkpoint(ev.ProofBlock.Slot)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCheckpoint, err)
	}

	// Step 2: fold headers[] from proof_block up to the checkpoint.
	if checkpointSlot == ev.ProofBlock.Slot {
		proofRoot, err := ev.ProofBlock.header().HashTreeRoot()
		if err != nil {
			return nil, fmt.Errorf("receiptproof: hash proof block: %w", err)
		}
		if proofRoot != checkpointRoot {
			return nil, ErrCheckpointMismatch
		}
	} else {
		if err := foldHeaderChain(ev.ProofBlock, ev.Headers, checkpointSlot, checkpointRoot); err != nil {
			return nil, err
		}
	}

	// Step 3: extract execution_payload.receipts_root via SSZ inclusion.
	ok, err := codec.VerifyMerkleBranch(ev.ReceiptsRoot, ev.ReceiptsRootBranch, ev.ProofBlock.BodyRoot)
	if err != nil {
		return nil, fmt.Errorf("receiptproof: verify receipts root branch: %w", err)
	}
	if !ok {
		return nil, ErrReceiptsRootProof
	}

	// Step 4: verify the RLP receipt inclusion proof.
	if err := codec.VerifyReceiptProof(ev.ReceiptsRoot, ev.TransactionIndex, ev.ReceiptRLP, ev.ReceiptMerkleProof); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReceiptInclusion, err)
	}

	// Step 5: decode logs, require exactly one matching BridgingRequested
	// from the expected ERC20Manager address.
	event, err := decodeBridgingRequested(ev.ReceiptRLP, erc20Manager)
	if err != nil {
		return nil, err
	}

	// Step 6: derive the nonce from (slot, transaction_index).
	nonce := deriveNonce(ev.ProofBlock.Slot, ev.TransactionIndex)

	return &VerifiedDelivery{Event: *event, Nonce: nonce}, nil
}

// foldHeaderChain re-hashes headers in order, starting from proofBlock,
// checking each header's parent_root links to the previous header's root,
// and requires the final hash to equal the checkpoint's root.
func foldHeaderChain(proofBlock ProofBlock, headers []ChainHeader, checkpointSlot uint64, checkpointRoot codec.Hash32) error {
	if len(headers) == 0 {
		return ErrEmptyHeaderChain
	}

	prevRoot, err := proofBlock.header().HashTreeRoot()
	if err != nil {
		return fmt.Errorf("receiptproof: hash proof block: %w", err)
	}
	prevSlot := proofBlock.Slot

	for i, h := range headers {
		if h.Slot <= prevSlot {
			return ErrHeaderChainBroken
		}
		if h.ParentRoot != prevRoot {
			return ErrHeaderChainBroken
		}
		root, err := h.header().HashTreeRoot()
		if err != nil {
			return fmt.Errorf("receiptproof: hash chain header %d: %w", i, err)
		}
		prevRoot = root
		prevSlot = h.Slot
	}

	if prevSlot != checkpointSlot || prevRoot != checkpointRoot {
		return ErrCheckpointMismatch
	}
	return nil
}

func decodeBridgingRequested(receiptRLP []byte, erc20Manager codec.Address20) (*BridgingRequested, error) {
	receipt, err := codec.DecodeReceipt(receiptRLP)
	if err != nil {
		return nil, fmt.Errorf("receiptproof: decode receipt: %w", err)
	}

	var match *BridgingRequested
	for _, log := range receipt.Logs {
		if codec.Address20(log.Address) != erc20Manager {
			continue
		}
		if len(log.Topics) != 4 || log.Topics[0] != bridgingRequestedSignature {
			continue
		}
		if match != nil {
			return nil, ErrMultipleMatchingLogs
		}

		var from, token codec.Address20
		copy(from[:], log.Topics[1][12:])
		copy(token[:], log.Topics[3][12:])

		match = &BridgingRequested{
			From:   from,
			To:     codec.Hash32(log.Topics[2]),
			Token:  token,
			Amount: append([]byte(nil), log.Data...),
		}
	}

	if match == nil {
		return nil, ErrNoMatchingLog
	}
	return match, nil
}

func deriveNonce(slot, transactionIndex uint64) codec.Hash32 {
	var buf [16]byte
	putUint64(buf[0:8], slot)
	putUint64(buf[8:16], transactionIndex)
	return codec.Keccak256(buf[:])
}

func putUint64(dst []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}
