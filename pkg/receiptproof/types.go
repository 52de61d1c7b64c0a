// Package receiptproof verifies that an Ethereum transaction receipt is
// genuinely included under a beacon block the light client has already
// checkpointed, and extracts the single BridgingRequested event it must
// carry (spec section 4.3.2).
package receiptproof

import "github.com/gear-tech/gear-bridges-sub000/pkg/codec"

// ProofBlock identifies the beacon block the submitted receipt is claimed
// to belong to.
type ProofBlock struct {
	Slot          uint64
	ProposerIndex uint64
	ParentRoot    codec.Hash32
	StateRoot     codec.Hash32
	BodyRoot      codec.Hash32
}

func (b ProofBlock) header() codec.BeaconBlockHeader {
	return codec.BeaconBlockHeader{
		Slot:          b.Slot,
		ProposerIndex: b.ProposerIndex,
		ParentRoot:    b.ParentRoot,
		StateRoot:     b.StateRoot,
		BodyRoot:      b.BodyRoot,
	}
}

// ChainHeader is one link of the header[] chain folded from ProofBlock up
// to a known checkpoint.
type ChainHeader struct {
	Slot          uint64
	ProposerIndex uint64
	ParentRoot    codec.Hash32
	StateRoot     codec.Hash32
	BodyRoot      codec.Hash32
}

func (h ChainHeader) header() codec.BeaconBlockHeader {
	return codec.BeaconBlockHeader{
		Slot:          h.Slot,
		ProposerIndex: h.ProposerIndex,
		ParentRoot:    h.ParentRoot,
		StateRoot:     h.StateRoot,
		BodyRoot:      h.BodyRoot,
	}
}

// EthToSidechainEvent is the full input to VerifyEthToSidechainEvent, as
// submitted by a relayer to the sidechain (spec section 4.3.2).
type EthToSidechainEvent struct {
	ProofBlock ProofBlock
	Headers    []ChainHeader

	TransactionIndex   uint64
	ReceiptRLP         []byte
	ReceiptMerkleProof [][]byte

	// ReceiptsRootBranch proves execution_payload.receipts_root's
	// inclusion within ProofBlock's body (step 3).
	ReceiptsRootBranch codec.MerkleBranch
	ReceiptsRoot       codec.Hash32
}

// BridgingRequested is the single decoded event the receipt's logs must
// contain, emitted by the pre-registered ERC20Manager address.
type BridgingRequested struct {
	From   codec.Address20
	To     codec.Hash32
	Token  codec.Address20
	Amount []byte // big-endian uint256, left as raw bytes for the caller to parse
}

// VerifiedDelivery is the result of a successful verification: the decoded
// event plus the derived processed-set key.
type VerifiedDelivery struct {
	Event BridgingRequested
	Nonce codec.Hash32
}
