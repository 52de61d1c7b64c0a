package receiptproof

import "errors"

var (
	ErrNoCheckpoint         = errors.New("receiptproof: no checkpoint known at or after the proof block's slot")
	ErrEmptyHeaderChain     = errors.New("receiptproof: header chain is empty")
	ErrHeaderChainBroken    = errors.New("receiptproof: header chain does not link proof block to the checkpoint")
	ErrCheckpointMismatch   = errors.New("receiptproof: folded header chain does not reach the checkpoint root")
	ErrReceiptsRootProof    = errors.New("receiptproof: receipts root is not included in the proof block's body")
	ErrReceiptInclusion     = errors.New("receiptproof: receipt is not included in the receipts trie at the claimed index")
	ErrNoMatchingLog        = errors.New("receiptproof: no BridgingRequested log found from the expected ERC20Manager address")
	ErrMultipleMatchingLogs = errors.New("receiptproof: more than one matching BridgingRequested log found")
	ErrAlreadyProcessed     = errors.New("receiptproof: nonce already processed")
)
