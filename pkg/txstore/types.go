// Package txstore is the persistent transaction manager of spec section
// 4.4.6: every in-flight relay request is a durable record keyed by UUID,
// resumable on restart, written atomically (write-to-temp then rename).
package txstore

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a tracked transaction.
type Status string

const (
	StatusPending  Status = "pending"
	StatusFinalized Status = "finalized"
	StatusFailed   Status = "failed"
)

// Kind names which relay pipeline produced this record, so a caller
// replaying it knows which step to re-enter at.
type Kind string

const (
	KindMerkleRoot     Kind = "merkle_root"
	KindMessage        Kind = "message"
	KindEthToSidechain Kind = "eth_to_sidechain"
)

// Record is one durable in-flight (or completed) transaction.
type Record struct {
	ID          uuid.UUID              `json:"id"`
	Kind        Kind                   `json:"kind"`
	BlockNumber uint64                 `json:"block_number"`
	Status      Status                 `json:"status"`
	TxHash      [32]byte               `json:"tx_hash,omitempty"`
	Proof       []byte                 `json:"proof,omitempty"`
	Attempts    int                    `json:"attempts"`
	LastError   string                 `json:"last_error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
	Metadata    map[string]string      `json:"metadata,omitempty"`
}

// document is the on-disk JSON shape: every tracked record plus the
// pruned list of block numbers that records were stored for (see
// pruneCompletedBlocksLocked).
type document struct {
	Records map[uuid.UUID]*Record `json:"records"`
	Blocks  []uint64              `json:"blocks"`
}
