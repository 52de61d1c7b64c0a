// Package ethtosidechain implements the Ethereum→sidechain relayer of spec
// section 4.4.4: wait for the light-client checkpoint to advance to the
// event's slot, then submit the verified delivery via the historical-proxy
// program.
package ethtosidechain

import (
	"context"
	"fmt"
	"log"

	"github.com/gear-tech/gear-bridges-sub000/pkg/checkpoint"
	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/receiptproof"
)

// HistoricalProxy forwards a verified Ethereum-origin delivery to the
// vft-manager program.
type HistoricalProxy interface {
	SubmitDelivery(ctx context.Context, delivery receiptproof.VerifiedDelivery) error
}

// Relayer drives one observed BridgingRequested event through the
// checkpoint-wait and submit pipeline.
type Relayer struct {
	store  *checkpoint.Store
	proxy  HistoricalProxy
	logger *log.Logger
}

// New creates a Relayer wired to the given checkpoint store and
// historical-proxy backend.
func New(store *checkpoint.Store, proxy HistoricalProxy, logger *log.Logger) *Relayer {
	return &Relayer{store: store, proxy: proxy, logger: logger}
}

// Ready reports whether the light-client checkpoint has advanced to at
// least slot S, the precondition before Relay can compose its proof.
func (r *Relayer) Ready(slot uint64) bool {
	headSlot, ok := r.store.HeadSlot()
	return ok && headSlot >= slot
}

// Relay verifies ev against the current checkpoint and forwards the
// result to the historical-proxy program.
func (r *Relayer) Relay(ctx context.Context, erc20Manager codec.Address20, ev receiptproof.EthToSidechainEvent) error {
	if !r.Ready(ev.ProofBlock.Slot) {
		return fmt.Errorf("ethtosidechain: checkpoint has not advanced to slot %d yet", ev.ProofBlock.Slot)
	}

	delivery, err := receiptproof.VerifyEthToSidechainEvent(r.store, erc20Manager, ev)
	if err != nil {
		return fmt.Errorf("ethtosidechain: verify event: %w", err)
	}

	if err := r.proxy.SubmitDelivery(ctx, *delivery); err != nil {
		return fmt.Errorf("ethtosidechain: submit delivery: %w", err)
	}

	if r.logger != nil {
		r.logger.Printf("relayed inbound delivery nonce=%x", delivery.Nonce)
	}
	return nil
}
