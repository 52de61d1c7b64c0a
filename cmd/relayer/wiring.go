package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/ethbridge/bindings"
	"github.com/gear-tech/gear-bridges-sub000/pkg/ethbridge/contracts"
	"github.com/gear-tech/gear-bridges-sub000/pkg/receiptproof"
	"github.com/gear-tech/gear-bridges-sub000/pkg/relayer/listener"
	"github.com/gear-tech/gear-bridges-sub000/pkg/sidechain"
	"github.com/gear-tech/gear-bridges-sub000/pkg/sidechain/rpcclient"
)

// merkleRootSubmitter adapts bindings.Relayer's SubmitMerkleRoot/
// GetMerkleRoot naming to merkleroot.Submitter's RelayMerkleRoot/
// GetMerkleRoot.
type merkleRootSubmitter struct {
	relayer *bindings.Relayer
}

func (s *merkleRootSubmitter) RelayMerkleRoot(ctx context.Context, blockNumber uint64, root codec.Hash32, proof []byte) error {
	_, err := s.relayer.SubmitMerkleRoot(ctx, blockNumber, [32]byte(root), proof)
	return err
}

func (s *merkleRootSubmitter) GetMerkleRoot(ctx context.Context, blockNumber uint64) (codec.Hash32, error) {
	root, err := s.relayer.GetMerkleRoot(ctx, blockNumber)
	return codec.Hash32(root), err
}

// messageSubmitter adapts bindings.MessageQueue's ProcessMessage to
// message.Submitter's SubmitMessage; the covering root itself isn't a
// processMessage argument since the contract already holds it keyed by
// blockNumber.
type messageSubmitter struct {
	queue *bindings.MessageQueue
}

func (s *messageSubmitter) SubmitMessage(ctx context.Context, blockNumber uint64, root codec.Hash32, totalLeaves, leafIndex uint64, msg contracts.VaraMessage, proof [][32]byte) error {
	_, err := s.queue.ProcessMessage(ctx, blockNumber, totalLeaves, leafIndex, msg, proof)
	return err
}

func (s *messageSubmitter) IsProcessed(ctx context.Context, msg contracts.VaraMessage) (bool, error) {
	return s.queue.IsProcessed(ctx, msg)
}

// historicalProxyAdapter adapts rpcclient.Client's actor-parameterized
// SubmitDelivery to ethtosidechain.HistoricalProxy's single-argument
// SubmitDelivery, fixing the historical-proxy actor and ERC20Manager
// address configured for this relayer instance.
type historicalProxyAdapter struct {
	client       *rpcclient.Client
	actor        sidechain.ActorID
	erc20Manager codec.Address20
}

func (h *historicalProxyAdapter) SubmitDelivery(ctx context.Context, delivery receiptproof.VerifiedDelivery) error {
	encoded, err := json.Marshal(delivery)
	if err != nil {
		return fmt.Errorf("wiring: encode verified delivery: %w", err)
	}
	return h.client.SubmitDelivery(ctx, h.actor, 0, h.erc20Manager, encoded)
}

// sidechainFinalitySource adapts rpcclient.Client's sidechain.FinalizedBlock
// subscription to listener.SidechainFinalitySource's listener.SidechainBlock
// shape; the two types carry identical fields under different names since
// pkg/sidechain and pkg/relayer/listener are deliberately independent of
// each other.
type sidechainFinalitySource struct {
	client *rpcclient.Client
}

func (s *sidechainFinalitySource) SubscribeFinalized(ctx context.Context) (<-chan listener.SidechainBlock, error) {
	upstream, err := s.client.SubscribeFinalized(ctx)
	if err != nil {
		return nil, err
	}
	out := make(chan listener.SidechainBlock, cap(upstream))
	go func() {
		defer close(out)
		for block := range upstream {
			select {
			case out <- listener.SidechainBlock{BlockNumber: block.BlockNumber, BlockHash: block.BlockHash}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
