package main

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/gear-tech/gear-bridges-sub000/pkg/ethbridge"
	"github.com/gear-tech/gear-bridges-sub000/pkg/relayer/listener"
)

// ethListenerSource implements listener.EthereumBlockSource over the raw
// ethclient the rest of the relayer already dials through ethbridge.Client,
// decoding BridgingRequested (from the ERC20Manager contract) and FeePaid
// (from the BridgingPayment contract) the same way spec section 4.4.1
// names them, rather than inventing a bespoke polling transport.
type ethListenerSource struct {
	client *ethbridge.Client

	erc20Manager      common.Address
	bridgingRequested abi.Event
	haveRequested     bool

	bridgingPayment abi.Event
	havePayment     bool
	paymentAddr     common.Address
}

func newEthListenerSource(client *ethbridge.Client, erc20ManagerABI string, erc20Manager common.Address, bridgingPaymentABI string, bridgingPayment common.Address) (*ethListenerSource, error) {
	src := &ethListenerSource{client: client, erc20Manager: erc20Manager, paymentAddr: bridgingPayment}

	if erc20ManagerABI != "" {
		parsed, err := abi.JSON(strings.NewReader(erc20ManagerABI))
		if err != nil {
			return nil, fmt.Errorf("listener adapter: parse ERC20Manager ABI: %w", err)
		}
		event, ok := parsed.Events["BridgingRequested"]
		if !ok {
			return nil, fmt.Errorf("listener adapter: ERC20Manager ABI has no BridgingRequested event")
		}
		src.bridgingRequested = event
		src.haveRequested = true
	}

	if bridgingPaymentABI != "" {
		parsed, err := abi.JSON(strings.NewReader(bridgingPaymentABI))
		if err != nil {
			return nil, fmt.Errorf("listener adapter: parse BridgingPayment ABI: %w", err)
		}
		event, ok := parsed.Events["FeePaid"]
		if !ok {
			return nil, fmt.Errorf("listener adapter: BridgingPayment ABI has no FeePaid event")
		}
		src.bridgingPayment = event
		src.havePayment = true
	}

	return src, nil
}

func (s *ethListenerSource) LatestFinalizedBlock(ctx context.Context) (uint64, error) {
	header, err := s.client.Raw().HeaderByNumber(ctx, big.NewInt(gethrpc.FinalizedBlockNumber.Int64()))
	if err != nil {
		return 0, fmt.Errorf("listener adapter: finalized header: %w", err)
	}
	return header.Number.Uint64(), nil
}

func (s *ethListenerSource) FetchBlock(ctx context.Context, number uint64) (listener.EthBlock, error) {
	header, err := s.client.Raw().HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return listener.EthBlock{}, fmt.Errorf("listener adapter: header %d: %w", number, err)
	}

	block := listener.EthBlock{Number: number, Hash: [32]byte(header.Hash())}

	if s.haveRequested {
		logs, err := s.client.Raw().FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(number),
			ToBlock:   new(big.Int).SetUint64(number),
			Addresses: []common.Address{s.erc20Manager},
			Topics:    [][]common.Hash{{s.bridgingRequested.ID}},
		})
		if err != nil {
			return listener.EthBlock{}, fmt.Errorf("listener adapter: filter BridgingRequested at %d: %w", number, err)
		}
		for _, l := range logs {
			entry, err := decodeBridgingRequested(l)
			if err != nil {
				return listener.EthBlock{}, err
			}
			block.BridgingRequests = append(block.BridgingRequests, entry)
		}
	}

	if s.havePayment {
		logs, err := s.client.Raw().FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(number),
			ToBlock:   new(big.Int).SetUint64(number),
			Addresses: []common.Address{s.paymentAddr},
			Topics:    [][]common.Hash{{s.bridgingPayment.ID}},
		})
		if err != nil {
			return listener.EthBlock{}, fmt.Errorf("listener adapter: filter FeePaid at %d: %w", number, err)
		}
		for _, l := range logs {
			block.FeePayments = append(block.FeePayments, listener.FeePaidLog{
				TxHash:   [32]byte(l.TxHash),
				LogIndex: uint(l.Index),
			})
		}
	}

	return block, nil
}

// decodeBridgingRequested extracts from/to/token/amount from a raw log
// whose indexed topics carry from/to/token per spec section 6's event
// signature (address indexed from, bytes32 indexed to, address indexed
// token, uint256 amount).
func decodeBridgingRequested(l gethtypes.Log) (listener.BridgingRequestedLog, error) {
	if len(l.Topics) < 4 {
		return listener.BridgingRequestedLog{}, fmt.Errorf("listener adapter: BridgingRequested log has %d topics, want 4", len(l.Topics))
	}
	var entry listener.BridgingRequestedLog
	entry.TxHash = [32]byte(l.TxHash)
	entry.LogIndex = uint(l.Index)
	copy(entry.From[:], l.Topics[1][12:])
	entry.To = [32]byte(l.Topics[2])
	copy(entry.Token[:], l.Topics[3][12:])
	entry.Amount = append([]byte(nil), l.Data...)
	return entry, nil
}
