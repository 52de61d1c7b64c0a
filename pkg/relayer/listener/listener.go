// Package listener implements the two finalized-block listeners of spec
// section 4.4.1: an Ethereum listener that polls eth_blockNumber and walks
// forward over finalized blocks, and a sidechain listener that republishes
// finality notifications to multiple subscribers. Both broadcast to bounded
// channels and report a Lagged(n) signal to slow subscribers instead of
// blocking the producer indefinitely.
package listener

import (
	"context"
	"log"
	"sync"
	"time"
)

// Lagged is delivered on a subscriber's channel after the items it already
// holds, once an item had to be dropped because the channel was full. N is
// always 1: items dropped before the subscriber has read that Lagged produce
// no further signal.
type Lagged struct {
	N uint64
}

func (l Lagged) Error() string { return "listener: subscriber lagged" }

// EthBlock is a finalized Ethereum block observed by EthereumListener.
type EthBlock struct {
	Number           uint64
	Hash             [32]byte
	BridgingRequests []BridgingRequestedLog
	FeePayments      []FeePaidLog
}

// BridgingRequestedLog is a decoded BridgingRequested event.
type BridgingRequestedLog struct {
	TxHash      [32]byte
	LogIndex    uint
	From, Token [20]byte
	To          [32]byte
	Amount      []byte
}

// FeePaidLog is a decoded FeePaid event.
type FeePaidLog struct {
	TxHash   [32]byte
	LogIndex uint
}

// SidechainBlock is a finalized sidechain block observed by
// SidechainListener.
type SidechainBlock struct {
	BlockNumber uint64
	BlockHash   [32]byte
}

// broadcaster fans a single producer out to N bounded subscriber channels,
// emitting a Lagged signal on a channel that would otherwise block instead
// of stalling the producer.
type broadcaster[T any] struct {
	mu          sync.Mutex
	subscribers map[int]chan any
	nextID      int
	capacity    int
	logger      *log.Logger
}

func newBroadcaster[T any](capacity int, logger *log.Logger) *broadcaster[T] {
	return &broadcaster[T]{subscribers: make(map[int]chan any), capacity: capacity, logger: logger}
}

// Subscribe returns a new bounded channel fed by future Publish calls, plus
// an unsubscribe func.
func (b *broadcaster[T]) Subscribe() (<-chan any, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan any, b.capacity+1) // the extra slot is kept for a Lagged signal
	b.subscribers[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subscribers[id]; ok {
			close(c)
			delete(b.subscribers, id)
		}
	}
}

// Publish delivers item to every subscriber, emitting Lagged{1} on any
// channel that already holds capacity items rather than blocking.
func (b *broadcaster[T]) Publish(item any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		if len(ch) < b.capacity {
			ch <- item
			continue
		}
		select {
		case ch <- Lagged{N: 1}:
		default:
		}
		if b.logger != nil {
			b.logger.Printf("subscriber %d lagged, dropping item", id)
		}
	}
}

// EthereumBlockSource polls eth_blockNumber and fetches the logs of each
// finalized block, abstracting the concrete JSON-RPC client so the
// listener can be tested against a fake.
type EthereumBlockSource interface {
	LatestFinalizedBlock(ctx context.Context) (uint64, error)
	FetchBlock(ctx context.Context, number uint64) (EthBlock, error)
}

// EthereumListener walks forward over finalized Ethereum blocks, publishing
// each to its subscribers.
type EthereumListener struct {
	source      EthereumBlockSource
	broadcaster *broadcaster[EthBlock]
	logger      *log.Logger
	lastSeen    uint64
}

// NewEthereumListener creates a listener starting just after fromBlock.
func NewEthereumListener(source EthereumBlockSource, fromBlock uint64, channelCapacity int, logger *log.Logger) *EthereumListener {
	return &EthereumListener{
		source:      source,
		broadcaster: newBroadcaster[EthBlock](channelCapacity, logger),
		logger:      logger,
		lastSeen:    fromBlock,
	}
}

// Subscribe returns a channel of EthBlock/Lagged values.
func (l *EthereumListener) Subscribe() (<-chan any, func()) {
	return l.broadcaster.Subscribe()
}

// Run polls for new finalized blocks every pollInterval until ctx is
// cancelled.
func (l *EthereumListener) Run(ctx context.Context, pollInterval time.Duration) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := l.pollOnce(ctx); err != nil {
				if l.logger != nil {
					l.logger.Printf("poll failed: %v", err)
				}
			}
		}
	}
}

func (l *EthereumListener) pollOnce(ctx context.Context) error {
	latest, err := l.source.LatestFinalizedBlock(ctx)
	if err != nil {
		return err
	}
	for n := l.lastSeen + 1; n <= latest; n++ {
		block, err := l.source.FetchBlock(ctx, n)
		if err != nil {
			return err
		}
		l.broadcaster.Publish(block)
		l.lastSeen = n
	}
	return nil
}

// SidechainFinalitySource subscribes to sidechain finality notifications.
type SidechainFinalitySource interface {
	SubscribeFinalized(ctx context.Context) (<-chan SidechainBlock, error)
}

// SidechainListener republishes each finalized sidechain block to multiple
// subscribers.
type SidechainListener struct {
	source      SidechainFinalitySource
	broadcaster *broadcaster[SidechainBlock]
	logger      *log.Logger
}

// NewSidechainListener creates a new sidechain finality listener.
func NewSidechainListener(source SidechainFinalitySource, channelCapacity int, logger *log.Logger) *SidechainListener {
	return &SidechainListener{
		source:      source,
		broadcaster: newBroadcaster[SidechainBlock](channelCapacity, logger),
		logger:      logger,
	}
}

// Subscribe returns a channel of SidechainBlock/Lagged values.
func (l *SidechainListener) Subscribe() (<-chan any, func()) {
	return l.broadcaster.Subscribe()
}

// Run forwards the source's finality notifications until the source
// channel closes or ctx is cancelled.
func (l *SidechainListener) Run(ctx context.Context) error {
	ch, err := l.source.SubscribeFinalized(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case block, ok := <-ch:
			if !ok {
				return nil
			}
			l.broadcaster.Publish(block)
		}
	}
}
