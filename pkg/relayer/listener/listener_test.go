package listener

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeEthSource struct {
	latest uint64
	blocks map[uint64]EthBlock
}

func (f *fakeEthSource) LatestFinalizedBlock(ctx context.Context) (uint64, error) {
	return f.latest, nil
}

func (f *fakeEthSource) FetchBlock(ctx context.Context, number uint64) (EthBlock, error) {
	return f.blocks[number], nil
}

func TestEthereumListenerPublishesNewBlocksInOrder(t *testing.T) {
	source := &fakeEthSource{latest: 102, blocks: map[uint64]EthBlock{
		101: {Number: 101},
		102: {Number: 102},
	}}
	l := NewEthereumListener(source, 100, 10, nil)
	sub, unsub := l.Subscribe()
	defer unsub()

	require.NoError(t, l.pollOnce(context.Background()))

	first := (<-sub).(EthBlock)
	second := (<-sub).(EthBlock)
	require.Equal(t, uint64(101), first.Number)
	require.Equal(t, uint64(102), second.Number)
}

func TestEthereumListenerDoesNotRepublishSeenBlocks(t *testing.T) {
	source := &fakeEthSource{latest: 101, blocks: map[uint64]EthBlock{101: {Number: 101}}}
	l := NewEthereumListener(source, 100, 10, nil)
	sub, unsub := l.Subscribe()
	defer unsub()

	require.NoError(t, l.pollOnce(context.Background()))
	require.NoError(t, l.pollOnce(context.Background()))

	require.Len(t, sub, 1)
}

func TestBroadcasterEmitsLaggedOnFullChannel(t *testing.T) {
	b := newBroadcaster[EthBlock](1, nil)
	sub, unsub := b.Subscribe()
	defer unsub()

	b.Publish(EthBlock{Number: 1})
	b.Publish(EthBlock{Number: 2}) // channel full, should become Lagged

	first := <-sub
	require.Equal(t, EthBlock{Number: 1}, first)

	second := <-sub
	_, isLag := second.(Lagged)
	require.True(t, isLag)
}

type fakeSidechainSource struct {
	ch chan SidechainBlock
}

func (f *fakeSidechainSource) SubscribeFinalized(ctx context.Context) (<-chan SidechainBlock, error) {
	return f.ch, nil
}

func TestSidechainListenerRepublishesToMultipleSubscribers(t *testing.T) {
	source := &fakeSidechainSource{ch: make(chan SidechainBlock, 1)}
	l := NewSidechainListener(source, 10, nil)

	sub1, unsub1 := l.Subscribe()
	sub2, unsub2 := l.Subscribe()
	defer unsub1()
	defer unsub2()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	source.ch <- SidechainBlock{BlockNumber: 7}

	require.Equal(t, SidechainBlock{BlockNumber: 7}, <-sub1)
	require.Equal(t, SidechainBlock{BlockNumber: 7}, <-sub2)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not exit after cancellation")
	}
}
