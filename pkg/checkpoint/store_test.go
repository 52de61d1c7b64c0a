package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
)

func hashFor(slot uint64) codec.Hash32 {
	return codec.Keccak256([]byte{byte(slot), byte(slot >> 8), byte(slot >> 16)})
}

func TestCheckpointExactAnchorHit(t *testing.T) {
	s := New(16)
	for epoch := uint64(0); epoch < 8; epoch++ {
		slot := epoch * SlotsPerEpoch
		s.Push(slot, hashFor(slot))
	}

	slot, hash, err := s.Checkpoint(3 * SlotsPerEpoch)
	require.NoError(t, err)
	require.Equal(t, 3*uint64(SlotsPerEpoch), slot)
	require.Equal(t, hashFor(3*SlotsPerEpoch), hash)
}

func TestCheckpointRoundTripWithinRetainedRange(t *testing.T) {
	s := New(16)
	for epoch := uint64(0); epoch < 10; epoch++ {
		slot := epoch * SlotsPerEpoch
		s.Push(slot, hashFor(slot))
	}

	oldest, ok := s.OldestSlot()
	require.True(t, ok)
	head, ok := s.HeadSlot()
	require.True(t, ok)

	for query := oldest; query <= head; query += 7 {
		resolved, _, err := s.Checkpoint(query)
		require.NoError(t, err)
		require.GreaterOrEqual(t, resolved, query)
		require.Less(t, resolved-query, uint64(SlotsPerEpoch))
	}
}

func TestCheckpointOutDated(t *testing.T) {
	s := New(4)
	for epoch := uint64(0); epoch < 20; epoch++ {
		slot := epoch * SlotsPerEpoch
		s.Push(slot, hashFor(slot))
	}

	oldest, ok := s.OldestSlot()
	require.True(t, ok)
	require.Greater(t, oldest, uint64(0))

	_, _, err := s.Checkpoint(0)
	require.ErrorIs(t, err, ErrOutDated)
}

func TestCheckpointNotPresentBeyondHead(t *testing.T) {
	s := New(8)
	s.Push(0, hashFor(0))
	s.Push(SlotsPerEpoch, hashFor(SlotsPerEpoch))

	_, _, err := s.Checkpoint(100 * SlotsPerEpoch)
	require.ErrorIs(t, err, ErrNotPresent)
}

func TestCheckpointEmptyStore(t *testing.T) {
	s := New(4)
	_, _, err := s.Checkpoint(0)
	require.ErrorIs(t, err, ErrNotPresent)
}
