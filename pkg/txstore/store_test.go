package txstore

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesEmptyStoreWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.Empty(t, s.PendingRecords())
}

func TestPutPersistsAndReopenRecoversRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, nil)
	require.NoError(t, err)

	id := uuid.New()
	require.NoError(t, s.Put(&Record{ID: id, Kind: KindMerkleRoot, BlockNumber: 100, Status: StatusPending}))

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	r, ok := reopened.Get(id)
	require.True(t, ok)
	require.Equal(t, KindMerkleRoot, r.Kind)
	require.Equal(t, uint64(100), r.BlockNumber)
}

func TestPendingRecordsExcludesFinalized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, nil)
	require.NoError(t, err)

	pending := uuid.New()
	done := uuid.New()
	require.NoError(t, s.Put(&Record{ID: pending, BlockNumber: 1, Status: StatusPending}))
	require.NoError(t, s.Put(&Record{ID: done, BlockNumber: 2, Status: StatusPending}))
	require.NoError(t, s.MarkFinalized(done, [32]byte{0x01}))

	records := s.PendingRecords()
	require.Len(t, records, 1)
	require.Equal(t, pending, records[0].ID)
}

func TestMarkFailedIncrementsAttemptsAndRecordsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, nil)
	require.NoError(t, err)

	id := uuid.New()
	require.NoError(t, s.Put(&Record{ID: id, Status: StatusPending}))
	require.NoError(t, s.MarkFailed(id, errors.New("rpc timeout")))

	r, ok := s.Get(id)
	require.True(t, ok)
	require.Equal(t, StatusFailed, r.Status)
	require.Equal(t, 1, r.Attempts)
	require.Equal(t, "rpc timeout", r.LastError)
}

func TestMarkFinalizedPrunesBlocksBeyondRetentionLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, nil)
	require.NoError(t, err)

	for i := uint64(0); i < maxRetainedBlocks+10; i++ {
		id := uuid.New()
		require.NoError(t, s.Put(&Record{ID: id, BlockNumber: i, Status: StatusPending}))
		require.NoError(t, s.MarkFinalized(id, [32]byte{byte(i)}))
	}

	require.Len(t, s.doc.Blocks, maxRetainedBlocks)
}

func TestMarkFinalizedUnknownRecordErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.Error(t, s.MarkFinalized(uuid.New(), [32]byte{}))
}
