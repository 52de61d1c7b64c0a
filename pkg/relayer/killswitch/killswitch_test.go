package killswitch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gear-tech/gear-bridges-sub000/pkg/codec"
	"github.com/gear-tech/gear-bridges-sub000/pkg/relayer/transport"
)

type fakeEthereumRootSource struct {
	roots []SubmittedRoot
	err   error
}

func (f *fakeEthereumRootSource) ScanSubmittedRoots(ctx context.Context, fromBlock uint64) ([]SubmittedRoot, error) {
	return f.roots, f.err
}

type fakeSidechainRootSource struct {
	roots map[uint64]codec.Hash32
}

func (f *fakeSidechainRootSource) AuthoritativeRoot(ctx context.Context, blockNumber uint64) (codec.Hash32, error) {
	return f.roots[blockNumber], nil
}

type fakeDisputer struct {
	challenged []uint64
	resubmitted []uint64
}

func (f *fakeDisputer) ChallengeRoot(ctx context.Context, blockNumber uint64, submitted codec.Hash32) ([32]byte, error) {
	f.challenged = append(f.challenged, blockNumber)
	return [32]byte{0xaa}, nil
}

func (f *fakeDisputer) SubmitAuthenticRoot(ctx context.Context, blockNumber uint64, authentic codec.Hash32) ([32]byte, error) {
	f.resubmitted = append(f.resubmitted, blockNumber)
	return [32]byte{0xbb}, nil
}

func TestScanIgnoresMatchingRoots(t *testing.T) {
	ethereum := &fakeEthereumRootSource{roots: []SubmittedRoot{{BlockNumber: 100, Root: codec.Hash32{0x01}}}}
	sidechain := &fakeSidechainRootSource{roots: map[uint64]codec.Hash32{100: {0x01}}}
	disputer := &fakeDisputer{}
	o := New(ethereum, sidechain, disputer, 0, nil)

	mismatches, err := o.Scan(context.Background())
	require.NoError(t, err)
	require.Empty(t, mismatches)
	require.Empty(t, disputer.challenged)
	require.Equal(t, ScanForEvents, o.State())
}

func TestScanChallengesMismatchedRoot(t *testing.T) {
	ethereum := &fakeEthereumRootSource{roots: []SubmittedRoot{{BlockNumber: 100, Root: codec.Hash32{0x01}}}}
	sidechain := &fakeSidechainRootSource{roots: map[uint64]codec.Hash32{100: {0x02}}}
	disputer := &fakeDisputer{}
	o := New(ethereum, sidechain, disputer, 0, nil)

	mismatches, err := o.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	require.Equal(t, []uint64{100}, disputer.challenged)
	require.Equal(t, codec.Hash32{0x02}, mismatches[0].Authoritative)
}

func TestResubmitSendsAuthenticRoot(t *testing.T) {
	disputer := &fakeDisputer{}
	o := New(&fakeEthereumRootSource{}, &fakeSidechainRootSource{}, disputer, 0, nil)

	err := o.Resubmit(context.Background(), Mismatch{BlockNumber: 100, Authoritative: codec.Hash32{0x02}})
	require.NoError(t, err)
	require.Equal(t, []uint64{100}, disputer.resubmitted)
	require.Equal(t, ScanForEvents, o.State())
}

func TestScanExitsOnNonRecoverableError(t *testing.T) {
	ethereum := &fakeEthereumRootSource{err: &transport.NonRecoverable{Err: errors.New("banned")}}
	o := New(ethereum, &fakeSidechainRootSource{}, &fakeDisputer{}, 0, nil)

	_, err := o.Scan(context.Background())
	require.ErrorIs(t, err, ErrNonRecoverable)
	require.Equal(t, Exit, o.State())
}
