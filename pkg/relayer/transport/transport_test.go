package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIsRecoverableClassifiesContextCancellation(t *testing.T) {
	require.False(t, IsRecoverable(context.Canceled))
	require.False(t, IsRecoverable(context.DeadlineExceeded))
}

func TestIsRecoverableClassifiesWrappedNonRecoverable(t *testing.T) {
	err := &NonRecoverable{Err: errors.New("invalid signature")}
	require.False(t, IsRecoverable(err))
	require.True(t, errors.Is(err.Unwrap(), err.Err))
}

func TestIsRecoverableDefaultsToTrue(t *testing.T) {
	require.True(t, IsRecoverable(errors.New("connection reset")))
	require.True(t, IsRecoverable(nil))
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	b := Backoff{Base: time.Second, MaxDelay: 4 * time.Second}
	require.Equal(t, time.Second, b.Delay(0))
	require.Equal(t, 2*time.Second, b.Delay(1))
	require.Equal(t, 4*time.Second, b.Delay(2))
	require.Equal(t, 4*time.Second, b.Delay(5))
}

func TestBackoffExhausted(t *testing.T) {
	b := Backoff{MaxAttempts: 3}
	require.False(t, b.Exhausted(2))
	require.True(t, b.Exhausted(3))

	unlimited := Backoff{MaxAttempts: 0}
	require.False(t, unlimited.Exhausted(1000))
}

func TestSleepRespectsContextCancellation(t *testing.T) {
	b := Backoff{Base: time.Minute}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := b.Sleep(ctx, 0)
	require.ErrorIs(t, err, context.Canceled)
}
