package util

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"EAGAIN", syscall.EAGAIN, true},
		{"EIO", syscall.EIO, true},
		{"ENOENT (not retryable)", syscall.ENOENT, false},
		{"wrapped path error", &os.PathError{Op: "open", Path: "x", Err: syscall.ETIMEDOUT}, true},
		{"timeout in message", errors.New("read: connection timeout"), true},
		{"plain error", errors.New("bad header"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsRetryableError(tt.err))
		})
	}
}

func TestRetryWithBackoff(t *testing.T) {
	cfg := &RetryConfig{MaxAttempts: 3, InitialWait: time.Millisecond, MaxWait: 2 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		got, err := RetryWithBackoff(context.Background(), cfg, func() (int, error) {
			calls++
			if calls < 3 {
				return 0, syscall.EAGAIN
			}
			return 42, nil
		}, "op")
		require.NoError(t, err)
		assert.Equal(t, 42, got)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		calls := 0
		_, err := RetryWithBackoff(context.Background(), cfg, func() (int, error) {
			calls++
			return 0, syscall.ENOENT
		}, "op")
		require.ErrorIs(t, err, syscall.ENOENT)
		assert.Equal(t, 1, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		_, err := RetryWithBackoff(context.Background(), cfg, func() (int, error) {
			calls++
			return 0, syscall.EIO
		}, "op")
		require.ErrorIs(t, err, syscall.EIO)
		assert.Equal(t, 3, calls)
	})

	t.Run("honours cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := &RetryConfig{MaxAttempts: 5, InitialWait: time.Hour, MaxWait: time.Hour}
		_, err := RetryWithBackoff(ctx, slow, func() (int, error) {
			return 0, syscall.EAGAIN
		}, "op")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetryableOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "listing.csv")
	require.NoError(t, os.WriteFile(path, []byte("appid\n1\n"), 0644))

	f, err := RetryableOpen(context.Background(), path, nil)
	require.NoError(t, err)
	f.Close()

	_, err = RetryableOpen(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), nil)
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}
