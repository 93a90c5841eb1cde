package replay

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGuardCheck(t *testing.T) {
	t.Parallel()

	guard := NewGuard(NewMemoryStore(100, nil), Config{MaxSize: 100}, nil)
	defer guard.Close()

	expiresAt := time.Now().Add(time.Hour)

	require.NoError(t, guard.Check("jti-1", expiresAt))
	assert.ErrorIs(t, guard.Check("jti-1", expiresAt), ErrReplayed)
	require.NoError(t, guard.Check("jti-2", expiresAt))

	assert.ErrorIs(t, guard.Check("", expiresAt), ErrEmptyID)

	seen, err := guard.Seen("jti-1")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = guard.Seen("")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestGuardCapacityError(t *testing.T) {
	t.Parallel()

	guard := NewGuard(NewMemoryStore(1, nil), Config{MaxSize: 1}, nil)
	defer guard.Close()

	expiresAt := time.Now().Add(time.Hour)
	require.NoError(t, guard.Check("a", expiresAt))

	err := guard.Check("b", expiresAt)
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.NotErrorIs(t, err, ErrReplayed)
}

func TestGuardClose(t *testing.T) {
	t.Parallel()

	guard := NewGuard(NewMemoryStore(10, nil), DefaultConfig(), nil)
	require.NoError(t, guard.Close())
	require.NoError(t, guard.Close())

	assert.ErrorIs(t, guard.Check("jti", time.Now().Add(time.Hour)), ErrClosed)
	_, err := guard.Seen("jti")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestGuardAutoCleanup(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	store := NewMemoryStore(100, nil)
	guard := NewGuard(store, Config{
		MaxSize:           100,
		CleanupInterval:   10 * time.Millisecond,
		EnableAutoCleanup: true,
	}, zap.New(core))
	defer guard.Close()

	require.NoError(t, guard.Check("short-lived", time.Now().Add(-time.Second)))

	assert.Eventually(t, func() bool {
		size, err := store.Size()
		return err == nil && size == 0
	}, time.Second, 10*time.Millisecond)

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("replay cache cleaned").Len() > 0
	}, time.Second, 10*time.Millisecond)
}
