package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLocker_ExclusiveUntilReleased(t *testing.T) {
	l := NewLocalLocker()

	release, ok, err := l.TryLock(context.Background(), "order_1", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(context.Background(), "order_1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, _ = l.TryLock(context.Background(), "order_2", time.Minute)
	assert.True(t, ok, "keys are independent")

	release()
	_, ok, _ = l.TryLock(context.Background(), "order_1", time.Minute)
	assert.True(t, ok)
}

func TestLocalLocker_ExpiredLockCanBeRetaken(t *testing.T) {
	clock := time.Now()
	l := NewLocalLocker()
	l.now = func() time.Time { return clock }

	staleRelease, ok, _ := l.TryLock(context.Background(), "order_1", CallbackLockTTL)
	require.True(t, ok)

	clock = clock.Add(CallbackLockTTL + time.Second)
	_, ok, _ = l.TryLock(context.Background(), "order_1", CallbackLockTTL)
	require.True(t, ok)

	// A stale holder must not release the new holder's lock
	staleRelease()
	_, ok, _ = l.TryLock(context.Background(), "order_1", CallbackLockTTL)
	assert.False(t, ok)
}

func TestRedisLocker(t *testing.T) {
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL not set")
	}

	l, err := NewRedisLocker(context.Background(), url)
	require.NoError(t, err)
	defer l.Close()

	key := "test-" + time.Now().Format("150405.000000")
	release, ok, err := l.TryLock(context.Background(), key, 5*time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(context.Background(), key, 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	release2, ok, err := l.TryLock(context.Background(), key, 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	release2()
}

func TestGetLocker_DefaultsToLocal(t *testing.T) {
	_, isLocal := GetLocker().(*LocalLocker)
	assert.True(t, isLocal)
}
