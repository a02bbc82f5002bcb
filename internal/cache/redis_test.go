package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minfaz98/cozy-stay/config"
)

func TestNewRedisCache(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "localhost:6379"}, time.Minute)
	assert.NotNil(t, c)
	assert.Equal(t, time.Minute, c.roomsTTL)
	assert.NoError(t, c.Close())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "lock:room:12", roomLockKey(12))
	assert.Equal(t, "cache:rooms", roomsKey())
	assert.Equal(t, "lock:sweep:daily", sweepLockKey())
}

func TestRedisCache_UnreachableServer(t *testing.T) {
	c := NewRedisCache(config.RedisConfig{Addr: "127.0.0.1:1"}, time.Minute)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	token, ok, err := c.AcquireRoomLock(ctx, 1, time.Second)
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Empty(t, token)
}

// newLiveCache connects to TEST_REDIS_ADDR and skips without it.
func newLiveCache(t *testing.T) *RedisCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping integration test")
	}
	c := NewRedisCache(config.RedisConfig{Addr: addr}, time.Minute)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.Ping(context.Background()))
	return c
}

func TestRedisCache_StaleHolderCannotRelease(t *testing.T) {
	c := newLiveCache(t)
	ctx := context.Background()
	require.NoError(t, c.client.Del(ctx, sweepLockKey()).Err())

	stale, ok, err := c.AcquireSweepLock(ctx, 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(100 * time.Millisecond)

	current, ok, err := c.AcquireSweepLock(ctx, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotEqual(t, stale, current)

	require.NoError(t, c.ReleaseSweepLock(ctx, stale))
	_, ok, err = c.AcquireSweepLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "lock of the current holder must survive a stale release")

	require.NoError(t, c.ReleaseSweepLock(ctx, current))
	again, ok, err := c.AcquireSweepLock(ctx, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, c.ReleaseSweepLock(ctx, again))
}

func TestRedisCache_RoomLockIsExclusive(t *testing.T) {
	c := newLiveCache(t)
	ctx := context.Background()
	const roomID = 987654
	require.NoError(t, c.client.Del(ctx, roomLockKey(roomID)).Err())

	token, ok, err := c.AcquireRoomLock(ctx, roomID, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.AcquireRoomLock(ctx, roomID, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.ReleaseRoomLock(ctx, roomID, token))
	token, ok, err = c.AcquireRoomLock(ctx, roomID, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, c.ReleaseRoomLock(ctx, roomID, token))
}
