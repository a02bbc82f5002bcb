package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/minfaz98/cozy-stay/config"
	"github.com/minfaz98/cozy-stay/internal/domain"
)

// RedisCache holds the room catalog cache and the distributed locks that
// serialize bookings per room and keep a single sweep in flight.
type RedisCache struct {
	client   *redis.Client
	roomsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, roomsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		roomsTTL: roomsTTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) GetRooms(ctx context.Context) ([]domain.Room, error) {
	data, err := c.client.Get(ctx, roomsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var rooms []domain.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (c *RedisCache) SetRooms(ctx context.Context, rooms []domain.Room) error {
	payload, err := json.Marshal(rooms)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, roomsKey(), payload, c.roomsTTL).Err()
}

func (c *RedisCache) InvalidateRooms(ctx context.Context) error {
	return c.client.Del(ctx, roomsKey()).Err()
}

// releaseLock deletes a lock only while it still carries the caller's token,
// so a holder whose TTL ran out cannot drop a lock taken over by someone else.
var releaseLock = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// AcquireRoomLock returns the holder token when the lock was taken.
func (c *RedisCache) AcquireRoomLock(ctx context.Context, roomID int64, ttl time.Duration) (string, bool, error) {
	return c.acquire(ctx, roomLockKey(roomID), ttl)
}

func (c *RedisCache) ReleaseRoomLock(ctx context.Context, roomID int64, token string) error {
	return c.release(ctx, roomLockKey(roomID), token)
}

func (c *RedisCache) AcquireSweepLock(ctx context.Context, ttl time.Duration) (string, bool, error) {
	return c.acquire(ctx, sweepLockKey(), ttl)
}

func (c *RedisCache) ReleaseSweepLock(ctx context.Context, token string) error {
	return c.release(ctx, sweepLockKey(), token)
}

func (c *RedisCache) acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return "", false, err
	}
	return token, true, nil
}

func (c *RedisCache) release(ctx context.Context, key, token string) error {
	return releaseLock.Run(ctx, c.client, []string{key}, token).Err()
}

func roomsKey() string {
	return "cache:rooms"
}

func roomLockKey(roomID int64) string {
	return fmt.Sprintf("lock:room:%d", roomID)
}

func sweepLockKey() string {
	return "lock:sweep:daily"
}
