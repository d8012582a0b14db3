package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dashboardPrefix = "cache:dashboard:"

// RedisCache stores rendered dashboard payloads. A nil *RedisCache is a
// valid cache that never hits and never fails, used when no Redis address
// is configured.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache returns nil when addr is empty.
func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	if addr == "" {
		return nil
	}
	return &RedisCache{
		client: redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		ttl:    ttl,
	}
}

// GetDashboard returns the cached payload for a window, and whether it was found.
func (c *RedisCache) GetDashboard(ctx context.Context, days int) ([]byte, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	data, err := c.client.Get(ctx, dashboardKey(days)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (c *RedisCache) SetDashboard(ctx context.Context, days int, payload []byte) error {
	if c == nil {
		return nil
	}
	return c.client.Set(ctx, dashboardKey(days), payload, c.ttl).Err()
}

// InvalidateDashboard drops every cached dashboard window.
func (c *RedisCache) InvalidateDashboard(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var keys []string
	iter := c.client.Scan(ctx, 0, dashboardPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan dashboard keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

func dashboardKey(days int) string {
	return fmt.Sprintf("%s%d", dashboardPrefix, days)
}
