package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache holds the global rate table between reads of the document store.
type Cache interface {
	Get(ctx context.Context) (Table, bool, error)
	Set(ctx context.Context, t Table) error
	Invalidate(ctx context.Context) error
}

const defaultCacheKey = "fieldforce:rates:global"

// RedisCache stores the rate table as JSON under a single key with a TTL.
type RedisCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisCacheWithClient(client, ttl), nil
}

// NewRedisCacheWithClient wraps an existing client.
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &RedisCache{client: client, key: defaultCacheKey, ttl: ttl}
}

// Get returns the cached table. A miss is (nil, false, nil).
func (c *RedisCache) Get(ctx context.Context) (Table, bool, error) {
	raw, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get rates: %w", err)
	}

	var t Table
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, false, fmt.Errorf("decode cached rates: %w", err)
	}
	return t, true, nil
}

// Set stores the table with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, t Table) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}
	if err := c.client.Set(ctx, c.key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set rates: %w", err)
	}
	return nil
}

// Invalidate drops the cached table.
func (c *RedisCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del rates: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NopCache never holds anything. Used when Redis is not configured.
type NopCache struct{}

func (NopCache) Get(context.Context) (Table, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, Table) error         { return nil }
func (NopCache) Invalidate(context.Context) error         { return nil }

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = NopCache{}
)
