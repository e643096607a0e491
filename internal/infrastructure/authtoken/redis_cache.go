package authtoken

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores tokens in Redis so multiple hub instances share the same
// token per provider account. Entries expire with the token itself; nothing
// reaches durable storage.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisCache creates a Redis-backed token cache with an existing client.
func NewRedisCache(client *redis.Client, keyPrefix string) *RedisCache {
	if keyPrefix == "" {
		keyPrefix = "hub:token:"
	}
	return &RedisCache{client: client, keyPrefix: keyPrefix}
}

// Get returns the cached token for the key, or nil when absent or expired.
func (c *RedisCache) Get(ctx context.Context, key string) (*Token, error) {
	raw, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached token: %w", err)
	}
	var tok Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode cached token: %w", err)
	}
	return &tok, nil
}

// Put stores a token with a TTL matching its remaining lifetime.
func (c *RedisCache) Put(ctx context.Context, key string, token *Token) error {
	ttl := time.Until(token.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache token: %w", err)
	}
	return nil
}

// Delete drops a cached token.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.keyPrefix+key).Err()
}

// Ensure RedisCache implements Cache
var _ Cache = (*RedisCache)(nil)
