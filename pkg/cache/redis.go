package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL bounds how long a cached mapping may outlive its row. Stale
// entries are also invalidated on deactivation and on failed increments.
const DefaultTTL = 24 * time.Hour

type MappingCache interface {
	Get(ctx context.Context, code string) (*CachedMapping, error)
	Set(ctx context.Context, code string, mapping *CachedMapping, ttl time.Duration) error
	Delete(ctx context.Context, code string) error
}

// CachedMapping holds the subset of a mapping the redirect path needs.
// Only active mappings are cached.
type CachedMapping struct {
	OriginalURL string `json:"original_url"`
}

type RedisMappingCache struct {
	client *redis.Client
}

func NewRedisMappingCache(client *redis.Client) *RedisMappingCache {
	return &RedisMappingCache{client: client}
}

func (c *RedisMappingCache) Get(ctx context.Context, code string) (*CachedMapping, error) {
	key := "mapping:" + code
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var cached CachedMapping
	if err := json.Unmarshal([]byte(val), &cached); err != nil {
		return nil, err
	}

	return &cached, nil
}

func (c *RedisMappingCache) Set(ctx context.Context, code string, mapping *CachedMapping, ttl time.Duration) error {
	key := "mapping:" + code
	data, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisMappingCache) Delete(ctx context.Context, code string) error {
	key := "mapping:" + code
	return c.client.Del(ctx, key).Err()
}

var _ MappingCache = (*RedisMappingCache)(nil)
