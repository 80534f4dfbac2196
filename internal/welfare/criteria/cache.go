package criteria

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"welfarehub/internal/welfare/models"
)

// Cache stores AI criteria by profile fingerprint.
type Cache interface {
	Get(ctx context.Context, fingerprint string) (*models.FilterCriteria, error)
	Set(ctx context.Context, fingerprint string, c *models.FilterCriteria) error
}

const cacheKeyPrefix = "welfare:criteria:"

// RedisCache keeps criteria as JSON strings with a TTL.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns nil, nil on a miss.
func (c *RedisCache) Get(ctx context.Context, fingerprint string) (*models.FilterCriteria, error) {
	raw, err := c.client.Get(ctx, cacheKeyPrefix+fingerprint).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cached criteria: %w", err)
	}
	var fc models.FilterCriteria
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("decode cached criteria: %w", err)
	}
	return &fc, nil
}

func (c *RedisCache) Set(ctx context.Context, fingerprint string, fc *models.FilterCriteria) error {
	raw, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("encode criteria: %w", err)
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+fingerprint, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache criteria: %w", err)
	}
	return nil
}
