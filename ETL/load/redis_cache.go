package load

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LilVoxy/obeya_headcount/ETL/models"
	"github.com/LilVoxy/obeya_headcount/processor"
)

const defaultRedisPrefix = "obeya:result:"

// RedisCache is a ResultCache shared by every instance of the service.
// Payloads are encoded with processor.Codec.
type RedisCache struct {
	redis  *redis.Client
	codec  *processor.Codec
	ttl    time.Duration
	prefix string
}

// NewRedisCache creates a RedisCache. A zero TTL stores keys without expiry.
func NewRedisCache(client *redis.Client, codec *processor.Codec, ttl time.Duration) *RedisCache {
	if codec == nil {
		codec = processor.NewCodec(nil)
	}
	return &RedisCache{redis: client, codec: codec, ttl: ttl, prefix: defaultRedisPrefix}
}

// NewRedisClient parses a redis:// URL and pings the server
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

func (c *RedisCache) key(period models.Period) string {
	return fmt.Sprintf("%s%s:%d", c.prefix, period.Month, period.Year)
}

// Get implements ResultCache
func (c *RedisCache) Get(ctx context.Context, period models.Period) (*models.Result, bool, error) {
	payload, err := c.redis.Get(ctx, c.key(period)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("reading cached result: %w", err)
	}
	var result models.Result
	if err := c.codec.Decode(payload, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

// Set implements ResultCache
func (c *RedisCache) Set(ctx context.Context, result *models.Result) error {
	if result == nil {
		return nil
	}
	payload, err := c.codec.Encode(result)
	if err != nil {
		return err
	}
	if err := c.redis.Set(ctx, c.key(result.Period), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("storing cached result: %w", err)
	}
	return nil
}

// Invalidate deletes every key under the cache prefix
func (c *RedisCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.redis.Scan(ctx, cursor, c.prefix+"*", 100).Result()
		if err != nil {
			return fmt.Errorf("scanning cached results: %w", err)
		}
		if len(keys) > 0 {
			if err := c.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("deleting cached results: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
