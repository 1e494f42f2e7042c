package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisTimeout = 500 * time.Millisecond

// RedisCache stores JSON-encoded values in Redis under a key prefix. Redis
// errors are logged and treated as cache misses.
type RedisCache[V any] struct {
	client *redis.Client
	prefix string
	log    *zap.Logger
}

func NewRedisCache[V any](client *redis.Client, prefix string, log *zap.Logger) *RedisCache[V] {
	if log == nil {
		log = zap.NewNop()
	}
	return &RedisCache[V]{client: client, prefix: prefix, log: log}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (c *RedisCache[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil || c.client == nil {
		return zero, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warn("redis cache get failed", zap.String("key", key), zap.Error(err))
		}
		return zero, false
	}
	var value V
	if err := json.Unmarshal(raw, &value); err != nil {
		c.log.Warn("redis cache decode failed", zap.String("key", key), zap.Error(err))
		return zero, false
	}
	return value, true
}

func (c *RedisCache[V]) Set(key string, value V, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("redis cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := c.client.Set(ctx, c.prefix+key, raw, ttl).Err(); err != nil {
		c.log.Warn("redis cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *RedisCache[V]) Delete(key string) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.log.Warn("redis cache delete failed", zap.String("key", key), zap.Error(err))
	}
}
