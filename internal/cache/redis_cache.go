package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

type RedisTotalsCache struct {
	client *redis.Client
}

func NewRedisTotalsCache(addr string, password string, db int) *RedisTotalsCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisTotalsCache{client: client}
}

func (c *RedisTotalsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisTotalsCache) Close() error {
	return c.client.Close()
}

func (c *RedisTotalsCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisTotalsCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisTotalsCache) Invalidate(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}
