package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/seu-repo/conversia/internal/ports"
)

// RedisCache implements ports.Cache backed by Redis, shared across replicas.
type RedisCache struct {
	client *redis.Client
	log    *zap.Logger
}

func NewRedisCache(url string, log *zap.Logger) (ports.Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Successfully connected to Redis cache")
	return &RedisCache{
		client: client,
		log:    log,
	}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.client.Get(ctx, key).Result()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return c.client.Set(ctx, key, value, expiration).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Ping() error {
	return c.client.Ping(context.Background()).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
