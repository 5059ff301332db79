package cache

import (
	"context"
	"strconv"
	"time"

	redis "github.com/redis/go-redis/v9"
)

const stockKey = "efuel:stock:current"

type RedisStockCache struct {
	client *redis.Client
}

func NewRedisStockCache(addr string, password string, db int) *RedisStockCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisStockCache{client: client}
}

func (c *RedisStockCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisStockCache) Close() error {
	return c.client.Close()
}

func (c *RedisStockCache) GetStock(ctx context.Context) (float64, bool, error) {
	val, err := c.client.Get(ctx, stockKey).Result()
	if err == redis.Nil {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	liters, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false, err
	}
	return liters, true, nil
}

func (c *RedisStockCache) SetStock(ctx context.Context, liters float64, ttl time.Duration) error {
	return c.client.Set(ctx, stockKey, strconv.FormatFloat(liters, 'f', -1, 64), ttl).Err()
}

func (c *RedisStockCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, stockKey).Err()
}
