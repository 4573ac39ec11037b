package cache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"multimodal-chat-backend/internal/config"
)

// RedisCache stores vendor replies for single-shot image analysis,
// keyed by request hash, with a TTL.
type RedisCache struct {
	client *redis.Client
	cfg    config.RedisConfig
}

func NewRedisCache(cfg config.RedisConfig) *RedisCache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisCache{
		client: rdb,
		cfg:    cfg,
	}
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value string) error {
	return r.client.Set(ctx, key, value, r.cfg.TTL).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
