package nutrition

import (
	"Cookbook/internal/model"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache — кэш расчётов в Redis, ключ — sha256 от ingredientVersion.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache подключается к Redis по URL и проверяет соединение.
func NewRedisCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Get(ctx context.Context, version string) (*model.NutritionalInfo, bool, error) {
	data, err := c.client.Get(ctx, cacheKey(version)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get nutrition from Redis: %w", err)
	}
	var info model.NutritionalInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal nutrition: %w", err)
	}
	// защита от коллизий хэша
	if info.IngredientVersion != version {
		return nil, false, nil
	}
	return &info, true, nil
}

func (c *RedisCache) Set(ctx context.Context, version string, info *model.NutritionalInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("failed to marshal nutrition: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(version), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store nutrition in Redis: %w", err)
	}
	return nil
}

func cacheKey(version string) string {
	sum := sha256.Sum256([]byte(version))
	return "nutrition:" + hex.EncodeToString(sum[:])
}
