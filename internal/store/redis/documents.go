package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// documents is the slice of the RedisJSON command set the store relies on.
type documents interface {
	GetJSON(ctx context.Context, key string) (string, error)
	SetJSON(ctx context.Context, key, path string, value interface{}) error
}

// jsonClient adapts *redis.Client to documents.
type jsonClient struct {
	client *redis.Client
}

func (c jsonClient) GetJSON(ctx context.Context, key string) (string, error) {
	return c.client.JSONGet(ctx, key).Result()
}

func (c jsonClient) SetJSON(ctx context.Context, key, path string, value interface{}) error {
	return c.client.JSONSet(ctx, key, path, value).Err()
}
