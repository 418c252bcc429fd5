package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ProfileCache adapts a redis client to the byte-level cache the user
// service reads profiles through. A key that is not present comes back
// as a nil value, never as an error.
type ProfileCache struct {
	client *redis.Client
}

func NewProfileCache(client *redis.Client) *ProfileCache {
	return &ProfileCache{client: client}
}

func (p *ProfileCache) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := p.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return raw, err
}

func (p *ProfileCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return p.client.Set(ctx, key, value, ttl).Err()
}

func (p *ProfileCache) Del(ctx context.Context, keys ...string) error {
	return p.client.Del(ctx, keys...).Err()
}
