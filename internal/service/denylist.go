package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTokenDenylist stores revoked token IDs as expiring redis keys
type RedisTokenDenylist struct {
	client *redis.Client
	prefix string
}

var _ TokenDenylist = (*RedisTokenDenylist)(nil)

func NewRedisTokenDenylist(client *redis.Client) *RedisTokenDenylist {
	return &RedisTokenDenylist{client: client, prefix: "auth:revoked:"}
}

func (d *RedisTokenDenylist) Revoke(ctx context.Context, jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.client.Set(ctx, d.prefix+jti, 1, ttl).Err()
}

func (d *RedisTokenDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	err := d.client.Get(ctx, d.prefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
