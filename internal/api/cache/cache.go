// Package cache keeps recently verified access tokens so the API does not
// ask the auth provider on every request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cuongbtq/farmhand/internal/client/auth"
)

// TokenCache maps access tokens to the users they resolved to.
// Implementations must be safe for concurrent use.
type TokenCache interface {
	GetUser(ctx context.Context, token string) (auth.User, bool, error)
	SetUser(ctx context.Context, token string, user auth.User, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

// TokenKey is the cache key for a token. Tokens are stored hashed.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "farmhand:token:" + hex.EncodeToString(sum[:])
}

// RedisCache implements TokenCache using go-redis/v9
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a RedisCache from a Redis URL
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) GetUser(ctx context.Context, token string) (auth.User, bool, error) {
	val, err := c.client.Get(ctx, TokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}

	var u auth.User
	if err := json.Unmarshal(val, &u); err != nil {
		return auth.User{}, false, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return u, true, nil
}

func (c *RedisCache) SetUser(ctx context.Context, token string, user auth.User, ttl time.Duration) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return c.client.Set(ctx, TokenKey(token), data, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Noop is used when no Redis URL is configured; every lookup misses
type Noop struct{}

func (Noop) GetUser(context.Context, string) (auth.User, bool, error) {
	return auth.User{}, false, nil
}

func (Noop) SetUser(context.Context, string, auth.User, time.Duration) error { return nil }

func (Noop) Ping(context.Context) error { return nil }

func (Noop) Close() error { return nil }
