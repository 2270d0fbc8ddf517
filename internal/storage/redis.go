package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a session Backend. Every write refreshes the key's TTL so values
// expire once a browsing session goes idle.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

// NewRedis wraps client. A zero ttl stores keys without expiry.
func NewRedis(client *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Scope returns the store for scope.
func (r *Redis) Scope(scope string) Store {
	return &redisScope{r: r, scope: scope}
}

// Close closes the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

type redisScope struct {
	r     *Redis
	scope string
}

func (s *redisScope) key(k string) string {
	return s.r.prefix + s.scope + ":" + k
}

func (s *redisScope) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.r.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *redisScope) Set(ctx context.Context, key, value string) error {
	return s.r.client.Set(ctx, s.key(key), value, s.r.ttl).Err()
}

func (s *redisScope) Delete(ctx context.Context, key string) error {
	return s.r.client.Del(ctx, s.key(key)).Err()
}
