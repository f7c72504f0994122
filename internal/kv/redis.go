package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis is a redis-backed store for clients that want the mirror off-box.
// Keys are namespaced so several client contexts can share one instance.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis wraps an already-connected client. prefix scopes all keys
// (e.g. "mirror:default"); it must not be empty so two contexts never
// collide silently.
func NewRedis(rdb *redis.Client, prefix string) (*Redis, error) {
	if rdb == nil {
		return nil, errors.New("kv: redis client is nil")
	}
	if prefix == "" {
		return nil, errors.New("kv: redis key prefix is required")
	}
	return &Redis{rdb: rdb, prefix: prefix}, nil
}

func (r *Redis) key(k string) string {
	return fmt.Sprintf("%s:%s", r.prefix, k)
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.rdb.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return v, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	// No TTL: the mirror is cleared only by explicit deletion.
	return r.rdb.Set(ctx, r.key(key), value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, r.key(key)).Err()
}
