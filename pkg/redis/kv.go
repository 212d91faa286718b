package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by KV.Get for a missing or expired key.
var ErrNotFound = errors.New("redis: key not found")

// KV is the small string key/value surface the auth flow needs.
type KV struct {
	rdb *goredis.Client
}

func NewKV(rdb *goredis.Client) *KV {
	return &KV{rdb: rdb}
}

func (k *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return k.rdb.Set(ctx, key, value, ttl).Err()
}

func (k *KV) Get(ctx context.Context, key string) (string, error) {
	v, err := k.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (k *KV) Exists(ctx context.Context, key string) (bool, error) {
	n, err := k.rdb.Exists(ctx, key).Result()
	return n > 0, err
}

func (k *KV) Del(ctx context.Context, keys ...string) (int64, error) {
	return k.rdb.Del(ctx, keys...).Result()
}

func (k *KV) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return k.rdb.Expire(ctx, key, ttl).Err()
}

// Incr increments key and sets ttl when the key was just created.
func (k *KV) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	pipe := k.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
