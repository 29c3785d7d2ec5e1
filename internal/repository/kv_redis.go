package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

type RedisKVStore struct {
	rdb *redis.Client
}

func NewRedisKVStore(rdb *redis.Client) *RedisKVStore {
	return &RedisKVStore{rdb: rdb}
}

func (r *RedisKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	return v, err
}

// Set stores value without expiry.
func (r *RedisKVStore) Set(ctx context.Context, key string, value []byte) error {
	return r.rdb.Set(ctx, key, value, 0).Err()
}

func (r *RedisKVStore) Delete(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}
