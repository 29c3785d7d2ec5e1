package repository

import (
	"context"
	"errors"
)

// ErrKeyNotFound is returned by KVStore.Get when the key has never been set.
var ErrKeyNotFound = errors.New("key not found")

// KVStore is the string-keyed blob store that holds custom banks, the
// translation preference and the practice ledger.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
