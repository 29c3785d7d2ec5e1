package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-drill/internal/config"
	"github.com/stemsi/exstem-drill/internal/repository"
)

// Storage bundles the key-value store chosen by STORAGE_DRIVER with the
// optional Redis client used for the translation cache.
type Storage struct {
	KV    repository.KVStore
	Redis *redis.Client

	closers []func()
}

// Close releases every connection opened by OpenStorage, newest first.
func (s *Storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStorage connects the backend named by cfg.StorageDriver. Redis is
// connected whenever REDIS_URL is set, even if it is not the KV backend.
func OpenStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Storage, error) {
	s := &Storage{}

	if cfg.RedisURL != "" {
		rdb, err := NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		s.Redis = rdb
		s.closers = append(s.closers, func() { rdb.Close() })
	}

	switch cfg.StorageDriver {
	case config.StorageSQLite:
		db, err := NewSQLiteDB(ctx, cfg, log)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.KV = repository.NewSQLiteKVStore(db)
		s.closers = append(s.closers, func() { db.Close() })

	case config.StoragePostgres:
		pool, err := NewPostgresPool(ctx, cfg, log)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.KV = repository.NewPostgresKVStore(pool)
		s.closers = append(s.closers, pool.Close)

	case config.StorageRedis:
		if s.Redis == nil {
			return nil, fmt.Errorf("STORAGE_DRIVER=redis requires REDIS_URL")
		}
		s.KV = repository.NewRedisKVStore(s.Redis)

	case config.StorageMemory:
		s.KV = repository.NewMemoryKVStore()

	default:
		s.Close()
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	log.Info().Str("driver", cfg.StorageDriver).Bool("redis_cache", s.Redis != nil).Msg("Storage ready")
	return s, nil
}
