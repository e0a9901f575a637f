package core

import (
	"context"
	"fmt"
)

// StorageCloser is a Storage that holds resources until closed.
type StorageCloser interface {
	Storage
	Close() error
}

// NewStorage builds the provider named by cfg.Provider. An empty provider
// means the in-memory store.
func NewStorage(ctx context.Context, cfg StorageConfig, logger Logger) (StorageCloser, error) {
	logger = OrNoOp(logger)

	switch cfg.Provider {
	case "", StorageMemory:
		store := NewMemoryStore()
		store.SetLogger(logger)
		logger.Info("Using in-memory storage", map[string]interface{}{
			"provider": StorageMemory,
		})
		return store, nil

	case StorageRedis:
		store, err := NewRedisStore(ctx, RedisStoreOptions{
			RedisURL:  cfg.RedisURL,
			DB:        cfg.RedisDB,
			Namespace: cfg.Namespace,
			Logger:    logger,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case StorageSQLite:
		store, err := NewSQLiteStore(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, &Error{
			Op:      "core.NewStorage",
			Kind:    KindConfig,
			Message: fmt.Sprintf("unknown storage provider: %s", cfg.Provider),
			Err:     ErrInvalidConfiguration,
		}
	}
}
