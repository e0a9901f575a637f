// Package core provides the shared building blocks of the pizzeria storefront.
// This file implements the Redis-backed Storage provider.
//
// All keys are prefixed with the configured namespace so several storefronts
// (or test runs) can share one Redis database:
//
//	pizzeria:pizza_cart_alice
//	pizzeria:pizza_orders
//
// Usage:
//
//	store, err := NewRedisStore(ctx, RedisStoreOptions{
//	    RedisURL:  "redis://localhost:6379",
//	    DB:        2,
//	    Namespace: "pizzeria",
//	})
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore provides Storage on top of go-redis with key namespacing
type RedisStore struct {
	client    *redis.Client
	dbID      int
	namespace string
	logger    Logger
}

// RedisStoreOptions configures the Redis store
type RedisStoreOptions struct {
	RedisURL    string
	DB          int    // Redis DB number for isolation (0-15)
	Namespace   string // Key namespace for organization
	DialTimeout time.Duration
	Logger      Logger // Optional logger
}

// NewRedisStore creates a new Redis-backed store and verifies the connection
func NewRedisStore(ctx context.Context, opts RedisStoreOptions) (*RedisStore, error) {
	logger := OrNoOp(opts.Logger)

	if opts.RedisURL == "" {
		logger.Error("Failed to initialize Redis store", map[string]interface{}{
			"error":      "Redis URL is required",
			"error_type": "ErrMissingConfiguration",
		})
		return nil, fmt.Errorf("redis URL is required: %w", ErrMissingConfiguration)
	}

	redisOpt, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		logger.Error("Failed to parse Redis URL", map[string]interface{}{
			"error":      err,
			"error_type": fmt.Sprintf("%T", err),
		})
		return nil, fmt.Errorf("invalid Redis URL: %w", ErrInvalidConfiguration)
	}

	// Override DB for isolation
	if opts.DB >= 0 && opts.DB <= 15 {
		redisOpt.DB = opts.DB
	}

	client := redis.NewClient(redisOpt)

	timeout := opts.DialTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", map[string]interface{}{
			"error":      err,
			"error_type": fmt.Sprintf("%T", err),
			"db":         redisOpt.DB,
			"namespace":  opts.Namespace,
		})
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis DB %d: %w", redisOpt.DB, ErrConnectionFailed)
	}

	logger.Info("Redis store connected", map[string]interface{}{
		"db":        redisOpt.DB,
		"namespace": opts.Namespace,
	})

	return &RedisStore{
		client:    client,
		dbID:      redisOpt.DB,
		namespace: opts.Namespace,
		logger:    logger,
	}, nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	err := r.client.Close()
	if err != nil {
		r.logger.Error("Failed to close Redis store", map[string]interface{}{
			"error":     err,
			"db":        r.dbID,
			"namespace": r.namespace,
		})
	}
	return err
}

// GetDB returns the DB number being used
func (r *RedisStore) GetDB() int {
	return r.dbID
}

// GetNamespace returns the namespace being used
func (r *RedisStore) GetNamespace() string {
	return r.namespace
}

// formatKey formats a key with the namespace
func (r *RedisStore) formatKey(key string) string {
	if r.namespace != "" {
		return fmt.Sprintf("%s:%s", r.namespace, key)
	}
	return key
}

// Get retrieves a value. A missing key is not an error.
func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.formatKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get %s: %v: %w", key, err, ErrStorageUnavailable)
	}
	return val, nil
}

// Set stores a value with optional TTL
func (r *RedisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.formatKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %v: %w", key, err, ErrStorageUnavailable)
	}
	return nil
}

// Delete removes a key
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.formatKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %v: %w", key, err, ErrStorageUnavailable)
	}
	return nil
}

// Exists checks whether a key is present
func (r *RedisStore) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.client.Exists(ctx, r.formatKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists %s: %v: %w", key, err, ErrStorageUnavailable)
	}
	return n > 0, nil
}
