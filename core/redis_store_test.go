package core

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisStore_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		opts    RedisStoreOptions
		wantErr error
	}{
		{
			name:    "missing URL",
			opts:    RedisStoreOptions{},
			wantErr: ErrMissingConfiguration,
		},
		{
			name:    "unparseable URL",
			opts:    RedisStoreOptions{RedisURL: "not-a-url://"},
			wantErr: ErrInvalidConfiguration,
		},
		{
			name:    "unreachable server",
			opts:    RedisStoreOptions{RedisURL: "redis://127.0.0.1:1", DialTimeout: 200 * time.Millisecond},
			wantErr: ErrConnectionFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRedisStore(ctx, tt.opts)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRedisStore_Namespacing(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(ctx, RedisStoreOptions{
		RedisURL:  "redis://" + mr.Addr(),
		DB:        2,
		Namespace: "pizzeria",
	})
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, 2, store.GetDB())
	assert.Equal(t, "pizzeria", store.GetNamespace())

	require.NoError(t, store.Set(ctx, KeyOrders, "{}", 0))

	mr.Select(2)
	assert.True(t, mr.Exists("pizzeria:pizza_orders"))
	assert.False(t, mr.Exists("pizza_orders"))
}

func TestRedisStore_TTL(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(ctx, RedisStoreOptions{RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Set(ctx, "pizza_cart_guest", "[]", time.Minute))
	mr.FastForward(2 * time.Minute)

	v, err := store.Get(ctx, "pizza_cart_guest")
	require.NoError(t, err)
	assert.Empty(t, v)
}

func TestRedisStore_ServerGone(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(ctx, RedisStoreOptions{RedisURL: "redis://" + mr.Addr()})
	require.NoError(t, err)
	defer store.Close()

	mr.Close()

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, store.Set(ctx, "k", "v", 0), ErrStorageUnavailable)
}
