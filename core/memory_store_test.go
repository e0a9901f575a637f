package core

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storageFactories returns every provider so the same contract runs against each.
func storageFactories(t *testing.T) map[string]func(t *testing.T) Storage {
	t.Helper()
	return map[string]func(t *testing.T) Storage{
		"memory": func(t *testing.T) Storage {
			return NewMemoryStore()
		},
		"redis": func(t *testing.T) Storage {
			mr := miniredis.RunT(t)
			store, err := NewRedisStore(context.Background(), RedisStoreOptions{
				RedisURL:  "redis://" + mr.Addr(),
				Namespace: "test",
			})
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
		"sqlite": func(t *testing.T) Storage {
			store, err := NewSQLiteStore(context.Background(), t.TempDir()+"/kv.db", nil)
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return store
		},
	}
}

func TestStorageContract(t *testing.T) {
	for name, factory := range storageFactories(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store := factory(t)

			v, err := store.Get(ctx, "missing")
			require.NoError(t, err)
			assert.Empty(t, v, "missing key reads as empty")

			ok, err := store.Exists(ctx, "missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, store.Set(ctx, "pizza_cart_guest", `[{"pizzaId":1}]`, 0))
			v, err = store.Get(ctx, "pizza_cart_guest")
			require.NoError(t, err)
			assert.Equal(t, `[{"pizzaId":1}]`, v)

			require.NoError(t, store.Set(ctx, "pizza_cart_guest", `[]`, 0))
			v, _ = store.Get(ctx, "pizza_cart_guest")
			assert.Equal(t, `[]`, v, "set overwrites")

			ok, err = store.Exists(ctx, "pizza_cart_guest")
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, store.Delete(ctx, "pizza_cart_guest"))
			v, _ = store.Get(ctx, "pizza_cart_guest")
			assert.Empty(t, v)

			assert.NoError(t, store.Delete(ctx, "never-set"), "deleting a missing key is not an error")
		})
	}
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.SetClock(func() time.Time { return now })

	require.NoError(t, store.Set(ctx, "k", "v", time.Minute))

	v, _ := store.Get(ctx, "k")
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Minute)

	v, _ = store.Get(ctx, "k")
	assert.Empty(t, v, "entry should expire")
	ok, _ := store.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestSQLiteStore_TTLAndReopen(t *testing.T) {
	ctx := context.Background()
	path := t.TempDir() + "/nested/dir/store.db"

	store, err := NewSQLiteStore(ctx, path, nil)
	require.NoError(t, err)

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "short", "v", time.Minute))
	require.NoError(t, store.Set(ctx, "durable", "kept", 0))

	now = now.Add(2 * time.Minute)
	v, err := store.Get(ctx, "short")
	require.NoError(t, err)
	assert.Empty(t, v)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(ctx, path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	v, err = reopened.Get(ctx, "durable")
	require.NoError(t, err)
	assert.Equal(t, "kept", v, "data survives reopening the file")
}

func TestNewSQLiteStore_RequiresPath(t *testing.T) {
	_, err := NewSQLiteStore(context.Background(), "", nil)
	assert.ErrorIs(t, err, ErrMissingConfiguration)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%5)
			_ = store.Set(ctx, key, fmt.Sprint(i), 0)
			_, _ = store.Get(ctx, key)
			_, _ = store.Exists(ctx, key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
}
