package hal_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/hal-client/pkg/hal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetAndGet(t *testing.T) {
	t.Parallel()

	cache := hal.NewMemoryCache(10)
	ctx := context.Background()

	entry := &hal.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(1 * time.Hour),
		ETag:      "abc123",
	}

	err := cache.Set(ctx, "key1", entry)
	require.NoError(t, err)

	retrieved, err := cache.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, entry.Data, retrieved.Data)
	assert.Equal(t, entry.ETag, retrieved.ETag)
}

func TestMemoryCache_GetNonExistent(t *testing.T) {
	t.Parallel()

	cache := hal.NewMemoryCache(10)

	_, err := cache.Get(context.Background(), "nonexistent")
	require.ErrorIs(t, err, hal.ErrCacheKeyNotFound)
	assert.Contains(t, err.Error(), "key not found")
}

func TestMemoryCache_GetExpired(t *testing.T) {
	t.Parallel()

	cache := hal.NewMemoryCache(10)
	ctx := context.Background()

	entry := &hal.CacheEntry{
		Data:      []byte("test data"),
		ExpiresAt: time.Now().Add(-1 * time.Hour), // Already expired
	}

	require.NoError(t, cache.Set(ctx, "key1", entry))

	_, err := cache.Get(ctx, "key1")
	require.ErrorIs(t, err, hal.ErrCacheEntryExpired)
	assert.Contains(t, err.Error(), "entry expired")

	// The stale entry is evicted on read.
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCache_NoExpiry(t *testing.T) {
	t.Parallel()

	cache := hal.NewMemoryCache(10)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "key1", &hal.CacheEntry{Data: []byte("forever")}))
	assert.True(t, cache.Has(ctx, "key1"))
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	t.Parallel()

	cache := hal.NewMemoryCache(10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, cache.Set(ctx, fmt.Sprintf("key%d", i), &hal.CacheEntry{Data: []byte("x")}))
	}

	require.NoError(t, cache.Delete(ctx, "key0"))
	assert.False(t, cache.Has(ctx, "key0"))
	assert.True(t, cache.Has(ctx, "key1"))

	// Deleting a missing key is not an error.
	require.NoError(t, cache.Delete(ctx, "key0"))

	require.NoError(t, cache.Clear(ctx))
	assert.Equal(t, 0, cache.Len())
}

func TestMemoryCache_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	cache := hal.NewMemoryCache(2)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", &hal.CacheEntry{Data: []byte("a")}))
	require.NoError(t, cache.Set(ctx, "b", &hal.CacheEntry{Data: []byte("b")}))

	// Touch "a" so "b" becomes the oldest.
	_, err := cache.Get(ctx, "a")
	require.NoError(t, err)

	require.NoError(t, cache.Set(ctx, "c", &hal.CacheEntry{Data: []byte("c")}))

	assert.Equal(t, 2, cache.Len())
	assert.True(t, cache.Has(ctx, "a"))
	assert.False(t, cache.Has(ctx, "b"))
	assert.True(t, cache.Has(ctx, "c"))
}

func TestMemoryCache_Concurrent(t *testing.T) {
	t.Parallel()

	cache := hal.NewMemoryCache(50)
	ctx := context.Background()

	var waitGroup sync.WaitGroup

	for i := 0; i < 20; i++ {
		waitGroup.Add(1)

		go func(n int) {
			defer waitGroup.Done()

			key := fmt.Sprintf("key%d", n%5)
			_ = cache.Set(ctx, key, &hal.CacheEntry{Data: []byte(key)})
			_, _ = cache.Get(ctx, key)
		}(i)
	}

	waitGroup.Wait()
	assert.Equal(t, 5, cache.Len())
}
