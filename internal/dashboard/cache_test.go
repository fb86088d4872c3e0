package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheFetchPopulatesOnce(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	key, err := cache.Key(ctx, "dashboard", "admin")
	require.NoError(t, err)

	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return Stats{Students: 120}, nil
	}

	var first, second Stats
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))

	assert.Equal(t, 1, calls)
	assert.Equal(t, 120, second.Students)
}

func TestCacheBumpChangesKeys(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	before, err := cache.Key(ctx, "dashboard", "admin")
	require.NoError(t, err)
	require.NoError(t, cache.Bump(ctx))
	after, err := cache.Key(ctx, "dashboard", "admin")
	require.NoError(t, err)

	assert.NotEqual(t, before, after)
}

func TestNilCacheFallsThroughToLoader(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	key, err := cache.Key(ctx, "dashboard", "admin")
	require.NoError(t, err)

	var stats Stats
	calls := 0
	loader := func(context.Context) (any, error) {
		calls++
		return Stats{Teachers: 7}, nil
	}
	require.NoError(t, cache.FetchJSON(ctx, key, &stats, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &stats, loader))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 7, stats.Teachers)
}
