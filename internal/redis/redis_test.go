package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	calls int
	count int
	err   error
}

func (s *countingStore) CountSubmissions(ctx context.Context, injectID int, groups []int) (int, error) {
	s.calls++
	return s.count, s.err
}

func newTestCache(t *testing.T, next Counter) (*CountCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := NewClient(mr.Addr(), "", "")
	t.Cleanup(func() { rdb.Close() })
	return NewCountCache(rdb, next, time.Minute), mr
}

func TestCountCacheReadsThrough(t *testing.T) {
	store := &countingStore{count: 4}
	cache, mr := newTestCache(t, store)
	ctx := context.Background()

	n, err := cache.CountSubmissions(ctx, 12, []int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	n, err = cache.CountSubmissions(ctx, 12, []int{1, 3})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, 1, store.calls, "second read should be served from redis")

	got, err := mr.Get("submissions:count:12:1,3")
	require.NoError(t, err)
	assert.Equal(t, "4", got)
}

func TestCountCacheExpires(t *testing.T) {
	store := &countingStore{count: 1}
	cache, mr := newTestCache(t, store)
	ctx := context.Background()

	_, err := cache.CountSubmissions(ctx, 1, []int{1})
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = cache.CountSubmissions(ctx, 1, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 2, store.calls)
}

func TestCountCacheFallsBackWhenRedisIsDown(t *testing.T) {
	store := &countingStore{count: 9}
	cache, mr := newTestCache(t, store)
	mr.Close()

	n, err := cache.CountSubmissions(context.Background(), 1, []int{1})
	require.NoError(t, err)
	assert.Equal(t, 9, n)
}

func TestCountCachePropagatesStoreErrors(t *testing.T) {
	boom := errors.New("db down")
	cache, _ := newTestCache(t, &countingStore{err: boom})

	_, err := cache.CountSubmissions(context.Background(), 1, []int{1})
	assert.ErrorIs(t, err, boom)
}
