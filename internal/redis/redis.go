package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// DefaultCountTTL bounds how stale a cached submission count can be.
const DefaultCountTTL = 15 * time.Second

func NewClient(address, username, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
}

// Counter is the source of truth the cache reads through to.
type Counter interface {
	CountSubmissions(ctx context.Context, injectID int, groups []int) (int, error)
}

// CountCache is a read-through cache of submission counts. Redis failures
// fall back to the underlying counter.
type CountCache struct {
	rdb  *redis.Client
	next Counter
	ttl  time.Duration
}

func NewCountCache(rdb *redis.Client, next Counter, ttl time.Duration) *CountCache {
	if ttl <= 0 {
		ttl = DefaultCountTTL
	}
	return &CountCache{rdb: rdb, next: next, ttl: ttl}
}

func (c *CountCache) CountSubmissions(ctx context.Context, injectID int, groups []int) (int, error) {
	key := countKey(injectID, groups)

	cached, err := c.rdb.Get(ctx, key).Int()
	switch {
	case err == nil:
		return cached, nil
	case err != redis.Nil:
		log.Warn().Err(err).Str("key", key).Msg("submission count cache read failed")
	}

	n, err := c.next.CountSubmissions(ctx, injectID, groups)
	if err != nil {
		return 0, err
	}
	if err := c.rdb.Set(ctx, key, n, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("submission count cache write failed")
	}
	return n, nil
}

func countKey(injectID int, groups []int) string {
	sorted := append([]int(nil), groups...)
	sort.Ints(sorted)
	parts := make([]string, len(sorted))
	for i, g := range sorted {
		parts[i] = strconv.Itoa(g)
	}
	return fmt.Sprintf("submissions:count:%d:%s", injectID, strings.Join(parts, ","))
}
