package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrCacheUnavailable wraps cache backend failures. The service treats
// them as misses.
var ErrCacheUnavailable = errors.New("settings: cache unavailable")

// Cache stores encoded settings for a bounded time. A miss is
// (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type ttlEntry struct {
	value     []byte
	expiresAt time.Time
}

// TTLCache is an in-process [Cache]. Expired entries are dropped on read.
type TTLCache struct {
	mu      sync.Mutex
	entries map[string]ttlEntry
	now     func() time.Time
}

// NewTTLCache returns an empty in-process cache. A nil clock uses
// time.Now.
func NewTTLCache(now func() time.Time) *TTLCache {
	if now == nil {
		now = time.Now
	}
	return &TTLCache{
		entries: make(map[string]ttlEntry),
		now:     now,
	}
}

func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	buf := make([]byte, len(value))
	copy(buf, value)

	c.mu.Lock()
	c.entries[key] = ttlEntry{value: buf, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *TTLCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RedisCache is a [Cache] shared across processes.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisCache namespaces keys under prefix (default "hset").
func NewRedisCache(rdb redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "hset"
	}
	return &RedisCache{rdb: rdb, prefix: prefix}
}

func (c *RedisCache) key(k string) string {
	return c.prefix + ":" + k
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.rdb.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.key(k)
	}
	if err := c.rdb.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrCacheUnavailable, err)
	}
	return nil
}
