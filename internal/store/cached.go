package store

import (
	"context"
	"slices"
	"time"

	"fintrack/internal/cache"
)

// Cached is a read-through, write-through cache in front of a remote store.
// Saves go to the backend first and only update the cache on success.
type Cached struct {
	next  KeyValueStore
	cache *cache.LRUCache[entry]
}

type entry struct {
	value []byte
	found bool
}

// NewCached wraps next with an LRU of the given size and TTL.
func NewCached(next KeyValueStore, size int, ttl time.Duration) *Cached {
	return &Cached{next: next, cache: cache.NewLRUCache[entry](size, ttl)}
}

func (c *Cached) Load(ctx context.Context, key string) ([]byte, bool, error) {
	if e, ok := c.cache.Get(key); ok {
		return slices.Clone(e.value), e.found, nil
	}
	value, found, err := c.next.Load(ctx, key)
	if err != nil {
		return nil, false, err
	}
	c.cache.Set(key, entry{value: slices.Clone(value), found: found})
	return value, found, nil
}

func (c *Cached) Save(ctx context.Context, key string, value []byte) error {
	if err := c.next.Save(ctx, key, value); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, entry{value: slices.Clone(value), found: true})
	return nil
}

// Invalidate forgets everything cached, so the next loads see writes made
// by other processes.
func (c *Cached) Invalidate() {
	c.cache.Purge()
}

// Cleaner exposes the underlying cache for periodic sweeping.
func (c *Cached) Cleaner() cache.Cleaner {
	return c.cache
}

// Stats reports cache hits and misses.
func (c *Cached) Stats() cache.Stats {
	return c.cache.Stats()
}
