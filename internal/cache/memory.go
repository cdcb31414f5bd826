package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// MemoryCache is the hot layer of the judgment cache: encoded judgments for
// the claims of the current run, evicted by TTL so a long batch never serves
// arbitrarily old answers after the disk layer's entry has expired
type MemoryCache struct {
	judgments *gocache.Cache
}

// NewMemoryCache creates an in-memory judgment cache. The cleanup interval
// bounds how long an expired judgment can linger before eviction.
func NewMemoryCache(defaultTTL time.Duration, cleanupInterval time.Duration) *MemoryCache {
	return &MemoryCache{
		judgments: gocache.New(defaultTTL, cleanupInterval),
	}
}

// Get returns the encoded judgment for a key. go-cache stores interface
// values, so anything that is not the []byte this package put in counts as
// a miss rather than a panic.
func (c *MemoryCache) Get(key string) ([]byte, bool) {
	val, found := c.judgments.Get(key)
	if !found {
		return nil, false
	}
	data, ok := val.([]byte)
	if !ok {
		c.judgments.Delete(key)
		return nil, false
	}
	return data, true
}

// Set stores an encoded judgment under the given TTL
func (c *MemoryCache) Set(key string, value []byte, ttl time.Duration) error {
	c.judgments.Set(key, value, ttl)
	return nil
}

// Delete drops one judgment, used when a cached entry fails to decode
func (c *MemoryCache) Delete(key string) error {
	c.judgments.Delete(key)
	return nil
}

// Clear drops every cached judgment
func (c *MemoryCache) Clear() error {
	c.judgments.Flush()
	return nil
}
