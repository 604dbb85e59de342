package render

import (
	"sync"
	"time"
)

// Cache is a content-addressed store of encoded device images keyed by
// structural render hash.
//
// Expiry is soft: every access pushes an entry's time-to-die out by the
// TTL, and reclamation happens in periodic bulk sweeps rather than per
// access. Each device loop owns its own cache, but the mutex keeps it
// safe for inspection from other goroutines.
type Cache struct {
	mu      sync.Mutex
	entries map[uint64]*cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	data   []byte
	expiry time.Time
}

// NewCache creates an empty cache whose entries live for ttl past
// their most recent access.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[uint64]*cacheEntry),
		ttl:     ttl,
	}
}

// Get returns the encoded image stored under hash, refreshing its
// expiry on hit. The returned bytes are the stored slice; callers
// treat them as immutable.
func (c *Cache) Get(hash uint64) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[hash]
	if !ok {
		return nil, false
	}
	e.expiry = time.Now().Add(c.ttl)
	return e.data, true
}

// Put stores encoded image bytes under hash with a fresh expiry,
// replacing any previous entry.
func (c *Cache) Put(hash uint64, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[hash] = &cacheEntry{
		data:   data,
		expiry: time.Now().Add(c.ttl),
	}
}

// Touch refreshes an entry's expiry without returning its data. Used
// on ticks where the hash is unchanged and the cached bytes are not
// needed again.
func (c *Cache) Touch(hash uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[hash]
	if !ok {
		return false
	}
	e.expiry = time.Now().Add(c.ttl)
	return true
}

// Sweep removes every entry whose expiry has passed and returns how
// many were evicted.
func (c *Cache) Sweep(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	evicted := 0
	for hash, e := range c.entries {
		if now.After(e.expiry) {
			delete(c.entries, hash)
			evicted++
		}
	}
	return evicted
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}
