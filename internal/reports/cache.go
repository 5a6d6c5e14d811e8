package reports

import (
	"sync"
	"time"
)

type cacheEntry struct {
	rows      any
	expiresAt time.Time
}

// Cache is a read-through result cache keyed by report name and warehouse
// version. Entries for an older version are unreachable and age out.
type Cache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func cacheKey(name, version string) string {
	return name + "@" + version
}

func (c *Cache) Get(name, version string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(name, version)
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.rows, true
}

func (c *Cache) Put(name, version string, rows any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[cacheKey(name, version)] = cacheEntry{rows: rows, expiresAt: now.Add(c.ttl)}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
