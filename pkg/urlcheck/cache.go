package urlcheck

import (
	"sync"
	"time"
)

type cacheEntry struct {
	result    *Result
	expiresAt time.Time
}

// resultCache is a TTL cache of check results keyed by URL. Expired
// entries are removed lazily on access.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{entries: make(map[string]cacheEntry), ttl: ttl}
}

func (c *resultCache) get(url string) (*Result, bool) {
	c.mu.RLock()
	entry, ok := c.entries[url]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		if current, still := c.entries[url]; still && time.Now().After(current.expiresAt) {
			delete(c.entries, url)
		}
		c.mu.Unlock()
		return nil, false
	}
	return entry.result, true
}

func (c *resultCache) set(url string, result *Result) {
	c.mu.Lock()
	c.entries[url] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *resultCache) len() int {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()
	return n
}
