package finance

import (
	"sync"
	"time"
)

// chartCache keeps rendered PNGs for a short time so repeated requests for
// the same analysis do not re-render.
type chartCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]chartCacheEntry
}

func newChartCache(ttl time.Duration) *chartCache {
	return &chartCache{ttl: ttl, now: time.Now, entries: map[string]chartCacheEntry{}}
}

func (c *chartCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(entry.createdAt.Add(c.ttl)) {
		delete(c.entries, key)
		return nil, false
	}
	img := make([]byte, len(entry.image))
	copy(img, entry.image)
	return img, true
}

// set stores img under key and drops every expired entry.
func (c *chartCache) set(key string, img []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, entry := range c.entries {
		if !now.Before(entry.createdAt.Add(c.ttl)) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = chartCacheEntry{createdAt: now, image: append([]byte(nil), img...)}
}
