package utils

import (
	"sync"
	"time"
)

// cacheItem is a cached value with its expiration time.
type cacheItem struct {
	value      interface{}
	expiration time.Time
}

// MemoryCache is an in-memory TTL cache. It backs the message-type list and
// typeahead results so repeated keystrokes do not hammer the backend.
type MemoryCache struct {
	items map[string]cacheItem
	mu    sync.RWMutex
	stop  chan struct{}
}

// NewMemoryCache creates a cache and starts its cleanup loop.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		items: make(map[string]cacheItem),
		stop:  make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Set stores a value with the given TTL.
func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	c.items[key] = cacheItem{value: value, expiration: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Get retrieves a value if present and not expired.
func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(item.expiration) {
		c.Delete(key)
		return nil, false
	}
	return item.value, true
}

// Delete removes an item from the cache.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Close stops the cleanup loop.
func (c *MemoryCache) Close() {
	close(c.stop)
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for key, item := range c.items {
				if now.After(item.expiration) {
					delete(c.items, key)
				}
			}
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}
