package storage

import (
	"container/list"
	"sync"
	"time"
)

// cacheEntry is a cached value with its expiry
type cacheEntry[V any] struct {
	key       string
	value     V
	expiresAt time.Time
}

// LRUCache is a thread-safe LRU cache with a per-entry TTL.
type LRUCache[V any] struct {
	mu           sync.Mutex
	capacity     int
	ttl          time.Duration
	items        map[string]*list.Element
	evictionList *list.List
	now          func() time.Time
}

// NewLRUCache creates a new LRU cache. A capacity <= 0 means unbounded.
func NewLRUCache[V any](capacity int, ttl time.Duration) *LRUCache[V] {
	return &LRUCache[V]{
		capacity:     capacity,
		ttl:          ttl,
		items:        make(map[string]*list.Element),
		evictionList: list.New(),
		now:          time.Now,
	}
}

// Get returns the value for key unless it is missing or expired.
func (c *LRUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, found := c.items[key]
	if !found {
		return zero, false
	}

	entry := elem.Value.(*cacheEntry[V])
	if !c.now().Before(entry.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.evictionList.MoveToFront(elem)
	return entry.value, true
}

// Set stores value under key with the cache TTL.
func (c *LRUCache[V]) Set(key string, value V) {
	c.SetAt(key, value, c.now())
}

// SetAt stores value as if it was written at ts, so the entry expires at
// ts + TTL. Batch writers use it to share one timestamp.
func (c *LRUCache[V]) SetAt(key string, value V, ts time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expiresAt := ts.Add(c.ttl)

	if elem, found := c.items[key]; found {
		c.evictionList.MoveToFront(elem)
		entry := elem.Value.(*cacheEntry[V])
		entry.value = value
		entry.expiresAt = expiresAt
		return
	}

	elem := c.evictionList.PushFront(&cacheEntry[V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem

	if c.capacity > 0 && c.evictionList.Len() > c.capacity {
		if oldest := c.evictionList.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Delete removes key from the cache
func (c *LRUCache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, found := c.items[key]; found {
		c.removeElement(elem)
	}
}

func (c *LRUCache[V]) removeElement(elem *list.Element) {
	c.evictionList.Remove(elem)
	delete(c.items, elem.Value.(*cacheEntry[V]).key)
}
