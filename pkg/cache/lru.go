// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry expiry. It backs the in-process query snapshot store and the
// per-user renewal panel sessions, both of which need bounded memory and
// cheap lookups rather than a full caching layer.
package cache

import (
	"container/list"
	"sync"
	"time"
)

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // zero means the entry never expires
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// LRU is a fixed-capacity cache evicting the least recently used entry on
// overflow. Expired entries are dropped lazily on access. All methods are
// safe for concurrent use.
type LRU[K comparable, V any] struct {
	capacity int
	mu       sync.Mutex
	items    map[K]*list.Element
	order    *list.List // front = most recently used
	onEvict  func(key K, value V)
	now      func() time.Time
}

// NewLRU creates a cache holding at most capacity entries. Panics on a
// non-positive capacity to fail fast on misconfiguration.
func NewLRU[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity <= 0 {
		panic("cache: LRU capacity must be positive")
	}
	return &LRU[K, V]{
		capacity: capacity,
		items:    make(map[K]*list.Element),
		order:    list.New(),
		now:      time.Now,
	}
}

// OnEvict registers a callback invoked whenever an entry is evicted or
// expires, useful for releasing resources held by values.
func (c *LRU[K, V]) OnEvict(fn func(key K, value V)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvict = fn
}

// Get returns the value for key and marks it as recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	ent := elem.Value.(*entry[K, V])
	if ent.expired(c.now()) {
		c.remove(elem, true)
		var zero V
		return zero, false
	}
	c.order.MoveToFront(elem)
	return ent.value, true
}

// Set stores a non-expiring value under key.
func (c *LRU[K, V]) Set(key K, value V) {
	c.SetTTL(key, value, 0)
}

// SetTTL stores a value that expires after ttl. A zero or negative ttl means
// the value never expires.
func (c *LRU[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem

	if c.order.Len() > c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest, true)
		}
	}
}

// GetOrSet returns the value for key if present, otherwise it stores and
// returns the value produced by fn. The callback runs under the cache lock,
// so it must be cheap and must not call back into the cache.
func (c *LRU[K, V]) GetOrSet(key K, fn func() V) V {
	if v, ok := c.Get(key); ok {
		return v
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.items[key]; ok {
		ent := elem.Value.(*entry[K, V])
		if !ent.expired(c.now()) {
			c.order.MoveToFront(elem)
			return ent.value
		}
		c.remove(elem, true)
	}
	value := fn()
	elem := c.order.PushFront(&entry[K, V]{key: key, value: value})
	c.items[key] = elem
	if c.order.Len() > c.capacity {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest, true)
		}
	}
	return value
}

// Delete removes key from the cache, reporting whether it was present.
// The eviction callback is not invoked for explicit deletes.
func (c *LRU[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.remove(elem, false)
	return true
}

// Len returns the number of entries currently held, including entries that
// have expired but not yet been dropped.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// remove must be called with the lock held.
func (c *LRU[K, V]) remove(elem *list.Element, evicted bool) {
	ent := elem.Value.(*entry[K, V])
	c.order.Remove(elem)
	delete(c.items, ent.key)
	if evicted && c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
