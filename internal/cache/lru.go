// Package cache provides a bounded, access-ordered LRU cache.
//
// Eviction is capacity-driven only: entries never expire by time, they are
// displaced when a Set pushes the cache past its maximum size.
package cache

import (
	"container/list"
	"sync"
)

// LRU is a fixed-capacity key/value cache. A Get marks the entry as most
// recently used; a Set past capacity evicts exactly the least recently used
// entry. Safe for concurrent use.
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	order   *list.List
}

type entry[T any] struct {
	key  string
	data T
}

// NewLRU creates an LRU cache holding at most maxSize entries.
func NewLRU[T any](maxSize int) *LRU[T] {
	if maxSize < 1 {
		maxSize = 1
	}
	return &LRU[T]{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get retrieves a value and marks it as most recently used.
// A read never evicts.
func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	c.order.MoveToFront(elem)
	return elem.Value.(*entry[T]).data, true
}

// Set inserts or overwrites a value and marks it as most recently used.
// If the cache now exceeds its capacity, the least recently used entry
// is removed.
func (c *LRU[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		elem.Value.(*entry[T]).data = data
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&entry[T]{key: key, data: data})
	c.items[key] = elem

	if c.order.Len() > c.maxSize {
		oldest := c.order.Back()
		if oldest != nil {
			delete(c.items, oldest.Value.(*entry[T]).key)
			c.order.Remove(oldest)
		}
	}
}

// Len returns the current number of entries.
func (c *LRU[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
