// internal/cache/lru.go
//
// Small least-recently-used cache with per-entry expiry.  The session store
// keeps decoded payloads here for `session.cache_ttl` so repeated loads of
// one id inside a long-lived process skip the database.  Safe for
// concurrent use.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU holds at most cap entries.  Zero value is invalid; use New.
type LRU[K comparable, V any] struct {
	mu   sync.Mutex
	cap  int
	ll   *list.List
	dict map[K]*list.Element
	now  func() time.Time
}

type pair[K comparable, V any] struct {
	key K
	val V
	exp time.Time // zero means no expiry
}

// New returns an LRU with the given capacity.  Panics on cap < 1.
func New[K comparable, V any](capacity int) *LRU[K, V] {
	if capacity < 1 {
		panic("cache: capacity must be ≥1")
	}
	return &LRU[K, V]{
		cap:  capacity,
		ll:   list.New(),
		dict: make(map[K]*list.Element, capacity),
		now:  time.Now,
	}
}

// Get retrieves a live value and marks it MRU.  Expired entries are
// dropped on sight.
func (c *LRU[K, V]) Get(key K) (val V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ele, hit := c.dict[key]
	if !hit {
		return val, false
	}
	p := ele.Value.(pair[K, V])
	if !p.exp.IsZero() && !c.now().Before(p.exp) {
		c.removeElement(ele)
		return val, false
	}
	c.ll.MoveToFront(ele)
	return p.val, true
}

// Add inserts or updates a value.  ttl <= 0 keeps it until evicted.
func (c *LRU[K, V]) Add(key K, val V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := pair[K, V]{key: key, val: val}
	if ttl > 0 {
		p.exp = c.now().Add(ttl)
	}
	if ele, hit := c.dict[key]; hit {
		ele.Value = p
		c.ll.MoveToFront(ele)
		return
	}
	c.dict[key] = c.ll.PushFront(p)
	if c.ll.Len() > c.cap {
		c.removeElement(c.ll.Back())
	}
}

// Remove drops key if present.
func (c *LRU[K, V]) Remove(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, hit := c.dict[key]; hit {
		c.removeElement(ele)
	}
}

// Len reports current size, expired entries included until touched.
func (c *LRU[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *LRU[K, V]) removeElement(ele *list.Element) {
	c.ll.Remove(ele)
	delete(c.dict, ele.Value.(pair[K, V]).key)
}
