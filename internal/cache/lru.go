// Package cache provides a bounded LRU cache whose entries also expire after a
// period without access.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/freewebtopdf/propmerge/internal/domain"
)

// DefaultMaxSize is used when a non-positive size is requested
const DefaultMaxSize = 1024

type node[V any] struct {
	key      string
	value    V
	lastSeen time.Time
	prev     *node[V]
	next     *node[V]
}

// LRU holds at most maxSize entries, evicting the least recently used one when
// full. Entries idle for longer than ttl are dropped on access or by Sweep.
// A zero ttl disables expiry.
type LRU[V any] struct {
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	head  *node[V]
	tail  *node[V]
	items map[string]*node[V]
	mutex sync.Mutex

	hits    int64
	misses  int64
	expired int64
}

// New creates a cache holding up to maxSize entries that expire after ttl of inactivity
func New[V any](maxSize int, ttl time.Duration) *LRU[V] {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	// Sentinel head and tail keep list manipulation branch-free
	head := &node[V]{}
	tail := &node[V]{}
	head.next = tail
	tail.prev = head

	return &LRU[V]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		head:    head,
		tail:    tail,
		items:   make(map[string]*node[V]),
	}
}

// Get returns the entry for key and refreshes its idle timer
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var zero V
	n, ok := c.items[key]
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return zero, false
	}

	now := c.now()
	if c.isExpired(n, now) {
		c.remove(n)
		atomic.AddInt64(&c.expired, 1)
		atomic.AddInt64(&c.misses, 1)
		return zero, false
	}

	n.lastSeen = now
	c.moveToFront(n)
	atomic.AddInt64(&c.hits, 1)
	return n.value, true
}

// Set adds or replaces the entry for key
func (c *LRU[V]) Set(key string, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.now()
	if n, ok := c.items[key]; ok {
		n.value = value
		n.lastSeen = now
		c.moveToFront(n)
		return
	}

	n := &node[V]{key: key, value: value, lastSeen: now}
	c.addToFront(n)
	c.items[key] = n

	if len(c.items) > c.maxSize {
		c.evictLRU()
	}
}

// Invalidate removes key from the cache
func (c *LRU[V]) Invalidate(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if n, ok := c.items[key]; ok {
		c.remove(n)
	}
}

// Len returns the number of entries, expired or not
func (c *LRU[V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.items)
}

// Sweep drops every expired entry and returns how many were removed
func (c *LRU[V]) Sweep() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.ttl <= 0 {
		return 0
	}

	now := c.now()
	removed := 0
	// Oldest entries sit at the tail
	for n := c.tail.prev; n != c.head; {
		prev := n.prev
		if c.isExpired(n, now) {
			c.remove(n)
			removed++
		}
		n = prev
	}
	atomic.AddInt64(&c.expired, int64(removed))
	return removed
}

// StartSweeper runs Sweep every interval until the returned stop function is called
func (c *LRU[V]) StartSweeper(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() { close(done) }
}

// Stats returns current cache statistics
func (c *LRU[V]) Stats() domain.CacheStats {
	c.mutex.Lock()
	size := len(c.items)
	c.mutex.Unlock()

	return domain.CacheStats{
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
		Expired: atomic.LoadInt64(&c.expired),
		Size:    size,
		MaxSize: c.maxSize,
	}
}

// HealthCheck reports the cache as degraded when it is close to capacity
func (c *LRU[V]) HealthCheck(ctx context.Context) domain.HealthStatus {
	stats := c.Stats()

	status := domain.HealthStatusHealthy
	message := "Session cache is operating normally"
	details := map[string]any{
		"size":     stats.Size,
		"max_size": stats.MaxSize,
		"expired":  stats.Expired,
	}

	if stats.Size >= int(float64(stats.MaxSize)*0.9) {
		status = domain.HealthStatusDegraded
		message = "Session cache is near capacity"
		details["warning"] = "Cache utilization above 90%"
	}

	return domain.HealthStatus{
		Status:    status,
		Message:   message,
		Details:   details,
		Timestamp: c.now(),
	}
}

func (c *LRU[V]) isExpired(n *node[V], now time.Time) bool {
	return c.ttl > 0 && now.Sub(n.lastSeen) > c.ttl
}

func (c *LRU[V]) moveToFront(n *node[V]) {
	c.unlink(n)
	c.addToFront(n)
}

func (c *LRU[V]) addToFront(n *node[V]) {
	n.prev = c.head
	n.next = c.head.next
	c.head.next.prev = n
	c.head.next = n
}

func (c *LRU[V]) unlink(n *node[V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
}

func (c *LRU[V]) remove(n *node[V]) {
	c.unlink(n)
	delete(c.items, n.key)
}

// evictLRU removes the least recently used entry
func (c *LRU[V]) evictLRU() {
	if c.tail.prev == c.head {
		return
	}
	c.remove(c.tail.prev)
}
