// ABOUTME: Thread-safe TTL cache of recently committed entry keys
// ABOUTME: Bounded in size with oldest-first eviction and periodic expiry sweeps

package dedupe

import (
	"container/list"
	"strconv"
	"sync"
	"time"
)

// EntryKey returns the cache key for an identity's entry on day.
func EntryKey(identity string, day int) string {
	return identity + ":" + strconv.Itoa(day)
}

type record struct {
	markedAt time.Time
	element  *list.Element
}

// Cache tracks committed entry keys for a limited time. The zero value is not
// usable; construct with New.
type Cache struct {
	mu      sync.Mutex
	keys    map[string]*record
	order   *list.List // oldest at front
	ttl     time.Duration
	maxSize int
	now     func() time.Time
	done    chan struct{}
	closed  bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates a cache that forgets keys after ttl and holds at most maxSize
// keys. A background goroutine sweeps expired keys every sweepEvery until
// Close is called; a non-positive sweepEvery disables sweeping.
func New(ttl time.Duration, maxSize int, sweepEvery time.Duration, opts ...Option) *Cache {
	if maxSize < 1 {
		maxSize = 1
	}
	c := &Cache{
		keys:    make(map[string]*record),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     time.Now,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if sweepEvery > 0 {
		go c.sweepLoop(sweepEvery)
	}
	return c
}

// Seen reports whether key was marked and has not expired.
func (c *Cache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.keys[key]
	return ok && c.live(r)
}

// Claim marks key and reports whether it was free. A false return means the
// key is already held by an earlier, unexpired claim. Check and mark happen
// under one lock so two concurrent requests cannot both claim a key.
func (c *Cache) Claim(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.keys[key]; ok && c.live(r) {
		return false
	}
	c.markLocked(key)
	return true
}

// Release drops key, typically after the write it guarded failed.
func (c *Cache) Release(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.keys[key]; ok {
		c.order.Remove(r.element)
		delete(c.keys, key)
	}
}

// Len returns the number of keys currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

func (c *Cache) live(r *record) bool {
	return c.now().Sub(r.markedAt) < c.ttl
}

// markLocked must be called with mu held.
func (c *Cache) markLocked(key string) {
	now := c.now()

	if r, ok := c.keys[key]; ok {
		r.markedAt = now
		c.order.MoveToBack(r.element)
		return
	}

	if len(c.keys) >= c.maxSize {
		if front := c.order.Front(); front != nil {
			oldest, _ := front.Value.(string)
			c.order.Remove(front)
			delete(c.keys, oldest)
		}
	}

	c.keys[key] = &record{markedAt: now, element: c.order.PushBack(key)}
}

func (c *Cache) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.done:
			return
		}
	}
}

// Sweep removes every expired key.
func (c *Cache) Sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for e := c.order.Front(); e != nil; {
		next := e.Next()
		key, _ := e.Value.(string)
		if r := c.keys[key]; r != nil && !c.live(r) {
			c.order.Remove(e)
			delete(c.keys, key)
		}
		e = next
	}
}

// Close stops the sweeper. It is safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
