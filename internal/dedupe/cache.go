// ABOUTME: Bounded TTL set of recently seen keys
// ABOUTME: The Matrix bridge uses it to ignore redelivered event ids

package dedupe

import (
	"container/list"
	"sync"
	"time"
)

type seenKey struct {
	key    string
	seenAt time.Time
}

// Cache remembers keys for ttl, holding at most maxSize of them. The list is
// ordered by last sighting, oldest at the front, so both expiry and eviction
// work from the front.
type Cache struct {
	mu      sync.Mutex
	index   map[string]*list.Element
	order   *list.List
	ttl     time.Duration
	maxSize int
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache and starts a sweeper that drops expired keys once per
// ttl (at most once a minute).
func New(ttl time.Duration, maxSize int) *Cache {
	c := newCache(ttl, maxSize, time.Now)
	interval := min(ttl, time.Minute)
	if interval <= 0 {
		interval = time.Minute
	}
	go c.sweepLoop(interval)
	return c
}

func newCache(ttl time.Duration, maxSize int, now func() time.Time) *Cache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache{
		index:   make(map[string]*list.Element),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		now:     now,
		stop:    make(chan struct{}),
	}
}

// Seen records key and reports whether it was already present and fresh.
// The check and the record happen under one lock.
func (c *Cache) Seen(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if el, ok := c.index[key]; ok {
		entry := el.Value.(*seenKey)
		fresh := now.Sub(entry.seenAt) < c.ttl
		entry.seenAt = now
		c.order.MoveToBack(el)
		return fresh
	}

	if len(c.index) >= c.maxSize {
		c.removeLocked(c.order.Front())
	}
	c.index[key] = c.order.PushBack(&seenKey{key: key, seenAt: now})
	return false
}

// Len reports how many keys are held, expired ones included until swept.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.index)
}

// Sweep drops expired keys and returns how many went.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Front(); el != nil; el = c.order.Front() {
		if now.Sub(el.Value.(*seenKey).seenAt) < c.ttl {
			break
		}
		c.removeLocked(el)
		removed++
	}
	return removed
}

func (c *Cache) removeLocked(el *list.Element) {
	if el == nil {
		return
	}
	c.order.Remove(el)
	delete(c.index, el.Value.(*seenKey).key)
}

func (c *Cache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.Sweep()
		case <-c.stop:
			return
		}
	}
}

// Close stops the sweeper. Safe to call more than once.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}
