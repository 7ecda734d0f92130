package modelstore

import (
	"context"
	"sync"

	"github.com/couchcryptid/plume-trajectory-service/internal/domain"
	"github.com/couchcryptid/plume-trajectory-service/internal/observability"
	"github.com/couchcryptid/plume-trajectory-service/internal/pipeline"
)

// CachedSource wraps a ModelSource with an in-memory LRU cache keyed by run.
// Model files are immutable once the upstream run finishes, so entries never
// expire; the LRU bound alone limits memory.
type CachedSource struct {
	inner   pipeline.ModelSource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a model source.
func NewCachedSource(inner pipeline.ModelSource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) Fetch(ctx context.Context, key domain.RunKey) ([]byte, error) {
	id := key.ID()
	if raw, ok := c.cache.get(id); ok {
		c.metrics.SourceCache.WithLabelValues("hit").Inc()
		return raw, nil
	}
	c.metrics.SourceCache.WithLabelValues("miss").Inc()

	raw, err := c.inner.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty files so a transiently truncated upload can be
	// retried.
	if len(raw) > 0 {
		c.cache.put(id, raw)
	}
	return raw, nil
}

func (c *CachedSource) Ping(ctx context.Context) error {
	return c.inner.Ping(ctx)
}

// lruCache is a simple thread-safe LRU cache for raw model files.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []byte
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
