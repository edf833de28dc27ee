package openmeteo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/fellahtech/agri-advisor/internal/observability"
	"github.com/fellahtech/agri-advisor/internal/weather"
)

// CachedSource wraps a HistorySource with an in-memory LRU cache on geocode
// lookups. Coordinates for a region never change, so entries live for the
// process lifetime; history requests pass through uncached.
type CachedSource struct {
	inner   weather.HistorySource
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedSource creates a geocode cache decorator around a source.
func NewCachedSource(inner weather.HistorySource, maxEntries int, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedSource) Geocode(ctx context.Context, region string) (weather.Coords, error) {
	key := strings.ToLower(strings.TrimSpace(region))
	if coords, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return coords, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()
	coords, err := c.inner.Geocode(ctx, region)
	if err != nil {
		// Not cached: a transient failure should retry next pass.
		return coords, err
	}
	c.cache.put(key, coords)
	return coords, nil
}

func (c *CachedSource) MonthlyHistory(ctx context.Context, coords weather.Coords, year int, month time.Month) (weather.MonthlySummary, error) {
	return c.inner.MonthlyHistory(ctx, coords, year, month)
}

// lruCache is a simple thread-safe LRU cache for geocode results.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value weather.Coords
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (weather.Coords, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return weather.Coords{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value weather.Coords) {
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
