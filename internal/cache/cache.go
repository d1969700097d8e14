// Package cache implements a fixed-capacity LRU key/value cache that is safe
// for concurrent use.
//
// A Cache keeps its entries in an arena. A chained hash index gives O(1)
// lookup and a doubly linked recency list gives O(1) promotion and eviction.
// Both structures are guarded together by one sync.RWMutex and are never
// modified separately.
package cache

import (
	"fmt"
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	cmerrors "cachemgr/pkg/errors"
)

// MaxCapacity is the largest capacity New accepts. Slots are addressed by
// int32 handles and the arena holds one spare slot.
const MaxCapacity = math.MaxInt32 - 1

// Cache is a concurrency-safe string cache with strict LRU eviction.
type Cache struct {
	mu sync.RWMutex

	capacity int
	size     int

	arena *arena
	index *hashIndex
	order *recencyList

	optimisticGet bool
	destroyed     bool

	stats      *Statistics
	metrics    *cacheMetrics
	registerer prometheus.Registerer
	log        *zap.Logger
}

// New creates an empty cache holding at most capacity entries.
func New(capacity int, opts ...Option) (*Cache, error) {
	if capacity < 1 || capacity > MaxCapacity {
		return nil, fmt.Errorf("%w: capacity must be in [1, %d], got %d", cmerrors.ErrInvalidArgument, MaxCapacity, capacity)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if o.buckets > MaxCapacity {
		return nil, fmt.Errorf("%w: bucket count must be <= %d, got %d", cmerrors.ErrInvalidArgument, MaxCapacity, o.buckets)
	}
	buckets := o.buckets
	if buckets < 1 {
		buckets = min(2*capacity+1, MaxCapacity)
	}

	// one spare slot holds the new entry until the tail is evicted
	a := newArena(capacity + 1)
	c := &Cache{
		capacity:      capacity,
		arena:         a,
		index:         newHashIndex(buckets, o.hash, a),
		order:         newRecencyList(a),
		optimisticGet: o.optimisticGet,
		stats:         NewStatistics(),
		log:           o.logger,
	}

	if o.registerer != nil {
		m, err := newCacheMetrics(o.registerer, o.metricsName)
		if err != nil {
			if isAlreadyRegistered(err) {
				return nil, fmt.Errorf("metrics for cache %q already registered: %w", o.metricsName, err)
			}
			return nil, fmt.Errorf("register cache metrics: %w", err)
		}
		c.metrics = m
		c.registerer = o.registerer
	}

	c.log.Info("cache created",
		zap.Int("capacity", capacity),
		zap.Int("buckets", buckets),
		zap.Bool("optimistic_get", c.optimisticGet),
	)
	return c, nil
}

// Put stores value under key and marks it most recently used. Inserting a
// new key into a full cache evicts the least recently used entry.
func (c *Cache) Put(key, value string) error {
	if c == nil || key == "" {
		return cmerrors.ErrInvalidArgument
	}

	c.mu.Lock()
	evicted, err := c.putLocked(key, value)
	c.mu.Unlock()
	if err != nil {
		return err
	}

	if evicted != "" {
		c.log.Debug("evicted least recently used entry", zap.String("key", evicted))
	}
	return nil
}

// putLocked returns the key of the evicted entry, if any. Caller holds mu for writing.
func (c *Cache) putLocked(key, value string) (string, error) {
	if c.destroyed {
		return "", cmerrors.ErrDestroyed
	}

	if h := c.index.lookup(key); h != nilHandle {
		c.arena.at(h).value = value
		c.order.promote(h)
		c.stats.Update()
		if c.metrics != nil {
			c.metrics.puts.WithLabelValues("update").Inc()
		}
		return "", nil
	}

	h, err := c.arena.alloc(key, value)
	if err != nil {
		return "", fmt.Errorf("put %q: %w", key, err)
	}
	c.index.insert(h)
	c.order.pushFront(h)
	c.size++
	c.stats.Insert()
	if c.metrics != nil {
		c.metrics.puts.WithLabelValues("insert").Inc()
	}

	var evicted string
	if c.size > c.capacity {
		evicted = c.evictLocked()
	}

	c.stats.UpdateSize(int64(c.size))
	if c.metrics != nil {
		c.metrics.size.Set(float64(c.size))
	}
	return evicted, nil
}

// evictLocked drops the tail entry and returns its key.
func (c *Cache) evictLocked() string {
	tail := c.order.peekBack()
	if tail == nilHandle {
		return ""
	}
	key := c.arena.at(tail).key
	c.unlinkLocked(tail)

	c.stats.Eviction()
	if c.metrics != nil {
		c.metrics.evictions.Inc()
	}
	return key
}

// unlinkLocked removes h from the list and the index and frees it.
func (c *Cache) unlinkLocked(h handle) {
	c.order.remove(h)
	c.index.remove(h)
	c.arena.release(h)
	c.size--
}

// Get returns a copy of the value under key and marks it most recently
// used. A missing key yields ErrMiss.
func (c *Cache) Get(key string) (string, error) {
	if c == nil || key == "" {
		return "", cmerrors.ErrInvalidArgument
	}

	if c.optimisticGet {
		c.mu.RLock()
		if c.destroyed {
			c.mu.RUnlock()
			return "", cmerrors.ErrDestroyed
		}
		found := c.index.lookup(key) != nilHandle
		c.mu.RUnlock()
		if !found {
			c.recordMiss()
			return "", cmerrors.ErrMiss
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return "", cmerrors.ErrDestroyed
	}

	// Resolve again: the probe's result is stale once the read lock is dropped.
	h := c.index.lookup(key)
	if h == nilHandle {
		c.recordMiss()
		return "", cmerrors.ErrMiss
	}

	c.order.promote(h)
	c.stats.Hit()
	if c.metrics != nil {
		c.metrics.hits.Inc()
	}
	return c.arena.at(h).value, nil
}

func (c *Cache) recordMiss() {
	c.stats.Miss()
	if c.metrics != nil {
		c.metrics.misses.Inc()
	}
}

// Delete removes key. A missing key yields ErrNotFound.
func (c *Cache) Delete(key string) error {
	if c == nil || key == "" {
		return cmerrors.ErrInvalidArgument
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.destroyed {
		return cmerrors.ErrDestroyed
	}

	h := c.index.lookup(key)
	if h == nilHandle {
		return cmerrors.ErrNotFound
	}
	c.unlinkLocked(h)

	c.stats.Delete()
	c.stats.UpdateSize(int64(c.size))
	if c.metrics != nil {
		c.metrics.deletes.Inc()
		c.metrics.size.Set(float64(c.size))
	}
	return nil
}

// Destroy releases every entry and the index storage. It must not run
// concurrently with other calls; afterwards every call returns ErrDestroyed.
func (c *Cache) Destroy() {
	if c == nil {
		return
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}

	released := 0
	c.index.each(func(_ int, h handle) {
		c.arena.release(h)
		released++
	})
	c.index.buckets = nil
	c.order.reset()
	c.arena.reset()
	c.size = 0
	c.destroyed = true

	c.stats.UpdateSize(0)
	if c.metrics != nil {
		c.metrics.size.Set(0)
		c.metrics.unregister(c.registerer)
	}
	c.mu.Unlock()

	c.log.Info("cache destroyed", zap.Int("released", released))
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.size
}

// Cap returns the fixed capacity.
func (c *Cache) Cap() int {
	if c == nil {
		return 0
	}
	return c.capacity
}

// Keys returns the cached keys from most to least recently used without
// changing recency.
func (c *Cache) Keys() []string {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, c.size)
	for h := c.order.head; h != nilHandle; h = c.arena.at(h).next {
		keys = append(keys, c.arena.at(h).key)
	}
	return keys
}

// Stats returns a snapshot of the operation counters.
func (c *Cache) Stats() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	return c.stats.Snapshot()
}
