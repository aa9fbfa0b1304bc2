package cache

import (
	"math"

	"github.com/kpengk/BaseUtils/errors"
)

// nilIndex marks the absence of a neighbour in the recency list.
const nilIndex int32 = -1

// lruNode is one slot of the node arena. prev points towards the most recently
// used end, next towards the least recently used end.
type lruNode[K comparable, V any] struct {
	key   K
	value V
	prev  int32
	next  int32
}

// LRU is a fixed-capacity map that evicts the least recently used entry when a new
// key arrives while full.
//
// Entries live in a slice arena linked into a doubly linked recency list by index,
// and a map from key to arena index gives O(1) lookup. A recency move rewires a few
// int32 links and never invalidates the index.
//
// Synchronization is chosen with WithLocker; the default NoLock is only correct
// for a single owner goroutine.
type LRU[K comparable, V any] struct {
	lock     Locker
	capacity int
	nodes    []lruNode[K, V]
	index    map[K]int32
	free     []int32 // arena slots released by Erase
	head     int32   // most recently used
	tail     int32   // least recently used

	stats   *Statistics   // ALWAYS initialized
	metrics *cacheMetrics // Optional, if metrics enabled
	evictFn EvictCallback[K, V]
}

// NewLRU creates an LRU holding at most capacity entries. capacity must be
// positive and fit the int32 arena index.
func NewLRU[K comparable, V any](capacity int, options ...Option[K, V]) (*LRU[K, V], error) {
	if capacity <= 0 || capacity > math.MaxInt32 {
		return nil, errors.WrapInvalid(errors.ErrInvalidCapacity, "LRU", "NewLRU", "validate capacity")
	}

	opts := applyOptions(options...)

	var metrics *cacheMetrics
	if opts.metricsReg != nil {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "LRU", "NewLRU", "metrics registration")
		}
	}

	return &LRU[K, V]{
		lock:     opts.locker,
		capacity: capacity,
		nodes:    make([]lruNode[K, V], 0, min(capacity, 1024)),
		index:    make(map[K]int32, min(capacity, 1024)),
		head:     nilIndex,
		tail:     nilIndex,
		stats:    NewStatistics(),
		metrics:  metrics,
		evictFn:  opts.evictCallback,
	}, nil
}

// Get returns the value for key and marks it most recently used.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	i, ok := c.index[key]
	if !ok {
		var zero V
		c.stats.Miss()
		if c.metrics != nil {
			c.metrics.recordMiss()
		}
		return zero, false
	}

	c.moveToFront(i)
	c.stats.Hit()
	if c.metrics != nil {
		c.metrics.recordHit()
	}
	return c.nodes[i].value, true
}

// Put inserts or updates key. An existing entry is updated in place and promoted.
// A new entry goes to the front; if the cache was full the least recently used
// entry is evicted first.
func (c *LRU[K, V]) Put(key K, value V) {
	var (
		evicted    bool
		evictKey   K
		evictValue V
	)

	c.lock.Lock()
	if i, ok := c.index[key]; ok {
		c.nodes[i].value = value
		c.moveToFront(i)
		c.recordPut()
		c.lock.Unlock()
		return
	}

	var i int32
	if len(c.index) >= c.capacity {
		// Reuse the tail slot for the new entry
		i = c.tail
		evicted = true
		evictKey, evictValue = c.nodes[i].key, c.nodes[i].value
		c.unlink(i)
		delete(c.index, evictKey)

		c.stats.Eviction()
		if c.metrics != nil {
			c.metrics.recordEviction()
		}
	} else {
		i = c.alloc()
	}

	c.nodes[i] = lruNode[K, V]{key: key, value: value, prev: nilIndex, next: nilIndex}
	c.pushFront(i)
	c.index[key] = i
	c.recordPut()
	c.lock.Unlock()

	if evicted && c.evictFn != nil {
		c.evictFn(evictKey, evictValue)
	}
}

// Erase removes key and reports whether it was present.
func (c *LRU[K, V]) Erase(key K) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	i, ok := c.index[key]
	if !ok {
		return false
	}

	c.unlink(i)
	delete(c.index, key)
	c.nodes[i] = lruNode[K, V]{} // Clear for GC
	c.free = append(c.free, i)

	c.stats.Erase()
	c.stats.UpdateSize(int64(len(c.index)))
	if c.metrics != nil {
		c.metrics.recordErase()
		c.metrics.updateSize(len(c.index))
	}
	return true
}

// Peek returns the value for key without changing its recency or the hit and
// miss statistics.
func (c *LRU[K, V]) Peek(key K) (V, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	i, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	return c.nodes[i].value, true
}

// Exists reports whether key is cached without changing its recency.
func (c *LRU[K, V]) Exists(key K) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	_, ok := c.index[key]
	return ok
}

// Len returns the number of cached entries.
func (c *LRU[K, V]) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return len(c.index)
}

// Capacity returns the maximum number of entries.
func (c *LRU[K, V]) Capacity() int {
	return c.capacity
}

// Keys returns the cached keys, most recently used first.
func (c *LRU[K, V]) Keys() []K {
	c.lock.Lock()
	defer c.lock.Unlock()

	keys := make([]K, 0, len(c.index))
	for i := c.head; i != nilIndex; i = c.nodes[i].next {
		keys = append(keys, c.nodes[i].key)
	}
	return keys
}

// Clear removes every entry. The eviction callback is not called.
func (c *LRU[K, V]) Clear() {
	c.lock.Lock()
	defer c.lock.Unlock()

	clear(c.nodes)
	c.nodes = c.nodes[:0]
	c.free = c.free[:0]
	clear(c.index)
	c.head, c.tail = nilIndex, nilIndex

	c.stats.UpdateSize(0)
	if c.metrics != nil {
		c.metrics.updateSize(0)
	}
}

// Stats returns cache statistics (always available).
func (c *LRU[K, V]) Stats() *Statistics {
	return c.stats
}

func (c *LRU[K, V]) recordPut() {
	c.stats.Put()
	c.stats.UpdateSize(int64(len(c.index)))
	if c.metrics != nil {
		c.metrics.recordPut()
		c.metrics.updateSize(len(c.index))
	}
}

// alloc returns a free arena slot, growing the arena when none was released.
func (c *LRU[K, V]) alloc() int32 {
	if n := len(c.free); n > 0 {
		i := c.free[n-1]
		c.free = c.free[:n-1]
		return i
	}
	c.nodes = append(c.nodes, lruNode[K, V]{})
	return int32(len(c.nodes) - 1)
}

func (c *LRU[K, V]) pushFront(i int32) {
	n := &c.nodes[i]
	n.prev = nilIndex
	n.next = c.head
	if c.head != nilIndex {
		c.nodes[c.head].prev = i
	}
	c.head = i
	if c.tail == nilIndex {
		c.tail = i
	}
}

func (c *LRU[K, V]) unlink(i int32) {
	n := &c.nodes[i]
	if n.prev != nilIndex {
		c.nodes[n.prev].next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nilIndex {
		c.nodes[n.next].prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nilIndex, nilIndex
}

func (c *LRU[K, V]) moveToFront(i int32) {
	if c.head == i {
		return
	}
	c.unlink(i)
	c.pushFront(i)
}
