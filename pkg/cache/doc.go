// Package cache provides a generic fixed-capacity LRU cache with a pluggable lock
// strategy, built-in statistics tracking and optional Prometheus metrics
// integration.
//
// # Quick Start
//
//	lru, err := cache.NewLRU[string, *Session](1000)
//	if err != nil {
//		return err
//	}
//	lru.Put("alice", session)
//	s, ok := lru.Get("alice") // promotes "alice"
//
// Shared between goroutines, with metrics and an eviction hook:
//
//	lru, err := cache.NewLRU[uuid.UUID, []byte](4096,
//		cache.WithLocker[uuid.UUID, []byte](&cache.MutexLock{}),
//		cache.WithMetrics[uuid.UUID, []byte](registry, "frames"),
//		cache.WithEvictionCallback[uuid.UUID, []byte](func(id uuid.UUID, _ []byte) {
//			logger.Debug("evicted", "id", id)
//		}),
//	)
//
// # Eviction
//
// Get and Put promote the entry to most recently used. Exists and Keys do not change
// recency. Putting a new key into a full cache evicts exactly one entry, the least
// recently used one, so Len never exceeds Capacity.
//
// # Lock Strategies
//
//   - NoLock: no synchronization, the default for single-owner caches
//   - MutexLock: sync.Mutex
//   - SpinLock: atomic test-and-test-and-set with spin.Wait backoff
//
// NewLocker maps the configuration names "none", "mutex" and "spin" to a fresh
// Locker.
//
// # Observability
//
// Stats() is always available and counts hits, misses, puts, erases and evictions.
// WithMetrics exports the same counters plus a size gauge under the "cache"
// subsystem, labelled by component. Statistics use atomics, so they stay accurate
// even when the cache itself runs with NoLock on a single goroutine and a different
// goroutine reads them.
package cache
