package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks queue activity. It is always collected, independent of whether
// Prometheus metrics are enabled.
type Statistics struct {
	enqueues int64
	dequeues int64
	overruns int64
	timeouts int64

	// Protected by mutex
	mu          sync.RWMutex
	startTime   time.Time
	currentSize int64
	maxSize     int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Enqueue records an accepted item.
func (s *Statistics) Enqueue() {
	atomic.AddInt64(&s.enqueues, 1)
}

// Dequeue records a consumed item.
func (s *Statistics) Dequeue() {
	atomic.AddInt64(&s.dequeues, 1)
}

// Overrun records an item overwritten by the drop-oldest policy.
func (s *Statistics) Overrun() {
	atomic.AddInt64(&s.overruns, 1)
}

// Timeout records a timed or cancelled wait that gave up.
func (s *Statistics) Timeout() {
	atomic.AddInt64(&s.timeouts, 1)
}

// UpdateSize updates the current queue length.
func (s *Statistics) UpdateSize(size int64) {
	s.mu.Lock()
	s.currentSize = size
	if size > s.maxSize {
		s.maxSize = size
	}
	s.mu.Unlock()
}

// Enqueues returns the total number of accepted items.
func (s *Statistics) Enqueues() int64 {
	return atomic.LoadInt64(&s.enqueues)
}

// Dequeues returns the total number of consumed items.
func (s *Statistics) Dequeues() int64 {
	return atomic.LoadInt64(&s.dequeues)
}

// Overruns returns the total number of overwritten items.
func (s *Statistics) Overruns() int64 {
	return atomic.LoadInt64(&s.overruns)
}

// Timeouts returns the total number of waits that gave up.
func (s *Statistics) Timeouts() int64 {
	return atomic.LoadInt64(&s.timeouts)
}

// CurrentSize returns the queue length at the last update.
func (s *Statistics) CurrentSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSize
}

// MaxSize returns the largest queue length observed.
func (s *Statistics) MaxSize() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxSize
}

// Throughput returns the average number of enqueues per second.
func (s *Statistics) Throughput() float64 {
	elapsed := s.Uptime()
	if elapsed == 0 {
		return 0.0
	}
	return float64(s.Enqueues()) / elapsed.Seconds()
}

// OverrunRate returns the fraction of enqueues that overwrote an older item.
func (s *Statistics) OverrunRate() float64 {
	enqueues := s.Enqueues()
	if enqueues == 0 {
		return 0.0
	}
	return float64(s.Overruns()) / float64(enqueues)
}

// Uptime returns how long the queue has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// Reset resets all statistics to zero.
func (s *Statistics) Reset() {
	atomic.StoreInt64(&s.enqueues, 0)
	atomic.StoreInt64(&s.dequeues, 0)
	atomic.StoreInt64(&s.overruns, 0)
	atomic.StoreInt64(&s.timeouts, 0)

	s.mu.Lock()
	s.startTime = time.Now()
	s.currentSize = 0
	s.maxSize = 0
	s.mu.Unlock()
}

// StatsSummary is a point-in-time copy of Statistics.
type StatsSummary struct {
	Enqueues    int64         `json:"enqueues"`
	Dequeues    int64         `json:"dequeues"`
	Overruns    int64         `json:"overruns"`
	Timeouts    int64         `json:"timeouts"`
	CurrentSize int64         `json:"current_size"`
	MaxSize     int64         `json:"max_size"`
	Throughput  float64       `json:"throughput"`
	OverrunRate float64       `json:"overrun_rate"`
	Uptime      time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Enqueues:    s.Enqueues(),
		Dequeues:    s.Dequeues(),
		Overruns:    s.Overruns(),
		Timeouts:    s.Timeouts(),
		CurrentSize: s.CurrentSize(),
		MaxSize:     s.MaxSize(),
		Throughput:  s.Throughput(),
		OverrunRate: s.OverrunRate(),
		Uptime:      s.Uptime(),
	}
}
