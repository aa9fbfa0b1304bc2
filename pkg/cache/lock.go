package cache

import (
	"fmt"
	"strings"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
	"golang.org/x/sys/cpu"

	"github.com/kpengk/BaseUtils/errors"
)

// Locker guards an LRU. Every LRU method holds it for its whole duration.
type Locker interface {
	Lock()
	Unlock()
}

// NoLock performs no synchronization. It is the default and is only correct when
// the cache has a single owner goroutine.
type NoLock struct{}

// Lock does nothing.
func (NoLock) Lock() {}

// Unlock does nothing.
func (NoLock) Unlock() {}

// MutexLock is a sync.Mutex. Use it for caches shared by goroutines that may hold
// the cache for a while or that run on an oversubscribed scheduler.
type MutexLock struct {
	sync.Mutex
}

// SpinLock is a test-and-test-and-set lock that never parks the goroutine. It
// suits very short critical sections under light contention.
type SpinLock struct {
	_     cpu.CacheLinePad
	state atomix.Uint64 // 0 = unlocked, 1 = locked
	_     cpu.CacheLinePad
}

// TryLock acquires the lock if it is free.
func (l *SpinLock) TryLock() bool {
	return l.state.CompareAndSwapAcqRel(0, 1)
}

// Lock spins until the lock is acquired, backing off through spin.Wait.
func (l *SpinLock) Lock() {
	sw := spin.Wait{}
	for {
		if l.state.LoadRelaxed() == 0 && l.TryLock() {
			return
		}
		sw.Once()
	}
}

// Unlock releases the lock.
func (l *SpinLock) Unlock() {
	l.state.StoreRelease(0)
}

// LockKind names a lock strategy in configuration.
type LockKind string

const (
	// LockNone selects NoLock.
	LockNone LockKind = "none"

	// LockMutex selects MutexLock.
	LockMutex LockKind = "mutex"

	// LockSpin selects SpinLock.
	LockSpin LockKind = "spin"
)

// NewLocker returns a fresh Locker for kind. The empty kind selects LockNone.
func NewLocker(kind LockKind) (Locker, error) {
	switch LockKind(strings.ToLower(string(kind))) {
	case "", LockNone:
		return NoLock{}, nil
	case LockMutex:
		return &MutexLock{}, nil
	case LockSpin:
		return &SpinLock{}, nil
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: unknown lock kind %q", errors.ErrInvalidArgument, kind),
			"cache", "NewLocker", "select lock strategy")
	}
}
