package cache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpengk/BaseUtils/errors"
)

func TestSpinLock_MutualExclusion(t *testing.T) {
	var l SpinLock
	counter := 0

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 10000; i++ {
				l.Lock()
				counter++
				l.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 80000, counter)
}

func TestSpinLock_TryLock(t *testing.T) {
	var l SpinLock
	require.True(t, l.TryLock())
	assert.False(t, l.TryLock())
	l.Unlock()
	assert.True(t, l.TryLock())
	l.Unlock()
}

func TestNewLocker(t *testing.T) {
	tests := []struct {
		kind LockKind
		want Locker
	}{
		{"", NoLock{}},
		{LockNone, NoLock{}},
		{LockMutex, &MutexLock{}},
		{LockSpin, &SpinLock{}},
		{"SPIN", &SpinLock{}},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := NewLocker(tt.kind)
			require.NoError(t, err)
			assert.IsType(t, tt.want, got)
		})
	}

	_, err := NewLocker("rwlock")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}
