package queue

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpengk/BaseUtils/errors"
)

func newBlocking[T any](t *testing.T, opts ...Option[T]) *BlockingQueue[T] {
	t.Helper()
	q, err := NewBlocking[T](opts...)
	require.NoError(t, err)
	return q
}

func TestBlockingQueue_FIFO(t *testing.T) {
	q := newBlocking[int](t)
	assert.True(t, q.Empty())

	for i := 0; i < 100; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	assert.Equal(t, 100, q.Len())

	for i := 0; i < 100; i++ {
		v, err := q.Dequeue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, v)
	}
	assert.True(t, q.Empty())

	stats := q.Stats()
	assert.Equal(t, int64(100), stats.Enqueues())
	assert.Equal(t, int64(100), stats.Dequeues())
	assert.Equal(t, int64(100), stats.MaxSize())
	assert.Equal(t, int64(0), stats.CurrentSize())
}

func TestBlockingQueue_TryDequeue(t *testing.T) {
	q := newBlocking[string](t)

	_, err := q.TryDequeue()
	assert.True(t, IsWouldBlock(err))
	assert.ErrorIs(t, err, ErrWouldBlock)

	require.NoError(t, q.Enqueue("a"))
	v, err := q.TryDequeue()
	require.NoError(t, err)
	assert.Equal(t, "a", v)
}

func TestBlockingQueue_DequeueForTimeout(t *testing.T) {
	q := newBlocking[int](t)

	start := time.Now()
	_, ok := q.DequeueFor(30 * time.Millisecond)
	assert.False(t, ok)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)
	assert.Equal(t, int64(1), q.Stats().Timeouts())

	// zero timeout is a single attempt
	_, ok = q.DequeueFor(0)
	assert.False(t, ok)

	require.NoError(t, q.Enqueue(7))
	v, ok := q.DequeueFor(0)
	assert.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestBlockingQueue_DequeueWakesOnEnqueue(t *testing.T) {
	q := newBlocking[int](t)

	got := make(chan int, 1)
	go func() {
		v, ok := q.DequeueFor(5 * time.Second)
		if ok {
			got <- v
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Enqueue(42))

	select {
	case v := <-got:
		assert.Equal(t, 42, v)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer was not woken by Enqueue")
	}
}

func TestBlockingQueue_ContextCancel(t *testing.T) {
	q := newBlocking[int](t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Dequeue(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Dequeue did not return after cancel")
	}
}

func TestBlockingQueue_Close(t *testing.T) {
	q := newBlocking[int](t)
	require.NoError(t, q.Enqueue(1))
	require.NoError(t, q.Close())
	require.NoError(t, q.Close(), "Close is idempotent")

	err := q.Enqueue(2)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrClosed))
	assert.True(t, errors.IsInvalid(err))

	v, err := q.Dequeue(context.Background())
	require.NoError(t, err, "buffered items survive Close")
	assert.Equal(t, 1, v)

	_, err = q.Dequeue(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	_, err = q.TryDequeue()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestBlockingQueue_CloseWakesConsumers(t *testing.T) {
	q := newBlocking[int](t)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := q.Dequeue(context.Background())
			errs <- err
		}()
	}

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, q.Close())
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.ErrorIs(t, err, ErrClosed)
	}
}

func TestBlockingQueue_Clear(t *testing.T) {
	q := newBlocking[int](t)
	for i := 0; i < 10; i++ {
		require.NoError(t, q.Enqueue(i))
	}
	q.Clear()
	assert.True(t, q.Empty())

	require.NoError(t, q.Enqueue(99))
	v, err := q.TryDequeue()
	require.NoError(t, err)
	assert.Equal(t, 99, v)
}

func TestBlockingQueue_CompactionKeepsOrder(t *testing.T) {
	q := newBlocking[int](t)

	next := 0
	expected := 0
	for round := 0; round < 20; round++ {
		for i := 0; i < 100; i++ {
			require.NoError(t, q.Enqueue(next))
			next++
		}
		for i := 0; i < 70; i++ {
			v, err := q.TryDequeue()
			require.NoError(t, err)
			require.Equal(t, expected, v)
			expected++
		}
	}
	for !q.Empty() {
		v, err := q.TryDequeue()
		require.NoError(t, err)
		require.Equal(t, expected, v)
		expected++
	}
	assert.Equal(t, next, expected)
}

func TestBlockingQueue_ConcurrentProducersConsumers(t *testing.T) {
	const (
		producers = 4
		consumers = 4
		perProd   = 2000
	)
	q := newBlocking[int](t)

	var prodWG sync.WaitGroup
	for p := 0; p < producers; p++ {
		prodWG.Add(1)
		go func(p int) {
			defer prodWG.Done()
			for i := 0; i < perProd; i++ {
				_ = q.Enqueue(p*perProd + i)
			}
		}(p)
	}

	var mu sync.Mutex
	seen := make(map[int]int, producers*perProd)
	var consWG sync.WaitGroup
	for c := 0; c < consumers; c++ {
		consWG.Add(1)
		go func() {
			defer consWG.Done()
			for {
				v, err := q.Dequeue(context.Background())
				if err != nil {
					return
				}
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}

	prodWG.Wait()
	require.NoError(t, q.Close())
	consWG.Wait()

	require.Len(t, seen, producers*perProd, "no item lost")
	for v, n := range seen {
		require.Equal(t, 1, n, "item %d delivered more than once", v)
	}
}
