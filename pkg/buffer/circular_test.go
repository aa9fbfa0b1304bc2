package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpengk/BaseUtils/errors"
)

func TestNewCircularQueue(t *testing.T) {
	q, err := NewCircularQueue[int](5)
	require.NoError(t, err)
	assert.Equal(t, 5, q.Cap())
	assert.Equal(t, 0, q.Len())
	assert.True(t, q.Empty())
	assert.False(t, q.Full())

	for _, bad := range []int{0, -1} {
		_, err := NewCircularQueue[int](bad)
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	}
}

func TestCircularQueue_BasicOperations(t *testing.T) {
	q, err := NewCircularQueue[string](3)
	require.NoError(t, err)

	q.Push("first")
	q.Push("second")
	q.Push("third")

	if !q.Full() {
		t.Error("Expected queue to be full")
	}
	if q.Empty() {
		t.Error("Expected queue not to be empty")
	}

	front, err := q.Front()
	require.NoError(t, err)
	assert.Equal(t, "first", front)
	assert.Equal(t, 3, q.Len(), "Front should not change size")

	second, err := q.At(1)
	require.NoError(t, err)
	assert.Equal(t, "second", second)

	v, err := q.Pop()
	require.NoError(t, err)
	assert.Equal(t, "first", v)
	assert.Equal(t, 2, q.Len())
	assert.Equal(t, []string{"second", "third"}, q.Drain())
	assert.True(t, q.Empty())
}

func TestCircularQueue_EmptyAccess(t *testing.T) {
	q, err := NewCircularQueue[int](2)
	require.NoError(t, err)

	_, err = q.Front()
	assert.True(t, errors.IsInvalid(err))

	_, err = q.Pop()
	assert.True(t, errors.IsInvalid(err))

	q.Push(1)
	_, err = q.At(1)
	assert.True(t, errors.IsInvalid(err))
	_, err = q.At(-1)
	assert.True(t, errors.IsInvalid(err))
}

func TestCircularQueue_Overrun(t *testing.T) {
	testCases := []struct {
		name     string
		capacity int
		pushes   int
	}{
		{"exactly full", 4, 4},
		{"one over", 4, 5},
		{"many over", 4, 23},
		{"capacity one", 1, 7},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			q, err := NewCircularQueue[int](tc.capacity)
			require.NoError(t, err)

			for i := 1; i <= tc.pushes; i++ {
				q.Push(i)
				require.LessOrEqual(t, q.Len(), tc.capacity)
			}

			excess := tc.pushes - tc.capacity
			if excess < 0 {
				excess = 0
			}
			assert.Equal(t, int64(excess), q.Overrun())

			var expected []int
			for i := excess + 1; i <= tc.pushes; i++ {
				expected = append(expected, i)
			}
			for i := range expected {
				v, err := q.At(i)
				require.NoError(t, err)
				assert.Equal(t, expected[i], v)
			}
			assert.Equal(t, expected, q.Drain())
		})
	}
}

func TestCircularQueue_Wraparound(t *testing.T) {
	q, err := NewCircularQueue[int](3)
	require.NoError(t, err)

	next := 0
	for round := 0; round < 10; round++ {
		q.Push(next)
		q.Push(next + 1)
		v, err := q.Pop()
		require.NoError(t, err)
		assert.Equal(t, next, v)
		v, err = q.Pop()
		require.NoError(t, err)
		assert.Equal(t, next+1, v)
		next += 2
	}
	assert.True(t, q.Empty())
	assert.Equal(t, int64(0), q.Overrun())
}

func TestCircularQueue_Clear(t *testing.T) {
	q, err := NewCircularQueue[int](2)
	require.NoError(t, err)

	q.Push(1)
	q.Push(2)
	q.Push(3)
	require.Equal(t, int64(1), q.Overrun())

	q.Clear()
	assert.True(t, q.Empty())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, int64(0), q.Overrun())

	q.Push(9)
	v, err := q.Front()
	require.NoError(t, err)
	assert.Equal(t, 9, v)
}

func TestCircularQueue_GenericTypes(t *testing.T) {
	type sample struct {
		id    int
		value float64
	}

	q, err := NewCircularQueue[*sample](2)
	require.NoError(t, err)

	q.Push(&sample{1, 0.5})
	q.Push(&sample{2, 1.5})
	q.Push(&sample{3, 2.5})

	items := q.Drain()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].id)
	assert.Equal(t, 3, items[1].id)
}
