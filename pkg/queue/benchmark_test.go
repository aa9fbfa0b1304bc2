package queue

import (
	"context"
	"fmt"
	"testing"
)

// BenchmarkBoundedEnqueueNoWait measures the drop-oldest path under contention.
func BenchmarkBoundedEnqueueNoWait(b *testing.B) {
	for _, capacity := range []int{16, 1024} {
		b.Run(fmt.Sprintf("cap_%d", capacity), func(b *testing.B) {
			q, err := NewBounded[int](capacity)
			if err != nil {
				b.Fatal(err)
			}
			defer q.Close()

			b.ResetTimer()
			b.RunParallel(func(pb *testing.PB) {
				i := 0
				for pb.Next() {
					_ = q.EnqueueNoWait(i)
					i++
				}
			})
		})
	}
}

// BenchmarkBoundedHandoff measures one producer feeding one consumer.
func BenchmarkBoundedHandoff(b *testing.B) {
	q, err := NewBounded[int](256)
	if err != nil {
		b.Fatal(err)
	}
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < b.N; i++ {
			if _, err := q.Dequeue(ctx); err != nil {
				return
			}
		}
	}()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := q.Enqueue(ctx, i); err != nil {
			b.Fatal(err)
		}
	}
	<-done
}

// BenchmarkBlockingEnqueueDequeue measures the unbounded queue in steady state.
func BenchmarkBlockingEnqueueDequeue(b *testing.B) {
	q, err := NewBlocking[int]()
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = q.Enqueue(i)
		if _, err := q.TryDequeue(); err != nil {
			b.Fatal(err)
		}
	}
}
