package buffer

import (
	"fmt"
	"testing"
)

// BenchmarkByteBufferAppend benchmarks appends of different payload sizes.
func BenchmarkByteBufferAppend(b *testing.B) {
	for _, size := range []int{8, 64, 512, 4096} {
		b.Run(fmt.Sprintf("Payload_%d", size), func(b *testing.B) {
			payload := make([]byte, size)
			buf := NewByteBuffer(0)

			b.SetBytes(int64(size))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				buf.Append(payload)
				if buf.ReadableBytes() > 1<<20 {
					buf.SkipAll()
				}
			}
		})
	}
}

// BenchmarkByteBufferFrame benchmarks the append-then-prepend length framing pattern.
func BenchmarkByteBufferFrame(b *testing.B) {
	payload := make([]byte, 256)
	buf := NewByteBuffer(0)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Append(payload)
		_ = buf.PrependUint32(uint32(len(payload)))
		n, _ := buf.ReadUint32()
		buf.Skip(int(n))
	}
}

// BenchmarkCircularQueuePush benchmarks pushes with and without overrun.
func BenchmarkCircularQueuePush(b *testing.B) {
	for _, capacity := range []int{100, 1000} {
		b.Run(fmt.Sprintf("Capacity_%d", capacity), func(b *testing.B) {
			q, err := NewCircularQueue[int](capacity)
			if err != nil {
				b.Fatal(err)
			}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				q.Push(i)
			}
		})
	}
}

// BenchmarkCircularQueuePushPop benchmarks a steady push/pop cycle.
func BenchmarkCircularQueuePushPop(b *testing.B) {
	q, err := NewCircularQueue[int](1024)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Push(i)
		_, _ = q.Pop()
	}
}
