// Package buffer provides single-owner containers used as building blocks by the
// rest of BaseUtils.
//
// # ByteBuffer
//
// ByteBuffer is a growable byte buffer split into three zones by a reader and a
// writer index: prependable bytes, readable bytes (the content) and writable bytes.
// A small prepend reserve (8 bytes by default) lets a caller append a payload first
// and then prepend its length header without moving the payload:
//
//	buf := buffer.NewByteBuffer(0)
//	buf.AppendString(payload)
//	_ = buf.PrependUint32(uint32(buf.ReadableBytes()))
//
// When an append does not fit, EnsureWritableBytes either slides the content back to
// the reserve boundary (if the free space on both sides suffices) or reallocates with
// at least double the size. Content is preserved either way and appends stay amortized
// O(1).
//
// Fixed-width integers are written with binary.NativeEndian, i.e. exactly the bytes a
// raw memory copy would produce. No framing or byte-order conversion is applied.
//
// Caller mistakes such as reading more than ReadableBytes() or prepending more than
// PrependableBytes() return an Invalid error from the errors package instead of
// corrupting the indices.
//
// # CircularQueue
//
// CircularQueue is a fixed-capacity FIFO with a drop-oldest policy: Push always
// succeeds, and when the queue is full the oldest element is discarded and Overrun()
// increments. This suits telemetry and log buffers where stale data is worse than
// lost data.
//
//	q, _ := buffer.NewCircularQueue[Sample](3)
//	for _, s := range samples {
//		q.Push(s)
//	}
//	latest := q.Drain() // the last three samples, oldest first
//
// # ByteRing
//
// ByteRing is a fixed-capacity byte FIFO for staging stream data. It never
// overwrites: Write rejects a chunk that does not fit with ErrNoSpace, and ReadFull
// and Peek reject requests longer than Len() with ErrShortBuffer. Wrap-around is
// handled inside every copy.
//
//	ring, _ := buffer.NewByteRing(4096)
//	if _, err := ring.Write(chunk); errors.Is(err, errors.ErrNoSpace) {
//		// apply backpressure
//	}
//
// None of these types lock. The thread-safe bounded queue in pkg/queue wraps CircularQueue
// behind a mutex and two condition variables.
package buffer
