package buffer

import (
	"io"

	"github.com/kpengk/BaseUtils/errors"
)

// ByteRing is a fixed-capacity byte FIFO over a wrapping array. Unlike
// CircularQueue it never overwrites: a write that does not fit is rejected whole,
// and so is a read or peek asking for more than Len() bytes.
//
// A ByteRing is not safe for concurrent use.
type ByteRing struct {
	buf  []byte
	head int // index of the oldest byte
	size int
}

// NewByteRing creates a ring holding at most capacity bytes.
func NewByteRing(capacity int) (*ByteRing, error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidCapacity, "ByteRing", "NewByteRing", "validate capacity")
	}
	return &ByteRing{buf: make([]byte, capacity)}, nil
}

// Len returns the number of stored bytes.
func (r *ByteRing) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *ByteRing) Cap() int { return len(r.buf) }

// WritableBytes returns how many bytes the next Write can take.
func (r *ByteRing) WritableBytes() int { return len(r.buf) - r.size }

// Empty reports whether nothing is stored.
func (r *ByteRing) Empty() bool { return r.size == 0 }

// Clear discards every stored byte.
func (r *ByteRing) Clear() {
	r.head = 0
	r.size = 0
}

// Write implements io.Writer with all-or-nothing semantics: when p does not fit
// in WritableBytes() nothing is copied and ErrNoSpace is returned.
func (r *ByteRing) Write(p []byte) (int, error) {
	if len(p) > r.WritableBytes() {
		return 0, errors.WrapInvalid(errors.ErrNoSpace, "ByteRing", "Write", "check writable space")
	}
	tail := (r.head + r.size) % len(r.buf)
	n := copy(r.buf[tail:], p)
	copy(r.buf, p[n:])
	r.size += len(p)
	return len(p), nil
}

// ReadFull consumes exactly len(p) bytes into p.
func (r *ByteRing) ReadFull(p []byte) error {
	if len(p) > r.size {
		return errors.WrapInvalid(errors.ErrShortBuffer, "ByteRing", "ReadFull", "check readable bytes")
	}
	r.copyOut(p)
	r.Skip(len(p))
	return nil
}

// Read implements io.Reader. It copies up to len(p) bytes and returns io.EOF once
// the ring is empty.
func (r *ByteRing) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if r.size == 0 {
		return 0, io.EOF
	}
	n := min(len(p), r.size)
	r.copyOut(p[:n])
	r.Skip(n)
	return n, nil
}

// Peek copies exactly len(p) bytes into p without consuming them.
func (r *ByteRing) Peek(p []byte) error {
	if len(p) > r.size {
		return errors.WrapInvalid(errors.ErrShortBuffer, "ByteRing", "Peek", "check readable bytes")
	}
	r.copyOut(p)
	return nil
}

// PeekFront returns the oldest byte.
func (r *ByteRing) PeekFront() (byte, error) {
	if r.size == 0 {
		return 0, errors.WrapInvalid(errors.ErrEmpty, "ByteRing", "PeekFront", "read front")
	}
	return r.buf[r.head], nil
}

// PeekBack returns the newest byte.
func (r *ByteRing) PeekBack() (byte, error) {
	if r.size == 0 {
		return 0, errors.WrapInvalid(errors.ErrEmpty, "ByteRing", "PeekBack", "read back")
	}
	return r.buf[(r.head+r.size-1)%len(r.buf)], nil
}

// Skip discards n bytes from the front. Skipping everything (or more) clears the
// ring.
func (r *ByteRing) Skip(n int) {
	if n <= 0 {
		return
	}
	if n >= r.size {
		r.Clear()
		return
	}
	r.head = (r.head + n) % len(r.buf)
	r.size -= n
}

// copyOut copies len(p) stored bytes, which the caller has checked exist.
func (r *ByteRing) copyOut(p []byte) {
	end := min(r.head+len(p), len(r.buf))
	n := copy(p, r.buf[r.head:end])
	copy(p[n:], r.buf)
}
