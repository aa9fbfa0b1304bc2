package buffer

import (
	"encoding/binary"
	"io"

	"github.com/kpengk/BaseUtils/errors"
)

const (
	// DefaultPrependReserve is the number of bytes kept in front of the readable
	// region so fixed-size headers can be prepended without shifting content.
	DefaultPrependReserve = 8

	// DefaultInitialSize is the writable size of a new ByteBuffer.
	DefaultInitialSize = 1024

	// minReadFromSize is the smallest writable window ReadFrom hands to a reader.
	minReadFromSize = 512
)

// ByteBuffer is a growable byte buffer with cheap prepend.
//
//	+-------------------+------------------+------------------+
//	| prependable bytes |  readable bytes  |  writable bytes  |
//	|                   |     (CONTENT)    |                  |
//	+-------------------+------------------+------------------+
//	|                   |                  |                  |
//	0      <=        reader      <=      writer     <=    len(buf)
//
// A ByteBuffer is not safe for concurrent use.
type ByteBuffer struct {
	buf     []byte
	reader  int
	writer  int
	reserve int
}

// ByteBufferOption configures a ByteBuffer.
type ByteBufferOption func(*ByteBuffer)

// WithPrependReserve sets how many bytes are kept free in front of the content.
// Negative values are ignored.
func WithPrependReserve(n int) ByteBufferOption {
	return func(b *ByteBuffer) {
		if n >= 0 {
			b.reserve = n
		}
	}
}

// NewByteBuffer creates a buffer with size writable bytes. A size <= 0 selects
// DefaultInitialSize.
func NewByteBuffer(size int, opts ...ByteBufferOption) *ByteBuffer {
	if size <= 0 {
		size = DefaultInitialSize
	}

	b := &ByteBuffer{reserve: DefaultPrependReserve}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}

	b.buf = make([]byte, b.reserve+size)
	b.reader = b.reserve
	b.writer = b.reserve
	return b
}

// ReadableBytes returns the number of bytes available to read.
func (b *ByteBuffer) ReadableBytes() int { return b.writer - b.reader }

// WritableBytes returns the number of bytes that can be appended without growing.
func (b *ByteBuffer) WritableBytes() int { return len(b.buf) - b.writer }

// PrependableBytes returns the number of bytes available in front of the content.
func (b *ByteBuffer) PrependableBytes() int { return b.reader }

// Capacity returns the size of the backing array. It always equals
// PrependableBytes() + ReadableBytes() + WritableBytes().
func (b *ByteBuffer) Capacity() int { return len(b.buf) }

// PrependReserve returns the configured prepend reserve.
func (b *ByteBuffer) PrependReserve() int { return b.reserve }

// Peek returns the readable bytes without consuming them. The slice aliases the
// buffer and is only valid until the next mutation.
func (b *ByteBuffer) Peek() []byte { return b.buf[b.reader:b.writer] }

// String returns the readable bytes as a string without consuming them.
func (b *ByteBuffer) String() string { return string(b.Peek()) }

// Skip consumes n readable bytes. Skipping everything (or more) resets both
// indices to the prepend reserve.
func (b *ByteBuffer) Skip(n int) {
	if n <= 0 {
		return
	}
	if n < b.ReadableBytes() {
		b.reader += n
		return
	}
	b.SkipAll()
}

// SkipAll discards all readable bytes.
func (b *ByteBuffer) SkipAll() {
	b.reader = b.reserve
	b.writer = b.reserve
}

// ReadString consumes n bytes and returns them as a string.
func (b *ByteBuffer) ReadString(n int) (string, error) {
	if n < 0 || n > b.ReadableBytes() {
		return "", errors.WrapInvalid(errors.ErrShortBuffer, "ByteBuffer", "ReadString",
			"read beyond readable region")
	}
	s := string(b.buf[b.reader : b.reader+n])
	b.Skip(n)
	return s, nil
}

// Next consumes up to n readable bytes and returns them. The slice aliases the
// buffer and is only valid until the next write.
func (b *ByteBuffer) Next(n int) []byte {
	if n <= 0 {
		return nil
	}
	n = min(n, b.ReadableBytes())
	p := b.buf[b.reader : b.reader+n]
	if n < b.ReadableBytes() {
		b.reader += n
	} else {
		b.reader = b.writer
	}
	return p
}

// NextString consumes up to n readable bytes and returns them as a string.
func (b *ByteBuffer) NextString(n int) string {
	s := string(b.Next(n))
	if b.ReadableBytes() == 0 {
		b.SkipAll()
	}
	return s
}

// UnreadBytes moves the read index back by n so already consumed bytes become
// readable again. It fails when n exceeds PrependableBytes().
func (b *ByteBuffer) UnreadBytes(n int) error {
	if n < 0 || n > b.reader {
		return errors.WrapInvalid(errors.ErrNoPrependSpace, "ByteBuffer", "UnreadBytes",
			"unread beyond prependable region")
	}
	b.reader -= n
	return nil
}

// ReadAllString consumes every readable byte and returns them as a string.
func (b *ByteBuffer) ReadAllString() string {
	s := string(b.Peek())
	b.SkipAll()
	return s
}

// Append copies p after the readable region, growing the buffer if needed.
func (b *ByteBuffer) Append(p []byte) {
	b.EnsureWritableBytes(len(p))
	b.writer += copy(b.buf[b.writer:], p)
}

// AppendString copies s after the readable region.
func (b *ByteBuffer) AppendString(s string) {
	b.EnsureWritableBytes(len(s))
	b.writer += copy(b.buf[b.writer:], s)
}

// Write implements io.Writer. It never fails.
func (b *ByteBuffer) Write(p []byte) (int, error) {
	b.Append(p)
	return len(p), nil
}

// WriteString implements io.StringWriter.
func (b *ByteBuffer) WriteString(s string) (int, error) {
	b.AppendString(s)
	return len(s), nil
}

// WriteByte implements io.ByteWriter.
func (b *ByteBuffer) WriteByte(c byte) error {
	b.EnsureWritableBytes(1)
	b.buf[b.writer] = c
	b.writer++
	return nil
}

// Prepend writes p immediately before the readable region.
func (b *ByteBuffer) Prepend(p []byte) error {
	if len(p) > b.PrependableBytes() {
		return errors.WrapInvalid(errors.ErrNoPrependSpace, "ByteBuffer", "Prepend",
			"prepend beyond reserve")
	}
	b.reader -= len(p)
	copy(b.buf[b.reader:], p)
	return nil
}

// WritableSlice returns the writable region for zero-copy fills. Call HasWritten
// with the number of bytes actually filled.
func (b *ByteBuffer) WritableSlice() []byte { return b.buf[b.writer:] }

// HasWritten commits n bytes previously filled through WritableSlice.
func (b *ByteBuffer) HasWritten(n int) error {
	if n < 0 || n > b.WritableBytes() {
		return errors.WrapInvalid(errors.ErrIndexOutOfRange, "ByteBuffer", "HasWritten",
			"commit beyond writable region")
	}
	b.writer += n
	return nil
}

// Unwrite drops the last n readable bytes.
func (b *ByteBuffer) Unwrite(n int) error {
	if n < 0 || n > b.ReadableBytes() {
		return errors.WrapInvalid(errors.ErrShortBuffer, "ByteBuffer", "Unwrite",
			"unwrite beyond readable region")
	}
	b.writer -= n
	return nil
}

// Truncate keeps the first n readable bytes and drops the rest. Truncate(0)
// empties the buffer; n >= ReadableBytes() is a no-op.
func (b *ByteBuffer) Truncate(n int) {
	switch {
	case n <= 0:
		b.SkipAll()
	case n < b.ReadableBytes():
		b.writer = b.reader + n
	}
}

// EnsureWritableBytes makes room for at least n more bytes. When the free space
// on both sides of the content cannot hold n plus the prepend reserve the backing
// array is reallocated (at least doubling); otherwise the content slides back to
// the reserve boundary.
func (b *ByteBuffer) EnsureWritableBytes(n int) {
	if b.WritableBytes() >= n {
		return
	}

	readable := b.ReadableBytes()
	if b.WritableBytes()+b.PrependableBytes() < n+b.reserve {
		size := b.reserve + readable + n
		if grown := 2 * len(b.buf); grown > size {
			size = grown
		}
		buf := make([]byte, size)
		copy(buf[b.reserve:], b.buf[b.reader:b.writer])
		b.buf = buf
	} else {
		copy(b.buf[b.reserve:], b.buf[b.reader:b.writer])
	}
	b.reader = b.reserve
	b.writer = b.reserve + readable
}

// Shrink reallocates the backing array to fit the content plus extra writable bytes.
func (b *ByteBuffer) Shrink(extra int) {
	if extra < 0 {
		extra = 0
	}
	readable := b.ReadableBytes()
	buf := make([]byte, b.reserve+readable+extra)
	copy(buf[b.reserve:], b.buf[b.reader:b.writer])
	b.buf = buf
	b.reader = b.reserve
	b.writer = b.reserve + readable
}

// Reserve grows the backing array so it can hold n content bytes behind the
// prepend reserve. It never shrinks.
func (b *ByteBuffer) Reserve(n int) {
	if len(b.buf) >= b.reserve+n {
		return
	}
	readable := b.ReadableBytes()
	buf := make([]byte, b.reserve+max(n, readable))
	copy(buf[b.reserve:], b.buf[b.reader:b.writer])
	b.buf = buf
	b.reader = b.reserve
	b.writer = b.reserve + readable
}

// Swap exchanges the contents of b and other.
func (b *ByteBuffer) Swap(other *ByteBuffer) {
	*b, *other = *other, *b
}

// ReadFrom implements io.ReaderFrom, appending until r returns io.EOF.
func (b *ByteBuffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		b.EnsureWritableBytes(minReadFromSize)
		n, err := r.Read(b.buf[b.writer:])
		if n < 0 {
			n = 0
		}
		b.writer += n
		total += int64(n)
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

// WriteTo implements io.WriterTo, consuming what w accepts.
func (b *ByteBuffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Peek())
	b.Skip(n)
	if err == nil && b.ReadableBytes() > 0 {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// Fixed-width values are copied in the host's native byte order, matching a raw
// memory copy. Callers that need a wire order must convert themselves.

// AppendUint8 appends v.
func (b *ByteBuffer) AppendUint8(v uint8) { _ = b.WriteByte(v) }

// AppendUint16 appends v in native byte order.
func (b *ByteBuffer) AppendUint16(v uint16) {
	b.EnsureWritableBytes(2)
	binary.NativeEndian.PutUint16(b.buf[b.writer:], v)
	b.writer += 2
}

// AppendUint32 appends v in native byte order.
func (b *ByteBuffer) AppendUint32(v uint32) {
	b.EnsureWritableBytes(4)
	binary.NativeEndian.PutUint32(b.buf[b.writer:], v)
	b.writer += 4
}

// AppendUint64 appends v in native byte order.
func (b *ByteBuffer) AppendUint64(v uint64) {
	b.EnsureWritableBytes(8)
	binary.NativeEndian.PutUint64(b.buf[b.writer:], v)
	b.writer += 8
}

// AppendInt8 appends v.
func (b *ByteBuffer) AppendInt8(v int8) { b.AppendUint8(uint8(v)) }

// AppendInt16 appends v in native byte order.
func (b *ByteBuffer) AppendInt16(v int16) { b.AppendUint16(uint16(v)) }

// AppendInt32 appends v in native byte order.
func (b *ByteBuffer) AppendInt32(v int32) { b.AppendUint32(uint32(v)) }

// AppendInt64 appends v in native byte order.
func (b *ByteBuffer) AppendInt64(v int64) { b.AppendUint64(uint64(v)) }

func (b *ByteBuffer) front(n int, op string) ([]byte, error) {
	if b.ReadableBytes() < n {
		return nil, errors.WrapInvalid(errors.ErrShortBuffer, "ByteBuffer", op, "fixed-width read")
	}
	return b.buf[b.reader : b.reader+n], nil
}

// PeekUint8 returns the first readable byte without consuming it.
func (b *ByteBuffer) PeekUint8() (uint8, error) {
	p, err := b.front(1, "PeekUint8")
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

// PeekUint16 decodes the first two readable bytes without consuming them.
func (b *ByteBuffer) PeekUint16() (uint16, error) {
	p, err := b.front(2, "PeekUint16")
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint16(p), nil
}

// PeekUint32 decodes the first four readable bytes without consuming them.
func (b *ByteBuffer) PeekUint32() (uint32, error) {
	p, err := b.front(4, "PeekUint32")
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint32(p), nil
}

// PeekUint64 decodes the first eight readable bytes without consuming them.
func (b *ByteBuffer) PeekUint64() (uint64, error) {
	p, err := b.front(8, "PeekUint64")
	if err != nil {
		return 0, err
	}
	return binary.NativeEndian.Uint64(p), nil
}

// PeekInt8 is the signed form of PeekUint8.
func (b *ByteBuffer) PeekInt8() (int8, error) {
	v, err := b.PeekUint8()
	return int8(v), err
}

// PeekInt16 is the signed form of PeekUint16.
func (b *ByteBuffer) PeekInt16() (int16, error) {
	v, err := b.PeekUint16()
	return int16(v), err
}

// PeekInt32 is the signed form of PeekUint32.
func (b *ByteBuffer) PeekInt32() (int32, error) {
	v, err := b.PeekUint32()
	return int32(v), err
}

// PeekInt64 is the signed form of PeekUint64.
func (b *ByteBuffer) PeekInt64() (int64, error) {
	v, err := b.PeekUint64()
	return int64(v), err
}

// ReadUint8 consumes one byte.
func (b *ByteBuffer) ReadUint8() (uint8, error) {
	v, err := b.PeekUint8()
	if err == nil {
		b.Skip(1)
	}
	return v, err
}

// ReadUint16 consumes a native-order uint16.
func (b *ByteBuffer) ReadUint16() (uint16, error) {
	v, err := b.PeekUint16()
	if err == nil {
		b.Skip(2)
	}
	return v, err
}

// ReadUint32 consumes a native-order uint32.
func (b *ByteBuffer) ReadUint32() (uint32, error) {
	v, err := b.PeekUint32()
	if err == nil {
		b.Skip(4)
	}
	return v, err
}

// ReadUint64 consumes a native-order uint64.
func (b *ByteBuffer) ReadUint64() (uint64, error) {
	v, err := b.PeekUint64()
	if err == nil {
		b.Skip(8)
	}
	return v, err
}

// ReadInt8 is the signed form of ReadUint8.
func (b *ByteBuffer) ReadInt8() (int8, error) {
	v, err := b.ReadUint8()
	return int8(v), err
}

// ReadInt16 is the signed form of ReadUint16.
func (b *ByteBuffer) ReadInt16() (int16, error) {
	v, err := b.ReadUint16()
	return int16(v), err
}

// ReadInt32 is the signed form of ReadUint32.
func (b *ByteBuffer) ReadInt32() (int32, error) {
	v, err := b.ReadUint32()
	return int32(v), err
}

// ReadInt64 is the signed form of ReadUint64.
func (b *ByteBuffer) ReadInt64() (int64, error) {
	v, err := b.ReadUint64()
	return int64(v), err
}

// PrependUint8 writes v in front of the content.
func (b *ByteBuffer) PrependUint8(v uint8) error {
	return b.Prepend([]byte{v})
}

// PrependUint16 writes v in front of the content in native byte order.
func (b *ByteBuffer) PrependUint16(v uint16) error {
	var p [2]byte
	binary.NativeEndian.PutUint16(p[:], v)
	return b.Prepend(p[:])
}

// PrependUint32 writes v in front of the content in native byte order.
func (b *ByteBuffer) PrependUint32(v uint32) error {
	var p [4]byte
	binary.NativeEndian.PutUint32(p[:], v)
	return b.Prepend(p[:])
}

// PrependUint64 writes v in front of the content in native byte order.
func (b *ByteBuffer) PrependUint64(v uint64) error {
	var p [8]byte
	binary.NativeEndian.PutUint64(p[:], v)
	return b.Prepend(p[:])
}

// PrependInt8 is the signed form of PrependUint8.
func (b *ByteBuffer) PrependInt8(v int8) error { return b.PrependUint8(uint8(v)) }

// PrependInt16 is the signed form of PrependUint16.
func (b *ByteBuffer) PrependInt16(v int16) error { return b.PrependUint16(uint16(v)) }

// PrependInt32 is the signed form of PrependUint32.
func (b *ByteBuffer) PrependInt32(v int32) error { return b.PrependUint32(uint32(v)) }

// PrependInt64 is the signed form of PrependUint64.
func (b *ByteBuffer) PrependInt64(v int64) error { return b.PrependUint64(uint64(v)) }
