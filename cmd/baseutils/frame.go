package main

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/kpengk/BaseUtils/errors"
	"github.com/kpengk/BaseUtils/pkg/buffer"
)

// frameHeaderSize covers the session id and the sequence number.
const frameHeaderSize = 16 + 8

// frame is one unit of generated work. On the wire it is
//
//	u32 body length | session id (16 bytes) | u64 sequence | payload
//
// with integers in native byte order.
type frame struct {
	session uuid.UUID
	seq     uint64
	payload []byte
}

// encodeFrame appends the body first and prepends the length once it is known.
func encodeFrame(f frame) (*buffer.ByteBuffer, error) {
	b := buffer.NewByteBuffer(frameHeaderSize + len(f.payload))
	b.Append(f.session[:])
	b.AppendUint64(f.seq)
	b.Append(f.payload)

	if err := b.PrependUint32(uint32(b.ReadableBytes())); err != nil {
		return nil, errors.Wrap(err, "frame", "encodeFrame", "prepend length")
	}
	return b, nil
}

// decodeFrame consumes one frame from b.
func decodeFrame(b *buffer.ByteBuffer) (frame, error) {
	var f frame

	n, err := b.ReadUint32()
	if err != nil {
		return f, errors.Wrap(err, "frame", "decodeFrame", "read length")
	}
	if int(n) < frameHeaderSize || int(n) > b.ReadableBytes() {
		return f, errors.WrapInvalid(
			fmt.Errorf("%w: length %d with %d readable", errors.ErrShortBuffer, n, b.ReadableBytes()),
			"frame", "decodeFrame", "validate length")
	}

	copy(f.session[:], b.Next(len(f.session)))
	if f.seq, err = b.ReadUint64(); err != nil {
		return f, errors.Wrap(err, "frame", "decodeFrame", "read sequence")
	}

	f.payload = bytes.Clone(b.Next(int(n) - frameHeaderSize))
	return f, nil
}
