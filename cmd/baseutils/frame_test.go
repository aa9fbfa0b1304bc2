package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kpengk/BaseUtils/errors"
	"github.com/kpengk/BaseUtils/pkg/buffer"
)

func TestFrame_RoundTrip(t *testing.T) {
	in := frame{session: uuid.New(), seq: 42, payload: []byte("hello")}

	b, err := encodeFrame(in)
	require.NoError(t, err)
	assert.Equal(t, 4+frameHeaderSize+5, b.ReadableBytes())

	out, err := decodeFrame(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Zero(t, b.ReadableBytes())
}

func TestFrame_EmptyPayload(t *testing.T) {
	in := frame{session: uuid.New(), seq: 7}

	b, err := encodeFrame(in)
	require.NoError(t, err)

	out, err := decodeFrame(b)
	require.NoError(t, err)
	assert.Equal(t, in.session, out.session)
	assert.Equal(t, in.seq, out.seq)
	assert.Empty(t, out.payload)
}

func TestFrame_PayloadIsCopied(t *testing.T) {
	b, err := encodeFrame(frame{session: uuid.New(), payload: []byte("abc")})
	require.NoError(t, err)

	out, err := decodeFrame(b)
	require.NoError(t, err)

	b.Append([]byte("zzzzzzzzzzzz"))
	assert.Equal(t, []byte("abc"), out.payload)
}

func TestFrame_Consecutive(t *testing.T) {
	b := buffer.NewByteBuffer(0)
	for i := range 3 {
		f, err := encodeFrame(frame{session: uuid.New(), seq: uint64(i), payload: []byte{byte(i)}})
		require.NoError(t, err)
		b.Append(f.Peek())
	}

	for i := range 3 {
		f, err := decodeFrame(b)
		require.NoError(t, err)
		assert.Equal(t, uint64(i), f.seq)
		assert.Equal(t, []byte{byte(i)}, f.payload)
	}
	assert.Zero(t, b.ReadableBytes())
}

func TestFrame_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		build func() *buffer.ByteBuffer
	}{
		{
			name:  "empty",
			build: func() *buffer.ByteBuffer { return buffer.NewByteBuffer(0) },
		},
		{
			name: "length below header",
			build: func() *buffer.ByteBuffer {
				b := buffer.NewByteBuffer(0)
				b.AppendUint32(frameHeaderSize - 1)
				b.Append(make([]byte, frameHeaderSize))
				return b
			},
		},
		{
			name: "sequence cut off",
			build: func() *buffer.ByteBuffer {
				b := buffer.NewByteBuffer(0)
				b.AppendUint32(frameHeaderSize)
				b.Append(make([]byte, 16))
				b.AppendUint32(7)
				return b
			},
		},
		{
			name: "truncated body",
			build: func() *buffer.ByteBuffer {
				b := buffer.NewByteBuffer(0)
				b.AppendUint32(frameHeaderSize + 10)
				b.Append(make([]byte, frameHeaderSize))
				return b
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeFrame(tt.build())
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrShortBuffer)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}
