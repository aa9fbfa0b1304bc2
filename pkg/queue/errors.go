package queue

import (
	stderrors "errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock is returned by TryEnqueue on a full queue and TryDequeue on an empty
// one. It is a control-flow signal, not a failure.
//
// This is an alias for [iox.ErrWouldBlock].
var ErrWouldBlock = iox.ErrWouldBlock

// ErrClosed is returned by operations on a closed queue. Dequeue keeps returning
// buffered items after Close and reports ErrClosed once the queue is drained.
var ErrClosed = stderrors.New("queue closed")

// IsWouldBlock reports whether err, or anything it wraps, indicates the operation
// would block.
func IsWouldBlock(err error) bool {
	return stderrors.Is(err, ErrWouldBlock) || iox.IsWouldBlock(err)
}
