package worker

import "errors"

// Sentinel errors for worker pool operations
var (
	// ErrPoolStopped indicates a task was posted after the pool began stopping
	ErrPoolStopped = errors.New("worker pool stopped")

	// ErrTaskDropped resolves the futures of tasks discarded by Terminate
	ErrTaskDropped = errors.New("task dropped before it ran")

	// ErrTaskPanicked resolves the future of a task that panicked
	ErrTaskPanicked = errors.New("task panicked")

	// ErrNilTask indicates a nil task was posted
	ErrNilTask = errors.New("task cannot be nil")

	// ErrUnknownShutdownMode indicates a shutdown mode name could not be parsed
	ErrUnknownShutdownMode = errors.New("unknown shutdown mode")
)
