// Package errors provides the error classification shared by the BaseUtils containers.
// Every error that leaves a public API is either a sentinel from this package or a
// ClassifiedError wrapping one, so callers can branch on the class instead of matching
// strings.
package errors

import (
	"context"
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrorClass represents the classification of errors for handling purposes
type ErrorClass int

const (
	// ErrorTransient represents temporary conditions that may succeed on a later attempt
	ErrorTransient ErrorClass = iota
	// ErrorInvalid represents precondition and argument violations by the caller
	ErrorInvalid
	// ErrorFatal represents unrecoverable errors that should stop processing
	ErrorFatal
)

// String returns the string representation of ErrorClass
func (ec ErrorClass) String() string {
	switch ec {
	case ErrorTransient:
		return "transient"
	case ErrorInvalid:
		return "invalid"
	case ErrorFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Standard error variables for common conditions
var (
	// Lifecycle errors
	ErrAlreadyStarted = errors.New("component already started")
	ErrNotStarted     = errors.New("component not started")
	ErrAlreadyStopped = errors.New("component already stopped")
	ErrShuttingDown   = errors.New("component is shutting down")

	// Argument and precondition errors
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidCapacity = errors.New("capacity must be positive")
	ErrIndexOutOfRange = errors.New("index out of range")
	ErrEmpty           = errors.New("container is empty")
	ErrShortBuffer     = errors.New("not enough readable bytes")
	ErrNoPrependSpace  = errors.New("not enough prependable bytes")
	ErrNoSpace         = errors.New("not enough writable space")

	// Configuration errors
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrConfigNotFound = errors.New("configuration not found")

	// Resource errors
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrTimeout           = errors.New("operation timed out")
)

// sentinelClasses classifies bare sentinels that reach Classify without a
// ClassifiedError around them. Order matters only for errors joining several.
var sentinelClasses = []struct {
	err   error
	class ErrorClass
}{
	{ErrInvalidArgument, ErrorInvalid},
	{ErrInvalidCapacity, ErrorInvalid},
	{ErrIndexOutOfRange, ErrorInvalid},
	{ErrEmpty, ErrorInvalid},
	{ErrShortBuffer, ErrorInvalid},
	{ErrNoPrependSpace, ErrorInvalid},
	{ErrNoSpace, ErrorInvalid},
	{ErrInvalidConfig, ErrorFatal},
	{ErrMissingConfig, ErrorFatal},
	{ErrResourceExhausted, ErrorFatal},
	{ErrTimeout, ErrorTransient},
	{context.DeadlineExceeded, ErrorTransient},
	{context.Canceled, ErrorTransient},
}

// ClassifiedError wraps an error with its classification
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Component string
	Operation string
}

// Error implements the error interface
func (ce *ClassifiedError) Error() string {
	return ce.Err.Error()
}

// Unwrap returns the underlying error
func (ce *ClassifiedError) Unwrap() error {
	return ce.Err
}

// classify reports the class of err and whether anything in its chain decided it.
func classify(err error) (ErrorClass, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class, true
	}
	// a non-blocking miss is a retry signal, not a failure
	if errors.Is(err, iox.ErrWouldBlock) || iox.IsWouldBlock(err) {
		return ErrorTransient, true
	}
	for _, sc := range sentinelClasses {
		if errors.Is(err, sc.err) {
			return sc.class, true
		}
	}
	return ErrorTransient, false
}

// Classify returns the error class for an error. The outermost ClassifiedError
// wins; bare sentinels use their registered class and anything unknown is
// transient so callers may try again.
func Classify(err error) ErrorClass {
	class, _ := classify(err)
	return class
}

// IsTransient checks if an error is transient and may be retried
func IsTransient(err error) bool {
	return err != nil && Classify(err) == ErrorTransient
}

// IsFatal checks if an error is fatal and should stop processing
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	class, known := classify(err)
	return known && class == ErrorFatal
}

// IsInvalid checks if an error is due to invalid input or a violated precondition
func IsInvalid(err error) bool {
	if err == nil {
		return false
	}
	class, known := classify(err)
	return known && class == ErrorInvalid
}

// Wrap adds context following the pattern "component.method: action failed: cause"
// without changing the class of err.
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapClass(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return &ClassifiedError{
		Class:     class,
		Err:       Wrap(err, component, method, action),
		Component: component,
		Operation: method,
	}
}

// WrapTransient wraps an error as transient with context
func WrapTransient(err error, component, method, action string) error {
	return wrapClass(ErrorTransient, err, component, method, action)
}

// WrapFatal wraps an error as fatal with context
func WrapFatal(err error, component, method, action string) error {
	return wrapClass(ErrorFatal, err, component, method, action)
}

// WrapInvalid wraps an error as invalid with context
func WrapInvalid(err error, component, method, action string) error {
	return wrapClass(ErrorInvalid, err, component, method, action)
}
