// Package errors provides standardized error handling for the BaseUtils containers.
//
// # Overview
//
// Errors fall into three classes: Transient (a later attempt may succeed), Invalid
// (the caller violated a precondition or passed a bad argument) and Fatal
// (unrecoverable, stop processing).
//
// The containers in pkg/ never panic on caller mistakes. Reading past the readable
// region of a ByteBuffer, popping an empty CircularQueue or posting to a stopped pool
// all return an Invalid error wrapping one of the sentinels below.
//
// # Quick Start
//
//	v, err := q.Pop()
//	if errors.IsInvalid(err) {
//	    // caller bug: check Len() first
//	}
//
// Wrap errors with context:
//
//	return errors.WrapInvalid(errors.ErrInvalidCapacity, "LRU", "NewLRU", "validate capacity")
//
// The wrapped message follows "component.method: action failed: cause" and the chain
// stays inspectable with errors.Is and errors.As.
//
// # Timeouts
//
// Timed waits (DequeueFor, EnqueueFor) report expiry through a bool, not an error.
// Context-aware waits return ctx.Err(), which classifies as Transient.
package errors
