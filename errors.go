package dbassist

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrValidation indicates a submission failed validation.
	ErrValidation = errors.New("validation error")

	// ErrInterrupted indicates the stream ended before a terminal event.
	ErrInterrupted = errors.New("stream ended before completion")

	// ErrStreamNotReady indicates Result() was called before Next().
	ErrStreamNotReady = errors.New("stream not ready: call Next() first")

	// ErrStreamClosed indicates an operation on a closed stream.
	ErrStreamClosed = errors.New("stream closed")
)
