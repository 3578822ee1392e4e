package dbassist

import "context"

// StreamState indicates the current state of a Stream.
type StreamState int

const (
	StreamStateNew       StreamState = iota // Before Next() is ever called.
	StreamStateStreaming                    // Mid-stream, receiving events.
	StreamStateComplete                     // The done event arrived; Next() returns io.EOF.
	StreamStateError                        // Next() returned a non-EOF error.
	StreamStateClosed                       // Close() called before a terminal state.
)

// Stream is a pull-based iterator over one submission's grading events.
// Cancellation flows through the context passed to Grader.Stream; simply
// closing the stream also releases the underlying connection, so a caller
// may abandon consumption at any point.
//
// Next() returns the next event in arrival order. It returns io.EOF after
// the done event, ErrInterrupted when the transport closed cleanly without
// a terminal event, and the producer's error for an error event.
//
// Result() returns the done payload once the stream is complete. Before
// the first Next() it returns ErrStreamNotReady; after Close() without a
// terminal event it returns ErrStreamClosed; in an error state it returns
// the terminal error.
type Stream interface {
	Next() (Event, error)
	State() StreamState
	Result() (SubmissionResult, error)
	Close() error
}

// Grader is a strategy interface for the remote grading service.
type Grader interface {
	Stream(ctx context.Context, sub Submission) (Stream, error)
}

// TokenSource yields the ambient bearer credential, if one is available.
// Returning false is not an error; the remote service decides whether an
// unauthenticated request is acceptable.
type TokenSource func() (string, bool)
