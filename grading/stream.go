package grading

import (
	"fmt"
	"io"

	"github.com/databaseassist/dbassist"
)

// stream implements [dbassist.Stream] over one grading response body.
// All mutable state (the buffer, the terminal flag) belongs to the one
// in-flight submission; nothing is shared across submissions and no
// locking is needed.
//
// The buffer holds raw bytes, so a multi-byte UTF-8 sequence split across
// reads simply stays buffered until its block is complete; nothing is ever
// re-decoded.
type stream struct {
	body    io.ReadCloser
	buf     []byte
	chunk   []byte
	state   dbassist.StreamState
	result  dbassist.SubmissionResult
	err     error // terminal error, if any
	eos     bool  // transport signaled clean end-of-stream
	read    bool  // at least one byte was received
	flushed bool  // post-EOS residue already decoded
}

// Interface compliance check.
var _ dbassist.Stream = (*stream)(nil)

func newStream(body io.ReadCloser) *stream {
	return &stream{
		body:  body,
		chunk: make([]byte, 4096),
		state: dbassist.StreamStateNew,
	}
}

// Next returns the next recognized event in arrival order.
// Returns io.EOF after the done event. A producer error event, a transport
// failure, and a clean end-of-stream without a terminal event all surface
// as errors; after any of these the pull loop stops for good.
func (s *stream) Next() (dbassist.Event, error) {
	switch s.state {
	case dbassist.StreamStateComplete:
		return nil, io.EOF
	case dbassist.StreamStateError:
		return nil, s.err
	case dbassist.StreamStateClosed:
		return nil, dbassist.ErrStreamClosed
	}

	for {
		// Drain complete blocks already in the buffer.
		for {
			block, rest, ok := extractBlock(s.buf)
			if !ok {
				break
			}
			s.buf = rest
			if evt, ok := nextEvent(block); ok {
				return s.deliver(evt)
			}
			// Empty, malformed, or unrecognized block: skip.
		}

		if s.eos {
			return s.finish()
		}

		n, err := s.body.Read(s.chunk)
		if n > 0 {
			s.read = true
			s.state = dbassist.StreamStateStreaming
			s.buf = append(s.buf, s.chunk[:n]...)
		}
		if err == io.EOF {
			s.eos = true
			continue
		}
		if err != nil {
			return nil, s.terminate(fmt.Errorf("grading: read stream: %w", err))
		}
	}
}

// finish handles clean end-of-stream: one final decode pass over any
// buffered residue (a well-formed stream may omit the last delimiter),
// then the completion invariant: ending without a done event is a
// failure, never silent success.
func (s *stream) finish() (dbassist.Event, error) {
	if !s.flushed {
		s.flushed = true
		residue := s.buf
		s.buf = nil
		if evt, ok := nextEvent(residue); ok {
			return s.deliver(evt)
		}
	}
	if !s.read {
		return nil, s.terminate(&ProtocolError{Detail: "empty response body"})
	}
	return nil, s.terminate(fmt.Errorf("grading: %w", dbassist.ErrInterrupted))
}

// deliver emits one classified event, recording terminal state. The error
// event is surfaced through Next's error return rather than as an event,
// so semantic events stay free of failure handling.
func (s *stream) deliver(evt dbassist.Event) (dbassist.Event, error) {
	switch e := evt.(type) {
	case dbassist.EventDone:
		s.state = dbassist.StreamStateComplete
		s.result = e.Result
		return e, nil
	case dbassist.EventError:
		return nil, s.terminate(&ProtocolError{Detail: e.Detail})
	default:
		s.state = dbassist.StreamStateStreaming
		return evt, nil
	}
}

// terminate records a terminal error. Subsequent Next calls return it
// without touching the transport again.
func (s *stream) terminate(err error) error {
	s.state = dbassist.StreamStateError
	s.err = err
	return err
}

// State returns the current stream state.
func (s *stream) State() dbassist.StreamState {
	return s.state
}

// Result returns the done payload once the stream completed.
func (s *stream) Result() (dbassist.SubmissionResult, error) {
	switch s.state {
	case dbassist.StreamStateComplete:
		return s.result, nil
	case dbassist.StreamStateError:
		return dbassist.SubmissionResult{}, s.err
	case dbassist.StreamStateClosed:
		return dbassist.SubmissionResult{}, dbassist.ErrStreamClosed
	default:
		return dbassist.SubmissionResult{}, dbassist.ErrStreamNotReady
	}
}

// Close releases the underlying response body. Abandoning consumption
// before a terminal event is permitted; closing is what returns the
// connection to the pool.
func (s *stream) Close() error {
	if s.state != dbassist.StreamStateComplete && s.state != dbassist.StreamStateError {
		s.state = dbassist.StreamStateClosed
	}
	return s.body.Close()
}
