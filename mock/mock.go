// Package mock provides test doubles for dbassist interfaces using
// function fields.
package mock

import (
	"context"

	"github.com/databaseassist/dbassist"
)

// Interface compliance checks.
var (
	_ dbassist.Grader = (*Grader)(nil)
	_ dbassist.Stream = (*Stream)(nil)
)

// Grader is a test double for dbassist.Grader.
// Set StreamFn before calling Stream.
type Grader struct {
	StreamFn func(ctx context.Context, sub dbassist.Submission) (dbassist.Stream, error)
}

// Stream delegates to StreamFn.
func (g *Grader) Stream(ctx context.Context, sub dbassist.Submission) (dbassist.Stream, error) {
	return g.StreamFn(ctx, sub)
}

// Stream is a test double for dbassist.Stream.
// Set the function fields for the methods you need. NextFn and ResultFn
// panic when nil to catch missing setup. CloseFn and StateFn are nil-safe
// (no-op and zero value) because test code commonly calls defer
// stream.Close() and these methods rarely need custom behavior.
type Stream struct {
	NextFn   func() (dbassist.Event, error)
	StateFn  func() dbassist.StreamState
	ResultFn func() (dbassist.SubmissionResult, error)
	CloseFn  func() error
}

// Next delegates to NextFn.
func (s *Stream) Next() (dbassist.Event, error) {
	return s.NextFn()
}

// State delegates to StateFn. Returns StreamStateNew when StateFn is nil.
func (s *Stream) State() dbassist.StreamState {
	if s.StateFn == nil {
		return dbassist.StreamStateNew
	}
	return s.StateFn()
}

// Result delegates to ResultFn.
func (s *Stream) Result() (dbassist.SubmissionResult, error) {
	return s.ResultFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (s *Stream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// Script returns a Stream that yields the given events in order, then the
// given terminal error (io.EOF for clean completion). When the terminal is
// io.EOF, Result returns the payload of the last EventDone seen.
func Script(events []dbassist.Event, terminal error) *Stream {
	i := 0
	var result dbassist.SubmissionResult
	s := &Stream{}
	s.NextFn = func() (dbassist.Event, error) {
		if i >= len(events) {
			return nil, terminal
		}
		evt := events[i]
		i++
		if done, ok := evt.(dbassist.EventDone); ok {
			result = done.Result
		}
		return evt, nil
	}
	s.ResultFn = func() (dbassist.SubmissionResult, error) {
		return result, nil
	}
	return s
}
