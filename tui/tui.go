// Package tui provides a Bubble Tea terminal view for a grading stream.
// It shows a spinner while waiting for the producer, appends token text as
// it arrives, and renders the final feedback as styled markdown.
package tui

import (
	"context"
	"errors"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/databaseassist/dbassist"
)

// Run creates and runs the Bubble Tea program for the model. It blocks
// until the program exits. When the context is cancelled the program quits.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}

// StreamEventMsg wraps a grading event for delivery to the model.
type StreamEventMsg struct {
	Event dbassist.Event
}

// StreamDoneMsg signals that the grading stream has finished. Err is nil
// on clean completion; Result is valid only when Err is nil.
type StreamDoneMsg struct {
	Result dbassist.SubmissionResult
	Err    error
}

type streamOutcome struct {
	result dbassist.SubmissionResult
	err    error
}

// startStream opens the grading stream and pumps events into eventCh until
// the stream terminates, then closes eventCh and reports the outcome on
// doneCh. Runs as a single tea.Cmd goroutine.
func startStream(ctx context.Context, grader dbassist.Grader, sub dbassist.Submission, eventCh chan<- dbassist.Event, doneCh chan<- streamOutcome) tea.Cmd {
	return func() tea.Msg {
		finish := func(out streamOutcome) tea.Msg {
			close(eventCh)
			doneCh <- out
			return nil
		}

		s, err := grader.Stream(ctx, sub)
		if err != nil {
			return finish(streamOutcome{err: err})
		}
		defer s.Close()

		for {
			evt, err := s.Next()
			if errors.Is(err, io.EOF) {
				result, rerr := s.Result()
				return finish(streamOutcome{result: result, err: rerr})
			}
			if err != nil {
				return finish(streamOutcome{err: err})
			}
			select {
			case eventCh <- evt:
			case <-ctx.Done():
				return finish(streamOutcome{err: ctx.Err()})
			}
		}
	}
}

// listenForEvent waits for the next event from the channel. When the
// channel closes it reads the outcome from doneCh and returns StreamDoneMsg.
func listenForEvent(eventCh <-chan dbassist.Event, doneCh <-chan streamOutcome) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-eventCh
		if !ok {
			out := <-doneCh
			return StreamDoneMsg{Result: out.result, Err: out.err}
		}
		return StreamEventMsg{Event: evt}
	}
}
