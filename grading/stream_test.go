package grading_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/databaseassist/dbassist"
	"github.com/databaseassist/dbassist/grading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveRaw returns a handler that writes the wire bytes in segments of the
// given size, flushing after each write so chunk boundaries land in
// arbitrary places (mid-line, mid-delimiter, mid-JSON-escape).
func serveRaw(wire []byte, segment int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		if segment <= 0 {
			segment = len(wire)
		}
		for i := 0; i < len(wire); i += segment {
			end := i + segment
			if end > len(wire) {
				end = len(wire)
			}
			_, _ = w.Write(wire[i:end])
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

func querySubmission() dbassist.Submission {
	return dbassist.Submission{
		QuestionID:   7,
		Mode:         dbassist.ModeQuery,
		StudentQuery: "Why is my cardinality wrong?",
	}
}

func streamFromWire(t *testing.T, wire []byte, segment int) dbassist.Stream {
	t.Helper()
	srv := httptest.NewServer(serveRaw(wire, segment))
	t.Cleanup(srv.Close)
	client := grading.New(grading.WithBaseURL(srv.URL))
	s, err := client.Stream(context.Background(), querySubmission())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// collectEvents drains the stream until io.EOF or an error. The error (nil
// on clean completion) is returned alongside the events.
func collectEvents(s dbassist.Stream) ([]dbassist.Event, error) {
	var events []dbassist.Event
	for {
		evt, err := s.Next()
		if err == io.EOF {
			return events, nil
		}
		if err != nil {
			return events, err
		}
		events = append(events, evt)
	}
}

var fullWire = []byte("event: start\n" +
	"data: {\"mode\":\"Query\",\"question_id\":7}\n" +
	"\n" +
	": keep-alive\n" +
	"\n" +
	"event: token\r\n" +
	"data: {\"chunk\":\"Your\",\"text\":\"Your\"}\r\n" +
	"\r\n" +
	"event: token\n" +
	"data: {\"chunk\":\" relation\\u00e9\",\"text\":\"Your relation\\u00e9\"}\n" +
	"\n" +
	"event: structured_output\n" +
	"data: {\"structured_output\":{\"score\":8.5}}\n" +
	"\n" +
	"event: done\n" +
	"data: {\"mode\":\"Query\",\"text\":\"Your relation\\u00e9\",\n" +
	"data: \"structured_output\":{\"score\":8.5}}\n" +
	"\n")

var fullWireEvents = []dbassist.Event{
	dbassist.EventStart{Mode: dbassist.ModeQuery, QuestionID: 7},
	dbassist.EventToken{Chunk: "Your", Text: "Your"},
	dbassist.EventToken{Chunk: " relationé", Text: "Your relationé"},
	dbassist.EventStructuredOutput{StructuredOutput: map[string]any{"score": 8.5}},
	dbassist.EventDone{Result: dbassist.SubmissionResult{
		Mode:             dbassist.ModeQuery,
		Text:             "Your relationé",
		StructuredOutput: map[string]any{"score": 8.5},
	}},
}

func TestStream_FullSequence(t *testing.T) {
	t.Parallel()
	s := streamFromWire(t, fullWire, 0)

	events, err := collectEvents(s)
	require.NoError(t, err)
	assert.Equal(t, fullWireEvents, events)
	assert.Equal(t, dbassist.StreamStateComplete, s.State())

	result, err := s.Result()
	require.NoError(t, err)
	assert.Equal(t, "Your relationé", result.Text)

	// Past the terminal event the stream stays at EOF.
	_, err = s.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStream_ChunkingInvariance(t *testing.T) {
	t.Parallel()

	// The same wire bytes must classify to the same ordered events no
	// matter how they are split, including mid-line, mid-delimiter, and
	// mid-multi-byte-rune.
	for _, segment := range []int{1, 2, 3, 5, 17, len(fullWire)} {
		s := streamFromWire(t, fullWire, segment)
		events, err := collectEvents(s)
		require.NoError(t, err, "segment size %d", segment)
		assert.Equal(t, fullWireEvents, events, "segment size %d", segment)
	}
}

func TestStream_MalformedBlockSkipped(t *testing.T) {
	t.Parallel()

	wire := []byte("event: token\ndata: {\"chunk\":\"a\",\"text\":\"a\"}\n\n" +
		"event: token\ndata: {not json\n\n" +
		"event: wibble\ndata: {}\n\n" +
		"event: token\ndata: {\"chunk\":\"b\",\"text\":\"ab\"}\n\n" +
		"event: done\ndata: {\"mode\":\"Query\",\"text\":\"ab\",\"structured_output\":null}\n\n")

	s := streamFromWire(t, wire, 4)
	events, err := collectEvents(s)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, dbassist.EventToken{Chunk: "a", Text: "a"}, events[0])
	assert.Equal(t, dbassist.EventToken{Chunk: "b", Text: "ab"}, events[1])
}

func TestStream_MissingFinalDelimiter(t *testing.T) {
	t.Parallel()

	// The very last frame may omit its trailing blank line; end-of-stream
	// triggers one final decode pass on the residue.
	wire := []byte("event: token\ndata: {\"chunk\":\"a\",\"text\":\"a\"}\n\n" +
		"event: done\ndata: {\"mode\":\"Query\",\"text\":\"a\",\"structured_output\":null}")

	s := streamFromWire(t, wire, 0)
	events, err := collectEvents(s)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.IsType(t, dbassist.EventDone{}, events[1])
}

func TestStream_PrematureEnd(t *testing.T) {
	t.Parallel()

	wire := []byte("event: start\ndata: {\"mode\":\"Query\",\"question_id\":7}\n\n" +
		"event: token\ndata: {\"chunk\":\"a\",\"text\":\"a\"}\n\n" +
		"event: token\ndata: {\"chunk\":\"b\",\"text\":\"ab\"}\n\n")

	s := streamFromWire(t, wire, 0)
	events, err := collectEvents(s)

	// Events received before the cut are still delivered in order.
	require.Len(t, events, 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, dbassist.ErrInterrupted)
	assert.Equal(t, dbassist.StreamStateError, s.State())

	// The terminal error is sticky.
	_, err2 := s.Next()
	assert.Equal(t, err, err2)
}

func TestStream_ProducerError(t *testing.T) {
	t.Parallel()

	wire := []byte("event: start\ndata: {\"mode\":\"Submit\",\"question_id\":3}\n\n" +
		"event: error\ndata: {\"detail\":\"workflow failed with status 'failed'\"}\n\n" +
		"event: token\ndata: {\"chunk\":\"never\",\"text\":\"never\"}\n\n")

	s := streamFromWire(t, wire, 0)
	events, err := collectEvents(s)

	require.Len(t, events, 1)
	assert.IsType(t, dbassist.EventStart{}, events[0])

	var perr *grading.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "workflow failed with status 'failed'", perr.Detail)

	// The pull loop stopped: nothing past the error event is surfaced.
	_, err2 := s.Next()
	assert.Equal(t, err, err2)
}

func TestStream_EmptyBody(t *testing.T) {
	t.Parallel()

	s := streamFromWire(t, nil, 0)
	_, err := s.Next()
	var perr *grading.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Detail, "empty response body")
}

func TestStream_CloseBeforeTerminal(t *testing.T) {
	t.Parallel()

	s := streamFromWire(t, fullWire, 0)
	require.NoError(t, s.Close())
	assert.Equal(t, dbassist.StreamStateClosed, s.State())

	_, err := s.Next()
	assert.ErrorIs(t, err, dbassist.ErrStreamClosed)

	_, err = s.Result()
	assert.ErrorIs(t, err, dbassist.ErrStreamClosed)
}

func TestStream_ResultBeforeNext(t *testing.T) {
	t.Parallel()

	s := streamFromWire(t, fullWire, 0)
	_, err := s.Result()
	assert.ErrorIs(t, err, dbassist.ErrStreamNotReady)
}

func TestStream_WrongContentType(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("not a stream"))
	}))
	t.Cleanup(srv.Close)

	client := grading.New(grading.WithBaseURL(srv.URL))
	_, err := client.Stream(context.Background(), querySubmission())

	var perr *grading.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "not a stream", perr.Detail)
}

func TestStream_HTTPStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"msg":"field required"}]}`))
	}))
	t.Cleanup(srv.Close)

	client := grading.New(grading.WithBaseURL(srv.URL))
	_, err := client.Stream(context.Background(), querySubmission())

	var apiErr *grading.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, "field required", apiErr.Detail)
}

func TestStream_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	srv := httptest.NewServer(serveRaw(fullWire, 0))
	t.Cleanup(srv.Close)

	client := grading.New(grading.WithBaseURL(srv.URL))
	_, err := client.Stream(ctx, querySubmission())
	assert.ErrorIs(t, err, context.Canceled)
}
