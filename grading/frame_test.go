package grading

import (
	"encoding/json"
	"testing"

	"github.com/databaseassist/dbassist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		buf       string
		wantBlock string
		wantRest  string
		wantOK    bool
	}{
		{"no delimiter", "event: token\ndata: {}", "", "event: token\ndata: {}", false},
		{"empty buffer", "", "", "", false},
		{"lf delimiter", "a\n\nb", "a", "b", true},
		{"crlf delimiter", "a\r\n\r\nb", "a", "b", true},
		{"lf before crlf", "a\n\nb\r\n\r\nc", "a", "b\r\n\r\nc", true},
		{"crlf before lf", "a\r\n\r\nb\n\nc", "a", "b\n\nc", true},
		{"immediate blank line yields empty block", "\n\nrest", "", "rest", true},
		{"partial crlf delimiter is not a boundary", "a\r\n\r", "", "a\r\n\r", false},
		{"delimiter at end leaves empty rest", "a\n\n", "a", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			block, rest, ok := extractBlock([]byte(tt.buf))
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRest, string(rest))
			if tt.wantOK {
				assert.Equal(t, tt.wantBlock, string(block))
			}
		})
	}
}

func TestExtractBlock_CRLFNotSplitAsLF(t *testing.T) {
	t.Parallel()

	// The LF-LF inside a CRLF-CRLF pair starts one byte after the CRLF
	// index, so the CRLF form must win here.
	block, rest, ok := extractBlock([]byte("a\r\n\r\nb"))
	require.True(t, ok)
	assert.Equal(t, "a", string(block))
	assert.Equal(t, "b", string(rest))
}

func TestExtractBlock_IdempotentOnRest(t *testing.T) {
	t.Parallel()

	_, rest, ok := extractBlock([]byte("a\n\npartial line"))
	require.True(t, ok)

	// No new input appended: the rest must not yield another block.
	_, rest2, ok := extractBlock(rest)
	assert.False(t, ok)
	assert.Equal(t, string(rest), string(rest2))
}

func TestDecodeBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		block       string
		wantName    string
		wantPayload string
		wantOK      bool
	}{
		{
			name:        "simple event",
			block:       "event: token\ndata: {\"chunk\":\"a\",\"text\":\"a\"}",
			wantName:    "token",
			wantPayload: `{"chunk":"a","text":"a"}`,
			wantOK:      true,
		},
		{
			name:        "crlf line endings",
			block:       "event: done\r\ndata: {\"text\":\"ok\"}",
			wantName:    "done",
			wantPayload: `{"text":"ok"}`,
			wantOK:      true,
		},
		{
			name:        "comment lines ignored",
			block:       ": keep-alive\nevent: start\ndata: {}",
			wantName:    "start",
			wantPayload: `{}`,
			wantOK:      true,
		},
		{
			name:        "last event line wins",
			block:       "event: start\nevent: token\ndata: {}",
			wantName:    "token",
			wantPayload: `{}`,
			wantOK:      true,
		},
		{
			name:        "multi-line data joined with newline",
			block:       "event: token\ndata: {\"text\":\ndata: \"a\"}",
			wantName:    "token",
			wantPayload: "{\"text\":\n\"a\"}",
			wantOK:      true,
		},
		{
			name:        "only one leading space stripped",
			block:       "event: token\ndata:  \"padded\"",
			wantName:    "token",
			wantPayload: ` "padded"`,
			wantOK:      true,
		},
		{
			name:   "unknown field lines ignored",
			block:  "id: 7\nretry: 100\nevent: token\ndata: {}",
			wantOK: true, wantName: "token", wantPayload: `{}`,
		},
		{name: "no event name", block: "data: {}", wantOK: false},
		{name: "no data", block: "event: token", wantOK: false},
		{name: "invalid json", block: "event: token\ndata: {not json", wantOK: false},
		{name: "empty block", block: "", wantOK: false},
		{name: "comment only", block: ": ping", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			name, payload, ok := decodeBlock([]byte(tt.block))
			require.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assert.Equal(t, tt.wantName, name)
			assert.Equal(t, tt.wantPayload, string(payload))
		})
	}
}

func TestClassifyEvent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		event   string
		payload string
		want    dbassist.Event
		wantOK  bool
	}{
		{
			name:    "start",
			event:   "start",
			payload: `{"mode":"Query","question_id":12}`,
			want:    dbassist.EventStart{Mode: dbassist.ModeQuery, QuestionID: 12},
			wantOK:  true,
		},
		{
			name:    "token",
			event:   "token",
			payload: `{"chunk":" world","text":"hello world"}`,
			want:    dbassist.EventToken{Chunk: " world", Text: "hello world"},
			wantOK:  true,
		},
		{
			name:    "structured output",
			event:   "structured_output",
			payload: `{"structured_output":{"score":8.5}}`,
			want:    dbassist.EventStructuredOutput{StructuredOutput: map[string]any{"score": 8.5}},
			wantOK:  true,
		},
		{
			name:    "structured output null",
			event:   "structured_output",
			payload: `{"structured_output":null}`,
			want:    dbassist.EventStructuredOutput{},
			wantOK:  true,
		},
		{
			name:    "done",
			event:   "done",
			payload: `{"mode":"Submit","text":"Good work.","structured_output":{"score":9.0}}`,
			want: dbassist.EventDone{Result: dbassist.SubmissionResult{
				Mode:             dbassist.ModeSubmit,
				Text:             "Good work.",
				StructuredOutput: map[string]any{"score": 9.0},
			}},
			wantOK: true,
		},
		{
			name:    "error",
			event:   "error",
			payload: `{"detail":"workflow failed"}`,
			want:    dbassist.EventError{Detail: "workflow failed"},
			wantOK:  true,
		},
		{name: "unknown name dropped", event: "ping", payload: `{}`, wantOK: false},
		{name: "shape mismatch dropped", event: "token", payload: `["not","an","object"]`, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := classifyEvent(tt.event, json.RawMessage(tt.payload))
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNextEvent_RoundTrip(t *testing.T) {
	t.Parallel()

	block, rest, ok := extractBlock([]byte("event: token\ndata: {\"chunk\":\"a\",\"text\":\"a\"}\n\n"))
	require.True(t, ok)
	assert.Empty(t, rest)

	evt, ok := nextEvent(block)
	require.True(t, ok)
	assert.Equal(t, dbassist.EventToken{Chunk: "a", Text: "a"}, evt)
}

func TestParseErrorDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"string detail", `{"detail":"Question not found"}`, "Question not found"},
		{"validation list", `{"detail":[{"msg":"field required"}]}`, "field required"},
		{"multiple messages joined", `{"detail":[{"msg":"a"},{"msg":"b"}]}`, "a; b"},
		{"raw text fallback", "Bad Gateway", "Bad Gateway"},
		{"empty detail falls back to raw", `{"other":1}`, `{"other":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, parseErrorDetail([]byte(tt.body)))
		})
	}
}
