package grading

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/databaseassist/dbassist"
)

// The three pure pipeline stages. Each returns ok=false for input that
// yields nothing: empty blocks, comment-only blocks, unparsable JSON,
// unknown event names. Dropping is not an error; a malformed frame must
// never abort a stream that later produces a valid terminal event.

var (
	delimLF   = []byte("\n\n")
	delimCRLF = []byte("\r\n\r\n")
)

// extractBlock splits buf at the first blank-line delimiter, in either
// line-ending convention, and returns the block before it and the rest
// after it. A bare LF-LF at an index at or before a CRLF-CRLF occurrence
// wins; the LF-LF embedded inside a CRLF-CRLF pair starts one byte later,
// so the first-position comparison resolves the overlap correctly. With no
// delimiter present the buffer is returned untouched and ok is false.
func extractBlock(buf []byte) (block, rest []byte, ok bool) {
	lf := bytes.Index(buf, delimLF)
	crlf := bytes.Index(buf, delimCRLF)
	switch {
	case lf < 0 && crlf < 0:
		return nil, buf, false
	case crlf < 0 || (lf >= 0 && lf <= crlf):
		return buf[:lf], buf[lf+len(delimLF):], true
	default:
		return buf[:crlf], buf[crlf+len(delimCRLF):], true
	}
}

// decodeBlock parses one block's lines into an event name and a JSON
// payload. Lines starting with ':' are comments; the last "event:" line
// wins; "data:" fragments are collected in order (one leading space after
// the colon stripped, per the wire convention) and joined with newlines.
// Unknown field lines are ignored for forward compatibility.
func decodeBlock(block []byte) (name string, payload json.RawMessage, ok bool) {
	var data []string
	for _, line := range strings.Split(string(block), "\n") {
		line = strings.TrimSuffix(line, "\r")
		switch {
		case strings.HasPrefix(line, ":"):
			// Comment line.
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			d := strings.TrimPrefix(line, "data:")
			d = strings.TrimPrefix(d, " ")
			data = append(data, d)
		}
	}
	if name == "" || len(data) == 0 {
		return "", nil, false
	}
	raw := json.RawMessage(strings.Join(data, "\n"))
	if !json.Valid(raw) {
		return "", nil, false
	}
	return name, raw, true
}

// classifyEvent maps a decoded (name, payload) pair onto the closed event
// set. Unknown names and payloads that do not unmarshal into the variant's
// wire shape are dropped.
func classifyEvent(name string, payload json.RawMessage) (dbassist.Event, bool) {
	switch name {
	case "start":
		var w wireStart
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, false
		}
		return dbassist.EventStart{Mode: dbassist.Mode(w.Mode), QuestionID: w.QuestionID}, true
	case "token":
		var w wireToken
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, false
		}
		return dbassist.EventToken{Chunk: w.Chunk, Text: w.Text}, true
	case "structured_output":
		var w wireStructuredOutput
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, false
		}
		return dbassist.EventStructuredOutput{StructuredOutput: w.StructuredOutput}, true
	case "done":
		var w wireDone
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, false
		}
		return dbassist.EventDone{Result: dbassist.SubmissionResult{
			Mode:             dbassist.Mode(w.Mode),
			Text:             w.Text,
			StructuredOutput: w.StructuredOutput,
		}}, true
	case "error":
		var w wireError
		if err := json.Unmarshal(payload, &w); err != nil {
			return nil, false
		}
		return dbassist.EventError{Detail: w.Detail}, true
	default:
		return nil, false
	}
}

// nextEvent runs one block through the decode and classify stages.
func nextEvent(block []byte) (dbassist.Event, bool) {
	if len(bytes.TrimSpace(block)) == 0 {
		return nil, false
	}
	name, payload, ok := decodeBlock(block)
	if !ok {
		return nil, false
	}
	return classifyEvent(name, payload)
}
