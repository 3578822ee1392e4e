// Package grading implements [dbassist.Grader] against the platform's
// streaming grading service.
//
// The service answers a multipart submission post with a long-lived
// text/event-stream response: blank-line-delimited blocks, each carrying an
// event name and a JSON payload. The client reconstructs typed events from
// raw chunks one pull at a time; block boundaries may fall anywhere inside
// a chunk, so extraction works on an accumulating buffer rather than on
// whole reads.
package grading

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	defaultBaseURL = "http://localhost:8000/api/v1"
	submissionPath = "/er-diagram/submission"

	streamContentType = "text/event-stream"
)

// Wire payloads, one per recognized event name.

type wireStart struct {
	Mode       string `json:"mode"`
	QuestionID int    `json:"question_id"`
}

type wireToken struct {
	Chunk string `json:"chunk"`
	Text  string `json:"text"`
}

type wireStructuredOutput struct {
	StructuredOutput map[string]any `json:"structured_output"`
}

type wireDone struct {
	Mode             string         `json:"mode"`
	Text             string         `json:"text"`
	StructuredOutput map[string]any `json:"structured_output"`
}

type wireError struct {
	Detail string `json:"detail"`
}

// APIError is a non-success HTTP response from the platform.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("grading: HTTP %d: %s", e.StatusCode, e.Detail)
}

// ProtocolError indicates the response violated the streaming protocol:
// wrong content type, an empty body, or a workflow-signaled error event.
type ProtocolError struct {
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("grading: %s", e.Detail)
}

// apiErrorBody is the JSON error envelope the platform returns. The detail
// field is either a plain string or a list of {msg} objects (validation
// errors).
type apiErrorBody struct {
	Detail json.RawMessage `json:"detail"`
}

type apiErrorItem struct {
	Msg string `json:"msg"`
}

// parseErrorDetail extracts a human-readable message from an error body,
// falling back to the raw text when the body is not the JSON envelope.
func parseErrorDetail(body []byte) string {
	var envelope apiErrorBody
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Detail) > 0 {
		var s string
		if err := json.Unmarshal(envelope.Detail, &s); err == nil {
			return s
		}
		var items []apiErrorItem
		if err := json.Unmarshal(envelope.Detail, &items); err == nil && len(items) > 0 {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	return strings.TrimSpace(string(body))
}
