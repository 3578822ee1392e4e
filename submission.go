package dbassist

import (
	"fmt"
	"strings"
)

// Mode selects the grading workflow path.
type Mode string

const (
	// ModeQuery asks the grader a free-text question about the problem.
	ModeQuery Mode = "Query"
	// ModeSubmit grades a diagram submission (XML markup or an image).
	ModeSubmit Mode = "Submit"
)

// ImageAttachment is a binary diagram image to grade in place of markup.
type ImageAttachment struct {
	Filename string
	MimeType string
	Data     []byte
}

// Submission is one grading request. QuestionID and Mode are required.
// StudentQuery is used in Query mode; DiagramXML and Image are the two
// Submit-mode inputs, of which exactly one must be set.
type Submission struct {
	QuestionID   int
	Mode         Mode
	StudentQuery string
	DiagramXML   string
	Image        *ImageAttachment
}

// SubmissionResult is the caller-facing reduced result of a successful
// submission, carried by the done event.
type SubmissionResult struct {
	Mode             Mode
	Text             string
	StructuredOutput map[string]any
}

// Validate checks the mode/field pairing rules enforced by the platform.
func (s Submission) Validate() error {
	if s.QuestionID <= 0 {
		return fmt.Errorf("question_id must be positive, got %d: %w", s.QuestionID, ErrValidation)
	}
	switch s.Mode {
	case ModeQuery:
		if strings.TrimSpace(s.StudentQuery) == "" {
			return fmt.Errorf("student_query is required when mode is Query: %w", ErrValidation)
		}
	case ModeSubmit:
		hasXML := strings.TrimSpace(s.DiagramXML) != ""
		if !hasXML && s.Image == nil {
			return fmt.Errorf("provide either diagram markup or an image when mode is Submit: %w", ErrValidation)
		}
		if hasXML && s.Image != nil {
			return fmt.Errorf("provide only one submission input: diagram markup or an image: %w", ErrValidation)
		}
		if s.Image != nil && !strings.HasPrefix(s.Image.MimeType, "image/") {
			return fmt.Errorf("attachment must be an image file, got %q: %w", s.Image.MimeType, ErrValidation)
		}
	default:
		return fmt.Errorf("unknown mode %q: %w", s.Mode, ErrValidation)
	}
	return nil
}
