package grading

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/databaseassist/dbassist"
)

// Interface compliance check.
var _ dbassist.Grader = (*Client)(nil)

// Client implements [dbassist.Grader] for the platform's streaming grading
// endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     dbassist.TokenSource
}

// Option configures a [Client].
type Option func(*Client)

// WithBaseURL sets the API base URL. Useful for testing with httptest.
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTokenSource sets the ambient bearer credential source. A source
// returning false leaves the request unauthenticated; the platform decides
// whether to reject it.
func WithTokenSource(ts dbassist.TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New creates a grading [Client] with the given options.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Stream posts the submission and returns a [dbassist.Stream] over the
// grading events. The caller owns the stream and must close it; closing
// before the terminal event releases the connection without draining.
func (c *Client) Stream(ctx context.Context, sub dbassist.Submission) (dbassist.Stream, error) {
	if err := sub.Validate(); err != nil {
		return nil, fmt.Errorf("grading: %w", err)
	}

	body, contentType, err := buildForm(sub)
	if err != nil {
		return nil, fmt.Errorf("grading: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+submissionPath, body)
	if err != nil {
		return nil, fmt.Errorf("grading: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", streamContentType)
	if c.tokens != nil {
		if token, ok := c.tokens(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("grading: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, parseHTTPError(resp)
	}

	if mt, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err != nil || mt != streamContentType {
		defer resp.Body.Close()
		return nil, protocolShapeError(resp)
	}

	return newStream(resp.Body), nil
}

// Submit is the reduced mode: it drives the stream to completion and
// returns only the done payload, never exposing partial token text.
func (c *Client) Submit(ctx context.Context, sub dbassist.Submission) (dbassist.SubmissionResult, error) {
	s, err := c.Stream(ctx, sub)
	if err != nil {
		return dbassist.SubmissionResult{}, err
	}
	defer s.Close()
	return dbassist.Reduce(s)
}

// buildForm constructs the multipart form body the endpoint expects.
func buildForm(sub dbassist.Submission) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if err := w.WriteField("question_id", strconv.Itoa(sub.QuestionID)); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("mode", string(sub.Mode)); err != nil {
		return nil, "", err
	}
	if q := strings.TrimSpace(sub.StudentQuery); q != "" {
		if err := w.WriteField("student_query", q); err != nil {
			return nil, "", err
		}
	}
	if x := strings.TrimSpace(sub.DiagramXML); x != "" {
		if err := w.WriteField("submission_xml_text", x); err != nil {
			return nil, "", err
		}
	}
	if img := sub.Image; img != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="erd_img"; filename=%q`, img.Filename))
		header.Set("Content-Type", img.MimeType)
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func parseHTTPError(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{
			StatusCode: resp.StatusCode,
			Detail:     fmt.Sprintf("failed to read error body: %v", err),
		}
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: parseErrorDetail(body)}
}

func protocolShapeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	detail := strings.TrimSpace(string(body))
	if detail == "" {
		detail = fmt.Sprintf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	return &ProtocolError{Detail: detail}
}
