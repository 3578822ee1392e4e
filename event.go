// Package dbassist defines the domain types for the DatabaseAssist
// educational platform client: the grading submission model, the streaming
// event union, and the pull-based stream interface implemented by the
// grading package.
package dbassist

// Event is a sealed interface representing a grading stream event.
// The set of variants mirrors the wire protocol exactly: start, token,
// structured_output, done, error. Transport and protocol failures are not
// events; they come from Next()'s error return.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventStart signals that the grading workflow accepted the submission and
// began producing output.
type EventStart struct {
	Mode       Mode
	QuestionID int
}

func (EventStart) event() {}

// EventToken carries an incremental piece of feedback text. Chunk is the
// new delta; Text is the cumulative text reconstructed so far, as sent by
// the producer.
type EventToken struct {
	Chunk string
	Text  string
}

func (EventToken) event() {}

// EventStructuredOutput carries the machine-readable grading payload
// (rubric scores and per-criterion feedback). May arrive before the done
// event; nil when the workflow produced none.
type EventStructuredOutput struct {
	StructuredOutput map[string]any
}

func (EventStructuredOutput) event() {}

// EventDone is the successful terminal event carrying the reduced result.
type EventDone struct {
	Result SubmissionResult
}

func (EventDone) event() {}

// EventError is the failure terminal event signaled by the producer.
type EventError struct {
	Detail string
}

func (EventError) event() {}

// Interface compliance checks.
var (
	_ Event = EventStart{}
	_ Event = EventToken{}
	_ Event = EventStructuredOutput{}
	_ Event = EventDone{}
	_ Event = EventError{}
)
