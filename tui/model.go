package tui

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/databaseassist/dbassist"
	"github.com/databaseassist/dbassist/markdown"
)

var _ tea.Model = Model{}

type phase int

const (
	phaseWaiting phase = iota
	phaseStreaming
	phaseDone
	phaseFailed
)

// Model is the Bubble Tea model for a single grading run. It is created
// with a pending submission and starts streaming on Init.
type Model struct {
	// Viewport is the scrollable output area. Exported for test access.
	Viewport viewport.Model

	grader     dbassist.Grader
	submission dbassist.Submission
	theme      dbassist.Theme
	styles     Styles
	spin       spinner.Model

	phase  phase
	text   string
	result dbassist.SubmissionResult
	err    error

	ctx     context.Context
	cancel  context.CancelFunc
	eventCh chan dbassist.Event
	doneCh  chan streamOutcome
	ready   bool
}

// New creates a TUI model that will grade the given submission.
func New(grader dbassist.Grader, sub dbassist.Submission, theme dbassist.Theme) Model {
	styles := NewStyles(theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Accent

	return Model{
		grader:     grader,
		submission: sub,
		theme:      theme,
		styles:     styles,
		spin:       sp,
	}
}

// Running reports whether the stream is still in flight.
func (m Model) Running() bool { return m.phase == phaseWaiting || m.phase == phaseStreaming }

// Err returns the terminal error, if any.
func (m Model) Err() error { return m.err }

// Result returns the final grading result. The second value is false until
// the stream has completed successfully.
func (m Model) Result() (dbassist.SubmissionResult, bool) {
	return m.result, m.phase == phaseDone
}

// Init implements tea.Model. It opens the grading stream when the model
// was built with NewProgram; channel-less models (tests driving Update
// directly) only start the spinner.
func (m Model) Init() tea.Cmd {
	if m.eventCh == nil {
		return m.spin.Tick
	}
	return tea.Batch(
		m.spin.Tick,
		startStream(m.ctx, m.grader, m.submission, m.eventCh, m.doneCh),
		listenForEvent(m.eventCh, m.doneCh),
	)
}

// NewProgram wires the model's channels and cancellation before the
// program starts. Kept separate from New so tests can drive Update
// directly with injected messages instead of live channels.
func NewProgram(grader dbassist.Grader, sub dbassist.Submission, theme dbassist.Theme) Model {
	m := New(grader, sub, theme)
	m.ctx, m.cancel = context.WithCancel(context.Background())
	m.eventCh = make(chan dbassist.Event, 64)
	m.doneCh = make(chan streamOutcome, 1)
	return m
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m = m.handleWindowSize(msg)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		if !m.Running() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case StreamEventMsg:
		m = m.processEvent(msg.Event)
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		if m.eventCh != nil {
			return m, listenForEvent(m.eventCh, m.doneCh)
		}
		return m, nil

	case StreamDoneMsg:
		m.cancel = nil
		m.eventCh = nil
		m.doneCh = nil
		if msg.Err != nil {
			m.phase = phaseFailed
			if !errors.Is(msg.Err, context.Canceled) {
				m.err = msg.Err
			}
		} else {
			m.phase = phaseDone
			m.result = msg.Result
		}
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	statusHeight := 1
	borderHeight := 1 // newline between viewport and status line
	vpHeight := msg.Height - statusHeight - borderHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.Running() {
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
		return m, tea.Quit

	case tea.KeyEnter, tea.KeyEsc:
		if !m.Running() {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyRunes:
		if !m.Running() && string(msg.Runes) == "q" {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	return m, cmd
}

func (m Model) processEvent(evt dbassist.Event) Model {
	switch e := evt.(type) {
	case dbassist.EventStart:
		m.phase = phaseStreaming
	case dbassist.EventToken:
		m.phase = phaseStreaming
		m.text += e.Chunk
	case dbassist.EventStructuredOutput:
		m.result.StructuredOutput = e.StructuredOutput
	case dbassist.EventDone:
		// Terminal result arrives again via StreamDoneMsg; keep the
		// payload so the view can switch immediately.
		m.result = e.Result
	case dbassist.EventError:
		m.err = fmt.Errorf("producer error: %s", e.Detail)
	}
	return m
}

func (m Model) renderContent() string {
	width := m.Viewport.Width
	if width <= 0 {
		width = 80
	}

	switch m.phase {
	case phaseDone:
		var b strings.Builder
		b.WriteString(markdown.Render(m.result.Text, width, m.theme))
		if section := m.renderStructured(); section != "" {
			b.WriteString("\n\n")
			b.WriteString(section)
		}
		return b.String()

	case phaseFailed:
		if m.err != nil {
			return m.styles.Error.Render(fmt.Sprintf("Error: %v", m.err))
		}
		return m.styles.Muted.Render("Cancelled.")

	default:
		// In-flight text is shown unstyled; markdown rendering of a
		// partial document would flicker as fences open and close.
		return markdown.Wrap(m.text, width)
	}
}

// renderStructured formats the machine-readable grading payload as aligned
// key/value lines, score-like keys highlighted.
func (m Model) renderStructured() string {
	if len(m.result.StructuredOutput) == 0 {
		return ""
	}

	keys := make([]string, 0, len(m.result.StructuredOutput))
	for k := range m.result.StructuredOutput {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(m.styles.Accent.Render("Result"))
	for _, k := range keys {
		value := fmt.Sprintf("%v", m.result.StructuredOutput[k])
		if strings.Contains(k, "score") || strings.Contains(k, "grade") {
			value = m.styles.Score.Render(value)
		}
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render(k+":") + " " + value)
	}
	return b.String()
}

func (m Model) statusLine() string {
	switch m.phase {
	case phaseWaiting:
		return m.spin.View() + m.styles.Muted.Render("Submitting...")
	case phaseStreaming:
		return m.spin.View() + m.styles.Muted.Render("Grading...")
	case phaseFailed:
		return m.styles.Error.Render("Failed.") + m.styles.Muted.Render(" Press q to quit.")
	default:
		return m.styles.Success.Render("Done.") + m.styles.Muted.Render(" Press q to quit.")
	}
}
