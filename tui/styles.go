package tui

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/databaseassist/dbassist"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	Error   lipgloss.Style
	Success lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
	Score   lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t dbassist.Theme) Styles {
	return Styles{
		Error:   lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success: lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:   lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:  lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Score:   lipgloss.NewStyle().Foreground(ansiColor(t.Score)).Bold(true),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
