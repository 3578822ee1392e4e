package dbassist

// Theme defines semantic color mappings using ANSI color indices (0-15).
// The user's terminal theme determines the actual RGB values, so the app
// automatically matches any color scheme.
type Theme struct {
	Error   int // Error messages
	Success int // Success indicators, passing scores
	Muted   int // Status bar, placeholders, code gutters
	Accent  int // Headings, links
	Score   int // Rubric score highlights
}

// DefaultTheme returns the default ANSI color mapping.
func DefaultTheme() Theme {
	return Theme{
		Error:   1,
		Success: 2,
		Muted:   8,
		Accent:  5,
		Score:   3,
	}
}
