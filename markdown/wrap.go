package markdown

import (
	"strings"
	"unicode"

	rw "github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Wrap word-wraps plain text to the given display width. It is used for
// in-flight token text, which is rendered unstyled until the stream
// completes. Widths are measured in terminal cells so wide runes wrap
// correctly; words longer than the width are broken rather than overflow.
func Wrap(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}

	var out []string
	for _, para := range strings.Split(s, "\n") {
		out = append(out, wrapLine(para, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(s string, width int) []string {
	if uniseg.StringWidth(s) <= width {
		return []string{s}
	}

	var (
		lines []string
		line  strings.Builder
		word  strings.Builder
	)
	flushWord := func() {
		if word.Len() == 0 {
			return
		}
		if line.Len() > 0 && uniseg.StringWidth(line.String())+1+uniseg.StringWidth(word.String()) > width {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteByte(' ')
		}
		line.WriteString(word.String())
		word.Reset()
	}

	for _, r := range s {
		if unicode.IsSpace(r) {
			flushWord()
			continue
		}
		// Break an over-long word at the width boundary.
		if uniseg.StringWidth(word.String())+rw.RuneWidth(r) > width {
			flushWord()
			if line.Len() > 0 {
				lines = append(lines, line.String())
				line.Reset()
			}
		}
		word.WriteRune(r)
	}
	flushWord()
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}
