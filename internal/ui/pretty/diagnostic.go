package pretty

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/dersebi/GoSublime/pkg/lint"
)

// sourceIndent aligns source context under the diagnostic line.
const sourceIndent = "        "

// tabCells is the width lipgloss renders a tab with.
const tabCells = 4

// FormatDiagnostic formats a single diagnostic for terminal output.
// path overrides the diagnostic's own File, so callers can print paths
// relative to their working directory.
func (s *Styles) FormatDiagnostic(path string, diag lint.Diagnostic, showContext bool, sourceLine string) string {
	var builder strings.Builder

	location := fmt.Sprintf("%s:%d:%d",
		s.FilePath.Render(path),
		diag.Line+1,
		diag.Column+1,
	)

	builder.WriteString(fmt.Sprintf("  %s  %s  %s\n",
		location,
		s.Error.Render("error"),
		s.Message.Render(diag.Message),
	))

	if showContext && sourceLine != "" {
		builder.WriteString(s.FormatSourceContext(sourceLine, diag.Column))
	}

	return builder.String()
}

// FormatSourceContext formats the source line with a caret under the 0-based
// byte column. Wide runes count double and tabs count tabCells, so the
// caret lines up with the rendered line.
func (s *Styles) FormatSourceContext(line string, column int) string {
	var builder strings.Builder

	line = strings.TrimRight(line, "\r\n")
	builder.WriteString(sourceIndent + s.SourceLine.Render(line) + "\n")

	if column < 0 {
		return builder.String()
	}
	if column > len(line) {
		column = len(line)
	}
	builder.WriteString(sourceIndent + caretPadding(line[:column]) + s.Caret.Render("^") + "\n")

	return builder.String()
}

func caretPadding(prefix string) string {
	var pad strings.Builder
	for _, r := range prefix {
		if r == '\t' {
			pad.WriteString(strings.Repeat(" ", tabCells))
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	return pad.String()
}

// FormatFileHeader formats a file header for grouped output.
func (s *Styles) FormatFileHeader(path string, issueCount int) string {
	header := s.FilePath.Render(path)
	switch {
	case issueCount == 1:
		header += s.Dim.Render(" (1 issue)")
	case issueCount > 1:
		header += s.Dim.Render(fmt.Sprintf(" (%d issues)", issueCount))
	}
	return header
}

// TruncateStatus shortens a status message to width terminal cells.
// A width of zero or less disables truncation.
func TruncateStatus(message string, width int) string {
	if width <= 0 || runewidth.StringWidth(message) <= width {
		return message
	}
	return runewidth.Truncate(message, width, "…")
}
