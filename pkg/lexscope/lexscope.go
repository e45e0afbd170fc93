// Package lexscope classifies the lexical context of a caret or edit
// position, so the scheduler can tell code edits from edits inside strings
// and comments.
package lexscope

import (
	"strings"

	"github.com/dersebi/GoSublime/pkg/strip"
)

// Scope is the lexical context of a position in a buffer.
type Scope int

const (
	// Code is ordinary Go source.
	Code Scope = iota

	// String is inside a string, rune or raw string literal.
	String

	// Comment is inside a line or block comment.
	Comment

	// Foreign is not Go source at all.
	Foreign
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case Code:
		return "code"
	case String:
		return "string"
	case Comment:
		return "comment"
	case Foreign:
		return "foreign"
	default:
		return "unknown"
	}
}

// Lintable reports whether edits in this scope should schedule a lint.
func (s Scope) Lintable() bool {
	return s != Foreign
}

// Excluded reports whether edits in this scope are inside a literal or
// comment and therefore use the slower debounce delay.
func (s Scope) Excluded() bool {
	return s == String || s == Comment
}

// Editor scope selectors, as reported by TextMate-style grammars.
const (
	sourceGo = "source.go"
)

var (
	stringLabels = []string{
		"string.quoted.double.go",
		"string.quoted.single.go",
		"string.quoted.raw.go",
	}
	commentLabels = []string{
		"comment.line.double-slash.go",
		"comment.block.go",
	}
)

// Classify maps a set of scope labels at a position to a Scope.
// Labels may be passed individually or as space-separated selector strings.
func Classify(labels ...string) Scope {
	var names []string
	for _, label := range labels {
		names = append(names, strings.Fields(label)...)
	}

	if !hasLabel(names, sourceGo) {
		return Foreign
	}
	for _, name := range names {
		if hasPrefix(name, stringLabels) {
			return String
		}
		if hasPrefix(name, commentLabels) {
			return Comment
		}
	}
	return Code
}

func hasLabel(names []string, want string) bool {
	for _, name := range names {
		if name == want {
			return true
		}
	}
	return false
}

// hasPrefix matches exact labels and their sub-scopes
// (for example "string.quoted.double.go.fmt").
func hasPrefix(name string, labels []string) bool {
	for _, label := range labels {
		if name == label || strings.HasPrefix(name, label+".") {
			return true
		}
	}
	return false
}

var kindLabels = map[strip.Kind]string{
	strip.KindLineComment:  "comment.line.double-slash.go",
	strip.KindBlockComment: "comment.block.go",
	strip.KindString:       "string.quoted.double.go",
	strip.KindChar:         "string.quoted.single.go",
	strip.KindRawString:    "string.quoted.raw.go",
}

// Labels reports the scope labels an editor grammar would give the byte
// at offset in Go source text.
func Labels(text string, offset int) []string {
	labels := []string{sourceGo}
	if span, ok := strip.At(strip.Scan(text), offset); ok {
		labels = append(labels, kindLabels[span.Kind])
	}
	return labels
}

// At classifies a byte offset in Go source text without editor labels.
func At(text string, offset int) Scope {
	return Classify(Labels(text, offset)...)
}

// Edit classifies the change from prev to next by the first byte that
// differs. A deletion that leaves the change point at a line end is
// classified by the byte before it, so trimming the tail of a comment
// counts as a comment edit.
func Edit(prev, next string) Scope {
	offset := 0
	for offset < len(prev) && offset < len(next) && prev[offset] == next[offset] {
		offset++
	}
	if len(next) < len(prev) && offset > 0 && (offset == len(next) || next[offset] == '\n') {
		offset--
	}
	return At(next, offset)
}
