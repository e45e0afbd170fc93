// Package strip blanks out comments and literals in Go source while keeping
// the byte layout intact, so that line-oriented scanning (finding the package
// clause, classifying a caret position) is not fooled by literal content.
package strip

import "strings"

// Kind identifies the lexical class of a Span.
type Kind int

const (
	// KindLineComment is a // comment, up to but excluding the newline.
	KindLineComment Kind = iota + 1

	// KindBlockComment is a /* */ comment. Block comments do not nest.
	KindBlockComment

	// KindString is a double-quoted interpreted string literal.
	KindString

	// KindChar is a single-quoted rune literal.
	KindChar

	// KindRawString is a back-quoted raw string literal.
	KindRawString
)

// String returns a short name for the kind.
func (k Kind) String() string {
	switch k {
	case KindLineComment:
		return "line-comment"
	case KindBlockComment:
		return "block-comment"
	case KindString:
		return "string"
	case KindChar:
		return "char"
	case KindRawString:
		return "raw-string"
	default:
		return "unknown"
	}
}

// IsComment reports whether the kind is a comment.
func (k Kind) IsComment() bool {
	return k == KindLineComment || k == KindBlockComment
}

// Span is a byte range [Start, End) covering one comment or literal,
// delimiters included.
type Span struct {
	Kind  Kind
	Start int
	End   int

	// Terminated is false when the text ended (or, for quoted literals, the
	// line ended) before the closing delimiter was found.
	Terminated bool
}

// Contains reports whether offset falls inside the span.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset < s.End
}

// Scan returns the comment and literal spans of text in source order.
//
// Unterminated constructs never fail the scan:
//   - a block comment or raw string without its closer runs to the end of text;
//   - a quoted literal without its closer stops at the end of its line, leaving
//     the newline outside the span.
func Scan(text string) []Span {
	var spans []Span

	for idx := 0; idx < len(text); {
		switch text[idx] {
		case '/':
			if idx+1 >= len(text) {
				idx++
				continue
			}
			switch text[idx+1] {
			case '/':
				end := lineEnd(text, idx)
				spans = append(spans, Span{Kind: KindLineComment, Start: idx, End: end, Terminated: true})
				idx = end
			case '*':
				closeIdx := strings.Index(text[idx+2:], "*/")
				if closeIdx < 0 {
					spans = append(spans, Span{Kind: KindBlockComment, Start: idx, End: len(text)})
					idx = len(text)
					continue
				}
				end := idx + 2 + closeIdx + 2
				spans = append(spans, Span{Kind: KindBlockComment, Start: idx, End: end, Terminated: true})
				idx = end
			default:
				idx++
			}
		case '"':
			span := scanQuoted(text, idx, '"', KindString)
			spans = append(spans, span)
			idx = span.End
		case '\'':
			span := scanQuoted(text, idx, '\'', KindChar)
			spans = append(spans, span)
			idx = span.End
		case '`':
			closeIdx := strings.IndexByte(text[idx+1:], '`')
			if closeIdx < 0 {
				spans = append(spans, Span{Kind: KindRawString, Start: idx, End: len(text)})
				idx = len(text)
				continue
			}
			end := idx + 1 + closeIdx + 1
			spans = append(spans, Span{Kind: KindRawString, Start: idx, End: end, Terminated: true})
			idx = end
		default:
			idx++
		}
	}

	return spans
}

// scanQuoted scans an interpreted literal opened by quote at start.
func scanQuoted(text string, start int, quote byte, kind Kind) Span {
	for idx := start + 1; idx < len(text); idx++ {
		switch text[idx] {
		case '\\':
			// Skip the escaped byte, but never past a newline.
			if idx+1 < len(text) && text[idx+1] != '\n' {
				idx++
			}
		case quote:
			return Span{Kind: kind, Start: start, End: idx + 1, Terminated: true}
		case '\n':
			return Span{Kind: kind, Start: start, End: idx}
		}
	}
	return Span{Kind: kind, Start: start, End: len(text)}
}

// lineEnd returns the offset of the newline ending the line containing idx,
// or len(text) if there is none.
func lineEnd(text string, idx int) int {
	if nl := strings.IndexByte(text[idx:], '\n'); nl >= 0 {
		return idx + nl
	}
	return len(text)
}

// Strip returns text with every comment and literal byte replaced by a space.
// Newlines are kept, so the result has the same length, the same line count
// and the same columns as the input.
func Strip(text string) string {
	spans := Scan(text)
	if len(spans) == 0 {
		return text
	}

	out := []byte(text)
	for _, span := range spans {
		for idx := span.Start; idx < span.End; idx++ {
			if out[idx] != '\n' && out[idx] != '\r' {
				out[idx] = ' '
			}
		}
	}
	return string(out)
}

// At returns the span containing offset, if any.
func At(spans []Span, offset int) (Span, bool) {
	// Spans are sorted and disjoint; a linear scan is fine for buffer-sized input.
	for _, span := range spans {
		if span.Start > offset {
			break
		}
		if span.Contains(offset) {
			return span, true
		}
	}
	return Span{}, false
}
