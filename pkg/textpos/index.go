// Package textpos maps linter coordinates (0-based line, byte column) onto
// character offsets in a buffer, and character offsets back onto line and
// UTF-16 column pairs for LSP clients.
package textpos

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// lineInfo records where one line lives, both in bytes and in characters.
// The newline fields point at the first byte/character of the terminator
// ("\n" or "\r\n"), or at the end of the line when it has none.
type lineInfo struct {
	byteStart   int
	byteNewline int
	byteEnd     int

	start   int
	newline int
	end     int
}

// Index is a line table over an immutable buffer snapshot.
// Offsets exposed by Index are character (rune) offsets.
type Index struct {
	text  string
	lines []lineInfo
	chars int
}

// New builds the line table for text. It handles both LF and CRLF line
// endings. Text ending in a newline has a final empty line, the way editors
// display it.
func New(text string) *Index {
	ix := &Index{text: text}

	byteStart, charStart, chars := 0, 0, 0
	for idx, r := range text {
		if r == '\n' {
			byteNewline, newline := idx, chars
			if idx > 0 && text[idx-1] == '\r' {
				byteNewline, newline = idx-1, chars-1
			}
			ix.lines = append(ix.lines, lineInfo{
				byteStart:   byteStart,
				byteNewline: byteNewline,
				byteEnd:     idx + 1,
				start:       charStart,
				newline:     newline,
				end:         chars + 1,
			})
			byteStart, charStart = idx+1, chars+1
		}
		chars++
	}

	ix.lines = append(ix.lines, lineInfo{
		byteStart:   byteStart,
		byteNewline: len(text),
		byteEnd:     len(text),
		start:       charStart,
		newline:     chars,
		end:         chars,
	})
	ix.chars = chars

	return ix
}

// Text returns the indexed text.
func (ix *Index) Text() string {
	return ix.text
}

// Len returns the length of the text in characters.
func (ix *Index) Len() int {
	return ix.chars
}

// LineCount returns the number of lines. It is at least 1.
func (ix *Index) LineCount() int {
	return len(ix.lines)
}

// LineText returns a 0-based line without its terminator.
func (ix *Index) LineText(line int) (string, bool) {
	if line < 0 || line >= len(ix.lines) {
		return "", false
	}
	info := ix.lines[line]
	return ix.text[info.byteStart:info.byteNewline], true
}

// LineBounds returns the character offsets of the start of a 0-based line
// and of its terminator.
func (ix *Index) LineBounds(line int) (start, end int, ok bool) {
	if line < 0 || line >= len(ix.lines) {
		return 0, 0, false
	}
	info := ix.lines[line]
	return info.start, info.newline, true
}

// CharColumn converts a byte column on a 0-based line into a character
// column. A byte column inside a multi-byte rune counts that rune.
// Columns past the end of the line are clamped to the line length.
func (ix *Index) CharColumn(line, byteCol int) int {
	text, ok := ix.LineText(line)
	if !ok || byteCol <= 0 {
		return 0
	}

	col := 0
	for idx := range text {
		if idx >= byteCol {
			break
		}
		col++
	}
	return col
}

// LineOf returns the 0-based line containing a character offset.
// Offsets outside the text are clamped.
func (ix *Index) LineOf(offset int) int {
	if offset <= 0 {
		return 0
	}
	line := sort.Search(len(ix.lines), func(i int) bool {
		return ix.lines[i].end > offset
	})
	if line >= len(ix.lines) {
		line = len(ix.lines) - 1
	}
	return line
}

// Position converts a character offset into a 0-based line and a UTF-16
// code unit column, as used by the Language Server Protocol.
func (ix *Index) Position(offset int) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > ix.chars {
		offset = ix.chars
	}

	line = ix.LineOf(offset)
	info := ix.lines[line]
	remaining := offset - info.start

	for _, r := range ix.text[info.byteStart:info.byteEnd] {
		if remaining == 0 {
			break
		}
		col += runeUnits(r)
		remaining--
	}
	return line, col
}

// Offset converts a 0-based line and UTF-16 column back into a character
// offset. Columns past the end of the line are clamped to the terminator.
func (ix *Index) Offset(line, col int) (int, bool) {
	if line < 0 || line >= len(ix.lines) {
		return 0, false
	}
	info := ix.lines[line]

	offset := info.start
	units := 0
	for _, r := range ix.text[info.byteStart:info.byteNewline] {
		if units >= col {
			break
		}
		units += runeUnits(r)
		offset++
	}
	return offset, true
}

func runeUnits(r rune) int {
	if r == utf8.RuneError {
		return 1
	}
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
