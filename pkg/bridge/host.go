package bridge

import (
	"time"

	"github.com/dersebi/GoSublime/pkg/lexscope"
	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/session"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

// Keys and presentation shared with editor hosts.
const (
	// StatusKey names the status bar slot owned by the linter.
	StatusKey = "GsLint"

	// StatusPrefix precedes every non-empty status message.
	StatusPrefix = "GsLint: "

	// RegionKey names the highlight set owned by the linter.
	RegionKey = "GsLint-errors"

	// ExcludedScopeDelay is the debounce delay for edits inside strings and
	// comments. Those edits rarely change diagnostics, but a run still
	// clears results left over from before the edit.
	ExcludedScopeDelay = 1000 * time.Millisecond
)

// Style describes how regions are drawn.
type Style struct {
	Scope    string
	Icon     string
	Outlined bool
}

// ErrorStyle is the style used for diagnostic regions.
var ErrorStyle = Style{Scope: "invalid.illegal", Icon: "cross", Outlined: true}

// StatusText formats a diagnostic message for the status bar. An empty
// message clears the status.
func StatusText(message string) string {
	if message == "" {
		return ""
	}
	return StatusPrefix + message
}

// Host is the editor side of the bridge. Methods may be called from any
// goroutine and must not call back into the Bridge synchronously.
type Host interface {
	// FileName returns the path backing a buffer, or "" for unsaved buffers.
	FileName(id session.BufferID) string

	// Text returns the current buffer content.
	Text(id session.BufferID) (string, bool)

	// Caret returns the character offset of the primary caret.
	Caret(id session.BufferID) (int, bool)

	// After runs fn once after delay.
	After(delay time.Duration, fn func())

	SetRegions(id session.BufferID, key string, regions []textpos.Region, style Style)
	ClearRegions(id session.BufferID, key string)
	SetStatus(id session.BufferID, key, text string)

	// Notify shows a message the user should not miss.
	Notify(message string)
}

// Entry pairs a diagnostic with its region. HasRegion is false when the
// diagnostic line no longer exists in the buffer.
type Entry struct {
	Diagnostic lint.Diagnostic
	Region     textpos.Region
	HasRegion  bool
}

// Publisher is implemented by hosts that display messages next to regions,
// such as language server clients. Publish receives every diagnostic of a
// run, in linter order, after the regions have been set. ix indexes the
// buffer text the regions were computed against.
type Publisher interface {
	Publish(id session.BufferID, ix *textpos.Index, entries []Entry)
}

// EditEvent reports a modification (or load) of a buffer. Scope is the
// lexical scope at the primary caret.
type EditEvent struct {
	Buffer session.BufferID
	Scope  lexscope.Scope
}

// SelectionEvent reports caret movement.
type SelectionEvent struct {
	Buffer session.BufferID
	Caret  int
	Scope  lexscope.Scope
}
