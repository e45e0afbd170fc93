package watch

import (
	"time"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/pkg/bridge"
	"github.com/dersebi/GoSublime/pkg/session"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

var (
	_ bridge.Host      = (*Watcher)(nil)
	_ bridge.Publisher = (*Watcher)(nil)
)

// FileName implements bridge.Host. Buffer IDs are file paths.
func (w *Watcher) FileName(id session.BufferID) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if b, ok := w.buffers[id]; ok {
		return b.path
	}
	return ""
}

// Text implements bridge.Host with the content last read from disk.
func (w *Watcher) Text(id session.BufferID) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	b, ok := w.buffers[id]
	if !ok {
		return "", false
	}
	return b.text, true
}

// Caret implements bridge.Host. Files on disk have no caret.
func (w *Watcher) Caret(session.BufferID) (int, bool) {
	return 0, false
}

// After implements bridge.Host.
func (w *Watcher) After(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

// SetRegions implements bridge.Host. Regions are printed by Publish.
func (w *Watcher) SetRegions(id session.BufferID, key string, regions []textpos.Region, _ bridge.Style) {
	w.logger.Debug("regions set", logging.FieldBuffer, id, logging.FieldRegions, len(regions))
}

// ClearRegions implements bridge.Host.
func (w *Watcher) ClearRegions(id session.BufferID, key string) {
	w.logger.Debug("regions cleared", logging.FieldBuffer, id)
}

// SetStatus implements bridge.Host.
func (w *Watcher) SetStatus(id session.BufferID, key, text string) {
	if text != "" {
		w.logger.Debug("status", logging.FieldBuffer, id, "text", text)
	}
}

// Notify implements bridge.Host.
func (w *Watcher) Notify(message string) {
	w.out.notice(message)
}

// Publish implements bridge.Publisher.
func (w *Watcher) Publish(id session.BufferID, ix *textpos.Index, entries []bridge.Entry) {
	w.out.publish(id, entries, ix)
}
