package lsp

import (
	"time"

	"fortio.org/safecast"
	"go.lsp.dev/protocol"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/pkg/bridge"
	"github.com/dersebi/GoSublime/pkg/session"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

var (
	_ bridge.Host      = (*Server)(nil)
	_ bridge.Publisher = (*Server)(nil)
)

// FileName implements bridge.Host.
func (s *Server) FileName(id session.BufferID) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.docs[id]; ok {
		return doc.path
	}
	return ""
}

// Text implements bridge.Host.
func (s *Server) Text(id session.BufferID) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok {
		return "", false
	}
	return doc.text, true
}

// Caret implements bridge.Host. The protocol does not report carets to
// servers; the position of the last hover stands in for one.
func (s *Server) Caret(id session.BufferID) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.docs[id]
	if !ok || !doc.hasCaret {
		return 0, false
	}
	return doc.caret, true
}

// After implements bridge.Host.
func (s *Server) After(delay time.Duration, fn func()) {
	time.AfterFunc(delay, fn)
}

// SetRegions implements bridge.Host. Regions reach the client through
// Publish.
func (s *Server) SetRegions(id session.BufferID, _ string, regions []textpos.Region, _ bridge.Style) {
	s.logger.Debug("regions set", logging.FieldBuffer, id, logging.FieldRegions, len(regions))
}

// ClearRegions implements bridge.Host.
func (s *Server) ClearRegions(session.BufferID, string) {}

// SetStatus implements bridge.Host. The status is served as hover text.
func (s *Server) SetStatus(id session.BufferID, _ string, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if doc, ok := s.docs[id]; ok {
		doc.status = text
	}
}

// Notify implements bridge.Host with window/showMessage.
func (s *Server) Notify(message string) {
	if err := s.conn.Notify(s.ctx, protocol.MethodWindowShowMessage, protocol.ShowMessageParams{
		Type:    protocol.MessageTypeError,
		Message: message,
	}); err != nil {
		s.logger.Warn("show message failed", logging.FieldError, err)
	}
}

// Publish implements bridge.Publisher with textDocument/publishDiagnostics.
// Positions come from ix. The document version is only reported while the
// document still holds the indexed text.
func (s *Server) Publish(id session.BufferID, ix *textpos.Index, entries []bridge.Entry) {
	s.mu.Lock()
	doc, ok := s.docs[id]
	var (
		docURI  protocol.DocumentURI
		current bool
		version int32
	)
	if ok {
		docURI, version = doc.uri, doc.version
		current = doc.text == ix.Text()
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	params := protocol.PublishDiagnosticsParams{
		URI:         docURI,
		Diagnostics: Diagnostics(ix, entries),
	}
	if current {
		if v, err := safecast.Conv[uint32](version); err == nil {
			params.Version = v
		}
	}

	if err := s.conn.Notify(s.ctx, protocol.MethodTextDocumentPublishDiagnostics, params); err != nil {
		s.logger.Warn("publish failed", logging.FieldURI, docURI, logging.FieldError, err)
	}
}

// Diagnostics converts bridge entries to protocol diagnostics. Entries
// without a region are anchored at the end of the document.
func Diagnostics(ix *textpos.Index, entries []bridge.Entry) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(entries))
	for _, entry := range entries {
		var rng protocol.Range
		if entry.HasRegion {
			rng = protocol.Range{
				Start: position(ix, entry.Region.Start),
				End:   position(ix, entry.Region.End),
			}
		} else {
			end := position(ix, ix.Len())
			rng = protocol.Range{Start: end, End: end}
		}

		out = append(out, protocol.Diagnostic{
			Range:    rng,
			Severity: protocol.DiagnosticSeverityError,
			Source:   ServerName,
			Message:  entry.Diagnostic.Message,
		})
	}
	return out
}

func position(ix *textpos.Index, offset int) protocol.Position {
	line, col := ix.Position(offset)

	var pos protocol.Position
	if v, err := safecast.Conv[uint32](line); err == nil {
		pos.Line = v
	}
	if v, err := safecast.Conv[uint32](col); err == nil {
		pos.Character = v
	}
	return pos
}
