// Package lsp serves the lint bridge to editors over the Language Server
// Protocol. Open documents are buffers keyed by URI; diagnostics are pushed
// with textDocument/publishDiagnostics.
package lsp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/internal/telemetry"
	"github.com/dersebi/GoSublime/pkg/bridge"
	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/langdetect"
	"github.com/dersebi/GoSublime/pkg/lexscope"
	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/scheduler"
	"github.com/dersebi/GoSublime/pkg/session"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

// ServerName is reported to clients and used as the diagnostic source.
const ServerName = "gslint"

// settingsSection is the key clients nest gslint settings under in
// initializationOptions and workspace/didChangeConfiguration.
const settingsSection = "gslint"

// ErrExitWithoutShutdown is returned by Serve when the client sent exit
// without a prior shutdown request.
var ErrExitWithoutShutdown = errors.New("exit received before shutdown")

// Options configures a Server.
type Options struct {
	// Settings are the base settings. Client supplied settings override them.
	Settings config.Settings

	// Version is reported in the initialize result.
	Version string

	// Runner runs the linter. Defaults to lint.ExecRunner.
	Runner lint.Runner

	// Logger defaults to logging.Default(). It must not write to the
	// protocol stream.
	Logger *log.Logger

	// Metrics defaults to telemetry.Default().
	Metrics *telemetry.Metrics

	// Execute runs lint work. Defaults to a new goroutine per run.
	Execute scheduler.Executor
}

type document struct {
	uri     protocol.DocumentURI
	path    string
	text    string
	version int32
	scope   lexscope.Scope

	// Last hovered position and the status the bridge set for it.
	caret    int
	hasCaret bool
	status   string
}

// update replaces the document text and returns the scope of the edit.
// Callers hold Server.mu.
func (d *document) update(text string) lexscope.Scope {
	prev := d.text
	d.text = text
	if d.scope == lexscope.Foreign {
		return lexscope.Foreign
	}
	return lexscope.Edit(prev, text)
}

// Server is a bridge.Host speaking LSP. A Server serves one connection.
type Server struct {
	opts   Options
	logger *log.Logger
	bridge *bridge.Bridge

	conn jsonrpc2.Conn
	ctx  context.Context

	mu          sync.Mutex
	docs        map[session.BufferID]*document
	overrides   config.Map
	initialized bool
	shutdown    bool
	exited      bool
}

// New creates a server. Call Serve to start it.
func New(opts Options) *Server {
	if opts.Settings == nil {
		opts.Settings = config.NewConfig()
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger,
		docs:   make(map[session.BufferID]*document),
	}
	s.bridge = bridge.New(s, bridge.Options{
		Settings: s,
		Runner:   opts.Runner,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
		Execute:  opts.Execute,
	})
	return s
}

// Bridge returns the bridge fed by this server.
func (s *Server) Bridge() *bridge.Bridge {
	return s.bridge
}

// Get implements config.Settings. Client settings win over the base
// settings.
func (s *Server) Get(key string, def any) any {
	s.mu.Lock()
	overrides := s.overrides
	s.mu.Unlock()

	return config.Overlay(s.opts.Settings, overrides).Get(key, def)
}

// Serve handles the connection on rwc until the client exits, the stream
// fails or ctx is cancelled.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	ctx = logging.WithLogger(ctx, s.logger)
	defer s.bridge.Close()

	s.conn = jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	s.ctx = ctx
	s.conn.Go(ctx, s.handle)

	select {
	case <-ctx.Done():
		_ = s.conn.Close()
		<-s.conn.Done()
		return ctx.Err()
	case <-s.conn.Done():
	}

	s.mu.Lock()
	exited, shutdown := s.exited, s.shutdown
	s.mu.Unlock()

	switch {
	case exited && shutdown:
		return nil
	case exited:
		return ErrExitWithoutShutdown
	}
	if err := s.conn.Err(); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("lsp connection: %w", err)
	}
	return nil
}

func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.logger.Debug("request", logging.FieldMethod, req.Method())

	switch req.Method() {
	case protocol.MethodInitialize:
		return s.initialize(ctx, reply, req)
	case protocol.MethodExit:
		s.mu.Lock()
		s.exited = true
		s.mu.Unlock()
		return s.conn.Close()
	}

	s.mu.Lock()
	initialized, shutdown := s.initialized, s.shutdown
	s.mu.Unlock()

	if !initialized {
		return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.ServerNotInitialized, "server not initialized"))
	}
	if shutdown {
		return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.InvalidRequest, "server is shutting down"))
	}

	switch req.Method() {
	case protocol.MethodInitialized:
		return reply(ctx, nil, nil)
	case protocol.MethodShutdown:
		s.mu.Lock()
		s.shutdown = true
		s.mu.Unlock()
		s.bridge.Close()
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidOpen:
		var params protocol.DidOpenTextDocumentParams
		if err := decode(req, &params); err != nil {
			return reply(ctx, nil, err)
		}
		s.didOpen(params)
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidChange:
		var params protocol.DidChangeTextDocumentParams
		if err := decode(req, &params); err != nil {
			return reply(ctx, nil, err)
		}
		s.didChange(params)
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidSave:
		var params protocol.DidSaveTextDocumentParams
		if err := decode(req, &params); err != nil {
			return reply(ctx, nil, err)
		}
		s.didSave(params)
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentDidClose:
		var params protocol.DidCloseTextDocumentParams
		if err := decode(req, &params); err != nil {
			return reply(ctx, nil, err)
		}
		s.didClose(ctx, params)
		return reply(ctx, nil, nil)
	case protocol.MethodTextDocumentHover:
		var params protocol.HoverParams
		if err := decode(req, &params); err != nil {
			return reply(ctx, nil, err)
		}
		hover := s.hover(params)
		if hover == nil {
			return reply(ctx, nil, nil)
		}
		return reply(ctx, hover, nil)
	case protocol.MethodWorkspaceDidChangeConfiguration:
		var params protocol.DidChangeConfigurationParams
		if err := decode(req, &params); err != nil {
			return reply(ctx, nil, err)
		}
		s.setOverrides(params.Settings)
		return reply(ctx, nil, nil)
	}

	if _, ok := req.(*jsonrpc2.Call); !ok {
		// Unknown notifications, $/cancelRequest included, are dropped.
		return nil
	}
	return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
}

func (s *Server) initialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := decode(req, &params); err != nil {
		return reply(ctx, nil, err)
	}

	s.mu.Lock()
	already := s.initialized
	s.initialized = true
	s.mu.Unlock()

	if already {
		return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.InvalidRequest, "server already initialized"))
	}

	s.setOverrides(params.InitializationOptions)

	return reply(ctx, protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{IncludeText: true},
			},
			HoverProvider: true,
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    ServerName,
			Version: s.opts.Version,
		},
	}, nil)
}

func (s *Server) didOpen(params protocol.DidOpenTextDocumentParams) {
	item := params.TextDocument
	id := bufferID(item.URI)
	path := filename(item.URI)

	doc := &document{
		uri:     item.URI,
		path:    path,
		text:    item.Text,
		version: item.Version,
		scope:   scopeOf(path, item.LanguageID, item.Text),
	}

	s.mu.Lock()
	s.docs[id] = doc
	s.mu.Unlock()

	s.bridge.OnLoad(bridge.EditEvent{Buffer: id, Scope: doc.scope})
}

func (s *Server) didChange(params protocol.DidChangeTextDocumentParams) {
	id := bufferID(params.TextDocument.URI)

	s.mu.Lock()
	doc, ok := s.docs[id]
	var scope lexscope.Scope
	if ok {
		// Full sync: the last change carries the whole document.
		if n := len(params.ContentChanges); n > 0 {
			scope = doc.update(params.ContentChanges[n-1].Text)
		} else {
			scope = doc.update(doc.text)
		}
		doc.version = params.TextDocument.Version
	}
	s.mu.Unlock()

	if !ok {
		s.logger.Debug("change for unknown document", logging.FieldURI, params.TextDocument.URI)
		return
	}
	s.bridge.OnModified(bridge.EditEvent{Buffer: id, Scope: scope})
}

func (s *Server) didSave(params protocol.DidSaveTextDocumentParams) {
	id := bufferID(params.TextDocument.URI)

	s.mu.Lock()
	doc, ok := s.docs[id]
	var scope lexscope.Scope
	if ok {
		text := doc.text
		if params.Text != "" {
			text = params.Text
		}
		scope = doc.update(text)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	s.bridge.OnModified(bridge.EditEvent{Buffer: id, Scope: scope})
}

// hover moves the buffer's caret to the hovered position and returns the
// status line for it, or nil when the line is clean.
func (s *Server) hover(params protocol.HoverParams) *protocol.Hover {
	id := bufferID(params.TextDocument.URI)

	s.mu.Lock()
	doc, ok := s.docs[id]
	var (
		scope  lexscope.Scope
		offset int
	)
	if ok {
		scope = doc.scope
		offset, ok = textpos.New(doc.text).Offset(int(params.Position.Line), int(params.Position.Character))
		if ok {
			doc.caret, doc.hasCaret = offset, true
		}
	}
	s.mu.Unlock()

	if !ok || scope == lexscope.Foreign {
		return nil
	}

	s.bridge.OnSelectionModified(bridge.SelectionEvent{Buffer: id, Caret: offset, Scope: scope})

	status := bridge.StatusText(s.bridge.StatusFor(id, int(params.Position.Line)))
	if status == "" {
		return nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.PlainText, Value: status},
	}
}

func (s *Server) didClose(ctx context.Context, params protocol.DidCloseTextDocumentParams) {
	id := bufferID(params.TextDocument.URI)

	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()

	s.bridge.OnClose(id)

	// Clients keep published diagnostics until they are replaced.
	if err := s.conn.Notify(ctx, protocol.MethodTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	}); err != nil {
		s.logger.Warn("clearing diagnostics failed", logging.FieldURI, params.TextDocument.URI, logging.FieldError, err)
	}
}

// setOverrides installs client settings. Settings may be given flat or
// nested under a "gslint" section.
func (s *Server) setOverrides(raw any) {
	values, ok := raw.(map[string]any)
	if !ok {
		return
	}
	if section, ok := values[settingsSection].(map[string]any); ok {
		values = section
	}

	s.mu.Lock()
	s.overrides = config.Map(values)
	s.mu.Unlock()

	s.logger.Debug("client settings", logging.FieldConfig, values)
}

func decode(req jsonrpc2.Request, v any) error {
	if len(req.Params()) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params(), v); err != nil {
		return jsonrpc2.Errorf(jsonrpc2.InvalidParams, "%s: %v", req.Method(), err)
	}
	return nil
}

func bufferID(u protocol.DocumentURI) session.BufferID {
	return session.BufferID(u)
}

// filename returns the path of a file URI, or "" for other schemes such
// as untitled buffers.
func filename(u protocol.DocumentURI) string {
	if !strings.HasPrefix(string(u), uri.FileScheme+"://") {
		return ""
	}
	return u.Filename()
}

// scopeOf decides whether a document is Go source. The client's language
// ID is trusted when it names Go.
func scopeOf(path string, languageID protocol.LanguageIdentifier, text string) lexscope.Scope {
	if languageID == protocol.GoLanguage || langdetect.IsGo(path, []byte(text)) {
		return lexscope.Code
	}
	return lexscope.Foreign
}
