package lsp_test

import (
	"context"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.lsp.dev/uri"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/internal/lsp"
	"github.com/dersebi/GoSublime/pkg/bridge"
	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/session"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

const waitFor = 5 * time.Second

const source = "package p\n\nfunc f() {\n  x := y\n}\n"

type stderrLinter struct {
	mu     sync.Mutex
	calls  int
	stderr string
	err    error
}

func (l *stderrLinter) Run(context.Context, lint.Command, []string) (*lint.Output, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return &lint.Output{Stderr: l.stderr, ExitCode: 1}, nil
}

func (l *stderrLinter) Calls() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls
}

// client is the editor end of a pipe. Notifications from the server are
// delivered on the channels.
type client struct {
	server      *lsp.Server
	conn        jsonrpc2.Conn
	diagnostics chan protocol.PublishDiagnosticsParams
	messages    chan protocol.ShowMessageParams
	served      chan error
}

func start(t *testing.T, linter lint.Runner, settings config.Settings) *client {
	t.Helper()

	serverEnd, clientEnd := net.Pipe()
	server := lsp.New(lsp.Options{
		Settings: settings,
		Version:  "test",
		Runner:   linter,
		Logger:   logging.Discard(),
	})

	c := &client{
		server:      server,
		conn:        jsonrpc2.NewConn(jsonrpc2.NewStream(clientEnd)),
		diagnostics: make(chan protocol.PublishDiagnosticsParams, 16),
		messages:    make(chan protocol.ShowMessageParams, 16),
		served:      make(chan error, 1),
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { c.served <- server.Serve(ctx, serverEnd) }()

	c.conn.Go(ctx, func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
		switch req.Method() {
		case protocol.MethodTextDocumentPublishDiagnostics:
			var params protocol.PublishDiagnosticsParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return err
			}
			c.diagnostics <- params
		case protocol.MethodWindowShowMessage:
			var params protocol.ShowMessageParams
			if err := json.Unmarshal(req.Params(), &params); err != nil {
				return err
			}
			c.messages <- params
		}
		return reply(ctx, nil, nil)
	})

	t.Cleanup(func() {
		cancel()
		_ = c.conn.Close()
	})
	return c
}

func (c *client) initialize(t *testing.T, options any) protocol.InitializeResult {
	t.Helper()

	var result protocol.InitializeResult
	_, err := c.conn.Call(context.Background(), protocol.MethodInitialize, protocol.InitializeParams{
		InitializationOptions: options,
	}, &result)
	require.NoError(t, err)
	require.NoError(t, c.conn.Notify(context.Background(), protocol.MethodInitialized, protocol.InitializedParams{}))
	return result
}

func (c *client) notify(t *testing.T, method string, params any) {
	t.Helper()
	require.NoError(t, c.conn.Notify(context.Background(), method, params))
}

func (c *client) nextDiagnostics(t *testing.T) protocol.PublishDiagnosticsParams {
	t.Helper()
	select {
	case params := <-c.diagnostics:
		return params
	case <-time.After(waitFor):
		t.Fatal("no diagnostics published")
		return protocol.PublishDiagnosticsParams{}
	}
}

func writeSource(t *testing.T) (string, protocol.DocumentURI) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(path, []byte(source), 0644))
	return path, uri.File(path)
}

func fastSettings() config.Settings {
	return config.Map{config.KeyLintTimeout: 10}
}

func TestServer_Initialize(t *testing.T) {
	t.Parallel()

	c := start(t, &stderrLinter{}, fastSettings())
	result := c.initialize(t, nil)

	syncOpts, ok := result.Capabilities.TextDocumentSync.(map[string]any)
	require.True(t, ok, "sync options are an object: %T", result.Capabilities.TextDocumentSync)
	assert.Equal(t, true, syncOpts["openClose"])
	assert.EqualValues(t, protocol.TextDocumentSyncKindFull, syncOpts["change"])
	require.NotNil(t, result.ServerInfo)
	assert.Equal(t, lsp.ServerName, result.ServerInfo.Name)
	assert.Equal(t, "test", result.ServerInfo.Version)
	assert.Equal(t, true, result.Capabilities.HoverProvider)
}

func TestServer_RequestBeforeInitialize(t *testing.T) {
	t.Parallel()

	c := start(t, &stderrLinter{}, fastSettings())
	_, err := c.conn.Call(context.Background(), protocol.MethodShutdown, nil, nil)
	require.Error(t, err)

	var rpcErr *jsonrpc2.Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, jsonrpc2.ServerNotInitialized, rpcErr.Code)
}

func TestServer_OpenPublishesDiagnostics(t *testing.T) {
	t.Parallel()

	_, docURI := writeSource(t)
	linter := &stderrLinter{stderr: "a.go:4:8: undefined: y\n"}
	c := start(t, linter, fastSettings())
	c.initialize(t, nil)

	c.notify(t, protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{
			URI:        docURI,
			LanguageID: protocol.GoLanguage,
			Version:    3,
			Text:       source,
		},
	})

	params := c.nextDiagnostics(t)
	assert.Equal(t, docURI, params.URI)
	assert.EqualValues(t, 3, params.Version)
	require.Len(t, params.Diagnostics, 1)

	diag := params.Diagnostics[0]
	assert.Equal(t, "undefined: y", diag.Message)
	assert.Equal(t, lsp.ServerName, diag.Source)
	assert.Equal(t, protocol.DiagnosticSeverityError, diag.Severity)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 3, Character: 7},
		End:   protocol.Position{Line: 3, Character: 8},
	}, diag.Range)
}

func TestServer_ChangeAndClose(t *testing.T) {
	t.Parallel()

	_, docURI := writeSource(t)
	linter := &stderrLinter{}
	c := start(t, linter, fastSettings())
	c.initialize(t, nil)

	c.notify(t, protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: protocol.GoLanguage, Text: source},
	})
	assert.Empty(t, c.nextDiagnostics(t).Diagnostics)

	c.notify(t, protocol.MethodTextDocumentDidChange, protocol.DidChangeTextDocumentParams{
		TextDocument: protocol.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: protocol.TextDocumentIdentifier{URI: docURI},
			Version:                2,
		},
		ContentChanges: []protocol.TextDocumentContentChangeEvent{{Text: source + "// more\n"}},
	})
	params := c.nextDiagnostics(t)
	assert.EqualValues(t, 2, params.Version)
	assert.Equal(t, 2, linter.Calls())

	c.notify(t, protocol.MethodTextDocumentDidClose, protocol.DidCloseTextDocumentParams{
		TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
	})
	closed := c.nextDiagnostics(t)
	assert.Equal(t, docURI, closed.URI)
	assert.Empty(t, closed.Diagnostics)
}

func TestServer_HoverShowsLineDiagnostic(t *testing.T) {
	t.Parallel()

	_, docURI := writeSource(t)
	c := start(t, &stderrLinter{stderr: "a.go:4:8: undefined: y\n"}, fastSettings())
	c.initialize(t, nil)

	c.notify(t, protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: protocol.GoLanguage, Text: source},
	})
	require.Len(t, c.nextDiagnostics(t).Diagnostics, 1)

	tests := []struct {
		name string
		pos  protocol.Position
		want string
	}{
		{name: "diagnostic line", pos: protocol.Position{Line: 3, Character: 2}, want: bridge.StatusPrefix + "undefined: y"},
		{name: "clean line", pos: protocol.Position{Line: 0, Character: 0}},
		{name: "past the end", pos: protocol.Position{Line: 40, Character: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw json.RawMessage
			_, err := c.conn.Call(context.Background(), protocol.MethodTextDocumentHover, protocol.HoverParams{
				TextDocumentPositionParams: protocol.TextDocumentPositionParams{
					TextDocument: protocol.TextDocumentIdentifier{URI: docURI},
					Position:     tt.pos,
				},
			}, &raw)
			require.NoError(t, err)

			if tt.want == "" {
				assert.JSONEq(t, "null", string(raw))
				return
			}
			var hover protocol.Hover
			require.NoError(t, json.Unmarshal(raw, &hover))
			assert.Equal(t, protocol.PlainText, hover.Contents.Kind)
			assert.Equal(t, tt.want, hover.Contents.Value)
		})
	}
}

func TestServer_PublishUsesIndexedText(t *testing.T) {
	t.Parallel()

	_, docURI := writeSource(t)
	c := start(t, &stderrLinter{}, fastSettings())
	c.initialize(t, nil)

	c.notify(t, protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: protocol.GoLanguage, Version: 5, Text: source},
	})
	assert.EqualValues(t, 5, c.nextDiagnostics(t).Version)

	// Regions computed against an older text than the document now holds.
	older := "package p\nvar x = y\n"
	entries := []bridge.Entry{{
		Diagnostic: lint.Diagnostic{Line: 2, Column: 9, Message: "undefined: y"},
		Region:     textpos.Region{Start: 18, End: 19},
		HasRegion:  true,
	}}
	c.server.Publish(session.BufferID(docURI), textpos.New(older), entries)

	params := c.nextDiagnostics(t)
	require.Len(t, params.Diagnostics, 1)
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 1, Character: 8},
		End:   protocol.Position{Line: 1, Character: 9},
	}, params.Diagnostics[0].Range)
	assert.Zero(t, params.Version, "stale text is published unversioned")

	c.server.Publish(session.BufferID(docURI), textpos.New(source), nil)
	assert.EqualValues(t, 5, c.nextDiagnostics(t).Version)
}

func TestServer_InitializationOptions(t *testing.T) {
	t.Parallel()

	_, docURI := writeSource(t)
	linter := &stderrLinter{stderr: "a.go:4:8: undefined: y\n"}
	c := start(t, linter, fastSettings())
	c.initialize(t, map[string]any{"gslint": map[string]any{"lint_cmd": ""}})

	c.notify(t, protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: protocol.GoLanguage, Text: source},
	})

	params := c.nextDiagnostics(t)
	assert.Empty(t, params.Diagnostics)
	assert.Zero(t, linter.Calls(), "an empty lint_cmd disables the linter")
}

func TestServer_MissingLinterShowsMessage(t *testing.T) {
	t.Parallel()

	_, docURI := writeSource(t)
	linter := &stderrLinter{err: lint.ErrNotFound}
	c := start(t, linter, fastSettings())
	c.initialize(t, nil)

	c.notify(t, protocol.MethodTextDocumentDidOpen, protocol.DidOpenTextDocumentParams{
		TextDocument: protocol.TextDocumentItem{URI: docURI, LanguageID: protocol.GoLanguage, Text: source},
	})

	select {
	case msg := <-c.messages:
		assert.Equal(t, protocol.MessageTypeError, msg.Type)
		assert.Contains(t, msg.Message, "gotype")
	case <-time.After(waitFor):
		t.Fatal("no message shown")
	}
}

func TestServer_ShutdownExit(t *testing.T) {
	t.Parallel()

	c := start(t, &stderrLinter{}, fastSettings())
	c.initialize(t, nil)

	_, err := c.conn.Call(context.Background(), protocol.MethodShutdown, nil, nil)
	require.NoError(t, err)
	c.notify(t, protocol.MethodExit, nil)

	select {
	case err := <-c.served:
		assert.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("server did not stop")
	}
}

func TestServer_ExitWithoutShutdown(t *testing.T) {
	t.Parallel()

	c := start(t, &stderrLinter{}, fastSettings())
	c.initialize(t, nil)
	c.notify(t, protocol.MethodExit, nil)

	select {
	case err := <-c.served:
		assert.ErrorIs(t, err, lsp.ErrExitWithoutShutdown)
	case <-time.After(waitFor):
		t.Fatal("server did not stop")
	}
}

func TestDiagnostics(t *testing.T) {
	t.Parallel()

	ix := textpos.New("a\né\U0001F600x\n")
	entries := []bridge.Entry{
		{
			Diagnostic: lint.Diagnostic{Line: 1, Column: 6, Message: "after emoji"},
			Region:     textpos.Region{Start: 4, End: 5},
			HasRegion:  true,
		},
		{
			Diagnostic: lint.Diagnostic{Line: 9, Message: "gone"},
		},
	}

	got := lsp.Diagnostics(ix, entries)
	require.Len(t, got, 2)

	// The emoji takes two UTF-16 code units.
	assert.Equal(t, protocol.Range{
		Start: protocol.Position{Line: 1, Character: 3},
		End:   protocol.Position{Line: 1, Character: 4},
	}, got[0].Range)

	end := protocol.Position{Line: 2, Character: 0}
	assert.Equal(t, protocol.Range{Start: end, End: end}, got[1].Range)
	assert.Equal(t, "gone", got[1].Message)
}
