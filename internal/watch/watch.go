// Package watch serves the lint bridge from the filesystem. Every Go file
// under a directory is a buffer: writes are edits, removals close the
// buffer, and published diagnostics are printed to the terminal.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/internal/telemetry"
	"github.com/dersebi/GoSublime/internal/ui/pretty"
	"github.com/dersebi/GoSublime/pkg/bridge"
	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/fsutil"
	"github.com/dersebi/GoSublime/pkg/langdetect"
	"github.com/dersebi/GoSublime/pkg/lexscope"
	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/runner"
	"github.com/dersebi/GoSublime/pkg/session"
)

// Config configures a Watcher.
type Config struct {
	// BaseDir is the root directory to watch. Defaults to the working
	// directory.
	BaseDir string

	// Settings supplies the lint settings. Defaults to config.NewConfig().
	Settings config.Settings

	// Ignore contains glob patterns, relative to BaseDir, of files and
	// directories not to watch.
	Ignore []string

	// IncludeVendored watches vendored trees too.
	IncludeVendored bool

	// Runner runs the linter. Defaults to lint.ExecRunner.
	Runner lint.Runner

	// Logger defaults to logging.Default().
	Logger *log.Logger

	// Metrics defaults to telemetry.Default().
	Metrics *telemetry.Metrics

	// Stdout receives diagnostics. Defaults to os.Stdout.
	Stdout io.Writer

	// Color is "auto", "always" or "never".
	Color string

	// ClearScreen redraws the full report on every update instead of
	// appending per-file updates. Callers should only set it for terminals.
	ClearScreen bool

	// Width truncates the status line to this many cells. Zero disables
	// truncation.
	Width int
}

type buffer struct {
	path string
	text string
	info *fsutil.FileInfo
}

// Watcher is a bridge.Host backed by files on disk. Run must be called
// exactly once.
type Watcher struct {
	cfg        Config
	baseDir    string
	extensions []string
	fsw        *fsnotify.Watcher
	bridge     *bridge.Bridge
	logger     *log.Logger
	styles     *pretty.Styles
	started    atomic.Bool

	mu      sync.Mutex
	buffers map[session.BufferID]*buffer

	out *printer
}

// New creates a Watcher and registers the directory tree under
// cfg.BaseDir for monitoring.
func New(cfg Config) (*Watcher, error) {
	baseDir := cfg.BaseDir
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("watch: determine working directory: %w", err)
		}
		baseDir = wd
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve base directory: %w", err)
	}

	if cfg.Settings == nil {
		cfg.Settings = config.NewConfig()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	styles := pretty.NewStyles(pretty.IsColorEnabled(cfg.Color, cfg.Stdout))
	w := &Watcher{
		cfg:        cfg,
		baseDir:    absBase,
		extensions: config.Strings(cfg.Settings, config.KeyExtensions, runner.DefaultExtensions()),
		fsw:        fsw,
		logger:     cfg.Logger,
		styles:     styles,
		buffers:    make(map[session.BufferID]*buffer),
	}
	w.out = newPrinter(w, cfg.Stdout, styles)

	if err := w.addTree(absBase); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			w.logger.Warn("close after init failure", logging.FieldError, closeErr)
		}
		return nil, err
	}

	w.bridge = bridge.New(w, bridge.Options{
		Settings: cfg.Settings,
		Runner:   cfg.Runner,
		Logger:   cfg.Logger,
		Metrics:  cfg.Metrics,
	})

	return w, nil
}

// Run loads every Go file under the base directory, then processes
// filesystem events until ctx is cancelled. It returns nil on clean
// cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return errors.New("watch: Run called more than once")
	}

	defer func() {
		w.bridge.Close()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close fsnotify", logging.FieldError, err)
		}
	}()

	if err := w.loadTree(ctx, w.baseDir); err != nil {
		return err
	}
	w.out.status()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: fsnotify event channel closed unexpectedly")
			}
			w.handle(ctx, evt)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: fsnotify error channel closed unexpectedly")
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// Events were lost; resync from disk.
				w.logger.Warn("fsnotify queue overflow, rescanning", logging.FieldError, err)
				if err := w.loadTree(ctx, w.baseDir); err != nil {
					return err
				}
				continue
			}
			w.logger.Warn("fsnotify error", logging.FieldError, err)
		}
	}
}

// Bridge returns the lint bridge the watcher feeds.
func (w *Watcher) Bridge() *bridge.Bridge {
	return w.bridge
}

// Tracked returns the paths of the open buffers, sorted.
func (w *Watcher) Tracked() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	paths := make([]string, 0, len(w.buffers))
	for _, b := range w.buffers {
		paths = append(paths, b.path)
	}
	sort.Strings(paths)
	return paths
}

func (w *Watcher) handle(ctx context.Context, evt fsnotify.Event) {
	w.logger.Debug("fsnotify event", logging.FieldEvent, evt.Op.String(), logging.FieldPath, evt.Name)

	switch {
	case evt.Has(fsnotify.Remove) || evt.Has(fsnotify.Rename):
		w.closeTree(evt.Name)

	case evt.Has(fsnotify.Create) || evt.Has(fsnotify.Write):
		info, err := os.Stat(evt.Name)
		if err != nil {
			return
		}
		if info.IsDir() {
			if !evt.Has(fsnotify.Create) || w.skipDir(evt.Name) {
				return
			}
			if err := w.addTree(evt.Name); err != nil {
				w.logger.Warn("cannot watch new directory", logging.FieldPath, evt.Name, logging.FieldError, err)
				return
			}
			if err := w.loadTree(ctx, evt.Name); err != nil {
				w.logger.Warn("cannot load new directory", logging.FieldPath, evt.Name, logging.FieldError, err)
			}
			return
		}
		if w.wants(evt.Name) {
			w.change(ctx, evt.Name, evt.Has(fsnotify.Create))
		}
	}
}

// wants reports whether a file path is lintable under the watch rules.
func (w *Watcher) wants(path string) bool {
	if !config.HasExtension(path, w.extensions) {
		return false
	}
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") {
		return false
	}
	return !runner.Excluded(w.rel(path), w.cfg.Ignore)
}

func (w *Watcher) skipDir(path string) bool {
	if path == w.baseDir {
		return false
	}
	return runner.SkipDir(filepath.Base(path), w.rel(path), w.cfg.IncludeVendored, w.cfg.Ignore)
}

func (w *Watcher) rel(path string) string {
	rel, err := filepath.Rel(w.baseDir, path)
	if err != nil {
		return path
	}
	return rel
}

// addTree registers root and every directory below it that is not skipped.
func (w *Watcher) addTree(root string) error {
	walkErr := filepath.WalkDir(root, func(path string, d os.DirEntry, walkDirErr error) error {
		if walkDirErr != nil {
			w.logger.Warn("skipping inaccessible path", logging.FieldPath, path, logging.FieldError, walkDirErr)
			return nil //nolint:nilerr // intentional skip of inaccessible paths
		}
		if !d.IsDir() {
			return nil
		}
		if w.skipDir(path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add directory %q: %w", path, err)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("watch: walk directory tree: %w", walkErr)
	}
	return nil
}

// loadTree opens a buffer for every lintable file under root.
func (w *Watcher) loadTree(ctx context.Context, root string) error {
	files, err := runner.Discover(ctx, runner.Options{
		Paths:           []string{root},
		WorkingDir:      w.baseDir,
		Extensions:      w.extensions,
		ExcludeGlobs:    w.cfg.Ignore,
		IncludeVendored: w.cfg.IncludeVendored,
	})
	if err != nil {
		return fmt.Errorf("watch: discover files: %w", err)
	}
	for _, file := range files {
		w.change(ctx, file, true)
	}
	return nil
}

// change records new file content and notifies the bridge. Writes that
// leave the content unchanged are dropped.
func (w *Watcher) change(ctx context.Context, path string, load bool) {
	content, info, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		w.logger.Debug("cannot read file", logging.FieldPath, path, logging.FieldError, err)
		return
	}

	id := session.BufferID(path)
	w.mu.Lock()
	prev, known := w.buffers[id]
	if known && prev.info.SameContent(info) {
		w.mu.Unlock()
		return
	}
	w.buffers[id] = &buffer{path: path, text: string(content), info: info}
	w.mu.Unlock()

	scope := lexscope.Code
	switch {
	case !langdetect.IsGo(path, content):
		scope = lexscope.Foreign
	case known:
		scope = lexscope.Edit(prev.text, string(content))
	}

	ev := bridge.EditEvent{Buffer: id, Scope: scope}
	if load || !known {
		w.bridge.OnLoad(ev)
		return
	}
	w.bridge.OnModified(ev)
}

// closeTree closes the buffer at path and every buffer below it.
func (w *Watcher) closeTree(path string) {
	prefix := path + string(filepath.Separator)

	w.mu.Lock()
	var closed []session.BufferID
	for id, b := range w.buffers {
		if b.path == path || strings.HasPrefix(b.path, prefix) {
			closed = append(closed, id)
			delete(w.buffers, id)
		}
	}
	w.mu.Unlock()

	for _, id := range closed {
		w.bridge.OnClose(id)
		w.out.forget(id)
		w.logger.Debug("buffer closed", logging.FieldPath, string(id))
	}
	if len(closed) > 0 {
		w.out.status()
	}
}
