// Package bridge connects an editor host to the lint pipeline: it debounces
// edit notifications, runs the linter over the edited file's package off
// the notification path, and publishes regions and status messages for the
// newest run only.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/internal/telemetry"
	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/lexscope"
	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/scheduler"
	"github.com/dersebi/GoSublime/pkg/session"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

// Options configures a Bridge. Zero values select the defaults.
type Options struct {
	// Settings supplies lint_cmd, lint_args, lint_timeout,
	// lint_process_timeout and extensions. Defaults to config.NewConfig().
	Settings config.Settings

	// Runner runs the linter. Defaults to lint.ExecRunner.
	Runner lint.Runner

	// Logger defaults to logging.Default().
	Logger *log.Logger

	// Metrics defaults to telemetry.Default().
	Metrics *telemetry.Metrics

	// Execute runs lint work. Defaults to a new goroutine per run.
	Execute scheduler.Executor
}

// Bridge is safe for concurrent use.
type Bridge struct {
	host     Host
	settings config.Settings
	runner   lint.Runner
	logger   *log.Logger
	metrics  *telemetry.Metrics

	store *session.Store
	sched *scheduler.Scheduler[session.BufferID]

	ctx    context.Context
	cancel context.CancelFunc

	notifiedMu sync.Mutex
	notified   map[string]bool
}

// New creates a bridge serving host.
func New(host Host, opts Options) *Bridge {
	b := &Bridge{
		host:     host,
		settings: opts.Settings,
		runner:   opts.Runner,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		store:    session.NewStore(),
		notified: make(map[string]bool),
	}
	if b.settings == nil {
		b.settings = config.NewConfig()
	}
	if b.runner == nil {
		b.runner = lint.ExecRunner{}
	}
	if b.logger == nil {
		b.logger = logging.Default()
	}
	if b.metrics == nil {
		b.metrics = telemetry.Default()
	}

	b.ctx, b.cancel = context.WithCancel(logging.WithLogger(context.Background(), b.logger))

	b.sched = scheduler.New(b.run, scheduler.Options[session.BufferID]{
		After:   host.After,
		Execute: opts.Execute,
		OnStale: func(task scheduler.Task[session.BufferID]) {
			b.metrics.RecordStale(b.ctx)
		},
	})

	return b
}

// Close stops in-flight linter processes. Results of runs that are still
// going are discarded by the commit check once their buffers are closed.
func (b *Bridge) Close() {
	b.cancel()
}

// Store exposes the diagnostic store for read access.
func (b *Bridge) Store() *session.Store {
	return b.store
}

// OnModified schedules a lint for an edited buffer. Edits outside Go
// source are ignored; edits inside strings and comments use the longer
// ExcludedScopeDelay.
func (b *Bridge) OnModified(ev EditEvent) {
	if !ev.Scope.Lintable() {
		return
	}

	delay := config.Millis(b.settings, config.KeyLintTimeout, config.DefaultLintTimeout*time.Millisecond)
	if ev.Scope.Excluded() {
		delay = ExcludedScopeDelay
	}

	task := b.sched.Trigger(ev.Buffer, delay)
	b.logger.Debug("lint scheduled",
		logging.FieldBuffer, ev.Buffer,
		logging.FieldGeneration, task.Generation,
		logging.FieldScope, ev.Scope,
		logging.FieldDelay, delay,
	)
}

// OnLoad handles a newly opened buffer like an edit.
func (b *Bridge) OnLoad(ev EditEvent) {
	b.OnModified(ev)
}

// OnSelectionModified shows the diagnostic on the caret line, if any.
func (b *Bridge) OnSelectionModified(ev SelectionEvent) {
	if ev.Scope == lexscope.Foreign {
		return
	}
	text, ok := b.host.Text(ev.Buffer)
	if !ok {
		return
	}
	line := textpos.New(text).LineOf(ev.Caret)
	b.host.SetStatus(ev.Buffer, StatusKey, StatusText(b.StatusFor(ev.Buffer, line)))
}

// OnClose forgets everything about a buffer. It waits for an in-flight
// commit on the buffer; once it returns the host receives no further
// updates for id.
func (b *Bridge) OnClose(id session.BufferID) {
	b.sched.Forget(id)
	b.store.Forget(id)
	b.logger.Debug("buffer closed", logging.FieldBuffer, id)
}

// StatusFor returns the diagnostic message on a 0-based line, or "".
func (b *Bridge) StatusFor(id session.BufferID, line int) string {
	return b.store.DiagnosticAt(id, line)
}

// State reports the scheduling state of a buffer.
func (b *Bridge) State(id session.BufferID) scheduler.State {
	return b.sched.State(id)
}

// notifyOnce shows message once per key for the lifetime of the bridge.
func (b *Bridge) notifyOnce(key, message string) {
	b.notifiedMu.Lock()
	seen := b.notified[key]
	b.notified[key] = true
	b.notifiedMu.Unlock()

	if !seen {
		b.host.Notify(message)
	}
}

func launchMessage(cmd string, err error) string {
	return fmt.Sprintf("%scannot run %q (%v); install it or set lint_cmd (\"\" disables linting)", StatusPrefix, cmd, err)
}
