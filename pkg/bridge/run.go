package bridge

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/internal/telemetry"
	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/pkggroup"
	"github.com/dersebi/GoSublime/pkg/scheduler"
	"github.com/dersebi/GoSublime/pkg/session"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

// command builds the linter invocation from the current settings.
func (b *Bridge) command() lint.Command {
	return lint.Command{
		Name:    config.String(b.settings, config.KeyLintCmd, config.DefaultLintCmd),
		Args:    config.Strings(b.settings, config.KeyLintArgs, nil),
		Timeout: config.Millis(b.settings, config.KeyLintProcessTimeout, lint.DefaultTimeout),
	}
}

// run is the scheduler work function. It executes on a worker goroutine.
func (b *Bridge) run(task scheduler.Task[session.BufferID]) {
	ctx, logger := logging.WithFields(b.ctx,
		logging.FieldBuffer, task.Key,
		logging.FieldGeneration, task.Generation,
		logging.FieldRunID, uuid.NewString(),
	)

	start := time.Now()
	outcome, count := b.lint(ctx, logger, task)
	b.metrics.RecordRun(ctx, outcome, time.Since(start), count)

	logger.Debug("lint finished",
		logging.FieldOutcome, outcome,
		logging.FieldDiagnostics, count,
		logging.FieldDuration, time.Since(start),
	)
}

func (b *Bridge) lint(ctx context.Context, logger *log.Logger, task scheduler.Task[session.BufferID]) (telemetry.Outcome, int) {
	id := task.Key

	file := b.host.FileName(id)
	if file == "" {
		return telemetry.OutcomeSkipped, 0
	}

	cmd := b.command()
	if !cmd.Enabled() {
		return b.clear(task, telemetry.OutcomeDisabled), 0
	}

	extensions := config.Strings(b.settings, config.KeyExtensions, []string{config.DefaultExtension})
	files, err := pkggroup.Siblings(ctx, file, extensions)
	if err != nil {
		// Keep the previous diagnostics; the next successful run replaces them.
		logger.Warn("cannot collect package files", logging.FieldPath, file, logging.FieldError, err)
		return telemetry.OutcomeIOError, 0
	}

	cmd.Dir = filepath.Dir(file)
	logger.Debug("running linter",
		logging.FieldCommand, cmd.Argv(nil),
		logging.FieldFiles, len(files),
		logging.FieldWorkingDir, cmd.Dir,
	)

	out, err := b.runner.Run(ctx, cmd, files)
	switch {
	case err == nil:
	case errors.Is(err, lint.ErrNotFound):
		b.notifyOnce(cmd.Name, launchMessage(cmd.Name, err))
		logger.Warn("linter not available", logging.FieldCommand, cmd.Name, logging.FieldError, err)
		return b.clear(task, telemetry.OutcomeNotFound), 0
	case errors.Is(err, lint.ErrLaunch):
		b.notifyOnce(cmd.Name, launchMessage(cmd.Name, err))
		logger.Warn("linter failed to start", logging.FieldCommand, cmd.Name, logging.FieldError, err)
		return b.clear(task, telemetry.OutcomeLaunch), 0
	case errors.Is(err, lint.ErrTimeout):
		logger.Warn("linter timed out", logging.FieldCommand, cmd.Name, logging.FieldDuration, cmd.Timeout)
		return b.clear(task, telemetry.OutcomeTimeout), 0
	default:
		// Cancelled by Close; nothing to publish.
		logger.Debug("lint aborted", logging.FieldError, err)
		return telemetry.OutcomeSkipped, 0
	}

	diagnostics := lint.ForFile(out.Diagnostics(), file, cmd.Dir)
	logger.Debug("linter exited",
		logging.FieldExitCode, out.ExitCode,
		logging.FieldDiagnostics, len(diagnostics),
	)

	if !b.sched.Commit(task, func() { b.publish(id, diagnostics) }) {
		return telemetry.OutcomeSuperseded, len(diagnostics)
	}
	return telemetry.OutcomeOK, len(diagnostics)
}

// clear publishes an empty result, reporting outcome unless superseded.
func (b *Bridge) clear(task scheduler.Task[session.BufferID], outcome telemetry.Outcome) telemetry.Outcome {
	if !b.sched.Commit(task, func() { b.publish(task.Key, nil) }) {
		return telemetry.OutcomeSuperseded
	}
	return outcome
}

// publish replaces the stored state and pushes it to the host. It runs
// under the buffer's commit lock.
func (b *Bridge) publish(id session.BufferID, diagnostics []lint.Diagnostic) {
	text, hasText := b.host.Text(id)
	ix := textpos.New(text)

	entries := make([]Entry, 0, len(diagnostics))
	var regions []textpos.Region
	for _, d := range diagnostics {
		entry := Entry{Diagnostic: d}
		if hasText {
			entry.Region, entry.HasRegion = textpos.ToRegion(ix, d)
		}
		if entry.HasRegion {
			regions = append(regions, entry.Region)
		}
		entries = append(entries, entry)
	}

	b.store.Replace(id, diagnostics, regions)

	if len(regions) > 0 {
		b.host.SetRegions(id, RegionKey, regions, ErrorStyle)
	} else {
		b.host.ClearRegions(id, RegionKey)
	}
	if publisher, ok := b.host.(Publisher); ok {
		publisher.Publish(id, ix, entries)
	}

	if caret, ok := b.host.Caret(id); ok && hasText {
		line := ix.LineOf(caret)
		b.host.SetStatus(id, StatusKey, StatusText(b.store.DiagnosticAt(id, line)))
	}
}
