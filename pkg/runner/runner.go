package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/internal/telemetry"
	"github.com/dersebi/GoSublime/pkg/fsutil"
	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/pkggroup"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

// Runner orchestrates one-shot linting using a lint.Runner.
type Runner struct {
	// Linter runs the external linter. Defaults to lint.ExecRunner.
	Linter lint.Runner

	// Metrics defaults to telemetry.Default().
	Metrics *telemetry.Metrics
}

// New creates a new Runner with the given linter.
func New(linter lint.Runner) *Runner {
	return &Runner{Linter: linter}
}

// Run discovers Go files under opts.Paths, groups them into packages and
// lints each package once, concurrently. Diagnostics are attributed to
// files by the path the linter printed.
//
// A linter that cannot be started aborts the run with an error wrapping
// lint.ErrNotFound or lint.ErrLaunch; other per-package failures are
// recorded on the package's files.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	logger := logging.FromContext(ctx)

	files, err := Discover(ctx, opts)
	if err != nil {
		return nil, err
	}

	result := &Result{Files: make([]FileOutcome, 0, len(files))}
	result.Stats.FilesDiscovered = len(files)
	logger.Debug("discovered files", logging.FieldFilesDiscovered, len(files))

	if len(files) == 0 {
		return result, nil
	}

	if !opts.command("").Enabled() {
		return nil, fmt.Errorf("lint_cmd is empty: %w", lint.ErrDisabled)
	}

	packages, err := pkggroup.Group(ctx, files, opts.effectiveExtensions())
	if err != nil {
		return nil, fmt.Errorf("group packages: %w", err)
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	// Don't use more workers than packages.
	if jobs > len(packages) {
		jobs = len(packages)
	}

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workCh := make(chan pkggroup.Package)
	outCh := make(chan packageOutcome)

	var wg sync.WaitGroup
	for range jobs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.worker(ctx, opts, workCh, outCh)
		}()
	}

	go func() {
		defer close(workCh)
		for _, pkg := range packages {
			select {
			case <-ctx.Done():
				return
			case workCh <- pkg:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outCh)
	}()

	// Workers may complete out of order; collect by path.
	outcomes := make(map[string]FileOutcome, len(files))
	var fatal error
	for out := range outCh {
		if out.fatal != nil && fatal == nil {
			fatal = out.fatal
			cancel()
		}
		if out.linted {
			result.Stats.PackagesLinted++
		}
		for _, fo := range out.files {
			outcomes[fo.Path] = fo
		}
	}

	if fatal != nil {
		return nil, fatal
	}

	for _, path := range files {
		if outcome, ok := outcomes[path]; ok {
			result.accumulate(outcome)
		}
	}

	if err := parent.Err(); err != nil {
		return result, fmt.Errorf("run cancelled: %w", err)
	}

	return result, nil
}

type packageOutcome struct {
	files  []FileOutcome
	linted bool
	fatal  error
}

// worker lints packages from workCh and sends outcomes to outCh.
func (r *Runner) worker(ctx context.Context, opts Options, workCh <-chan pkggroup.Package, outCh chan<- packageOutcome) {
	for pkg := range workCh {
		if ctx.Err() != nil {
			return
		}

		out := r.lintPackage(ctx, opts, pkg)

		select {
		case <-ctx.Done():
			return
		case outCh <- out:
		}
	}
}

func (r *Runner) lintPackage(ctx context.Context, opts Options, pkg pkggroup.Package) packageOutcome {
	ctx, logger := logging.WithFields(ctx,
		logging.FieldPackage, pkg.Name,
		logging.FieldWorkingDir, pkg.Dir,
	)

	linter := r.Linter
	if linter == nil {
		linter = lint.ExecRunner{}
	}
	metrics := r.Metrics
	if metrics == nil {
		metrics = telemetry.Default()
	}

	cmd := opts.command(pkg.Dir)
	start := time.Now()
	output, err := linter.Run(ctx, cmd, pkg.Files)
	if err != nil {
		outcome := outcomeOf(err)
		metrics.RecordRun(ctx, outcome, time.Since(start), 0)

		if outcome == telemetry.OutcomeNotFound || outcome == telemetry.OutcomeLaunch {
			return packageOutcome{fatal: err}
		}

		logger.Warn("lint failed", logging.FieldError, err)
		out := packageOutcome{}
		for _, file := range pkg.Files {
			out.files = append(out.files, FileOutcome{Path: file, Package: pkg.Name, Error: err})
		}
		return out
	}

	diagnostics := output.Diagnostics()
	metrics.RecordRun(ctx, telemetry.OutcomeOK, time.Since(start), len(diagnostics))
	logger.Debug("linter exited",
		logging.FieldExitCode, output.ExitCode,
		logging.FieldDiagnostics, len(diagnostics),
		logging.FieldDuration, output.Duration,
	)

	out := packageOutcome{linted: true}
	for i, file := range pkg.Files {
		out.files = append(out.files, attribute(ctx, file, pkg.Name, pkg.Dir, diagnostics, i == 0))
	}
	return out
}

// attribute builds the outcome of one file from its package's diagnostics.
// Diagnostics without a path go to the package's first file only.
func attribute(ctx context.Context, file, pkg, dir string, diagnostics []lint.Diagnostic, first bool) FileOutcome {
	outcome := FileOutcome{
		Path:        file,
		Package:     pkg,
		Diagnostics: lint.ForFile(diagnostics, file, dir),
	}

	if !first {
		kept := outcome.Diagnostics[:0]
		for _, d := range outcome.Diagnostics {
			if d.File != "" {
				kept = append(kept, d)
			}
		}
		outcome.Diagnostics = kept
	}
	if len(outcome.Diagnostics) == 0 {
		outcome.Diagnostics = nil
		return outcome
	}

	content, _, err := fsutil.ReadFile(ctx, file)
	if err != nil {
		logging.FromContext(ctx).Debug("cannot read file for regions", logging.FieldPath, file, logging.FieldError, err)
		return outcome
	}
	outcome.Index = textpos.New(string(content))
	outcome.Regions = textpos.Regions(outcome.Index, outcome.Diagnostics)
	return outcome
}

func outcomeOf(err error) telemetry.Outcome {
	switch {
	case errors.Is(err, lint.ErrNotFound):
		return telemetry.OutcomeNotFound
	case errors.Is(err, lint.ErrLaunch):
		return telemetry.OutcomeLaunch
	case errors.Is(err, lint.ErrTimeout):
		return telemetry.OutcomeTimeout
	default:
		return telemetry.OutcomeSkipped
	}
}
