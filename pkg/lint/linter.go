package lint

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single linter process when Command.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Sentinel errors for error categorization via errors.Is.
var (
	// ErrDisabled is returned when no linter command is configured.
	ErrDisabled = errors.New("linter disabled")

	// ErrNotFound indicates the linter executable could not be found or is
	// not executable.
	ErrNotFound = errors.New("linter executable not found")

	// ErrLaunch indicates the linter process could not be started.
	ErrLaunch = errors.New("linter failed to start")

	// ErrTimeout indicates the linter did not finish within its timeout.
	ErrTimeout = errors.New("linter timed out")
)

// LinterError describes a failed linter invocation.
type LinterError struct {
	// Command is the executable name.
	Command string

	// Err is one of the sentinel errors, possibly wrapping the cause.
	Err error

	// Stderr holds whatever the process wrote before failing.
	Stderr string
}

// Error implements the error interface.
func (e *LinterError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

// Unwrap returns the underlying error.
func (e *LinterError) Unwrap() error {
	return e.Err
}

// Command describes how to invoke the linter.
// The process argv is Name, Args..., files...
type Command struct {
	Name    string
	Args    []string
	Timeout time.Duration

	// Dir is the working directory. Empty means the current directory.
	Dir string
}

// Enabled reports whether a linter command is configured.
func (c Command) Enabled() bool {
	return c.Name != ""
}

// Argv returns the full argument vector for files.
func (c Command) Argv(files []string) []string {
	argv := make([]string, 0, 1+len(c.Args)+len(files))
	argv = append(argv, c.Name)
	argv = append(argv, c.Args...)
	return append(argv, files...)
}

// Output is the captured result of one linter process.
type Output struct {
	// Stderr carries the diagnostics.
	Stderr string

	// Stdout is captured but not interpreted.
	Stdout string

	// ExitCode is the process exit status. Linters exit non-zero when they
	// report problems, so it is informational only.
	ExitCode int

	Duration time.Duration
}

// Diagnostics parses the diagnostics from the captured stderr.
func (o *Output) Diagnostics() []Diagnostic {
	if o == nil {
		return nil
	}
	return Parse(o.Stderr)
}

// Runner executes a linter command over a set of files.
type Runner interface {
	Run(ctx context.Context, cmd Command, files []string) (*Output, error)
}

// ExecRunner runs the linter as a child process.
type ExecRunner struct{}

// Run spawns the linter and waits for it. A non-zero exit status is not an
// error. Launch failures, timeouts and cancellation are returned as errors.
func (ExecRunner) Run(ctx context.Context, cmd Command, files []string) (*Output, error) {
	if !cmd.Enabled() {
		return nil, ErrDisabled
	}

	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := cmd.Argv(files)[1:]
	proc := exec.CommandContext(cmdCtx, cmd.Name, args...)
	proc.Dir = cmd.Dir
	// Grandchildren holding the pipes open must not outlive the timeout.
	proc.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	start := time.Now()
	err := proc.Run()
	out := &Output{
		Stderr:   stderr.String(),
		Stdout:   stdout.String(),
		Duration: time.Since(start),
	}

	if ctx.Err() != nil {
		return nil, fmt.Errorf("run %s: %w", cmd.Name, ctx.Err())
	}
	if errors.Is(cmdCtx.Err(), context.DeadlineExceeded) {
		return nil, &LinterError{Command: cmd.Name, Err: ErrTimeout, Stderr: out.Stderr}
	}

	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}

	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return nil, &LinterError{Command: cmd.Name, Err: fmt.Errorf("%w: %w", ErrNotFound, err), Stderr: out.Stderr}
	}
	return nil, &LinterError{Command: cmd.Name, Err: fmt.Errorf("%w: %w", ErrLaunch, err), Stderr: out.Stderr}
}
