// Package runner provides one-shot linting of a set of Go files: discovery,
// grouping into packages, and a worker pool running the linter per package.
package runner

import (
	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/lint"
)

// Options controls a one-shot lint run.
type Options struct {
	// Paths are the user-specified paths (files or directories) to process.
	// If empty, defaults to the current working directory.
	Paths []string

	// WorkingDir is the base directory used to resolve relative Paths.
	// If empty, the current process working directory is used.
	WorkingDir string

	// Extensions is the set of file extensions considered Go source.
	// Defaults to the config extensions, then DefaultExtensions().
	Extensions []string

	// ExcludeGlobs are glob patterns used to skip files or directories.
	// These merge ignore rules from config and CLI (e.g. --ignore).
	ExcludeGlobs []string

	// IncludeVendored disables the vendored-path filter.
	IncludeVendored bool

	// FollowSymlinks controls whether directory symlinks are traversed.
	FollowSymlinks bool

	// Jobs controls the maximum number of concurrent linter processes.
	// 0 or negative means "auto" (runtime.NumCPU()).
	Jobs int

	// Config is the resolved configuration for this run.
	Config *config.Config
}

// DefaultExtensions returns the default set of Go file extensions.
func DefaultExtensions() []string {
	return []string{config.DefaultExtension}
}

// effectiveExtensions returns the extensions to use, defaulting if empty.
func (o Options) effectiveExtensions() []string {
	if len(o.Extensions) > 0 {
		return o.Extensions
	}
	if o.Config != nil && len(o.Config.Extensions) > 0 {
		return o.Config.Extensions
	}
	return DefaultExtensions()
}

// effectivePaths returns the paths to process, defaulting to "." if empty.
func (o Options) effectivePaths() []string {
	if len(o.Paths) == 0 {
		return []string{"."}
	}
	return o.Paths
}

// command builds the linter invocation for a package directory.
func (o Options) command(dir string) lint.Command {
	cfg := o.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	timeout := cfg.ProcessTimeout()
	if timeout <= 0 {
		timeout = lint.DefaultTimeout
	}
	return lint.Command{
		Name:    cfg.Command(),
		Args:    cfg.LintArgs,
		Timeout: timeout,
		Dir:     dir,
	}
}
