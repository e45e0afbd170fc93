// Package config defines core configuration types for gslint.
// These types are pure data structures with no dependency on the loader.
package config

import (
	"strings"
	"time"
)

// Defaults for the recognized settings.
const (
	DefaultLintCmd            = "gotype"
	DefaultLintTimeout        = 500
	DefaultLintProcessTimeout = 10000
	DefaultExtension          = ".go"
)

// OutputFormat specifies the output format for diagnostics.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// Config is the root configuration structure for gslint.
type Config struct {
	// LintCmd is the linter executable. nil means the default; an empty
	// string disables linting.
	LintCmd *string `mapstructure:"lint_cmd" yaml:"lint_cmd,omitempty" toml:"lint_cmd,omitempty"`

	// LintArgs are passed to the linter before the file names.
	LintArgs []string `mapstructure:"lint_args" yaml:"lint_args,omitempty" toml:"lint_args,omitempty"`

	// LintTimeout is the quiet period in milliseconds after a code edit
	// before the linter runs.
	LintTimeout int `mapstructure:"lint_timeout" yaml:"lint_timeout" toml:"lint_timeout"`

	// LintProcessTimeout bounds one linter process, in milliseconds.
	LintProcessTimeout int `mapstructure:"lint_process_timeout" yaml:"lint_process_timeout" toml:"lint_process_timeout"`

	// Extensions selects the sibling files linted together, compared
	// case-insensitively.
	Extensions []string `mapstructure:"extensions" yaml:"extensions" toml:"extensions"`

	// Ignore contains glob patterns for files to skip during discovery.
	Ignore []string `mapstructure:"ignore" yaml:"ignore,omitempty" toml:"ignore,omitempty"`

	// CLI-level options (not persisted to config files).

	// Format specifies the output format.
	Format OutputFormat `mapstructure:"-" yaml:"-" toml:"-"`

	// Jobs specifies the number of parallel workers. 0 means GOMAXPROCS.
	Jobs int `mapstructure:"-" yaml:"-" toml:"-"`
}

// NewConfig returns a Config with sensible defaults.
func NewConfig() *Config {
	cmd := DefaultLintCmd
	return &Config{
		LintCmd:            &cmd,
		LintTimeout:        DefaultLintTimeout,
		LintProcessTimeout: DefaultLintProcessTimeout,
		Extensions:         []string{DefaultExtension},
		Format:             FormatText,
	}
}

// Command returns the configured linter command, applying the default.
func (c *Config) Command() string {
	if c.LintCmd == nil {
		return DefaultLintCmd
	}
	return *c.LintCmd
}

// Debounce returns LintTimeout as a duration.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.LintTimeout) * time.Millisecond
}

// ProcessTimeout returns LintProcessTimeout as a duration.
func (c *Config) ProcessTimeout() time.Duration {
	return time.Duration(c.LintProcessTimeout) * time.Millisecond
}

// HasExtension reports whether path ends in one of the configured
// extensions, ignoring case.
func HasExtension(path string, extensions []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range extensions {
		if ext != "" && strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
