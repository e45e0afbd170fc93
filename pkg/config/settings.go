package config

import (
	"time"
)

// Setting keys understood by the lint bridge.
const (
	KeyLintCmd            = "lint_cmd"
	KeyLintArgs           = "lint_args"
	KeyLintTimeout        = "lint_timeout"
	KeyLintProcessTimeout = "lint_process_timeout"
	KeyExtensions         = "extensions"
)

// Settings looks up a setting by key, returning def when it is not set.
// Implementations must be safe for concurrent use.
type Settings interface {
	Get(key string, def any) any
}

// Get implements Settings.
func (c *Config) Get(key string, def any) any {
	if c == nil {
		return def
	}
	switch key {
	case KeyLintCmd:
		if c.LintCmd == nil {
			return def
		}
		return *c.LintCmd
	case KeyLintArgs:
		if c.LintArgs == nil {
			return def
		}
		return c.LintArgs
	case KeyLintTimeout:
		return c.LintTimeout
	case KeyLintProcessTimeout:
		return c.LintProcessTimeout
	case KeyExtensions:
		if len(c.Extensions) == 0 {
			return def
		}
		return c.Extensions
	default:
		return def
	}
}

// Map is a Settings backed by a plain map, as decoded from JSON or YAML.
type Map map[string]any

// Get implements Settings.
func (m Map) Get(key string, def any) any {
	if v, ok := m[key]; ok && v != nil {
		return v
	}
	return def
}

// Overlay returns Settings that consult overrides before base.
func Overlay(base Settings, overrides Settings) Settings {
	return overlay{base: base, overrides: overrides}
}

type overlay struct {
	base      Settings
	overrides Settings
}

// missing is a private sentinel for "not set" lookups.
type missing struct{}

func (o overlay) Get(key string, def any) any {
	if o.overrides != nil {
		if v := o.overrides.Get(key, missing{}); v != (missing{}) {
			return v
		}
	}
	if o.base == nil {
		return def
	}
	return o.base.Get(key, def)
}

// String reads a string setting.
func String(s Settings, key, def string) string {
	if v, ok := s.Get(key, def).(string); ok {
		return v
	}
	return def
}

// Int reads an integer setting. Decoders produce several numeric types, so
// all of them are accepted.
func Int(s Settings, key string, def int) int {
	switch v := s.Get(key, def).(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case uint64:
		return int(v)
	default:
		return def
	}
}

// Millis reads a millisecond setting as a duration. Negative values yield def.
func Millis(s Settings, key string, def time.Duration) time.Duration {
	ms := Int(s, key, int(def/time.Millisecond))
	if ms < 0 {
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

// Strings reads a list-of-strings setting.
func Strings(s Settings, key string, def []string) []string {
	switch v := s.Get(key, def).(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return def
			}
			out = append(out, str)
		}
		return out
	default:
		return def
	}
}
