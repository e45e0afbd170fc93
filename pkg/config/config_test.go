package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dersebi/GoSublime/pkg/config"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	assert.Equal(t, "gotype", cfg.Command())
	assert.Equal(t, 500*time.Millisecond, cfg.Debounce())
	assert.Equal(t, 10*time.Second, cfg.ProcessTimeout())
	assert.Equal(t, []string{".go"}, cfg.Extensions)
	assert.Equal(t, config.FormatText, cfg.Format)

	var unset config.Config
	assert.Equal(t, "gotype", unset.Command())
}

func TestHasExtension(t *testing.T) {
	t.Parallel()

	exts := []string{".go"}
	assert.True(t, config.HasExtension("main.go", exts))
	assert.True(t, config.HasExtension("MAIN.GO", exts))
	assert.False(t, config.HasExtension("main.gox", exts))
	assert.False(t, config.HasExtension("main.go", nil))
	assert.False(t, config.HasExtension("main.go", []string{""}))
}

func TestConfig_Settings(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.LintArgs = []string{"-e"}

	assert.Equal(t, "gotype", config.String(cfg, config.KeyLintCmd, "x"))
	assert.Equal(t, []string{"-e"}, config.Strings(cfg, config.KeyLintArgs, nil))
	assert.Equal(t, 500*time.Millisecond, config.Millis(cfg, config.KeyLintTimeout, time.Second))
	assert.Equal(t, "def", cfg.Get("unknown", "def"))

	var unset config.Config
	assert.Equal(t, "gotype", config.String(&unset, config.KeyLintCmd, config.DefaultLintCmd))
	assert.Equal(t, []string{".go"}, config.Strings(&unset, config.KeyExtensions, []string{".go"}))

	var nilCfg *config.Config
	assert.Equal(t, 7, nilCfg.Get("lint_timeout", 7))
}

func TestMapAndOverlay(t *testing.T) {
	t.Parallel()

	base := config.NewConfig()
	overrides := config.Map{
		"lint_cmd":     "golint",
		"lint_timeout": float64(100),
		"lint_args":    []any{"-min_confidence", "0.8"},
		"extensions":   nil,
	}
	settings := config.Overlay(base, overrides)

	assert.Equal(t, "golint", config.String(settings, config.KeyLintCmd, ""))
	assert.Equal(t, 100*time.Millisecond, config.Millis(settings, config.KeyLintTimeout, 0))
	assert.Equal(t, []string{"-min_confidence", "0.8"}, config.Strings(settings, config.KeyLintArgs, nil))
	assert.Equal(t, []string{".go"}, config.Strings(settings, config.KeyExtensions, nil), "nil override falls through")
	assert.Equal(t, 10*time.Second, config.Millis(settings, config.KeyLintProcessTimeout, 0))

	assert.Equal(t, "d", config.Overlay(nil, nil).Get("x", "d"))
}

func TestSettingsTypeMismatch(t *testing.T) {
	t.Parallel()

	settings := config.Map{
		"lint_cmd":     42,
		"lint_timeout": "soon",
		"lint_args":    []any{"ok", 3},
	}
	assert.Equal(t, "gotype", config.String(settings, config.KeyLintCmd, "gotype"))
	assert.Equal(t, 500*time.Millisecond, config.Millis(settings, config.KeyLintTimeout, 500*time.Millisecond))
	assert.Nil(t, config.Strings(settings, config.KeyLintArgs, nil))

	negative := config.Map{"lint_timeout": -1}
	assert.Equal(t, time.Second, config.Millis(negative, config.KeyLintTimeout, time.Second))
}
