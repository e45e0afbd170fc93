package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dersebi/GoSublime/internal/cli"
)

// linterScript writes an executable that prints one diagnostic per file
// argument to stderr, the way gotype does, and exits non-zero.
func linterScript(t *testing.T) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("shell script linter requires a POSIX shell")
	}

	path := filepath.Join(t.TempDir(), "fake-gotype")
	script := `#!/bin/sh
status=0
for f in "$@"; do
	case "$f" in
	-*) continue ;;
	esac
	if grep -q undefinedName "$f"; then
		line=$(grep -n undefinedName "$f" | head -n 1 | cut -d: -f1)
		echo "$f:$line:2: undefined: undefinedName" >&2
		status=1
	fi
done
exit $status
`
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := cli.NewRootCommand(testInfo)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestIntegration_LintWithLinterProcess(t *testing.T) {
	t.Parallel()

	linter := linterScript(t)
	dir := writeTree(t, map[string]string{
		"main.go":       "package main\n\nfunc main() {\n\tundefinedName()\n}\n",
		"util.go":       "package main\n\nfunc helper() {}\n",
		"clean/ok.go":   "package clean\n",
		"testdata/x.go": "package x\n\nvar _ = undefinedName\n",
	})

	out, err := runCLI(t, "--config", emptyConfig(t), "--color", "never",
		"lint", "--lint-cmd", linter, "--no-context", dir)

	require.ErrorIs(t, err, cli.ErrLintIssuesFound)
	assert.Contains(t, out, "main.go")
	assert.Contains(t, out, "4:2")
	assert.Contains(t, out, "undefined: undefinedName")
	assert.NotContains(t, out, "testdata", "testdata directories are skipped")
	assert.NotContains(t, out, "util.go:")
}

func TestIntegration_LintCleanTree(t *testing.T) {
	t.Parallel()

	linter := linterScript(t)
	dir := writeTree(t, map[string]string{
		"a.go": "package a\n\nfunc A() {}\n",
	})

	_, err := runCLI(t, "--config", emptyConfig(t), "lint", "--lint-cmd", linter, dir)
	assert.NoError(t, err)
}

func TestIntegration_LintArgsFromConfig(t *testing.T) {
	t.Parallel()

	linter := linterScript(t)
	dir := writeTree(t, map[string]string{
		"a.go": "package a\n\nvar _ = undefinedName\n",
	})
	cfgPath := filepath.Join(t.TempDir(), "gslint.toml")
	cfg := "lint_cmd = " + quoteTOML(linter) + "\nlint_args = [\"-e\"]\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	out, err := runCLI(t, "--config", cfgPath, "lint", "--format", "json", "--compact", dir)

	require.ErrorIs(t, err, cli.ErrLintIssuesFound)
	assert.Contains(t, out, `"message":"undefined: undefinedName"`)
	assert.Contains(t, out, `"line":3`)
	assert.NotContains(t, out, "\n  ", "compact output has no indentation")
}

func TestIntegration_MissingLinterExecutable(t *testing.T) {
	t.Parallel()

	dir := writeTree(t, map[string]string{"a.go": "package a\n"})
	missing := filepath.Join(t.TempDir(), "no-such-linter")

	_, err := runCLI(t, "--config", emptyConfig(t), "lint", "--lint-cmd", missing, dir)

	require.Error(t, err)
	assert.Equal(t, cli.ExitUnavailable, cli.ExitCodeFromError(err))
	assert.Contains(t, err.Error(), "no-such-linter")
}

func TestIntegration_InitCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		args         []string
		file         string
		wantContains []string
	}{
		{
			name:         "yaml by default",
			file:         ".gslint.yml",
			wantContains: []string{"# gslint configuration", "lint_cmd: gotype", "lint_timeout: 500"},
		},
		{
			name:         "toml from flag",
			args:         []string{"--format", "toml"},
			file:         ".gslint.toml",
			wantContains: []string{"# gslint configuration", `lint_cmd = "gotype"`, "lint_timeout = 500"},
		},
		{
			name:         "toml from extension",
			file:         "custom.toml",
			wantContains: []string{`lint_cmd = "gotype"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), tt.file)
			args := append([]string{"init", "--output", path}, tt.args...)

			_, err := runCLI(t, args...)
			require.NoError(t, err)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			for _, want := range tt.wantContains {
				assert.Contains(t, string(content), want)
			}
		})
	}
}

func TestIntegration_InitRefusesOverwrite(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".gslint.yml")
	require.NoError(t, os.WriteFile(path, []byte("lint_cmd: mine\n"), 0o644))

	_, err := runCLI(t, "init", "--output", path)
	require.ErrorIs(t, err, cli.ErrUsage)
	assert.Contains(t, err.Error(), "--force")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "lint_cmd: mine\n", string(content))

	_, err = runCLI(t, "init", "--output", path, "--force")
	require.NoError(t, err)

	content, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "lint_cmd: gotype")
}

func TestIntegration_InitFormatMismatch(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")

	_, err := runCLI(t, "init", "--output", path, "--format", "toml")
	require.ErrorIs(t, err, cli.ErrUsage)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestIntegration_GeneratedConfigLoads(t *testing.T) {
	t.Parallel()

	linter := linterScript(t)
	path := filepath.Join(t.TempDir(), ".gslint.yml")
	_, err := runCLI(t, "init", "--output", path)
	require.NoError(t, err)

	dir := writeTree(t, map[string]string{"a.go": "package a\n"})
	_, err = runCLI(t, "--config", path, "lint", "--lint-cmd", linter, dir)
	assert.NoError(t, err)
}

func quoteTOML(s string) string {
	return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
}
