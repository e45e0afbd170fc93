package lint_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dersebi/GoSublime/pkg/lint"
)

func TestForFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	target := filepath.Join(dir, "a.go")

	diagnostics := []lint.Diagnostic{
		{File: target, Line: 0, Message: "absolute match"},
		{File: "a.go", Line: 1, Message: "relative match"},
		{File: "./sub/../a.go", Line: 2, Message: "unclean match"},
		{File: "b.go", Line: 3, Message: "sibling"},
		{File: "", Line: 4, Message: "no file"},
	}

	got := lint.ForFile(diagnostics, target, dir)

	messages := make([]string, 0, len(got))
	for _, d := range got {
		messages = append(messages, d.Message)
	}
	assert.Equal(t, []string{"absolute match", "relative match", "unclean match", "no file"}, messages)
}

func TestForFile_Symlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	realDir := filepath.Join(dir, "realDir")
	require.NoError(t, os.Mkdir(realDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(realDir, "a.go"), []byte("package a\n"), 0644))

	link := filepath.Join(dir, "link")
	require.NoError(t, os.Symlink(realDir, link))

	got := lint.ForFile(
		[]lint.Diagnostic{{File: filepath.Join(realDir, "a.go"), Message: "via realDir path"}},
		filepath.Join(link, "a.go"),
		link,
	)
	require.Len(t, got, 1)
}

func TestForFile_Empty(t *testing.T) {
	t.Parallel()
	assert.Nil(t, lint.ForFile(nil, "a.go", ""))
}
