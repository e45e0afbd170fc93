package reporter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/reporter"
	"github.com/dersebi/GoSublime/pkg/runner"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

const source = "package p\n\nfunc f() {\n  x := y\n}\n"

var workDir = filepath.FromSlash("/work/project")

func createTestResult() *runner.Result {
	ix := textpos.New(source)
	diags := []lint.Diagnostic{
		{File: "a.go", Line: 3, Column: 2, Message: "undefined: y"},
		{File: "a.go", Line: 40, Column: 0, Message: "past the end"},
	}

	return &runner.Result{
		Files: []runner.FileOutcome{
			{
				Path:        filepath.Join(workDir, "a.go"),
				Package:     "p",
				Diagnostics: diags,
				Regions:     textpos.Regions(ix, diags),
				Index:       ix,
			},
			{Path: filepath.Join(workDir, "b.go"), Package: "p"},
			{Path: filepath.Join(workDir, "sub", "c.go"), Package: "sub", Error: errors.New("linter timed out")},
		},
		Stats: runner.Stats{
			FilesDiscovered:  3,
			PackagesLinted:   1,
			FilesProcessed:   2,
			FilesErrored:     1,
			FilesWithIssues:  1,
			DiagnosticsTotal: 2,
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    reporter.Format
		wantErr bool
	}{
		{name: "empty defaults to text", input: "", want: reporter.FormatText},
		{name: "text", input: "text", want: reporter.FormatText},
		{name: "json", input: "json", want: reporter.FormatJSON},
		{name: "unknown format", input: "sarif", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := reporter.ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  reporter.Format
		wantErr bool
	}{
		{name: "text reporter", format: reporter.FormatText},
		{name: "json reporter", format: reporter.FormatJSON},
		{name: "empty defaults to text", format: ""},
		{name: "unknown format", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			rep, err := reporter.New(reporter.Options{Writer: &buf, Format: tt.format, Color: "never"})
			if tt.wantErr {
				require.Error(t, err)
				require.Nil(t, rep)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, rep)
		})
	}
}

func TestTextReporter_NilResult(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{Writer: &buf, Color: "never", ShowSummary: true})

	count, err := rep.Report(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Contains(t, buf.String(), "No files to check")
}

func TestTextReporter_WithDiagnostics(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{
		Writer:      &buf,
		Color:       "never",
		ShowSummary: true,
		ShowContext: true,
		WorkingDir:  workDir,
	})

	count, err := rep.Report(context.Background(), createTestResult())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	output := buf.String()
	assert.Contains(t, output, "a.go (2 issues)\n")
	assert.Contains(t, output, "  a.go:4:3  error  undefined: y\n")
	assert.Contains(t, output, "          x := y\n")
	assert.Contains(t, output, "          ^\n")
	assert.Contains(t, output, "  a.go:41:1  error  past the end\n")
	assert.Contains(t, output, filepath.Join("sub", "c.go")+": error: linter timed out")
	assert.NotContains(t, output, "b.go")
	assert.Contains(t, output, "2 issues in 1 file")
	assert.NotContains(t, output, workDir)
}

func TestTextReporter_NoContext(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewTextReporter(reporter.Options{Writer: &buf, Color: "never"})

	_, err := rep.Report(context.Background(), createTestResult())
	require.NoError(t, err)

	output := buf.String()
	assert.NotContains(t, output, "^")
	assert.NotContains(t, output, "issues in", "summary disabled")
	assert.Contains(t, output, filepath.Join(workDir, "a.go"), "paths stay absolute without a working dir")
}

func TestJSONReporter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewJSONReporter(reporter.Options{Writer: &buf, WorkingDir: workDir})

	count, err := rep.Report(context.Background(), createTestResult())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var output reporter.JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &output))

	assert.Equal(t, "1.0.0", output.Version)
	require.Len(t, output.Files, 3)

	a := output.Files[0]
	assert.Equal(t, "a.go", a.Path)
	assert.Equal(t, "p", a.Package)
	require.Len(t, a.Diagnostics, 2)

	first := a.Diagnostics[0]
	assert.Equal(t, "undefined: y", first.Message)
	assert.Equal(t, 4, first.Line)
	assert.Equal(t, 3, first.Column)
	require.NotNil(t, first.StartOffset)
	require.NotNil(t, first.EndOffset)
	assert.Equal(t, 24, *first.StartOffset)
	assert.Equal(t, 30, *first.EndOffset)

	assert.Nil(t, a.Diagnostics[1].StartOffset, "out-of-range diagnostics carry no offsets")

	assert.NotNil(t, output.Files[1].Diagnostics, "empty list, not null")
	assert.Equal(t, "linter timed out", output.Files[2].Error)

	assert.Equal(t, reporter.JSONSummary{
		FilesChecked:    3,
		FilesWithIssues: 1,
		FilesErrored:    1,
		PackagesLinted:  1,
		TotalIssues:     2,
	}, output.Summary)
}

func TestJSONReporter_Compact(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	rep := reporter.NewJSONReporter(reporter.Options{Writer: &buf, Compact: true})

	_, err := rep.Report(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
	assert.Contains(t, buf.String(), `"files":[]`)
}
