package reporter

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dersebi/GoSublime/pkg/runner"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

// jsonVersion is bumped when the JSON layout changes incompatibly.
const jsonVersion = "1.0.0"

// JSONOutput is the top-level JSON structure.
type JSONOutput struct {
	Version string           `json:"version"`
	Files   []JSONFileResult `json:"files"`
	Summary JSONSummary      `json:"summary"`
}

// JSONFileResult represents a single file's results.
type JSONFileResult struct {
	Path        string           `json:"path"`
	Package     string           `json:"package,omitempty"`
	Diagnostics []JSONDiagnostic `json:"diagnostics"`
	Error       string           `json:"error,omitempty"`
}

// JSONDiagnostic represents a single diagnostic. Lines and columns are
// 1-based as the linter printed them; offsets are character offsets into
// the file and are omitted when the position lies outside it.
type JSONDiagnostic struct {
	Message     string `json:"message"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	StartOffset *int   `json:"startOffset,omitempty"`
	EndOffset   *int   `json:"endOffset,omitempty"`
}

// JSONSummary contains aggregate statistics.
type JSONSummary struct {
	FilesChecked    int `json:"filesChecked"`
	FilesWithIssues int `json:"filesWithIssues"`
	FilesErrored    int `json:"filesErrored"`
	PackagesLinted  int `json:"packagesLinted"`
	TotalIssues     int `json:"totalIssues"`
}

// JSONReporter formats results as JSON.
type JSONReporter struct {
	opts Options
	bw   *bufio.Writer
}

// NewJSONReporter creates a new JSON reporter.
func NewJSONReporter(opts Options) *JSONReporter {
	return &JSONReporter{
		opts: opts,
		bw:   bufio.NewWriterSize(opts.Writer, bufWriterSize),
	}
}

// Report implements Reporter.
func (r *JSONReporter) Report(_ context.Context, result *runner.Result) (_ int, err error) {
	defer func() {
		if flushErr := r.bw.Flush(); err == nil {
			err = flushErr
		}
	}()

	output := r.buildOutput(result)

	encoder := json.NewEncoder(r.bw)
	if !r.opts.Compact {
		encoder.SetIndent("", "  ")
	}

	if err := encoder.Encode(output); err != nil {
		return 0, fmt.Errorf("encode JSON: %w", err)
	}

	return output.Summary.TotalIssues, nil
}

func (r *JSONReporter) buildOutput(result *runner.Result) *JSONOutput {
	output := &JSONOutput{
		Version: jsonVersion,
		Files:   make([]JSONFileResult, 0),
	}

	if result == nil {
		return output
	}
	output.Summary.PackagesLinted = result.Stats.PackagesLinted

	for _, file := range result.Files {
		fileResult := JSONFileResult{
			Path:        r.opts.displayPath(file.Path),
			Package:     file.Package,
			Diagnostics: make([]JSONDiagnostic, 0, len(file.Diagnostics)),
		}

		if file.Error != nil {
			fileResult.Error = file.Error.Error()
			output.Summary.FilesErrored++
		}

		for _, diag := range file.Diagnostics {
			jsonDiag := JSONDiagnostic{
				Message: diag.Message,
				Line:    diag.Line + 1,
				Column:  diag.Column + 1,
			}
			if file.Index != nil {
				if region, ok := textpos.ToRegion(file.Index, diag); ok {
					jsonDiag.StartOffset, jsonDiag.EndOffset = &region.Start, &region.End
				}
			}

			fileResult.Diagnostics = append(fileResult.Diagnostics, jsonDiag)
			output.Summary.TotalIssues++
		}

		if len(fileResult.Diagnostics) > 0 {
			output.Summary.FilesWithIssues++
		}

		output.Files = append(output.Files, fileResult)
		output.Summary.FilesChecked++
	}

	return output
}
