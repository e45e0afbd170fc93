package runner

import (
	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/textpos"
)

// FileOutcome holds the diagnostics attributed to one file.
type FileOutcome struct {
	// Path is the file path that was processed.
	Path string

	// Package is the declared package name.
	Package string

	// Diagnostics are the linter's reports for this file, in output order.
	Diagnostics []lint.Diagnostic

	// Regions are the highlight ranges of Diagnostics that fall inside the
	// file. Out-of-range diagnostics have no region.
	Regions []textpos.Region

	// Index is the position index of the file content as linted. It is nil
	// when the file could not be read.
	Index *textpos.Index

	// Error is set if the file's package could not be linted.
	Error error
}

// Stats captures aggregate information about a run.
type Stats struct {
	// FilesDiscovered is the total number of files found during discovery.
	FilesDiscovered int

	// PackagesLinted is the number of linter invocations that completed.
	PackagesLinted int

	// FilesProcessed is the number of files with a completed lint.
	FilesProcessed int

	// FilesErrored is the number of files whose package failed to lint.
	FilesErrored int

	// FilesWithIssues is the number of files with at least one diagnostic.
	FilesWithIssues int

	// DiagnosticsTotal is the total number of diagnostics across all files.
	DiagnosticsTotal int
}

// Result is the overall runner result.
type Result struct {
	// Files contains the outcome for each processed file.
	// Files are ordered deterministically (by path).
	Files []FileOutcome

	// Stats contains aggregate statistics for the run.
	Stats Stats

	// Errors contains any non-file-specific errors encountered.
	Errors []error
}

// HasIssues reports whether any diagnostics were found.
func (r *Result) HasIssues() bool {
	if r == nil {
		return false
	}
	return r.Stats.DiagnosticsTotal > 0
}

// HasErrors reports whether any file failed to lint.
func (r *Result) HasErrors() bool {
	if r == nil {
		return false
	}
	return r.Stats.FilesErrored > 0 || len(r.Errors) > 0
}

// accumulate updates the result with a file outcome.
func (r *Result) accumulate(outcome FileOutcome) {
	r.Files = append(r.Files, outcome)

	if outcome.Error != nil {
		r.Stats.FilesErrored++
		return
	}

	r.Stats.FilesProcessed++

	count := len(outcome.Diagnostics)
	r.Stats.DiagnosticsTotal += count
	if count > 0 {
		r.Stats.FilesWithIssues++
	}
}
