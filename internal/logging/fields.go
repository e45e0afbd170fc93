package logging

// Field name constants for structured logging.
// Using constants prevents typos and enables IDE autocomplete.
const (
	// Common fields.
	FieldError      = "error"
	FieldPath       = "path"
	FieldPaths      = "paths"
	FieldFiles      = "files"
	FieldWorkingDir = "working_dir"
	FieldDuration   = "duration"

	// Configuration fields.
	FieldConfig = "config"
	FieldJobs   = "jobs"
	FieldFormat = "format"

	// Lint run fields.
	FieldBuffer      = "buffer"
	FieldGeneration  = "generation"
	FieldRunID       = "run_id"
	FieldCommand     = "command"
	FieldDelay       = "delay"
	FieldScope       = "scope"
	FieldOutcome     = "outcome"
	FieldExitCode    = "exit_code"
	FieldDiagnostics = "diagnostics"
	FieldRegions     = "regions"
	FieldPackage     = "package"

	// Statistics fields.
	FieldFilesDiscovered  = "files_discovered"
	FieldPackagesLinted   = "packages_linted"
	FieldFilesWithIssues  = "files_with_issues"
	FieldDiagnosticsTotal = "diagnostics_total"

	// Protocol fields.
	FieldMethod = "method"
	FieldURI    = "uri"
	FieldEvent  = "event"

	// Version fields.
	FieldVersion = "version"
	FieldCommit  = "commit"
	FieldBuilt   = "built"
)
