package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/lint"
	"github.com/dersebi/GoSublime/pkg/reporter"
	"github.com/dersebi/GoSublime/pkg/runner"
)

type lintFlags struct {
	format          string
	lintCmd         string
	ignore          []string
	noContext       bool
	compact         bool
	includeVendored bool
	followSymlinks  bool
}

func newLintCommand(global *globalFlags) *cobra.Command {
	var cfg config.Config
	flags := &lintFlags{}

	cmd := &cobra.Command{
		Use:   "lint [paths...]",
		Short: "Lint Go packages once",
		Long:  lintLongDescription,
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(cmd, args, global, &cfg, flags)
		},
	}

	addLintFlags(cmd, &cfg, flags)

	return cmd
}

const lintLongDescription = `Lint Go files once and report what the linter prints.

By default, lints every .go file below the current directory, skipping
hidden, underscore, testdata and vendored directories. Files are grouped
by directory and package clause, and the linter runs once per package.

Examples:
  gslint lint                       # Lint current directory
  gslint lint ./internal            # Lint one tree
  gslint lint main.go               # Lint the package of one file
  gslint lint --format json         # Output as JSON for CI
  gslint lint --lint-cmd go-vet-wrapper --jobs 4`

func runLint(cmd *cobra.Command, args []string, global *globalFlags, cfg *config.Config, flags *lintFlags) error {
	logger := logging.Default()

	format, err := reporter.ParseFormat(flags.format)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	if cfg.Jobs < 0 {
		return fmt.Errorf("%w: --jobs must be >= 0", ErrUsage)
	}

	// Only set values that were explicitly provided via CLI flags.
	if cmd.Flags().Changed("format") {
		cfg.Format = config.OutputFormat(flags.format)
	}
	cfg.Ignore = flags.ignore
	applyLintCmd(cmd, flags.lintCmd, cfg)

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	finalCfg, err := global.loadConfig(cmd, workDir, cfg)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("format") && finalCfg.Format != "" {
		if format, err = reporter.ParseFormat(string(finalCfg.Format)); err != nil {
			return errors.Join(ErrConfig, err)
		}
	}

	linter := global.linter
	if linter == nil {
		linter = lint.ExecRunner{}
	}
	lintRunner := runner.New(linter)

	runOpts := runner.Options{
		Paths:           args,
		WorkingDir:      workDir,
		ExcludeGlobs:    finalCfg.Ignore,
		IncludeVendored: flags.includeVendored,
		FollowSymlinks:  flags.followSymlinks,
		Jobs:            finalCfg.Jobs,
		Config:          finalCfg,
	}

	logger.Debug("starting lint run",
		logging.FieldPaths, runOpts.Paths,
		logging.FieldWorkingDir, runOpts.WorkingDir,
		logging.FieldJobs, runOpts.Jobs,
	)

	ctx := logging.WithLogger(cmd.Context(), logger)
	result, err := lintRunner.Run(ctx, runOpts)
	if err != nil {
		return fmt.Errorf("lint run failed: %w", err)
	}

	logger.Debug("lint run finished",
		logging.FieldFilesDiscovered, result.Stats.FilesDiscovered,
		logging.FieldPackagesLinted, result.Stats.PackagesLinted,
		logging.FieldFilesWithIssues, result.Stats.FilesWithIssues,
		logging.FieldDiagnosticsTotal, result.Stats.DiagnosticsTotal,
	)

	rep, err := reporter.New(reporter.Options{
		Writer:      cmd.OutOrStdout(),
		Format:      format,
		Color:       global.color,
		ShowContext: !flags.noContext,
		ShowSummary: true,
		Compact:     flags.compact,
		WorkingDir:  workDir,
	})
	if err != nil {
		return fmt.Errorf("create reporter: %w", err)
	}

	if _, err := rep.Report(ctx, result); err != nil {
		logger.Error("report failed", logging.FieldError, err)
		return fmt.Errorf("report results: %w", err)
	}

	if ExitCodeFromResult(result) != ExitSuccess {
		return ErrLintIssuesFound
	}

	return nil
}

func addLintFlags(cmd *cobra.Command, cfg *config.Config, flags *lintFlags) {
	cmd.Flags().StringVar(&flags.format, "format", "text", "output format: text, json")
	cmd.Flags().IntVar(&cfg.Jobs, "jobs", 0, "number of parallel linter processes (0 = auto)")
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "glob patterns to ignore")
	lintCmdFlag(cmd, &flags.lintCmd)
	cmd.Flags().BoolVar(&flags.noContext, "no-context", false, "hide source line context in output")
	cmd.Flags().BoolVar(&flags.compact, "compact", false, "minify JSON output")
	cmd.Flags().BoolVar(&flags.includeVendored, "include-vendored", false, "lint vendored directories too")
	cmd.Flags().BoolVar(&flags.followSymlinks, "follow-symlinks", false, "follow directory symlinks")
}
