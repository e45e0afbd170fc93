// Package cli provides the Cobra command structure for gslint.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dersebi/GoSublime/internal/configloader"
	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/internal/telemetry"
	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/lint"
)

// metricsInterval is how often metrics are exported while a long-running
// command (watch, serve) is active.
const metricsInterval = 30 * time.Second

// BuildInfo holds build-time version information.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// globalFlags are the persistent flags shared by all subcommands.
type globalFlags struct {
	debug      bool
	configPath string
	color      string
	metrics    string

	// Set by tests to replace the linter process.
	linter lint.Runner

	shutdownMetrics func(context.Context) error
	metricsFile     io.Closer
}

// NewRootCommand creates the root gslint command with all subcommands.
func NewRootCommand(info BuildInfo) *cobra.Command {
	return newRootCommand(info, &globalFlags{})
}

func newRootCommand(info BuildInfo, global *globalFlags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "gslint",
		Short: "Run a Go linter as you type and show what it reports",
		Long: `gslint runs a Go linter (gotype by default) over the package of the file you
are editing, shortly after you stop typing, and maps what the linter prints
back onto your source.

It can lint a tree once, watch a directory and relint files as they are
written, or serve diagnostics to editors over the Language Server Protocol.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if global.debug {
				logging.SetLevel("debug")
			}
			if global.color != "auto" && global.color != "always" && global.color != "never" {
				return fmt.Errorf("%w: --color must be auto, always or never, got %q", ErrUsage, global.color)
			}
			return global.startMetrics(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return global.stopMetrics(cmd.Context())
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&global.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&global.configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&global.color, "color", "auto",
		"colorize output: auto, always, never")
	rootCmd.PersistentFlags().StringVar(&global.metrics, "metrics", "",
		"write run metrics as JSON to this file (- for stderr)")

	rootCmd.AddCommand(newLintCommand(global))
	rootCmd.AddCommand(newWatchCommand(global))
	rootCmd.AddCommand(newServeCommand(global, info))
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newVersionCommand(info))

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})

	return rootCmd
}

// startMetrics installs the metrics exporter requested with --metrics.
func (g *globalFlags) startMetrics(cmd *cobra.Command) error {
	if g.metrics == "" {
		return nil
	}

	var w io.Writer = cmd.ErrOrStderr()
	if g.metrics != "-" {
		f, err := os.Create(g.metrics)
		if err != nil {
			return fmt.Errorf("open metrics file: %w", err)
		}
		g.metricsFile = f
		w = f
	}

	shutdown, err := telemetry.Setup(w, metricsInterval)
	if err != nil {
		return err
	}
	g.shutdownMetrics = shutdown
	return nil
}

// stopMetrics flushes and closes the metrics exporter.
func (g *globalFlags) stopMetrics(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	if g.shutdownMetrics != nil {
		errs = append(errs, g.shutdownMetrics(ctx))
		g.shutdownMetrics = nil
	}
	if g.metricsFile != nil {
		errs = append(errs, g.metricsFile.Close())
		g.metricsFile = nil
	}
	return errors.Join(errs...)
}

// loadConfig resolves the configuration for a command, with cliCfg holding
// values set by flags.
func (g *globalFlags) loadConfig(cmd *cobra.Command, workDir string, cliCfg *config.Config) (*config.Config, error) {
	logger := logging.Default()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	loadResult, err := configloader.Load(ctx, configloader.LoadOptions{
		WorkingDir:   workDir,
		ExplicitPath: g.configPath,
		CLIConfig:    cliCfg,
	})
	if err != nil {
		return nil, errors.Join(ErrConfig, err)
	}

	for _, warning := range loadResult.Warnings {
		logger.Warn(warning)
	}
	if len(loadResult.LoadedFrom) > 0 {
		logger.Debug("loaded configuration from", logging.FieldFiles, loadResult.LoadedFrom)
	}

	cfg := loadResult.Config
	logger.Debug("configuration loaded",
		logging.FieldCommand, cfg.Command(),
		"lint_timeout", cfg.LintTimeout,
		"lint_process_timeout", cfg.LintProcessTimeout,
		logging.FieldJobs, cfg.Jobs,
	)
	return cfg, nil
}

// lintCmdFlag registers --lint-cmd, which overrides lint_cmd when given.
// An empty value disables linting.
func lintCmdFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "lint-cmd", config.DefaultLintCmd, `linter executable ("" disables linting)`)
}

// applyLintCmd copies --lint-cmd into cfg when the flag was set.
func applyLintCmd(cmd *cobra.Command, value string, cfg *config.Config) {
	if cmd.Flags().Changed("lint-cmd") {
		cfg.LintCmd = &value
	}
}
