package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/internal/watch"
	"github.com/dersebi/GoSublime/pkg/config"
)

type watchFlags struct {
	lintCmd         string
	ignore          []string
	includeVendored bool
	noClear         bool
}

func newWatchCommand(global *globalFlags) *cobra.Command {
	flags := &watchFlags{}

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Relint Go files as they are written",
		Long: `Watch a directory tree and relint the package of every Go file that is
written, after the lint_timeout quiet period. Removed files are dropped.

On a terminal the report is redrawn in place; otherwise updates are
appended as they arrive.

Examples:
  gslint watch
  gslint watch ./cmd --ignore 'gen/**'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args, global, flags)
		},
	}

	lintCmdFlag(cmd, &flags.lintCmd)
	cmd.Flags().StringSliceVar(&flags.ignore, "ignore", nil, "glob patterns to ignore")
	cmd.Flags().BoolVar(&flags.includeVendored, "include-vendored", false, "watch vendored directories too")
	cmd.Flags().BoolVar(&flags.noClear, "no-clear", false, "append updates instead of redrawing the screen")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string, global *globalFlags, flags *watchFlags) error {
	logger := logging.Default()

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrUsage, dir)
	}

	cliCfg := &config.Config{Ignore: flags.ignore}
	applyLintCmd(cmd, flags.lintCmd, cliCfg)

	finalCfg, err := global.loadConfig(cmd, dir, cliCfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	clearScreen, width := false, 0
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		clearScreen = !flags.noClear
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = w
		}
	}

	w, err := watch.New(watch.Config{
		BaseDir:         dir,
		Settings:        finalCfg,
		Ignore:          finalCfg.Ignore,
		IncludeVendored: flags.includeVendored,
		Runner:          global.linter,
		Logger:          logger,
		Stdout:          out,
		Color:           global.color,
		ClearScreen:     clearScreen,
		Width:           width,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("watching", logging.FieldPath, dir, logging.FieldCommand, finalCfg.Command())
	return w.Run(logging.WithLogger(ctx, logger))
}
