package cli

import (
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/internal/lsp"
	"github.com/dersebi/GoSublime/pkg/config"
)

type serveFlags struct {
	lintCmd string
}

// stdio joins stdin and stdout into the connection an LSP client speaks on.
type stdio struct {
	io.Reader
	io.Writer
}

func (stdio) Close() error {
	return nil
}

func newServeCommand(global *globalFlags, info BuildInfo) *cobra.Command {
	flags := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve diagnostics to editors over LSP (stdio)",
		Long: `Run a Language Server Protocol server on stdin and stdout.

Opened Go documents are linted after the lint_timeout quiet period following
each change, and the results are published as diagnostics. Settings can be
overridden by the client through initializationOptions or
workspace/didChangeConfiguration, either flat or under a "gslint" key.

Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, global, flags, info)
		},
	}

	lintCmdFlag(cmd, &flags.lintCmd)

	return cmd
}

func runServe(cmd *cobra.Command, global *globalFlags, flags *serveFlags, info BuildInfo) error {
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), "info")
	if global.debug {
		logger = logging.NewWithWriter(cmd.ErrOrStderr(), "debug")
	}

	cliCfg := &config.Config{}
	applyLintCmd(cmd, flags.lintCmd, cliCfg)

	cfg, err := global.loadConfig(cmd, "", cliCfg)
	if err != nil {
		return err
	}

	server := lsp.New(lsp.Options{
		Settings: cfg,
		Version:  info.Version,
		Runner:   global.linter,
		Logger:   logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("serving LSP on stdio", logging.FieldVersion, info.Version)
	return server.Serve(ctx, stdio{Reader: cmd.InOrStdin(), Writer: cmd.OutOrStdout()})
}
