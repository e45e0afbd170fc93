package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dersebi/GoSublime/internal/configloader"
	"github.com/dersebi/GoSublime/internal/logging"
	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/fsutil"
)

// configFilePermissions is the file mode for configuration files (world-readable).
const configFilePermissions = 0644

// initFlags holds the flags for the init command.
type initFlags struct {
	force  bool
	format string
	output string
}

func newInitCommand() *cobra.Command {
	flags := &initFlags{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new gslint configuration file",
		Long: `Create a new .gslint.yml configuration file in the current directory
holding the default settings, ready to be edited.

Examples:
  gslint init                       Create .gslint.yml
  gslint init --format toml         Create .gslint.toml instead
  gslint init --output custom.yml   Write to a custom file path`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd, flags)
		},
	}

	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Overwrite existing configuration file")
	cmd.Flags().StringVar(&flags.format, "format", "", "Output format: yaml or toml (default: from --output, else yaml)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file path (default: .gslint.yml or .gslint.toml)")

	return cmd
}

func runInit(cmd *cobra.Command, flags *initFlags) error {
	logger := logging.NewWithWriter(cmd.ErrOrStderr(), "info")

	format := flags.format
	if format == "" {
		format = "yaml"
		if configloader.IsTOMLConfig(flags.output) {
			format = "toml"
		}
	}
	if format != "yaml" && format != "toml" {
		return fmt.Errorf("%w: invalid format %q: must be yaml or toml", ErrUsage, format)
	}

	outputPath := flags.output
	if outputPath == "" {
		outputPath = ".gslint.yml"
		if format == "toml" {
			outputPath = ".gslint.toml"
		}
	}
	if format == "yaml" && configloader.IsTOMLConfig(outputPath) ||
		format == "toml" && configloader.IsYAMLConfig(outputPath) {
		return fmt.Errorf("%w: --format %s does not match %s", ErrUsage, format, outputPath)
	}

	absPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	content, err := config.GenerateTemplate(format)
	if err != nil {
		return fmt.Errorf("generate template: %w", err)
	}

	ctx := cmd.Context()
	if flags.force {
		err = fsutil.WriteAtomic(ctx, absPath, content, configFilePermissions)
	} else {
		err = fsutil.CreateAtomic(ctx, absPath, content, configFilePermissions)
	}
	switch {
	case errors.Is(err, fsutil.ErrExists):
		return fmt.Errorf("%w: file %q already exists; use --force to overwrite", ErrUsage, outputPath)
	case err != nil:
		return fmt.Errorf("write file: %w", err)
	}

	logger.Info("created configuration file", logging.FieldPath, outputPath)
	logger.Info("run 'gslint lint' to check the current directory")

	return nil
}
