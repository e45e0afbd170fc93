package cli

import (
	"github.com/spf13/cobra"

	"github.com/dersebi/GoSublime/pkg/lint"
)

// NewRootCommandWithLinter builds the root command with linter in place of
// the linter process.
func NewRootCommandWithLinter(info BuildInfo, linter lint.Runner) *cobra.Command {
	return newRootCommand(info, &globalFlags{linter: linter})
}
