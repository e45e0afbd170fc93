package pretty

import (
	"fmt"
	"strings"

	"github.com/dersebi/GoSublime/pkg/runner"
)

const (
	wordFile     = "file"
	wordFiles    = "files"
	wordPackage  = "package"
	wordPackages = "packages"
)

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// FormatSummaryOneLine formats run statistics as a single line.
// Example: "4 issues in 2 files (3 packages linted)".
func (s *Styles) FormatSummaryOneLine(stats runner.Stats) string {
	packages := s.Dim.Render(fmt.Sprintf(" (%d %s linted)",
		stats.PackagesLinted, plural(stats.PackagesLinted, wordPackage, wordPackages)))

	var parts []string
	if stats.DiagnosticsTotal == 0 {
		parts = append(parts, s.Success.Render("No issues found")+
			s.Dim.Render(fmt.Sprintf(" (%d %s checked)", stats.FilesProcessed, plural(stats.FilesProcessed, wordFile, wordFiles))))
	} else {
		parts = append(parts, fmt.Sprintf("%s in %d %s%s",
			s.Failure.Render(fmt.Sprintf("%d %s", stats.DiagnosticsTotal, plural(stats.DiagnosticsTotal, "issue", "issues"))),
			stats.FilesWithIssues, plural(stats.FilesWithIssues, wordFile, wordFiles),
			packages,
		))
	}

	if stats.FilesErrored > 0 {
		parts = append(parts, s.Error.Render(fmt.Sprintf("%d %s could not be linted",
			stats.FilesErrored, plural(stats.FilesErrored, wordFile, wordFiles))))
	}

	return strings.Join(parts, ", ") + "\n"
}
