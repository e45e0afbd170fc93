package pretty_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dersebi/GoSublime/internal/ui/pretty"
	"github.com/dersebi/GoSublime/pkg/runner"
)

func TestFormatSummaryOneLine(t *testing.T) {
	t.Parallel()

	styles := pretty.NewStyles(false)

	tests := []struct {
		name  string
		stats runner.Stats
		want  string
	}{
		{
			name:  "clean",
			stats: runner.Stats{FilesProcessed: 5, PackagesLinted: 2},
			want:  "No issues found (5 files checked)\n",
		},
		{
			name:  "single file",
			stats: runner.Stats{FilesProcessed: 1, PackagesLinted: 1},
			want:  "No issues found (1 file checked)\n",
		},
		{
			name:  "issues",
			stats: runner.Stats{FilesProcessed: 5, PackagesLinted: 3, FilesWithIssues: 2, DiagnosticsTotal: 4},
			want:  "4 issues in 2 files (3 packages linted)\n",
		},
		{
			name:  "one issue with errors",
			stats: runner.Stats{FilesProcessed: 2, PackagesLinted: 1, FilesWithIssues: 1, DiagnosticsTotal: 1, FilesErrored: 2},
			want:  "1 issue in 1 file (1 package linted), 2 files could not be linted\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, styles.FormatSummaryOneLine(tt.stats))
		})
	}
}
