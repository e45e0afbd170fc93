// Package lint invokes an external Go linter or type checker and parses the
// line/column diagnostics it prints.
package lint

import (
	"fmt"
	"os"
	"path/filepath"
)

// Diagnostic is a single problem reported by the linter.
// Line and Column are 0-based; Column counts bytes, as Go tools report it.
type Diagnostic struct {
	// File is the path prefix the linter printed. It may be empty.
	File string

	// Line is the 0-based line number.
	Line int

	// Column is the 0-based byte column.
	Column int

	// Message is the diagnostic text, trailing whitespace removed.
	Message string
}

// String formats the diagnostic the way Go tools print it, 1-based.
func (d Diagnostic) String() string {
	if d.File == "" {
		return fmt.Sprintf("%d:%d: %s", d.Line+1, d.Column+1, d.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line+1, d.Column+1, d.Message)
}

// ByLine indexes diagnostics by line. When several share a line the last
// one wins.
func ByLine(diagnostics []Diagnostic) map[int]Diagnostic {
	out := make(map[int]Diagnostic, len(diagnostics))
	for _, d := range diagnostics {
		out[d.Line] = d
	}
	return out
}

// ForFile keeps the diagnostics that belong to path. Relative File values
// are resolved against dir, the directory the linter ran in. Diagnostics
// without a File are kept.
func ForFile(diagnostics []Diagnostic, path, dir string) []Diagnostic {
	if len(diagnostics) == 0 {
		return nil
	}

	target := absClean(path, dir)
	var targetInfo os.FileInfo

	out := make([]Diagnostic, 0, len(diagnostics))
	for _, d := range diagnostics {
		if d.File == "" {
			out = append(out, d)
			continue
		}

		file := absClean(d.File, dir)
		if file == target {
			out = append(out, d)
			continue
		}

		// Fall back to inode comparison for symlinked directories.
		if targetInfo == nil {
			targetInfo, _ = os.Stat(target)
		}
		if targetInfo == nil {
			continue
		}
		if info, err := os.Stat(file); err == nil && os.SameFile(info, targetInfo) {
			out = append(out, d)
		}
	}
	return out
}

func absClean(path, dir string) string {
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}
	return filepath.Clean(path)
}
