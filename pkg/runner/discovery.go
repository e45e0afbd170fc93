package runner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/langdetect"
)

// Discover finds Go files matching opts under the given working directory.
// It returns a deterministically sorted list of absolute file paths.
//
// Directories are skipped the way the go tool skips them: hidden, "_"
// prefixed and testdata directories are never entered. Vendored trees are
// skipped unless opts.IncludeVendored is set. Files named explicitly are
// only checked against the extension and exclude filters.
func Discover(ctx context.Context, opts Options) ([]string, error) {
	workDir, err := resolveWorkDir(opts.WorkingDir)
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}

	extensions := opts.effectiveExtensions()
	excludes := opts.ExcludeGlobs
	if opts.Config != nil {
		excludes = append(append([]string(nil), excludes...), opts.Config.Ignore...)
	}

	seen := make(map[string]struct{})
	var files []string
	add := func(path string) {
		if _, ok := seen[path]; !ok {
			seen[path] = struct{}{}
			files = append(files, path)
		}
	}

	for _, inputPath := range opts.effectivePaths() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("discovery cancelled: %w", err)
		}

		absPath := inputPath
		if !filepath.IsAbs(inputPath) {
			absPath = filepath.Join(workDir, inputPath)
		}
		absPath = filepath.Clean(absPath)

		info, err := os.Stat(absPath)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", inputPath, err)
		}

		if !info.IsDir() {
			if matchesFile(absPath, workDir, extensions, excludes) {
				add(absPath)
			}
			continue
		}

		w := walker{workDir: workDir, extensions: extensions, excludes: excludes, opts: opts}
		discovered, err := w.walk(ctx, absPath)
		if err != nil {
			return nil, err
		}
		for _, f := range discovered {
			add(f)
		}
	}

	sort.Strings(files)
	return files, nil
}

// resolveWorkDir resolves the working directory, defaulting to os.Getwd().
func resolveWorkDir(workDir string) (string, error) {
	if workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		return wd, nil
	}
	absPath, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path: %w", err)
	}
	return absPath, nil
}

type walker struct {
	workDir    string
	extensions []string
	excludes   []string
	opts       Options
}

// walk recursively collects the Go files under root.
func (w walker) walk(ctx context.Context, root string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		relPath, relErr := filepath.Rel(w.workDir, path)
		if relErr != nil {
			relPath = path
		}

		if entry.IsDir() {
			if path != root && w.skipDir(entry.Name(), relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if entry.Type()&fs.ModeSymlink != 0 {
			info, statErr := os.Stat(path)
			if statErr != nil {
				// Broken or inaccessible symlink.
				return nil //nolint:nilerr // Intentionally skip broken symlinks
			}
			if info.IsDir() {
				if !w.opts.FollowSymlinks || w.skipDir(entry.Name(), relPath) {
					return nil
				}
				realPath, evalErr := filepath.EvalSymlinks(path)
				if evalErr != nil {
					return nil //nolint:nilerr // Intentionally skip unresolvable symlinks
				}
				// Walk the target; WalkDir does not follow a symlinked root.
				subFiles, err := w.walk(ctx, realPath)
				if err != nil {
					return err
				}
				files = append(files, subFiles...)
				return nil
			}
		}

		if ignoredName(entry.Name()) {
			return nil
		}

		if matchesFile(path, w.workDir, w.extensions, w.excludes) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}

	return files, nil
}

func (w walker) skipDir(name, relPath string) bool {
	return SkipDir(name, relPath, w.opts.IncludeVendored, w.excludes)
}

// SkipDir reports whether discovery leaves out a directory below the walk
// root. name is the directory's base name and relPath its path relative to
// the working directory.
func SkipDir(name, relPath string, includeVendored bool, excludes []string) bool {
	if ignoredName(name) || name == "testdata" {
		return true
	}
	if !includeVendored && langdetect.IsVendored(filepath.ToSlash(relPath)+"/") {
		return true
	}
	return matchesExcludePattern(relPath, excludes)
}

// Excluded reports whether relPath matches one of the exclude globs.
func Excluded(relPath string, excludes []string) bool {
	return matchesExcludePattern(relPath, excludes)
}

// ignoredName reports whether the go tool ignores a file or directory name.
func ignoredName(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// matchesFile checks if a file path matches the inclusion criteria.
func matchesFile(path, workDir string, extensions, excludes []string) bool {
	if !config.HasExtension(path, extensions) {
		return false
	}

	relPath, err := filepath.Rel(workDir, path)
	if err != nil {
		relPath = path
	}
	return !matchesExcludePattern(relPath, excludes)
}

// matchesExcludePattern checks if the path matches any exclude pattern.
func matchesExcludePattern(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchGlob(relPath, pattern) {
			return true
		}
	}
	return false
}

// matchGlob matches a path against a glob pattern.
// It supports patterns like "*_test.go", "gen/**" and "**/mocks".
func matchGlob(path, pattern string) bool {
	path = filepath.ToSlash(path)
	pattern = filepath.ToSlash(pattern)

	if strings.Contains(pattern, "**") {
		return matchDoubleStar(path, pattern)
	}

	if matched, err := filepath.Match(pattern, path); err == nil && matched {
		return true
	}
	matched, err := filepath.Match(pattern, filepath.Base(path))
	return err == nil && matched
}

// matchDoubleStar handles the common ** forms: "**/x", "x/**" and
// "x/**/y".
func matchDoubleStar(path, pattern string) bool {
	prefix, suffix, _ := strings.Cut(pattern, "**")
	prefix = strings.TrimSuffix(prefix, "/")
	suffix = strings.TrimPrefix(suffix, "/")

	if prefix != "" && path != prefix && !strings.HasPrefix(path, prefix+"/") {
		return false
	}
	if suffix == "" {
		return true
	}

	for _, part := range strings.Split(path, "/") {
		if matched, err := filepath.Match(suffix, part); err == nil && matched {
			return true
		}
	}
	if matched, err := filepath.Match(suffix, filepath.Base(path)); err == nil && matched {
		return true
	}
	return strings.HasSuffix(path, "/"+suffix) || path == suffix
}
