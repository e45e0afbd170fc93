// Package pkggroup finds the Go files that must be linted together: the
// files in one directory that declare the same package.
package pkggroup

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dersebi/GoSublime/pkg/config"
	"github.com/dersebi/GoSublime/pkg/fsutil"
	"github.com/dersebi/GoSublime/pkg/strip"
)

// PackageOf returns the package name declared by the file at path, or ""
// when no package clause is found. Comments and literals are ignored, so a
// "package" word inside them does not count.
func PackageOf(ctx context.Context, path string) (string, error) {
	content, _, err := fsutil.ReadFile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("package of %s: %w", path, err)
	}
	return PackageName(string(content)), nil
}

// PackageName returns the package name declared in src, or "".
func PackageName(src string) string {
	scanner := bufio.NewScanner(strings.NewReader(strip.Strip(src)))
	scanner.Buffer(make([]byte, 0, 64*1024), len(src)+1)

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || fields[0] != "package" {
			continue
		}
		if len(fields) < 2 {
			return ""
		}
		return strings.TrimRight(fields[1], ";")
	}
	return ""
}

// Siblings returns path followed by every other regular file in its
// directory that has one of extensions and declares the same package.
// Symlinks are followed. A nil extensions list means ".go".
//
// Any read error aborts the search; callers keep their previous results.
func Siblings(ctx context.Context, path string, extensions []string) ([]string, error) {
	if len(extensions) == 0 {
		extensions = []string{config.DefaultExtension}
	}

	pkg, err := PackageOf(ctx, path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	self := filepath.Base(path)
	files := []string{path}
	for _, entry := range entries {
		name := entry.Name()
		if name == self || !config.HasExtension(name, extensions) {
			continue
		}

		candidate := filepath.Join(dir, name)
		if !fsutil.IsRegular(candidate) {
			continue
		}

		other, err := PackageOf(ctx, candidate)
		if err != nil {
			return nil, err
		}
		if other == pkg {
			files = append(files, candidate)
		}
	}

	return files, nil
}

// Package is a set of files in one directory declaring the same package.
type Package struct {
	Dir   string
	Name  string
	Files []string
}

// Group partitions files into packages, keyed by directory and package
// name. Files without one of extensions are skipped. Packages are ordered
// by directory then name; files keep their input order.
func Group(ctx context.Context, files []string, extensions []string) ([]Package, error) {
	if len(extensions) == 0 {
		extensions = []string{config.DefaultExtension}
	}

	type key struct{ dir, name string }
	index := make(map[key]int)
	var packages []Package

	for _, file := range files {
		if !config.HasExtension(file, extensions) {
			continue
		}

		name, err := PackageOf(ctx, file)
		if err != nil {
			return nil, err
		}

		k := key{dir: filepath.Dir(file), name: name}
		pos, ok := index[k]
		if !ok {
			pos = len(packages)
			index[k] = pos
			packages = append(packages, Package{Dir: k.dir, Name: name})
		}
		packages[pos].Files = append(packages[pos].Files, file)
	}

	sort.SliceStable(packages, func(i, j int) bool {
		if packages[i].Dir != packages[j].Dir {
			return packages[i].Dir < packages[j].Dir
		}
		return packages[i].Name < packages[j].Name
	})

	return packages, nil
}
