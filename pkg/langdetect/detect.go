// Package langdetect decides whether a buffer holds Go source and whether a
// path belongs to vendored code, using go-enry's linguist data.
package langdetect

import (
	"bytes"
	"path/filepath"
	"strings"

	"github.com/go-enry/go-enry/v2"

	"github.com/dersebi/GoSublime/pkg/strip"
)

// langGo is the linguist name for Go.
const langGo = "Go"

// Language returns the linguist language name for a file, or "" when it
// cannot be determined.
func Language(path string, content []byte) string {
	return enry.GetLanguage(filepath.Base(path), content)
}

// IsGo reports whether a buffer holds Go source. The extension decides when
// it is unambiguous; otherwise a leading package clause or the linguist
// classifier does.
func IsGo(path string, content []byte) bool {
	if path != "" {
		if lang, safe := enry.GetLanguageByExtension(filepath.Base(path)); safe {
			return lang == langGo
		}
	}

	if detectGo(content) {
		return true
	}

	if len(content) == 0 {
		return false
	}
	return strings.EqualFold(enry.GetLanguage(filepath.Base(path), content), langGo)
}

// detectGo checks for a package clause as the first code in the buffer.
func detectGo(content []byte) bool {
	trimmed := bytes.TrimSpace([]byte(strip.Strip(string(content))))
	return bytes.HasPrefix(trimmed, []byte("package "))
}

// IsVendored reports whether path lies in a vendored or third-party tree
// (vendor/, testdata fixtures of dependencies, node_modules and the like).
func IsVendored(path string) bool {
	return enry.IsVendor(filepath.ToSlash(path))
}
