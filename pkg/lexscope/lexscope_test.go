package lexscope_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dersebi/GoSublime/pkg/lexscope"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		labels []string
		want   lexscope.Scope
	}{
		{"plain go", []string{"source.go"}, lexscope.Code},
		{"no labels", nil, lexscope.Foreign},
		{"other language", []string{"source.python string.quoted.double.go"}, lexscope.Foreign},
		{"double quoted", []string{"source.go", "string.quoted.double.go"}, lexscope.String},
		{"single quoted", []string{"source.go string.quoted.single.go"}, lexscope.String},
		{"raw", []string{"source.go string.quoted.raw.go"}, lexscope.String},
		{"line comment", []string{"source.go comment.line.double-slash.go"}, lexscope.Comment},
		{"block comment", []string{"source.go comment.block.go"}, lexscope.Comment},
		{"sub-scope of string", []string{"source.go string.quoted.double.go.fmt"}, lexscope.String},
		{"unrelated sub-scope", []string{"source.go meta.function.go"}, lexscope.Code},
		{"near-miss label", []string{"source.go comment.blockquote"}, lexscope.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, lexscope.Classify(tt.labels...))
		})
	}
}

func TestAt(t *testing.T) {
	t.Parallel()

	src := "x := \"lit\" // note\ny := `raw`\n"

	assert.Equal(t, lexscope.Code, lexscope.At(src, 0))
	assert.Equal(t, lexscope.String, lexscope.At(src, strings.Index(src, "lit")))
	assert.Equal(t, lexscope.Comment, lexscope.At(src, strings.Index(src, "note")))
	assert.Equal(t, lexscope.String, lexscope.At(src, strings.Index(src, "raw")))
	assert.Equal(t, lexscope.Code, lexscope.At(src, len(src)))
}

func TestScopePredicates(t *testing.T) {
	t.Parallel()

	assert.True(t, lexscope.Code.Lintable())
	assert.False(t, lexscope.Code.Excluded())
	assert.True(t, lexscope.String.Excluded())
	assert.True(t, lexscope.Comment.Excluded())
	assert.False(t, lexscope.Foreign.Lintable())
	assert.Equal(t, "comment", lexscope.Comment.String())
}

func TestLabels(t *testing.T) {
	t.Parallel()

	src := "r := 'x' /* c */\n"

	assert.Equal(t, []string{"source.go"}, lexscope.Labels(src, 0))
	assert.Equal(t, []string{"source.go", "string.quoted.single.go"},
		lexscope.Labels(src, strings.Index(src, "x")))
	assert.Equal(t, []string{"source.go", "comment.block.go"},
		lexscope.Labels(src, strings.Index(src, "c ")))
}

func TestEdit(t *testing.T) {
	t.Parallel()

	const base = "package p\n\n// hello\nvar s = \"abc\"\nvar n = 1\n"

	tests := []struct {
		name string
		next string
		want lexscope.Scope
	}{
		{"type in comment", strings.Replace(base, "hello", "hello there", 1), lexscope.Comment},
		{"trim comment tail", strings.Replace(base, "hello", "hell", 1), lexscope.Comment},
		{"type in string", strings.Replace(base, "abc", "abxc", 1), lexscope.String},
		{"type in code", strings.Replace(base, "n = 1", "n = 12", 1), lexscope.Code},
		{"delete code line", strings.Replace(base, "var n = 1\n", "", 1), lexscope.Code},
		{"append at end", base + "var m = 2\n", lexscope.Code},
		{"unchanged", base, lexscope.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, lexscope.Edit(base, tt.next))
		})
	}
}
