package strip_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dersebi/GoSublime/pkg/strip"
)

func TestStrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "no literals",
			input: "package p\n\nfunc f() {}\n",
			want:  "package p\n\nfunc f() {}\n",
		},
		{
			name:  "line comment",
			input: "x := 1 // note\ny := 2\n",
			want:  "x := 1        \ny := 2\n",
		},
		{
			name:  "block comment keeps newlines",
			input: "a /* one\ntwo */ b\n",
			want:  "a       \n       b\n",
		},
		{
			name:  "string with escaped quote",
			input: `s := "a\"b" + t`,
			want:  `s :=        + t`,
		},
		{
			name:  "rune literal",
			input: `r := '\'' ; q := 'x'`,
			want:  `r :=      ; q :=    `,
		},
		{
			name:  "raw string spans lines",
			input: "s := `a\nb` + c\n",
			want:  "s :=   \n   + c\n",
		},
		{
			name:  "comment markers inside string are literal",
			input: `s := "// not a comment" + x`,
			want:  `s :=                    + x`,
		},
		{
			name:  "quotes inside comment are ignored",
			input: "// it's \"fine\"\nx\n",
			want:  "              \nx\n",
		},
		{
			name:  "non-greedy literals",
			input: `"a" + "b"`,
			want:  `    +    `,
		},
		{
			name:  "unterminated block comment runs to end",
			input: "x /* open\nstill\n",
			want:  "x        \n     \n",
		},
		{
			name:  "unterminated string stops at end of line",
			input: "s := \"open\nnext\n",
			want:  "s :=      \nnext\n",
		},
		{
			name:  "unterminated raw string runs to end",
			input: "s := `open\nnext\n",
			want:  "s :=      \n    \n",
		},
		{
			name:  "division is not a comment",
			input: "a := b / c\n",
			want:  "a := b / c\n",
		},
		{
			name:  "trailing slash",
			input: "a /",
			want:  "a /",
		},
		{
			name:  "crlf preserved inside block comment",
			input: "/* a\r\nb */x",
			want:  "    \r\n    x",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := strip.Strip(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Len(t, got, len(tt.input))
			assert.Equal(t, strings.Count(tt.input, "\n"), strings.Count(got, "\n"))
		})
	}
}

func TestStrip_PackageClauseInComment(t *testing.T) {
	t.Parallel()

	src := "/*\npackage fake\n*/\n// package other\npackage real\n"
	lines := strings.Split(strip.Strip(src), "\n")

	var found string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == "package" {
			found = fields[1]
			break
		}
	}
	assert.Equal(t, "real", found)
}

func TestScan(t *testing.T) {
	t.Parallel()

	src := "x := \"s\" // c\n/* b */ `r` 'c'"
	spans := strip.Scan(src)
	require.Len(t, spans, 5)

	kinds := make([]strip.Kind, 0, len(spans))
	for _, span := range spans {
		kinds = append(kinds, span.Kind)
		assert.True(t, span.Terminated, span.Kind.String())
	}
	assert.Equal(t, []strip.Kind{
		strip.KindString,
		strip.KindLineComment,
		strip.KindBlockComment,
		strip.KindRawString,
		strip.KindChar,
	}, kinds)

	assert.Equal(t, `"s"`, src[spans[0].Start:spans[0].End])
	assert.Equal(t, "// c", src[spans[1].Start:spans[1].End])
	assert.Equal(t, "/* b */", src[spans[2].Start:spans[2].End])
}

func TestScan_Unterminated(t *testing.T) {
	t.Parallel()

	spans := strip.Scan("/* open")
	require.Len(t, spans, 1)
	assert.False(t, spans[0].Terminated)
	assert.Equal(t, 7, spans[0].End)
}

func TestAt(t *testing.T) {
	t.Parallel()

	src := `a := "str" // c`
	spans := strip.Scan(src)

	span, ok := strip.At(spans, 6)
	require.True(t, ok)
	assert.Equal(t, strip.KindString, span.Kind)

	span, ok = strip.At(spans, 13)
	require.True(t, ok)
	assert.True(t, span.Kind.IsComment())

	_, ok = strip.At(spans, 0)
	assert.False(t, ok)

	// End offsets are exclusive.
	_, ok = strip.At(spans, 10)
	assert.False(t, ok)
}
