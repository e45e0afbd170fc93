package lint

import (
	"regexp"
	"strconv"
)

// diagnosticPattern matches "<prefix>:<line>:<col>: <message>" one per line.
// The prefix is non-greedy so Windows drive letters stay in the file name.
var diagnosticPattern = regexp.MustCompile(`(?m)^(.*?):(\d+):(\d+):[ \t]+(.+?)[ \t\r]*$`)

// Parse extracts diagnostics from linter output. Lines that do not match,
// and lines reporting a line number below 1, are skipped. A column below 1
// maps to column 0. Parse never fails; no matches yields nil.
func Parse(raw string) []Diagnostic {
	matches := diagnosticPattern.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return nil
	}

	var out []Diagnostic
	for _, m := range matches {
		line, err := strconv.Atoi(m[2])
		if err != nil || line < 1 {
			continue
		}
		col, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}

		d := Diagnostic{
			File:    m[1],
			Line:    line - 1,
			Message: m[4],
		}
		if col > 0 {
			d.Column = col - 1
		}
		out = append(out, d)
	}
	return out
}
