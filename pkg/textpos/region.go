package textpos

import "github.com/dersebi/GoSublime/pkg/lint"

// Region is a half-open range [Start, End) of character offsets.
type Region struct {
	Start int
	End   int
}

// Len returns the number of characters covered.
func (r Region) Len() int {
	return r.End - r.Start
}

// Empty reports whether the region covers nothing.
func (r Region) Empty() bool {
	return r.End <= r.Start
}

// Contains reports whether offset falls inside the region.
func (r Region) Contains(offset int) bool {
	return offset >= r.Start && offset < r.End
}

// ToRegion maps a diagnostic onto the buffer. The region starts at the
// diagnostic column and runs to the end of the line, excluding the line
// terminator. When that leaves nothing to highlight (an empty line or a
// column at the end of the line) the terminator itself is covered.
//
// ok is false when the diagnostic line does not exist in the buffer.
func ToRegion(ix *Index, d lint.Diagnostic) (Region, bool) {
	start, end, ok := ix.LineBounds(d.Line)
	if !ok {
		return Region{}, false
	}

	start += ix.CharColumn(d.Line, d.Column)
	if start > end {
		start = end
	}
	if start == end && end < ix.lines[d.Line].end {
		end++
	}
	return Region{Start: start, End: end}, true
}

// Regions maps every diagnostic that fits the buffer, in order.
func Regions(ix *Index, diagnostics []lint.Diagnostic) []Region {
	if len(diagnostics) == 0 {
		return nil
	}
	out := make([]Region, 0, len(diagnostics))
	for _, d := range diagnostics {
		if region, ok := ToRegion(ix, d); ok {
			out = append(out, region)
		}
	}
	return out
}
