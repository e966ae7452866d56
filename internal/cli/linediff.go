package cli

import (
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// lineDiff renders a line-by-line diff of from and to. Removed lines start
// with "-", added lines with "+" and unchanged lines with a space. It
// returns "" when the texts are equal.
func (f *OutputFormatter) lineDiff(from, to string) string {
	if from == to {
		return ""
	}
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(from, to)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	for _, d := range diffs {
		prefix, attr := " ", color.Reset
		switch d.Type {
		case diffpatch.DiffInsert:
			prefix, attr = "+", color.FgGreen
		case diffpatch.DiffDelete:
			prefix, attr = "-", color.FgRed
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = prefix + " " + strings.TrimSuffix(line, "\n")
			if d.Type != diffpatch.DiffEqual {
				line = f.Paint(line, attr)
			}
			out.WriteString(line)
			out.WriteByte('\n')
		}
	}
	return out.String()
}
