// Package preview renders rename results as unified diffs.
package preview

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/sourcegraph/go-diff/diff"
)

// Context is the number of unchanged lines shown around each change.
const Context = 3

// Unified returns a unified diff of before and after labelled a/name and
// b/name, or "" when the texts are equal.
func Unified(name, before, after string) (string, error) {
	if before == after {
		return "", nil
	}
	a, b := splitLines(before), splitLines(after)
	fd := &diff.FileDiff{
		OrigName: "a/" + name,
		NewName:  "b/" + name,
	}
	for _, group := range difflib.NewMatcher(a, b).GetGroupedOpCodes(Context) {
		fd.Hunks = append(fd.Hunks, hunk(group, a, b))
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", fmt.Errorf("preview %s: %w", name, err)
	}
	return string(out), nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// hunk turns one group of opcodes into a go-diff hunk. Replaced lines print
// as all deletions followed by all insertions.
func hunk(group []difflib.OpCode, a, b []string) *diff.Hunk {
	first, last := group[0], group[len(group)-1]
	h := &diff.Hunk{
		OrigStartLine: int32(first.I1),
		OrigLines:     int32(last.I2 - first.I1),
		NewStartLine:  int32(first.J1),
		NewLines:      int32(last.J2 - first.J1),
	}
	if h.OrigLines > 0 {
		h.OrigStartLine++
	}
	if h.NewLines > 0 {
		h.NewStartLine++
	}

	var body bytes.Buffer
	for _, c := range group {
		if c.Tag == 'e' {
			writeLines(&body, ' ', a[c.I1:c.I2])
			continue
		}
		if c.Tag == 'r' || c.Tag == 'd' {
			writeLines(&body, '-', a[c.I1:c.I2])
		}
		if c.Tag == 'r' || c.Tag == 'i' {
			writeLines(&body, '+', b[c.J1:c.J2])
		}
	}
	h.Body = body.Bytes()
	return h
}

func writeLines(w *bytes.Buffer, mark byte, lines []string) {
	for _, line := range lines {
		w.WriteByte(mark)
		w.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			w.WriteString("\n\\ No newline at end of file\n")
		}
	}
}
