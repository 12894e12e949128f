package tisym

import "sort"

// lineIndex converts byte offsets to 0-based line/column pairs in
// O(log lines).
type lineIndex []int

func newLineIndex(text string) lineIndex {
	starts := lineIndex{0}
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

func (li lineIndex) position(offset int) (line, col int) {
	line = sort.SearchInts(li, offset+1) - 1
	return line, offset - li[line]
}
