package symbols

import "fmt"

// DisplayName returns the current name of the site's symbol.
func DisplayName(s Site) string { return s.Name }

// DisplayLocation returns the file or unit the site lives in.
func DisplayLocation(idx *Index, s Site) string { return idx.tree.Name() }

// DisplayPosition returns "file:line:col" with a 0-based line and column.
func DisplayPosition(idx *Index, s Site) string {
	line, col := idx.tree.Position(idx.tree.Span(s.Ident).Start)
	return fmt.Sprintf("%s:%d:%d", idx.tree.Name(), line, col)
}
