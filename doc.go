// Package tisym resolves symbols and renames them safely in TI-99 sources:
// xas99 (TMS9900 assembler), xga99 (GPL assembler) and xbas99 (TI Extended
// BASIC).
//
// # Documents
//
// A [Document] is one parsed file with a lazily rebuilt symbol index:
//
//	doc, err := tisym.Open("game.a99")
//	if err != nil { ... }
//	def, ok := doc.DefinitionAt(12, 9)
//	n, err := doc.Rename(12, 9, "MAINLP")
//	err = doc.Save()
//
// Renames are all-or-nothing. A refused rename wraps
// [symbols.ErrRenameRejected] and leaves the text unchanged; local labels
// ("!name") and BASIC line numbers are never renamed.
//
// # Symbol tables
//
// An [Engine] keeps the per-file symbol tables of many files in SQLite:
//
//	e, err := tisym.New(".tisym/index.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	err = e.IndexDirectory(ctx, "src")
//	locs, err := e.Query().DefinitionAt("src/game.a99", 12, 9)
//
// [Engine.IndexFiles] parses changed files in parallel and skips files whose
// content hash is unchanged. Every file is resolved on its own; there is no
// cross-file resolution.
//
// Lines and columns are 0-based throughout.
package tisym
