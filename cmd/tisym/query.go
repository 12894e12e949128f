package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jward/tisym"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query the stored symbol tables",
	Long:  "Run queries against the database written by 'tisym index'. All line and column numbers are 0-based.",
}

var symbolsCmd = &cobra.Command{
	Use:   "symbols <file>",
	Short: "List the stored definitions of a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runSymbols,
}

var definitionCmd = &cobra.Command{
	Use:   "definition <file> <line> <col>",
	Short: "Find the definition of the identifier at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runDefinition,
}

var referencesCmd = &cobra.Command{
	Use:   "references [<file> <line> <col>]",
	Short: "Find all references to a symbol",
	Long:  "Accepts either <file> <line> <col> positional args or --symbol <id>.",
	Args:  cobra.MaximumNArgs(3),
	RunE:  runReferences,
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List indexed files",
	Args:  cobra.NoArgs,
	RunE:  runFiles,
}

func init() {
	referencesCmd.Flags().Int64("symbol", 0, "symbol ID to query")

	queryCmd.AddCommand(symbolsCmd)
	queryCmd.AddCommand(definitionCmd)
	queryCmd.AddCommand(referencesCmd)
	queryCmd.AddCommand(filesCmd)
}

// --- Helpers ---

// openEngine opens the database from the --db flag path (or default).
func openEngine() (*tisym.Engine, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: %s (run 'tisym index' first)", dbPath)
	}
	return tisym.New(dbPath, engineOptions()...)
}

// resolveFilePath converts a file argument to the absolute path the index
// stores.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return filepath.Clean(file), nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// resolveSymbolID resolves a symbol ID from either positional args
// (<file> <line> <col>) or the --symbol flag.
func resolveSymbolID(cmd *cobra.Command, args []string, qb *tisym.QueryBuilder) (int64, error) {
	symbolFlag, _ := cmd.Flags().GetInt64("symbol")
	if symbolFlag != 0 {
		return symbolFlag, nil
	}
	if len(args) < 3 {
		return 0, fmt.Errorf("requires either <file> <line> <col> arguments or --symbol flag")
	}

	file, err := resolveFilePath(args[0])
	if err != nil {
		return 0, err
	}
	line, col, err := parsePosition(args[1], args[2])
	if err != nil {
		return 0, err
	}
	sym, err := qb.SymbolAt(file, line, col)
	if err != nil {
		return 0, fmt.Errorf("looking up symbol: %w", err)
	}
	if sym == nil {
		return 0, fmt.Errorf("no symbol found at %s:%d:%d", file, line, col)
	}
	return sym.ID, nil
}

func symbolToCLI(sym *tisym.Symbol, filePath string) CLISymbol {
	return CLISymbol{
		ID:         sym.ID,
		Name:       sym.Name,
		Kind:       sym.Kind,
		Production: sym.Production,
		Restricted: sym.Restricted,
		Scope:      sym.Scope,
		File:       filePath,
		StartLine:  sym.StartLine,
		StartCol:   sym.StartCol,
		EndLine:    sym.EndLine,
		EndCol:     sym.EndCol,
	}
}

func locationToCLI(loc tisym.Location, symbolID *int64) CLILocation {
	return CLILocation{
		File:      loc.File,
		StartLine: loc.StartLine,
		StartCol:  loc.StartCol,
		EndLine:   loc.EndLine,
		EndCol:    loc.EndCol,
		SymbolID:  symbolID,
	}
}

// --- Commands ---

func runSymbols(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("symbols", err)
	}
	defer engine.Close()

	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("symbols", err)
	}
	syms, err := engine.Query().SymbolsInFile(file)
	if err != nil {
		return outputError("symbols", err)
	}

	out := make([]CLISymbol, len(syms))
	for i, s := range syms {
		out[i] = symbolToCLI(s, file)
	}
	return outputResult(CLIResult{
		Command:    "symbols",
		Results:    out,
		TotalCount: count(len(out)),
	})
}

func runDefinition(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("definition", err)
	}
	defer engine.Close()

	file, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("definition", err)
	}
	line, col, err := parsePosition(args[1], args[2])
	if err != nil {
		return outputError("definition", err)
	}

	qb := engine.Query()
	locs, err := qb.DefinitionAt(file, line, col)
	if err != nil {
		return outputError("definition", err)
	}

	out := make([]CLILocation, len(locs))
	for i, loc := range locs {
		var symID *int64
		if sym, err := qb.SymbolAt(loc.File, loc.StartLine, loc.StartCol); err == nil && sym != nil {
			symID = &sym.ID
		}
		out[i] = locationToCLI(loc, symID)
	}
	return outputResult(CLIResult{
		Command:    "definition",
		Results:    out,
		TotalCount: count(len(out)),
	})
}

func runReferences(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("references", err)
	}
	defer engine.Close()

	qb := engine.Query()
	symID, err := resolveSymbolID(cmd, args, qb)
	if err != nil {
		return outputError("references", err)
	}
	locs, err := qb.ReferencesTo(symID)
	if err != nil {
		return outputError("references", err)
	}

	out := make([]CLILocation, len(locs))
	for i, loc := range locs {
		out[i] = locationToCLI(loc, &symID)
	}
	return outputResult(CLIResult{
		Command:    "references",
		Results:    out,
		TotalCount: count(len(out)),
	})
}

func runFiles(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("files", err)
	}
	defer engine.Close()

	files, err := engine.Query().Files()
	if err != nil {
		return outputError("files", err)
	}
	out := make([]CLIFile, len(files))
	for i, f := range files {
		out[i] = CLIFile{ID: f.ID, Path: f.Path, Dialect: f.Dialect, Snapshot: f.Snapshot, LineCount: f.LineCount}
	}
	return outputResult(CLIResult{
		Command:    "files",
		Results:    out,
		TotalCount: count(len(out)),
	})
}
