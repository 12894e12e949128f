package main

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jward/tisym"
	"github.com/jward/tisym/internal/preview"
	"github.com/jward/tisym/internal/runtime"
	"github.com/jward/tisym/scripts"
)

var (
	flagWrite   bool
	flagBuiltin bool
	flagSet     map[string]string
)

var defsCmd = &cobra.Command{
	Use:   "defs <file>",
	Short: "List the definitions in a file",
	Args:  cobra.ExactArgs(1),
	RunE:  runDefs,
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <file> <line> <col>",
	Short: "Resolve the identifier at a position to its definition",
	Args:  cobra.ExactArgs(3),
	RunE:  runResolve,
}

var refsCmd = &cobra.Command{
	Use:   "refs <file> <line> <col>",
	Short: "List the references to the symbol at a position",
	Args:  cobra.ExactArgs(3),
	RunE:  runRefs,
}

var renameCmd = &cobra.Command{
	Use:   "rename <file> <line> <col> <new-name>",
	Short: "Rename the symbol at a position",
	Long:  "Renames every occurrence of the symbol at a position. Prints a unified diff; --write saves the file.",
	Args:  cobra.ExactArgs(4),
	RunE:  runRename,
}

var scriptCmd = &cobra.Command{
	Use:   "script <script.risor> <file>",
	Short: "Run a Risor script against a file",
	Long: `Runs a Risor script with the file loaded. Prints a unified diff of any renames; --write saves the file.

With --builtin the script names a bundled script such as rename/map or
report/unresolved. Values passed with --set reach the script as the args map.`,
	Args: cobra.ExactArgs(2),
	RunE: runScript,
}

func init() {
	renameCmd.Flags().BoolVar(&flagWrite, "write", false, "write the renamed file back")
	scriptCmd.Flags().BoolVar(&flagWrite, "write", false, "write the changed file back")
	scriptCmd.Flags().BoolVar(&flagBuiltin, "builtin", false, "run a bundled script instead of a file")
	scriptCmd.Flags().StringToStringVar(&flagSet, "set", nil, "script argument as key=value (repeatable)")
}

// --- Helpers ---

func openDocument(file string) (*tisym.Document, error) {
	return tisym.Open(file, engineOptions()...)
}

// parseIntArg parses a positional argument as an integer with a clear error.
func parseIntArg(value, name string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, value)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be non-negative", name, value)
	}
	return n, nil
}

// parsePosition parses <line> <col> arguments.
func parsePosition(lineArg, colArg string) (line, col int, err error) {
	if line, err = parseIntArg(lineArg, "line"); err != nil {
		return 0, 0, err
	}
	if col, err = parseIntArg(colArg, "col"); err != nil {
		return 0, 0, err
	}
	return line, col, nil
}

func siteToCLI(doc *tisym.Document, s tisym.Site) CLISite {
	line, col := doc.Position(s)
	return CLISite{
		Name:       s.Name,
		Kind:       string(s.Kind),
		Role:       s.Role.String(),
		Restricted: s.Restricted,
		File:       doc.Path(),
		Line:       line,
		Col:        col,
		Scope:      int64(s.Scope),
	}
}

func sitesToCLI(doc *tisym.Document, sites []tisym.Site) []CLISite {
	out := make([]CLISite, len(sites))
	for i, s := range sites {
		out[i] = siteToCLI(doc, s)
	}
	return out
}

// finishEdit reports the change made to doc since before, saving it when
// --write is set.
func finishEdit(command string, doc *tisym.Document, before string, renamed int) error {
	diff, err := preview.Unified(filepath.ToSlash(doc.Path()), before, doc.Text())
	if err != nil {
		return outputError(command, err)
	}
	written := false
	if flagWrite && diff != "" {
		if err := doc.Save(); err != nil {
			return outputError(command, err)
		}
		written = true
	}
	return outputResult(CLIResult{
		Command: command,
		Results: CLIRename{File: doc.Path(), Renamed: renamed, Written: written, Diff: diff},
	})
}

// --- Commands ---

func runDefs(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return outputError("defs", err)
	}
	sites := sitesToCLI(doc, doc.Symbols())
	return outputResult(CLIResult{
		Command:    "defs",
		Results:    sites,
		TotalCount: count(len(sites)),
	})
}

func runResolve(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return outputError("resolve", err)
	}
	line, col, err := parsePosition(args[1], args[2])
	if err != nil {
		return outputError("resolve", err)
	}

	s, ok := doc.SiteAt(line, col)
	if !ok {
		return outputResult(CLIResult{Command: "resolve", Results: nil})
	}
	res := CLIResolution{Site: siteToCLI(doc, s)}
	if def, ok := doc.DefinitionAt(line, col); ok {
		d := siteToCLI(doc, def)
		res.Resolved = true
		res.Definition = &d
	}
	return outputResult(CLIResult{Command: "resolve", Results: res})
}

func runRefs(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return outputError("refs", err)
	}
	line, col, err := parsePosition(args[1], args[2])
	if err != nil {
		return outputError("refs", err)
	}

	refs := sitesToCLI(doc, doc.ReferencesTo(line, col))
	return outputResult(CLIResult{
		Command:    "refs",
		Results:    refs,
		TotalCount: count(len(refs)),
	})
}

func runRename(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[0])
	if err != nil {
		return outputError("rename", err)
	}
	line, col, err := parsePosition(args[1], args[2])
	if err != nil {
		return outputError("rename", err)
	}

	before := doc.Text()
	n, err := doc.Rename(line, col, args[3])
	if err != nil {
		return outputError("rename", err)
	}
	return finishEdit("rename", doc, before, n)
}

// newScriptRuntime returns a runtime for doc and the path of the script to
// run in it. Bundled scripts are addressed without their extension.
func newScriptRuntime(doc *tisym.Document, script string) (*runtime.Runtime, string, error) {
	if flagBuiltin {
		if path.Ext(script) == "" {
			script += ".risor"
		}
		return runtime.NewRuntime(doc, "", runtime.WithRuntimeFS(scripts.FS), runtime.WithLogger(logger)), script, nil
	}
	abs, err := filepath.Abs(script)
	if err != nil {
		return nil, "", fmt.Errorf("resolving script path %q: %w", script, err)
	}
	return runtime.NewRuntime(doc, filepath.Dir(abs), runtime.WithLogger(logger)), filepath.Base(abs), nil
}

func runScript(cmd *cobra.Command, args []string) error {
	doc, err := openDocument(args[1])
	if err != nil {
		return outputError("script", err)
	}
	rt, script, err := newScriptRuntime(doc, args[0])
	if err != nil {
		return outputError("script", err)
	}

	scriptArgs := make(map[string]any, len(flagSet))
	for k, v := range flagSet {
		scriptArgs[k] = v
	}

	before := doc.Text()
	if err := rt.RunScript(context.Background(), script, map[string]any{"args": scriptArgs}); err != nil {
		return outputError("script", err)
	}
	return finishEdit("script", doc, before, rt.Renamed())
}
