package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// formatSitesText formats CLISite results as aligned columns.
func formatSitesText(w io.Writer, sites []CLISite) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tROLE\tFILE\tLINE\tCOL")
	for _, s := range sites {
		name := s.Name
		if s.Restricted {
			name += " (restricted)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n", name, s.Kind, s.Role, s.File, s.Line, s.Col)
	}
	tw.Flush()
}

// formatResolutionText prints "site -> definition", or marks the site
// unresolved.
func formatResolutionText(w io.Writer, r CLIResolution) {
	from := fmt.Sprintf("%s:%d:%d %s", r.Site.File, r.Site.Line, r.Site.Col, r.Site.Name)
	if !r.Resolved || r.Definition == nil {
		fmt.Fprintf(w, "%s -> unresolved\n", from)
		return
	}
	fmt.Fprintf(w, "%s -> %s:%d:%d\n", from, r.Definition.File, r.Definition.Line, r.Definition.Col)
}

// formatRenameText prints the diff preview.
func formatRenameText(w io.Writer, r CLIRename) {
	if r.Diff == "" {
		fmt.Fprintf(w, "%s: no changes\n", r.File)
		return
	}
	fmt.Fprint(w, r.Diff)
}

// formatLocationsText formats CLILocation results as "file:line:col" lines.
func formatLocationsText(w io.Writer, locs []CLILocation) {
	for _, loc := range locs {
		fmt.Fprintf(w, "%s:%d:%d\n", loc.File, loc.StartLine, loc.StartCol)
	}
}

// formatSymbolsText formats CLISymbol results as aligned columns.
func formatSymbolsText(w io.Writer, syms []CLISymbol) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tKIND\tFILE\tLINE\tCOL")
	for _, s := range syms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n",
			s.ID, s.Name, s.Kind, s.File, s.StartLine, s.StartCol)
	}
	tw.Flush()
}

// formatFilesText formats CLIFile results as aligned columns.
func formatFilesText(w io.Writer, files []CLIFile) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPATH\tDIALECT\tLINES")
	for _, f := range files {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\n", f.ID, f.Path, f.Dialect, f.LineCount)
	}
	tw.Flush()
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type.
func outputResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLISite:
		formatSitesText(w, v)
	case CLIResolution:
		formatResolutionText(w, v)
	case CLIRename:
		formatRenameText(w, v)
	case []CLILocation:
		formatLocationsText(w, v)
	case []CLISymbol:
		formatSymbolsText(w, v)
	case []CLIFile:
		formatFilesText(w, v)
	case nil:
		// No output for nil results (e.g., nothing at a position).
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}
	return nil
}

// outputResult writes a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(stdout, result)
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return err
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(CLIResult{Command: command, Error: err.Error()})
	return err
}

// count returns a pointer for CLIResult.TotalCount.
func count(n int) *int { return &n }

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
