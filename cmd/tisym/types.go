package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command    string `json:"command"`
	Results    any    `json:"results"`
	TotalCount *int   `json:"total_count,omitempty"`
	Error      string `json:"error,omitempty"`
}

// CLISite is a definition or reference in a loaded document.
type CLISite struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Role       string `json:"role"`
	Restricted bool   `json:"restricted"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	Col        int    `json:"col"`
	Scope      int64  `json:"scope"`
}

// CLIResolution is the outcome of resolving one position. Definition is nil
// for an unresolved reference.
type CLIResolution struct {
	Site       CLISite  `json:"site"`
	Resolved   bool     `json:"resolved"`
	Definition *CLISite `json:"definition,omitempty"`
}

// CLIRename is the outcome of a rename or a script run.
type CLIRename struct {
	File    string `json:"file"`
	Renamed int    `json:"renamed"`
	Written bool   `json:"written"`
	Diff    string `json:"diff"`
}

// CLISymbol is a JSON-friendly stored symbol.
type CLISymbol struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Production string `json:"production"`
	Restricted bool   `json:"restricted"`
	Scope      int64  `json:"scope"`
	File       string `json:"file,omitempty"`
	StartLine  int    `json:"start_line"`
	StartCol   int    `json:"start_col"`
	EndLine    int    `json:"end_line"`
	EndCol     int    `json:"end_col"`
}

// CLILocation extends Location with the symbol ID for chaining.
type CLILocation struct {
	File      string `json:"file"`
	StartLine int    `json:"start_line"`
	StartCol  int    `json:"start_col"`
	EndLine   int    `json:"end_line"`
	EndCol    int    `json:"end_col"`
	SymbolID  *int64 `json:"symbol_id,omitempty"`
}

// CLIFile is a JSON-friendly indexed file.
type CLIFile struct {
	ID        int64  `json:"id"`
	Path      string `json:"path"`
	Dialect   string `json:"dialect"`
	Snapshot  string `json:"snapshot"`
	LineCount int    `json:"line_count"`
}
