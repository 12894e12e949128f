package store

import "time"

// File is one indexed source file. Snapshot identifies the indexing run that
// produced its current symbol table.
type File struct {
	ID          int64
	Path        string
	Dialect     string
	Hash        string
	Snapshot    string
	LineCount   int
	LastIndexed time.Time
}

// Symbol is a stored definition site. Positions are 0-based.
type Symbol struct {
	ID            int64
	FileID        int64
	Name          string
	Kind          string
	Production    string
	Restricted    bool
	Scope         int64
	SignatureHash string
	StartLine     int
	StartCol      int
	EndLine       int
	EndCol        int
}

// Reference is a stored reference site.
type Reference struct {
	ID         int64
	FileID     int64
	Name       string
	Kind       string
	Production string
	Restricted bool
	Scope      int64
	StartLine  int
	StartCol   int
	EndLine    int
	EndCol     int
}

// ResolvedReference links a reference to the definition it resolved to.
// ResolutionKind is ResolvedByName or ResolvedByPosition.
type ResolvedReference struct {
	ID             int64
	ReferenceID    int64
	TargetSymbolID int64
	ResolutionKind string
}
