// Package dialect holds the per-language rules the symbol engine is
// parameterised by, and the minimal grammars that produce syntax trees for
// them. Each dialect registers one Rules value from init().
package dialect

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/jward/tisym/internal/syntax"
)

// Role tells whether a site introduces a symbol or uses one.
type Role uint8

const (
	RoleNone Role = iota
	RoleDefinition
	RoleReference
)

func (r Role) String() string {
	switch r {
	case RoleDefinition:
		return "definition"
	case RoleReference:
		return "reference"
	default:
		return "none"
	}
}

// SymbolKind is the syntactic kind of a symbol occurrence.
type SymbolKind string

const (
	Label       SymbolKind = "label"
	NumVarWrite SymbolKind = "nvar_write"
	NumVarRead  SymbolKind = "nvar_read"
	NumVarFunc  SymbolKind = "nvar_func"
	StrVarWrite SymbolKind = "svar_write"
	StrVarRead  SymbolKind = "svar_read"
	StrVarFunc  SymbolKind = "svar_func"
	LineNumber  SymbolKind = "line_number"
	SubProgram  SymbolKind = "subprogram"
)

// Namespace groups kinds that may resolve to each other. A numeric read
// resolves to a numeric write, never to a label of the same spelling.
type Namespace uint8

const (
	NamespaceNone Namespace = iota
	NamespaceLabel
	NamespaceLine
	NamespaceSub
	NamespaceVariable
)

// Namespace returns the namespace k lives in.
func (k SymbolKind) Namespace() Namespace {
	switch k {
	case Label:
		return NamespaceLabel
	case LineNumber:
		return NamespaceLine
	case SubProgram:
		return NamespaceSub
	case NumVarWrite, NumVarRead, NumVarFunc, StrVarWrite, StrVarRead, StrVarFunc:
		return NamespaceVariable
	default:
		return NamespaceNone
	}
}

// Site describes an identifier-bearing production: what it does and which
// child token carries the name.
type Site struct {
	Role  Role
	Kind  SymbolKind
	Ident syntax.Kind
}

// Grammar is the parser entry point of a dialect. Parsing never fails;
// unrecognised input becomes syntax.KindError nodes.
type Grammar interface {
	Parse(name string, src []byte) *syntax.Tree
}

// GrammarFunc adapts a function to Grammar.
type GrammarFunc func(name string, src []byte) *syntax.Tree

// Parse calls f.
func (f GrammarFunc) Parse(name string, src []byte) *syntax.Tree { return f(name, src) }

// Direction is the search direction of a positional reference.
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

// Scoping describes how a dialect partitions names. A zero Scoping means one
// namespace per file. Otherwise a node of kind Open starts a region that
// lasts until (and includes) the next node of kind Close; kinds for which
// Global returns true ignore regions.
//
// A node of kind Local is a statement with its own parameters: definitions
// made by a Params production are visible only inside that node, and a
// reference inside it binds to a parameter of the same name when there is
// one. Every other name in a Local node uses the enclosing scope.
type Scoping struct {
	Open   syntax.Kind
	Close  syntax.Kind
	Global func(SymbolKind) bool

	Local  syntax.Kind
	Params map[syntax.Kind]bool
}

// Regional reports whether the dialect has scope regions.
func (s Scoping) Regional() bool { return s.Open != "" }

// IsParam reports whether a production defines a Local parameter.
func (s Scoping) IsParam(kind syntax.Kind) bool { return s.Local != "" && s.Params[kind] }

// IsGlobal reports whether kind always lives in file scope.
func (s Scoping) IsGlobal(kind SymbolKind) bool {
	return !s.Regional() || (s.Global != nil && s.Global(kind))
}

// Rules is everything the generic engine needs to know about a dialect.
type Rules struct {
	Name       string
	Extensions []string
	Grammar    Grammar

	// Sites maps identifier-bearing productions to their classification.
	Sites map[syntax.Kind]Site

	// Restricted reports names whose identity is positional or reserved and
	// which must never be renamed.
	Restricted func(kind SymbolKind, name string) bool

	Scoping Scoping

	// Fragments maps a site production to a one-line program containing
	// that production, with %s where the name goes.
	Fragments map[syntax.Kind]string

	// Positional, when set, reports whether a reference named name at site
	// resolves by position and in which direction.
	Positional func(t *syntax.Tree, site syntax.NodeID, name string) (Direction, bool)
}

// SiteOf returns the classification of a production kind.
func (r *Rules) SiteOf(kind syntax.Kind) (Site, bool) {
	s, ok := r.Sites[kind]
	return s, ok
}

// IsRestricted applies the restricted-name predicate.
func (r *Rules) IsRestricted(kind SymbolKind, name string) bool {
	return r.Restricted != nil && r.Restricted(kind, name)
}

// Parse runs the dialect grammar.
func (r *Rules) Parse(name string, src []byte) *syntax.Tree {
	return r.Grammar.Parse(name, src)
}

var (
	registryMu sync.RWMutex
	registry   = map[string]*Rules{}
)

// Register adds a dialect. A later registration with the same name wins.
func Register(r *Rules) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[r.Name] = r
}

// Lookup returns the dialect called name.
func Lookup(name string) (*Rules, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	r, ok := registry[name]
	return r, ok
}

// ForPath picks a dialect from the file extension of path.
func ForPath(path string) (*Rules, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return nil, false
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	for _, name := range sortedNames() {
		for _, e := range registry[name].Extensions {
			if e == ext {
				return registry[name], true
			}
		}
	}
	return nil, false
}

// Names lists registered dialects in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return sortedNames()
}

func sortedNames() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
