package symbols

import (
	"fmt"
	"log/slog"

	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/syntax"
)

// ScopeID names a resolution region. FileScope is the whole tree; a
// subprogram scope is the id of the node that opened it, and a parameter
// scope is the id of the statement that binds the parameters.
type ScopeID syntax.NodeID

// FileScope is the scope of everything outside a subprogram region.
const FileScope ScopeID = 0

// Site is an indexed definition or reference.
type Site struct {
	Symbol
	Role  dialect.Role
	Node  syntax.NodeID // the production
	Ident syntax.NodeID // its identifier leaf
	Scope ScopeID       // effective scope, FileScope for global kinds
	Order int           // position among all sites, source order
}

// IsDefinition reports whether the site introduces its symbol.
func (s Site) IsDefinition() bool { return s.Role == dialect.RoleDefinition }

// Option configures Build.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for build diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Index aggregates the sites of one tree version.
type Index struct {
	tree    *syntax.Tree
	rules   *dialect.Rules
	version uint64

	sites  []Site
	byNode map[syntax.NodeID]int
	byName map[string][]int // definitions only
	scopes []ScopeID
	diags  []Diagnostic
}

// Build indexes t in one pre-order traversal.
func Build(t *syntax.Tree, rules *dialect.Rules, opts ...Option) *Index {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}

	idx := &Index{
		tree:   t,
		rules:  rules,
		byNode: make(map[syntax.NodeID]int),
		byName: make(map[string][]int),
		scopes: make([]ScopeID, t.Len()),
	}

	scoping := rules.Scoping
	current := FileScope
	closing := syntax.NoNode
	local := localScope{}

	t.Walk(func(id syntax.NodeID) bool {
		if closing.IsValid() && t.Span(id).Start >= t.Span(closing).End && t.Ancestor(id, t.Kind(closing)) != closing {
			current, closing = FileScope, syntax.NoNode
		}
		if local.node.IsValid() && t.Ancestor(id, scoping.Local) != local.node {
			local = localScope{}
		}
		if scoping.Regional() {
			switch t.Kind(id) {
			case scoping.Open:
				current = ScopeID(id)
			case scoping.Close:
				closing = id
			}
		}
		if scoping.Local != "" && t.Kind(id) == scoping.Local {
			local = localScope{node: id, params: make(map[paramKey]bool)}
		}
		idx.scopes[id] = current

		if t.IsLeaf(id) {
			return true
		}
		site, ok := rules.SiteOf(t.Kind(id))
		if !ok {
			return true
		}
		ident := identOf(t, id, site)
		if !ident.IsValid() {
			off := t.Span(id).Start
			line, col := t.Position(off)
			d := Diagnostic{Node: id, Offset: off, Err: fmt.Errorf("%s at %d:%d: %w", t.Kind(id), line, col, ErrMalformedDefinition)}
			idx.diags = append(idx.diags, d)
			o.logger.Warn("malformed site",
				slog.String("file", t.Name()),
				slog.String("kind", string(t.Kind(id))),
				slog.Int("line", line),
				slog.Int("col", col))
			return true
		}
		idx.add(id, ident, site, local.scopeFor(t, scoping, id, ident, site, current))
		return true
	})

	idx.version = t.Version()
	o.logger.Debug("index built",
		slog.String("file", t.Name()),
		slog.String("dialect", rules.Name),
		slog.Int("sites", len(idx.sites)),
		slog.Int("definitions", idx.definitionCount()),
		slog.Int("diagnostics", len(idx.diags)))
	return idx
}

type paramKey struct {
	name string
	ns   dialect.Namespace
}

// localScope tracks the Local statement being walked and the parameters it
// has bound so far. Parameters precede their uses in source order.
type localScope struct {
	node   syntax.NodeID
	params map[paramKey]bool
}

// scopeFor returns the region a site lives in: the Local statement for its
// parameters and for references to them, region otherwise.
func (l localScope) scopeFor(t *syntax.Tree, scoping dialect.Scoping, id, ident syntax.NodeID, site dialect.Site, region ScopeID) ScopeID {
	if !l.node.IsValid() {
		return region
	}
	key := paramKey{name: t.Token(ident), ns: site.Kind.Namespace()}
	if scoping.IsParam(t.Kind(id)) {
		l.params[key] = true
		return ScopeID(l.node)
	}
	if site.Role == dialect.RoleReference && l.params[key] {
		return ScopeID(l.node)
	}
	return region
}

func (idx *Index) add(node, ident syntax.NodeID, site dialect.Site, region ScopeID) {
	name := idx.tree.Token(ident)
	scope := region
	if idx.rules.Scoping.IsGlobal(site.Kind) {
		scope = FileScope
	}
	s := Site{
		Symbol: Symbol{Name: name, Kind: site.Kind, Restricted: idx.rules.IsRestricted(site.Kind, name)},
		Role:   site.Role,
		Node:   node,
		Ident:  ident,
		Scope:  scope,
		Order:  len(idx.sites),
	}
	idx.sites = append(idx.sites, s)
	idx.byNode[node] = s.Order
	idx.byNode[ident] = s.Order
	if s.IsDefinition() {
		idx.byName[name] = append(idx.byName[name], s.Order)
	}
}

func (idx *Index) definitionCount() int {
	n := 0
	for _, ords := range idx.byName {
		n += len(ords)
	}
	return n
}

// Tree returns the indexed tree.
func (idx *Index) Tree() *syntax.Tree { return idx.tree }

// Rules returns the dialect the index was built with.
func (idx *Index) Rules() *dialect.Rules { return idx.rules }

// Stale reports whether the tree changed since the index was built.
func (idx *Index) Stale() bool { return idx.tree.Version() != idx.version }

// Sites returns every site in source order.
func (idx *Index) Sites() []Site { return idx.sites }

// Definitions returns every definition site in source order.
func (idx *Index) Definitions() []Site { return idx.filter(dialect.RoleDefinition) }

// References returns every reference site in source order.
func (idx *Index) References() []Site { return idx.filter(dialect.RoleReference) }

func (idx *Index) filter(role dialect.Role) []Site {
	var out []Site
	for _, s := range idx.sites {
		if s.Role == role {
			out = append(out, s)
		}
	}
	return out
}

// SiteAt returns the site whose production or identifier leaf is node.
func (idx *Index) SiteAt(node syntax.NodeID) (Site, bool) {
	i, ok := idx.byNode[node]
	if !ok {
		return Site{}, false
	}
	return idx.sites[i], true
}

// DefinitionsNamed returns the definitions called name, in source order,
// across all scopes and namespaces.
func (idx *Index) DefinitionsNamed(name string) []Site {
	ords := idx.byName[name]
	out := make([]Site, 0, len(ords))
	for _, i := range ords {
		out = append(out, idx.sites[i])
	}
	return out
}

// ScopeOf returns the region node lies in. Global symbol kinds ignore it;
// use Site.Scope for the scope a site resolves in.
func (idx *Index) ScopeOf(node syntax.NodeID) ScopeID {
	if int(node) >= len(idx.scopes) {
		return FileScope
	}
	return idx.scopes[node]
}

// Occurrences returns every site that names the same symbol as s: same
// name, same namespace, same effective scope. Positional references are
// excluded since they are never renamed.
func (idx *Index) Occurrences(s Site) []Site {
	var out []Site
	ns := s.Kind.Namespace()
	for _, o := range idx.sites {
		if o.Name != s.Name || o.Kind.Namespace() != ns || o.Scope != s.Scope {
			continue
		}
		if idx.positional(o) {
			continue
		}
		out = append(out, o)
	}
	return out
}

// Diagnostics returns the local problems found while building.
func (idx *Index) Diagnostics() []Diagnostic { return idx.diags }

func (idx *Index) positional(s Site) bool {
	if s.IsDefinition() || idx.rules.Positional == nil {
		return false
	}
	_, ok := idx.rules.Positional(idx.tree, s.Node, s.Name)
	return ok
}
