// Package symbols is the dialect-independent symbol engine: it classifies
// identifier-bearing nodes, indexes them per tree, resolves references to
// definitions and renames symbols by splicing synthesized identifiers into
// the tree.
//
// An Index is a read-only view of one tree version. After any mutation of
// the tree the index reports Stale and must be rebuilt.
package symbols

import (
	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/syntax"
)

// Symbol is the logical identifier a site names.
type Symbol struct {
	Name       string
	Kind       dialect.SymbolKind
	Restricted bool
}

// SymbolRole is the classification of one node.
type SymbolRole struct {
	Role       dialect.Role
	Kind       dialect.SymbolKind
	Restricted bool
}

// Classify tags node as a definition or reference. node may be the site
// production or its identifier leaf. It reports false for every other node.
func Classify(rules *dialect.Rules, t *syntax.Tree, node syntax.NodeID) (SymbolRole, bool) {
	prod, site, ok := production(rules, t, node)
	if !ok {
		return SymbolRole{}, false
	}
	name := ""
	if ident := identOf(t, prod, site); ident.IsValid() {
		name = t.Token(ident)
	}
	return SymbolRole{
		Role:       site.Role,
		Kind:       site.Kind,
		Restricted: rules.IsRestricted(site.Kind, name),
	}, true
}

// production maps node to the site production it belongs to: node itself,
// or the parent when node is that production's identifier leaf.
func production(rules *dialect.Rules, t *syntax.Tree, node syntax.NodeID) (syntax.NodeID, dialect.Site, bool) {
	if !node.IsValid() || int(node) >= t.Len() {
		return syntax.NoNode, dialect.Site{}, false
	}
	if site, ok := rules.SiteOf(t.Kind(node)); ok && !t.IsLeaf(node) {
		return node, site, true
	}
	if !t.IsLeaf(node) {
		return syntax.NoNode, dialect.Site{}, false
	}
	parent := t.Parent(node)
	if !parent.IsValid() {
		return syntax.NoNode, dialect.Site{}, false
	}
	site, ok := rules.SiteOf(t.Kind(parent))
	if !ok || site.Ident != t.Kind(node) {
		return syntax.NoNode, dialect.Site{}, false
	}
	return parent, site, true
}

func identOf(t *syntax.Tree, prod syntax.NodeID, site dialect.Site) syntax.NodeID {
	return t.FirstChild(prod, site.Ident)
}
