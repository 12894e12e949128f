package symbols

import (
	"fmt"
	"strings"

	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/syntax"
)

// SynthesizeIdentifier builds an identifier leaf for name by parsing a
// one-line fragment of the dialect that holds name at a kind production.
// It returns the fragment tree and the leaf inside it; callers Graft the
// leaf into their own tree.
//
// The fragment must parse without errors and contain exactly one kind site
// whose identifier is exactly name. Anything else means name is not a
// valid identifier there, reported as ErrSynthesis.
func SynthesizeIdentifier(rules *dialect.Rules, kind syntax.Kind, name string) (*syntax.Tree, syntax.NodeID, error) {
	tmpl, ok := rules.Fragments[kind]
	if !ok {
		return nil, syntax.NoNode, fmt.Errorf("%w: %s has no fragment for %s", ErrSynthesis, rules.Name, kind)
	}
	if name == "" || strings.ContainsAny(name, "\r\n") {
		return nil, syntax.NoNode, fmt.Errorf("%w: %q", ErrSynthesis, name)
	}

	frag := rules.Parse("fragment", []byte(fmt.Sprintf(tmpl, name)))
	if frag.HasErrors() {
		return nil, syntax.NoNode, fmt.Errorf("%w: %q does not parse as %s", ErrSynthesis, name, kind)
	}

	site, _ := rules.SiteOf(kind)
	ident := syntax.NoNode
	count := 0
	frag.Walk(func(id syntax.NodeID) bool {
		if frag.Kind(id) == kind && !frag.IsLeaf(id) {
			count++
			ident = identOf(frag, id, site)
		}
		return true
	})
	if count != 1 || !ident.IsValid() || frag.Token(ident) != name {
		return nil, syntax.NoNode, fmt.Errorf("%w: %q is not a single %s identifier", ErrSynthesis, name, kind)
	}
	return frag, ident, nil
}
