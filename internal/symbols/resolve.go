package symbols

import (
	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/syntax"
)

// Resolve returns the definition that node refers to. node may be a site
// production or its identifier leaf; a definition resolves to itself.
// Unresolved references report false.
//
// Candidates share the reference's name, namespace and effective scope.
// With several candidates the first in source order wins, except for
// positional names, which pick the nearest definition in the direction the
// dialect reports.
func Resolve(idx *Index, node syntax.NodeID) (Site, bool) {
	s, ok := idx.SiteAt(node)
	if !ok {
		return Site{}, false
	}
	if s.IsDefinition() {
		return s, true
	}

	candidates := idx.candidates(s)
	if len(candidates) == 0 {
		return Site{}, false
	}

	if idx.rules.Positional != nil {
		if dir, ok := idx.rules.Positional(idx.tree, s.Node, s.Name); ok {
			return nearest(candidates, s.Order, dir)
		}
	}
	return candidates[0], true
}

func (idx *Index) candidates(s Site) []Site {
	ns := s.Kind.Namespace()
	var out []Site
	for _, i := range idx.byName[s.Name] {
		d := idx.sites[i]
		if d.Kind.Namespace() == ns && d.Scope == s.Scope {
			out = append(out, d)
		}
	}
	return out
}

// nearest picks from source-ordered candidates the closest one after
// (Forward) or before (Backward) order.
func nearest(candidates []Site, order int, dir dialect.Direction) (Site, bool) {
	if dir == dialect.Backward {
		for i := len(candidates) - 1; i >= 0; i-- {
			if candidates[i].Order < order {
				return candidates[i], true
			}
		}
		return Site{}, false
	}
	for _, c := range candidates {
		if c.Order > order {
			return c, true
		}
	}
	return Site{}, false
}
