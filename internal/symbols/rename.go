package symbols

import (
	"fmt"
	"log/slog"

	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/syntax"
)

// Rename gives the site at node the name newName. node may be the site
// production or its identifier leaf. Only the identifier leaf is replaced,
// so every other node id stays valid and the new leaf keeps the old leaf's
// leading whitespace.
//
// Every refusal wraps ErrRenameRejected and leaves t untouched. Rename
// changes one site; use RenameSymbol to rename all occurrences.
func Rename(t *syntax.Tree, rules *dialect.Rules, node syntax.NodeID, newName string) error {
	prod, site, ok := production(rules, t, node)
	if !ok {
		return fmt.Errorf("rename %q: %w", newName, ErrNotSymbol)
	}
	ident := identOf(t, prod, site)
	if !ident.IsValid() {
		return fmt.Errorf("rename %s to %q: %w", t.Kind(prod), newName, ErrNoIdentifier)
	}
	old := t.Token(ident)
	if rules.IsRestricted(site.Kind, old) {
		return fmt.Errorf("rename %s to %q: %w", old, newName, ErrRestricted)
	}
	if rules.IsRestricted(site.Kind, newName) {
		return fmt.Errorf("rename %s to %q: new name: %w", old, newName, ErrRestricted)
	}
	if old == newName {
		return nil
	}

	frag, leaf, err := SynthesizeIdentifier(rules, t.Kind(prod), newName)
	if err != nil {
		return fmt.Errorf("rename %s: %w", old, err)
	}
	repl := t.Graft(frag, leaf)
	t.SetLead(repl, t.Lead(ident))
	if err := t.Replace(ident, repl); err != nil {
		return fmt.Errorf("rename %s: %w", old, err)
	}
	return nil
}

// RenameSymbol renames every occurrence of the symbol at node and returns
// how many sites it touched. The new name is validated against each
// production kind involved before anything changes, and the tree is
// restored from a snapshot if a site still fails, so the tree is either
// fully renamed or unchanged. idx is stale afterwards.
//
// A rename must not change what any reference resolves to. A new name that
// another site already uses in the symbol's namespace and scope is refused
// up front; any other change in binding, such as a parameter capturing a
// name, is caught by re-resolving the renamed tree and rolled back. Both
// report ErrNameConflict.
func RenameSymbol(idx *Index, node syntax.NodeID, newName string, opts ...Option) (int, error) {
	o := options{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(&o)
	}
	if idx.Stale() {
		return 0, ErrStaleIndex
	}

	t, rules := idx.tree, idx.rules
	s, ok := idx.SiteAt(node)
	if !ok {
		// Not indexed: Rename reports why.
		if err := Rename(t, rules, node, newName); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if s.Restricted {
		return 0, fmt.Errorf("rename %s to %q: %w", s.Name, newName, ErrRestricted)
	}

	occ := idx.Occurrences(s)
	checked := make(map[syntax.Kind]bool)
	for _, oc := range occ {
		kind := t.Kind(oc.Node)
		if checked[kind] {
			continue
		}
		checked[kind] = true
		if rules.IsRestricted(oc.Kind, newName) {
			return 0, fmt.Errorf("rename %s to %q: new name: %w", s.Name, newName, ErrRestricted)
		}
		if _, _, err := SynthesizeIdentifier(rules, kind, newName); err != nil {
			return 0, fmt.Errorf("rename %s: %w", s.Name, err)
		}
	}

	if newName != s.Name {
		if err := idx.checkFree(s, newName); err != nil {
			return 0, err
		}
	}

	before := bindings(idx)
	snapshot := t.Clone()
	rollback := func(err error) (int, error) {
		t.Restore(snapshot)
		o.logger.Warn("rename rolled back",
			slog.String("file", t.Name()),
			slog.String("symbol", s.Name),
			slog.String("new_name", newName),
			slog.String("error", err.Error()))
		return 0, err
	}
	for _, site := range occ {
		if err := Rename(t, rules, site.Node, newName); err != nil {
			return rollback(err)
		}
	}
	if err := sameBindings(Build(t, rules), before); err != nil {
		return rollback(fmt.Errorf("rename %s to %q: %w", s.Name, newName, err))
	}

	o.logger.Debug("symbol renamed",
		slog.String("file", t.Name()),
		slog.String("symbol", s.Name),
		slog.String("new_name", newName),
		slog.Int("sites", len(occ)))
	return len(occ), nil
}

// checkFree refuses newName when a site in s's namespace and scope already
// carries it.
func (idx *Index) checkFree(s Site, newName string) error {
	ns := s.Kind.Namespace()
	for _, o := range idx.sites {
		if o.Name != newName || o.Kind.Namespace() != ns || o.Scope != s.Scope {
			continue
		}
		line, col := idx.tree.Position(idx.tree.Span(o.Ident).Start)
		return fmt.Errorf("rename %s to %q: %s of %s at %d:%d: %w",
			s.Name, newName, o.Role, newName, line, col, ErrNameConflict)
	}
	return nil
}

// bindings maps every site order to the order of the definition it resolves
// to, or -1.
func bindings(idx *Index) []int {
	out := make([]int, len(idx.sites))
	for i, s := range idx.sites {
		out[i] = -1
		if d, ok := Resolve(idx, s.Node); ok {
			out[i] = d.Order
		}
	}
	return out
}

// sameBindings reports the first site of idx that resolves differently than
// recorded in want.
func sameBindings(idx *Index, want []int) error {
	got := bindings(idx)
	if len(got) != len(want) {
		return fmt.Errorf("site count changed from %d to %d: %w", len(want), len(got), ErrNameConflict)
	}
	for i := range got {
		if got[i] == want[i] {
			continue
		}
		s := idx.sites[i]
		line, col := idx.tree.Position(idx.tree.Span(s.Ident).Start)
		return fmt.Errorf("%s at %d:%d would resolve elsewhere: %w", s.Name, line, col, ErrNameConflict)
	}
	return nil
}
