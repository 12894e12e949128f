package tisym

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/symbols"
	"github.com/jward/tisym/internal/syntax"
)

// Document is one parsed source file and its symbol index. The index is
// rebuilt on demand after the tree changes. A Document is not safe for
// concurrent use.
type Document struct {
	path   string
	rules  *dialect.Rules
	tree   *syntax.Tree
	idx    *symbols.Index
	logger *slog.Logger
}

// Open reads and parses the file at path.
func Open(path string, opts ...Option) (*Document, error) {
	o := newOptions(opts)
	rules, err := o.rulesFor(path)
	if err != nil {
		return nil, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tisym: open: %w", err)
	}
	d := newDocument(path, src, rules, o.logger)
	d.path = path
	return d, nil
}

// Load parses src under name with the named dialect. An empty dialect picks
// one from name's extension.
func Load(name string, src []byte, dialectName string, opts ...Option) (*Document, error) {
	o := newOptions(opts)
	if dialectName != "" {
		o.dialect = dialectName
	}
	rules, err := o.rulesFor(name)
	if err != nil {
		return nil, err
	}
	return newDocument(name, src, rules, o.logger), nil
}

func newDocument(name string, src []byte, rules *dialect.Rules, logger *slog.Logger) *Document {
	t := rules.Parse(name, src)
	logger.Debug("document parsed",
		slog.String("file", name),
		slog.String("dialect", rules.Name),
		slog.Int("nodes", t.Len()),
		slog.Bool("errors", t.HasErrors()))
	return &Document{rules: rules, tree: t, logger: logger}
}

// Name returns the file or unit name.
func (d *Document) Name() string { return d.tree.Name() }

// Path returns the file the document was opened from, or "".
func (d *Document) Path() string { return d.path }

// Rules returns the document's dialect.
func (d *Document) Rules() *dialect.Rules { return d.rules }

// Tree returns the syntax tree.
func (d *Document) Tree() *syntax.Tree { return d.tree }

// Text returns the current source text.
func (d *Document) Text() string { return d.tree.String() }

// Index returns an up-to-date symbol index.
func (d *Document) Index() *symbols.Index {
	if d.idx == nil || d.idx.Stale() {
		d.idx = symbols.Build(d.tree, d.rules, symbols.WithLogger(d.logger))
	}
	return d.idx
}

// Diagnostics returns the malformed sites found while indexing.
func (d *Document) Diagnostics() []symbols.Diagnostic { return d.Index().Diagnostics() }

// Symbols returns every definition in source order.
func (d *Document) Symbols() []Site { return d.Index().Definitions() }

// NodeAt returns the leaf under (line, col).
func (d *Document) NodeAt(line, col int) (syntax.NodeID, error) {
	off, ok := d.tree.Offset(line, col)
	if !ok {
		return syntax.NoNode, fmt.Errorf("%w: %d:%d", ErrPosition, line, col)
	}
	leaf := d.tree.LeafAt(off)
	if !leaf.IsValid() {
		return syntax.NoNode, fmt.Errorf("%w: %d:%d", ErrPosition, line, col)
	}
	return leaf, nil
}

// SiteAt returns the definition or reference whose identifier is under
// (line, col).
func (d *Document) SiteAt(line, col int) (Site, bool) {
	leaf, err := d.NodeAt(line, col)
	if err != nil {
		return Site{}, false
	}
	return d.Index().SiteAt(leaf)
}

// DefinitionAt resolves the identifier under (line, col). A definition
// resolves to itself; an unresolved reference reports false.
func (d *Document) DefinitionAt(line, col int) (Site, bool) {
	s, ok := d.SiteAt(line, col)
	if !ok {
		return Site{}, false
	}
	return symbols.Resolve(d.Index(), s.Node)
}

// ReferencesTo returns the references that resolve to the same definition
// as the identifier under (line, col), in source order.
func (d *Document) ReferencesTo(line, col int) []Site {
	def, ok := d.DefinitionAt(line, col)
	if !ok {
		return nil
	}
	idx := d.Index()
	var out []Site
	for _, ref := range idx.References() {
		if target, ok := symbols.Resolve(idx, ref.Node); ok && target.Node == def.Node {
			out = append(out, ref)
		}
	}
	return out
}

// Position returns the 0-based line and column of a site's identifier.
func (d *Document) Position(s Site) (line, col int) {
	return d.tree.Position(d.tree.Span(s.Ident).Start)
}

// Rename renames the symbol whose identifier is under (line, col) at every
// occurrence and returns the number of sites changed.
func (d *Document) Rename(line, col int, newName string) (int, error) {
	leaf, err := d.NodeAt(line, col)
	if err != nil {
		return 0, err
	}
	return d.RenameSymbol(leaf, newName)
}

// RenameSymbol renames the symbol at node at every occurrence. node may be a
// site production or its identifier leaf.
func (d *Document) RenameSymbol(node syntax.NodeID, newName string) (int, error) {
	return symbols.RenameSymbol(d.Index(), node, newName, symbols.WithLogger(d.logger))
}

// Save writes the current text back to the file the document was opened
// from.
func (d *Document) Save() error {
	if d.path == "" {
		return ErrNoPath
	}
	mode := os.FileMode(0o644)
	if fi, err := os.Stat(d.path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := os.WriteFile(d.path, []byte(d.Text()), mode); err != nil {
		return fmt.Errorf("tisym: save: %w", err)
	}
	d.logger.Info("document saved", slog.String("file", d.path))
	return nil
}
