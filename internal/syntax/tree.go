// Package syntax is the tree model shared by every dialect: a flat arena of
// nodes addressed by NodeID, with parent links stored as ids rather than
// pointers.
//
// Leaves carry their token text plus the whitespace that precedes it, so
// String reproduces the parsed source byte-for-byte and a spliced identifier
// keeps its original spacing.
package syntax

import (
	"errors"
	"fmt"
	"strings"
)

// NodeID identifies a node inside a Tree's arena.
type NodeID uint32

// NoNode marks the absence of a node (no parent, no child found).
const NoNode NodeID = 0

// IsValid reports whether the id refers to an allocated node.
func (id NodeID) IsValid() bool { return id != NoNode }

// Kind names a grammar production or token type.
type Kind string

const (
	// KindError marks input the grammar could not make sense of.
	KindError Kind = "ERROR"
	// KindEOF is the zero-width leaf that holds trailing trivia.
	KindEOF Kind = "EOF"
)

// Span is a half-open byte range into Tree.String(). A node's span starts
// after the leading trivia of its first leaf.
type Span struct {
	Start int
	End   int
}

// Len returns the number of bytes covered.
func (s Span) Len() int { return s.End - s.Start }

// Contains reports whether offset falls inside the span.
func (s Span) Contains(offset int) bool { return offset >= s.Start && offset < s.End }

var (
	errNoParent = errors.New("syntax: node has no parent")
	errAttached = errors.New("syntax: replacement is already attached")
)

type node struct {
	kind     Kind
	leaf     bool
	lead     string
	text     string
	parent   NodeID
	children []NodeID
	span     Span
}

// Tree owns every node of one parsed unit. Nodes that are detached by
// Replace stay in the arena but are no longer reachable from the root.
type Tree struct {
	name    string
	nodes   []node
	root    NodeID
	version uint64
	text    string
	textOK  bool
}

// NewTree returns an empty tree for the unit called name (usually a file path).
func NewTree(name string) *Tree {
	// Slot 0 is reserved so that NoNode never aliases a real node.
	return &Tree{name: name, nodes: make([]node, 1, 64)}
}

// Name returns the file or unit identifier the tree was parsed from.
func (t *Tree) Name() string { return t.name }

// Len returns the arena size, including the reserved slot and detached nodes.
// Every valid NodeID is below Len.
func (t *Tree) Len() int { return len(t.nodes) }

// Version increases on every structural mutation. Derived structures record
// it to detect that they went stale.
func (t *Tree) Version() uint64 { return t.version }

// NewLeaf allocates a token with its leading trivia.
func (t *Tree) NewLeaf(kind Kind, lead, text string) NodeID {
	t.nodes = append(t.nodes, node{kind: kind, leaf: true, lead: lead, text: text})
	return NodeID(len(t.nodes) - 1)
}

// NewNode allocates an interior node and adopts children, which must be
// detached.
func (t *Tree) NewNode(kind Kind, children ...NodeID) NodeID {
	t.nodes = append(t.nodes, node{kind: kind})
	id := NodeID(len(t.nodes) - 1)
	for _, c := range children {
		t.Append(id, c)
	}
	return id
}

// Append adds child as the last child of parent.
func (t *Tree) Append(parent, child NodeID) {
	t.nodes[child].parent = parent
	t.nodes[parent].children = append(t.nodes[parent].children, child)
	t.touch()
}

// SetRoot marks id as the root and computes spans.
func (t *Tree) SetRoot(id NodeID) {
	t.root = id
	t.nodes[id].parent = NoNode
	t.touch()
}

// Root returns the root node, or NoNode for an empty tree.
func (t *Tree) Root() NodeID { return t.root }

// Kind returns the production or token kind of id.
func (t *Tree) Kind(id NodeID) Kind { return t.nodes[id].kind }

// Parent returns the parent of id, or NoNode.
func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// Children returns the children of id in source order. The slice must not be
// modified.
func (t *Tree) Children(id NodeID) []NodeID { return t.nodes[id].children }

// Child returns the i-th child of id, or NoNode when out of range.
func (t *Tree) Child(id NodeID, i int) NodeID {
	c := t.nodes[id].children
	if i < 0 || i >= len(c) {
		return NoNode
	}
	return c[i]
}

// IsLeaf reports whether id is a token.
func (t *Tree) IsLeaf(id NodeID) bool { return t.nodes[id].leaf }

// Token returns the text of a leaf without its leading trivia.
func (t *Tree) Token(id NodeID) string { return t.nodes[id].text }

// Lead returns the leading trivia of a leaf.
func (t *Tree) Lead(id NodeID) string { return t.nodes[id].lead }

// Span returns the byte range of id within String().
func (t *Tree) Span(id NodeID) Span {
	t.layout()
	return t.nodes[id].span
}

// Text returns the source text covered by id, without the leading trivia of
// its first leaf.
func (t *Tree) Text(id NodeID) string {
	if t.nodes[id].leaf {
		return t.nodes[id].text
	}
	s := t.Span(id)
	return t.String()[s.Start:s.End]
}

// String returns the full source text of the reachable tree.
func (t *Tree) String() string {
	t.layout()
	return t.text
}

// Walk visits the reachable tree depth-first in pre-order, children in source
// order. Returning false from fn skips the children of the visited node.
func (t *Tree) Walk(fn func(id NodeID) bool) {
	if !t.root.IsValid() {
		return
	}
	t.WalkFrom(t.root, fn)
}

// WalkFrom is Walk restricted to the subtree rooted at id.
func (t *Tree) WalkFrom(id NodeID, fn func(id NodeID) bool) {
	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur) {
			continue
		}
		c := t.nodes[cur].children
		for i := len(c) - 1; i >= 0; i-- {
			stack = append(stack, c[i])
		}
	}
}

// FirstChild returns the first direct child of id whose kind is one of kinds.
func (t *Tree) FirstChild(id NodeID, kinds ...Kind) NodeID {
	for _, c := range t.nodes[id].children {
		for _, k := range kinds {
			if t.nodes[c].kind == k {
				return c
			}
		}
	}
	return NoNode
}

// Ancestor returns the nearest proper ancestor of id whose kind is one of kinds.
func (t *Tree) Ancestor(id NodeID, kinds ...Kind) NodeID {
	for p := t.nodes[id].parent; p.IsValid(); p = t.nodes[p].parent {
		for _, k := range kinds {
			if t.nodes[p].kind == k {
				return p
			}
		}
	}
	return NoNode
}

// Leaves returns every reachable leaf in source order.
func (t *Tree) Leaves() []NodeID {
	var out []NodeID
	t.Walk(func(id NodeID) bool {
		if t.nodes[id].leaf {
			out = append(out, id)
		}
		return true
	})
	return out
}

// PrevLeaf returns the leaf immediately before the first leaf of id, skipping
// zero-width leaves.
func (t *Tree) PrevLeaf(id NodeID) NodeID {
	start := t.Span(id).Start
	prev := NoNode
	for _, l := range t.Leaves() {
		s := t.nodes[l].span
		if s.Start >= start {
			break
		}
		if s.Len() > 0 {
			prev = l
		}
	}
	return prev
}

// LeafAt returns the leaf under offset. An offset just past the end of a
// token (a cursor placed after it) selects that token.
func (t *Tree) LeafAt(offset int) NodeID {
	t.layout()
	after := NoNode
	for _, l := range t.Leaves() {
		s := t.nodes[l].span
		if s.Len() == 0 {
			continue
		}
		if s.Contains(offset) {
			return l
		}
		if s.End == offset {
			after = l
		}
	}
	return after
}

// Position converts a byte offset into a 0-based line and column.
func (t *Tree) Position(offset int) (line, col int) {
	text := t.String()
	if offset > len(text) {
		offset = len(text)
	}
	line = strings.Count(text[:offset], "\n")
	col = offset - (strings.LastIndexByte(text[:offset], '\n') + 1)
	return line, col
}

// Offset converts a 0-based line and column into a byte offset. It reports
// false when the position is outside the text.
func (t *Tree) Offset(line, col int) (int, bool) {
	text := t.String()
	off := 0
	for i := 0; i < line; i++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return 0, false
		}
		off += nl + 1
	}
	end := strings.IndexByte(text[off:], '\n')
	if end < 0 {
		end = len(text) - off
	}
	if col < 0 || col > end {
		return 0, false
	}
	return off + col, true
}

// HasErrors reports whether the reachable tree contains an ERROR node.
func (t *Tree) HasErrors() bool {
	found := false
	t.Walk(func(id NodeID) bool {
		if t.nodes[id].kind == KindError {
			found = true
		}
		return !found
	})
	return found
}

// Graft copies the subtree rooted at id in src into t. The copy is detached;
// attach it with Replace or Append.
func (t *Tree) Graft(src *Tree, id NodeID) NodeID {
	n := src.nodes[id]
	if n.leaf {
		return t.NewLeaf(n.kind, n.lead, n.text)
	}
	children := make([]NodeID, 0, len(n.children))
	for _, c := range n.children {
		children = append(children, t.Graft(src, c))
	}
	return t.NewNode(n.kind, children...)
}

// Replace puts repl into old's slot under old's parent. old becomes detached;
// every other node keeps its id.
func (t *Tree) Replace(old, repl NodeID) error {
	if old == repl {
		return nil
	}
	parent := t.nodes[old].parent
	if !parent.IsValid() {
		return fmt.Errorf("replace %s: %w", t.nodes[old].kind, errNoParent)
	}
	if t.nodes[repl].parent.IsValid() || repl == t.root {
		return fmt.Errorf("replace %s: %w", t.nodes[old].kind, errAttached)
	}
	siblings := t.nodes[parent].children
	for i, c := range siblings {
		if c == old {
			siblings[i] = repl
			break
		}
	}
	t.nodes[repl].parent = parent
	t.nodes[old].parent = NoNode
	t.touch()
	return nil
}

// SetLead overwrites the leading trivia of a leaf.
func (t *Tree) SetLead(id NodeID, lead string) {
	t.nodes[id].lead = lead
	t.touch()
}

// Clone returns an independent deep copy sharing no mutable state.
func (t *Tree) Clone() *Tree {
	c := &Tree{name: t.name, root: t.root, version: t.version}
	c.nodes = copyNodes(t.nodes)
	return c
}

// Restore makes t structurally identical to snapshot (typically an earlier
// Clone). The version still moves forward, so indexes built in between stay
// stale.
func (t *Tree) Restore(snapshot *Tree) {
	t.nodes = copyNodes(snapshot.nodes)
	t.root = snapshot.root
	t.name = snapshot.name
	t.touch()
}

// Equal reports structural equality of the reachable trees: same kinds, same
// tokens, same trivia, same shape. Node ids are not compared.
func (t *Tree) Equal(other *Tree) bool {
	if t.root.IsValid() != other.root.IsValid() {
		return false
	}
	if !t.root.IsValid() {
		return true
	}
	return t.equalAt(t.root, other, other.root)
}

func (t *Tree) equalAt(a NodeID, other *Tree, b NodeID) bool {
	na, nb := t.nodes[a], other.nodes[b]
	if na.kind != nb.kind || na.leaf != nb.leaf || na.lead != nb.lead || na.text != nb.text {
		return false
	}
	if len(na.children) != len(nb.children) {
		return false
	}
	for i := range na.children {
		if !t.equalAt(na.children[i], other, nb.children[i]) {
			return false
		}
	}
	return true
}

// Dump renders the subtree at id as an s-expression, leaves as KIND:"text".
// Used in tests and debug logging.
func (t *Tree) Dump(id NodeID) string {
	var b strings.Builder
	t.dump(&b, id)
	return b.String()
}

func (t *Tree) dump(b *strings.Builder, id NodeID) {
	n := t.nodes[id]
	if n.leaf {
		fmt.Fprintf(b, "%s:%q", n.kind, n.text)
		return
	}
	b.WriteByte('(')
	b.WriteString(string(n.kind))
	for _, c := range n.children {
		b.WriteByte(' ')
		t.dump(b, c)
	}
	b.WriteByte(')')
}

func (t *Tree) touch() {
	t.version++
	t.textOK = false
}

// layout recomputes spans and the cached text when the tree changed.
func (t *Tree) layout() {
	if t.textOK {
		return
	}
	var b strings.Builder
	if t.root.IsValid() {
		t.layoutAt(t.root, &b)
	}
	t.text = b.String()
	t.textOK = true
}

func (t *Tree) layoutAt(id NodeID, b *strings.Builder) {
	n := &t.nodes[id]
	if n.leaf {
		b.WriteString(n.lead)
		start := b.Len()
		b.WriteString(n.text)
		n.span = Span{Start: start, End: b.Len()}
		return
	}
	begin := b.Len()
	for i, c := range n.children {
		t.layoutAt(c, b)
		if i == 0 {
			begin = t.nodes[c].span.Start
		}
	}
	n.span = Span{Start: begin, End: b.Len()}
}

func copyNodes(src []node) []node {
	out := make([]node, len(src))
	for i, n := range src {
		out[i] = n
		if n.children != nil {
			out[i].children = append([]NodeID(nil), n.children...)
		}
	}
	return out
}
