package syntax

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// KindDocument wraps a tree-sitter root that turned out to be a single token.
const KindDocument Kind = "document"

// FromSitter converts a tree-sitter tree into the arena model so that a
// front-end with a tree-sitter grammar can use the symbol engine directly.
//
// Node kinds are tree-sitter node types; error and missing nodes become
// KindError. Source bytes not covered by any leaf (whitespace, extras a
// grammar hides) become the leading trivia of the next leaf, and anything
// after the last leaf goes into a trailing EOF leaf, so String() returns src
// unchanged.
func FromSitter(name string, root *sitter.Node, src []byte) *Tree {
	t := NewTree(name)
	var off uint32

	var build func(n *sitter.Node) NodeID
	build = func(n *sitter.Node) NodeID {
		count := int(n.ChildCount())
		if count == 0 {
			start, end := n.StartByte(), n.EndByte()
			if start < off {
				start = off
			}
			if end < start {
				end = start
			}
			id := t.NewLeaf(sitterKind(n), string(src[off:start]), string(src[start:end]))
			off = end
			return id
		}
		children := make([]NodeID, 0, count)
		for i := 0; i < count; i++ {
			children = append(children, build(n.Child(i)))
		}
		return t.NewNode(sitterKind(n), children...)
	}

	top := build(root)
	if t.IsLeaf(top) {
		top = t.NewNode(KindDocument, top)
	}
	t.Append(top, t.NewLeaf(KindEOF, string(src[off:]), ""))
	t.SetRoot(top)
	return t
}

func sitterKind(n *sitter.Node) Kind {
	if n.IsError() || n.IsMissing() {
		return KindError
	}
	return Kind(n.Type())
}
