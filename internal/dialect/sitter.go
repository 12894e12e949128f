package dialect

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/tisym/internal/syntax"
)

// SitterGrammar adapts a tree-sitter language to Grammar. Production kinds
// are the grammar's node types. Each Parse uses its own parser, since a
// tree-sitter parser must not be shared between goroutines.
func SitterGrammar(lang *sitter.Language) Grammar {
	return GrammarFunc(func(name string, src []byte) *syntax.Tree {
		parser := sitter.NewParser()
		defer parser.Close()
		parser.SetLanguage(lang)

		st, err := parser.ParseCtx(context.Background(), nil, src)
		if err != nil {
			return unparsed(name, src)
		}
		defer st.Close()
		return syntax.FromSitter(name, st.RootNode(), src)
	})
}

// unparsed wraps src in a single error node.
func unparsed(name string, src []byte) *syntax.Tree {
	t := syntax.NewTree(name)
	top := t.NewNode(syntax.KindError, t.NewLeaf(TokText, "", string(src)))
	t.Append(top, t.NewLeaf(syntax.KindEOF, "", ""))
	t.SetRoot(top)
	return t
}
