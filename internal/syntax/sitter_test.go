package syntax

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goSource = `package main

// Greet says hello.
func Greet(name string) string {
	return "Hello, " + name
}
`

func parseSitter(t *testing.T, src string) *Tree {
	t.Helper()
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(golang.GetLanguage())

	st, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	require.NoError(t, err)
	defer st.Close()

	return FromSitter("main.go", st.RootNode(), []byte(src))
}

func TestFromSitter_TextIsByteIdentical(t *testing.T) {
	t.Parallel()
	tr := parseSitter(t, goSource)

	assert.Equal(t, goSource, tr.String())
	assert.Equal(t, Kind("source_file"), tr.Kind(tr.Root()))
	assert.Equal(t, "main.go", tr.Name())
	assert.False(t, tr.HasErrors())
}

func TestFromSitter_IdentifiersAreLeaves(t *testing.T) {
	t.Parallel()
	tr := parseSitter(t, goSource)

	var idents []string
	tr.Walk(func(id NodeID) bool {
		if tr.Kind(id) == "identifier" && tr.IsLeaf(id) {
			idents = append(idents, tr.Token(id))
		}
		return true
	})
	assert.Contains(t, idents, "Greet")
	assert.Contains(t, idents, "name")

	fn := NoNode
	tr.Walk(func(id NodeID) bool {
		if tr.Kind(id) == "function_declaration" {
			fn = id
		}
		return !fn.IsValid()
	})
	require.True(t, fn.IsValid())
	nameLeaf := tr.FirstChild(fn, "identifier")
	require.True(t, nameLeaf.IsValid())
	assert.Equal(t, "Greet", tr.Token(nameLeaf))

	line, col := tr.Position(tr.Span(nameLeaf).Start)
	assert.Equal(t, 3, line)
	assert.Equal(t, 5, col)
}

func TestFromSitter_ErrorNodes(t *testing.T) {
	t.Parallel()
	src := "package main\nfunc (\n"
	tr := parseSitter(t, src)

	assert.Equal(t, src, tr.String())
	assert.True(t, tr.HasErrors())
}
