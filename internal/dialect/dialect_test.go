package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/tisym/internal/syntax"
)

func TestRegistry_BuiltinDialects(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{Xas99, Xbas99, Xga99}, Names())

	r, ok := Lookup(Xas99)
	require.True(t, ok)
	assert.Equal(t, Xas99, r.Name)

	_, ok = Lookup("cobol")
	assert.False(t, ok)
}

func TestRegistry_ForPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		path string
		want string
	}{
		{"src/main.a99", Xas99},
		{"SRC/MAIN.A99", Xas99},
		{"boot.asm", Xas99},
		{"menu.gpl", Xga99},
		{"menu.g99", Xga99},
		{"game.xb", Xbas99},
		{"game.b99", Xbas99},
	}
	for _, tt := range tests {
		r, ok := ForPath(tt.path)
		require.True(t, ok, tt.path)
		assert.Equal(t, tt.want, r.Name, tt.path)
	}

	_, ok := ForPath("README.md")
	assert.False(t, ok)
	_, ok = ForPath("Makefile")
	assert.False(t, ok)
}

func TestScoping_IsGlobal(t *testing.T) {
	t.Parallel()
	asm, _ := Lookup(Xas99)
	assert.False(t, asm.Scoping.Regional())
	assert.True(t, asm.Scoping.IsGlobal(Label))

	xb, _ := Lookup(Xbas99)
	assert.True(t, xb.Scoping.Regional())
	assert.True(t, xb.Scoping.IsGlobal(LineNumber))
	assert.True(t, xb.Scoping.IsGlobal(SubProgram))
	assert.False(t, xb.Scoping.IsGlobal(NumVarWrite))
	assert.True(t, xb.Scoping.IsParam(KindNParam))
	assert.True(t, xb.Scoping.IsParam(KindSParam))
	assert.False(t, xb.Scoping.IsParam(KindNVarWrite))
	assert.False(t, asm.Scoping.IsParam(KindNParam))
}

func TestSymbolKind_Namespace(t *testing.T) {
	t.Parallel()
	assert.Equal(t, NamespaceLabel, Label.Namespace())
	assert.Equal(t, NamespaceLine, LineNumber.Namespace())
	assert.Equal(t, NamespaceSub, SubProgram.Namespace())
	assert.Equal(t, NamespaceVariable, NumVarRead.Namespace())
	assert.Equal(t, NamespaceVariable, StrVarFunc.Namespace())
	assert.Equal(t, NamespaceNone, SymbolKind("bogus").Namespace())
}

func TestRules_Restricted(t *testing.T) {
	t.Parallel()
	asm, _ := Lookup(Xas99)
	assert.True(t, asm.IsRestricted(Label, "!"))
	assert.True(t, asm.IsRestricted(Label, "!loop"))
	assert.False(t, asm.IsRestricted(Label, "LOOP"))

	xb, _ := Lookup(Xbas99)
	assert.True(t, xb.IsRestricted(LineNumber, "100"))
	assert.False(t, xb.IsRestricted(NumVarWrite, "X"))

	empty := &Rules{}
	assert.False(t, empty.IsRestricted(Label, "anything"))
}

func TestRules_FragmentsCoverEverySite(t *testing.T) {
	t.Parallel()
	for _, name := range Names() {
		r, _ := Lookup(name)
		for kind, site := range r.Sites {
			if r.IsRestricted(site.Kind, "X") {
				continue
			}
			_, ok := r.Fragments[kind]
			assert.True(t, ok, "%s: %s has no fragment", name, kind)
		}
	}
}

// parse runs a registered dialect and checks the round trip.
func parse(t *testing.T, dialect, src string) *syntax.Tree {
	t.Helper()
	r, ok := Lookup(dialect)
	require.True(t, ok)
	tr := r.Parse("test", []byte(src))
	require.Equal(t, src, tr.String())
	return tr
}

// find returns the first node of kind in source order.
func find(tr *syntax.Tree, kind syntax.Kind) syntax.NodeID {
	found := syntax.NoNode
	tr.Walk(func(id syntax.NodeID) bool {
		if !found.IsValid() && tr.Kind(id) == kind {
			found = id
		}
		return !found.IsValid()
	})
	return found
}

func findAll(tr *syntax.Tree, kind syntax.Kind) []syntax.NodeID {
	var out []syntax.NodeID
	tr.Walk(func(id syntax.NodeID) bool {
		if tr.Kind(id) == kind {
			out = append(out, id)
		}
		return true
	})
	return out
}
