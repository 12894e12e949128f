package symbols

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/syntax"
)

func TestIndex_DuplicateDefinitions(t *testing.T) {
	t.Parallel()
	_, _, idx := load(t, dialect.Xas99, "FOO   DATA 1\nFOO   DATA 2\n      B    @FOO\n")

	defs := idx.DefinitionsNamed("FOO")
	require.Len(t, defs, 2)
	assert.Less(t, defs[0].Order, defs[1].Order)
	assert.Less(t, defs[0].Node, defs[1].Node)

	ref := siteNamed(t, idx, "FOO", dialect.RoleReference, 0)
	got, ok := Resolve(idx, ref.Node)
	require.True(t, ok)
	assert.Equal(t, defs[0].Node, got.Node)

	// Both definitions stay resolvable as sites.
	second, ok := Resolve(idx, defs[1].Node)
	require.True(t, ok)
	assert.Equal(t, defs[1].Node, second.Node)

	assert.Empty(t, idx.DefinitionsNamed("BAR"))
}

func TestIndex_SitesDefinitionsReferences(t *testing.T) {
	t.Parallel()
	_, _, idx := load(t, dialect.Xas99, asmProgram)

	var defs, refs []string
	for _, s := range idx.Definitions() {
		defs = append(defs, s.Name)
	}
	for _, s := range idx.References() {
		refs = append(refs, s.Name)
	}
	assert.Equal(t, []string{"START", "!", "SPACE", "DONE"}, defs)
	assert.Equal(t, []string{"SPACE", "VSBW", "!", "DONE"}, refs)
	assert.Len(t, idx.Sites(), 8)

	for i, s := range idx.Sites() {
		assert.Equal(t, i, s.Order)
		assert.Equal(t, FileScope, s.Scope)
	}
	assert.Empty(t, idx.Diagnostics())
}

func TestIndex_MalformedSiteIsSkipped(t *testing.T) {
	t.Parallel()
	rules, _ := dialect.Lookup(dialect.Xas99)

	// (program (line (labeldef)) (line (labeldef LABEL) NEWLINE) (line MNEMONIC (operands (oplabel SYMBOL))))
	tr := syntax.NewTree("broken.a99")
	bad := tr.NewNode(dialect.KindLabelDef)
	l1 := tr.NewNode(dialect.KindLine, bad, tr.NewLeaf(dialect.TokNewline, "", "\n"))
	good := tr.NewNode(dialect.KindLabelDef, tr.NewLeaf(dialect.TokLabel, "", "OK"))
	l2 := tr.NewNode(dialect.KindLine, good, tr.NewLeaf(dialect.TokNewline, "", "\n"))
	ref := tr.NewNode(dialect.KindOpLabel, tr.NewLeaf(dialect.TokSymbol, " ", "OK"))
	l3 := tr.NewNode(dialect.KindLine,
		tr.NewLeaf(dialect.TokMnemonic, " ", "B"),
		tr.NewNode(dialect.KindOperands, ref))
	tr.SetRoot(tr.NewNode(dialect.KindProgram, l1, l2, l3))

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	idx := Build(tr, rules, WithLogger(logger))

	diags := idx.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, bad, diags[0].Node)
	assert.True(t, errors.Is(diags[0], ErrMalformedDefinition))
	assert.Contains(t, diags[0].Error(), "no definition identifier")
	assert.Contains(t, logs.String(), "malformed site")

	_, ok := idx.SiteAt(bad)
	assert.False(t, ok)

	got, ok := Resolve(idx, ref)
	require.True(t, ok)
	assert.Equal(t, good, got.Node)
}

func TestIndex_StaleAfterMutation(t *testing.T) {
	t.Parallel()
	tr, rules, idx := load(t, dialect.Xas99, asmLoop)
	assert.False(t, idx.Stale())

	def := siteNamed(t, idx, "LOOP", dialect.RoleDefinition, 0)
	require.NoError(t, Rename(tr, rules, def.Node, "LOOP2"))
	assert.True(t, idx.Stale())
	assert.False(t, Build(tr, rules).Stale())
}

func TestIndex_SubprogramScopes(t *testing.T) {
	t.Parallel()
	src := "10 X=1\n20 CALL P(X)\n30 SUB P(X)\n40 X=X+1\n50 SUBEND\n60 PRINT X\n"
	tr, _, idx := load(t, dialect.Xbas99, src)

	sub := findKind(tr, dialect.KindSubStmt)
	require.True(t, sub.IsValid())

	outer := siteNamed(t, idx, "X", dialect.RoleDefinition, 0)
	param := siteNamed(t, idx, "X", dialect.RoleDefinition, 1)
	inner := siteNamed(t, idx, "X", dialect.RoleDefinition, 2)
	assert.Equal(t, FileScope, outer.Scope)
	assert.Equal(t, ScopeID(sub), param.Scope)
	assert.Equal(t, ScopeID(sub), inner.Scope)
	assert.Equal(t, ScopeID(sub), idx.ScopeOf(inner.Node))

	// Line numbers and subprogram names are global even inside the SUB.
	lino40 := siteNamed(t, idx, "40", dialect.RoleDefinition, 0)
	assert.Equal(t, FileScope, lino40.Scope)
	assert.Equal(t, ScopeID(sub), idx.ScopeOf(lino40.Node))
	subDef := siteNamed(t, idx, "P", dialect.RoleDefinition, 0)
	assert.Equal(t, FileScope, subDef.Scope)

	// The region ends with SUBEND.
	end := findKind(tr, dialect.KindSubEndStmt)
	assert.Equal(t, ScopeID(sub), idx.ScopeOf(end))
	last := siteNamed(t, idx, "X", dialect.RoleReference, 2)
	assert.Equal(t, FileScope, last.Scope)

	tests := []struct {
		ref  int
		want Site
	}{
		{0, outer}, // CALL P(X)
		{1, param}, // X+1 inside the SUB
		{2, outer}, // PRINT X after SUBEND
	}
	for _, tt := range tests {
		ref := siteNamed(t, idx, "X", dialect.RoleReference, tt.ref)
		got, ok := Resolve(idx, ref.Node)
		require.True(t, ok)
		assert.Equal(t, tt.want.Node, got.Node, "reference %d", tt.ref)
	}

	call := siteNamed(t, idx, "P", dialect.RoleReference, 0)
	got, ok := Resolve(idx, call.Node)
	require.True(t, ok)
	assert.Equal(t, subDef.Node, got.Node)
}

func TestIndex_DefParameterScope(t *testing.T) {
	t.Parallel()
	src := "10 DEF F(X)=X*2+Y\n20 X=5\n30 PRINT X\n40 Y=1\n"
	tr, _, idx := load(t, dialect.Xbas99, src)

	stmt := findKind(tr, dialect.KindDefStmt)
	require.True(t, stmt.IsValid())

	param := siteNamed(t, idx, "X", dialect.RoleDefinition, 0)
	global := siteNamed(t, idx, "X", dialect.RoleDefinition, 1)
	assert.Equal(t, dialect.KindNParam, tr.Kind(param.Node))
	assert.Equal(t, ScopeID(stmt), param.Scope)
	assert.Equal(t, FileScope, global.Scope)

	fn := siteNamed(t, idx, "F", dialect.RoleDefinition, 0)
	assert.Equal(t, FileScope, fn.Scope, "the function name is not a parameter")

	body := siteNamed(t, idx, "X", dialect.RoleReference, 0)
	got, ok := Resolve(idx, body.Node)
	require.True(t, ok)
	assert.Equal(t, param.Node, got.Node)

	after := siteNamed(t, idx, "X", dialect.RoleReference, 1)
	got, ok = Resolve(idx, after.Node)
	require.True(t, ok)
	assert.Equal(t, global.Node, got.Node, "PRINT X after the DEF is the global")

	y := siteNamed(t, idx, "Y", dialect.RoleReference, 0)
	assert.Equal(t, FileScope, y.Scope, "non-parameters in the body use the enclosing scope")
	got, ok = Resolve(idx, y.Node)
	require.True(t, ok)
	assert.Equal(t, siteNamed(t, idx, "Y", dialect.RoleDefinition, 0).Node, got.Node)

	assert.Len(t, idx.Occurrences(param), 2)
	assert.Len(t, idx.Occurrences(global), 2)
}

func TestIndex_DefParameterRenameStaysLocal(t *testing.T) {
	t.Parallel()
	src := "10 DEF F(X)=X*2\n20 X=5\n30 PRINT X\n"
	tr, _, idx := load(t, dialect.Xbas99, src)

	global := siteNamed(t, idx, "X", dialect.RoleDefinition, 1)
	n, err := RenameSymbol(idx, global.Node, "Z")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "10 DEF F(X)=X*2\n20 Z=5\n30 PRINT Z\n", tr.String())
}

func TestIndex_Occurrences(t *testing.T) {
	t.Parallel()
	_, _, idx := load(t, dialect.Xbas99, xbProgram)

	names := func(sites []Site) []string {
		var out []string
		for _, s := range sites {
			out = append(out, string(s.Kind))
		}
		return out
	}

	a := siteNamed(t, idx, "A$", dialect.RoleDefinition, 0)
	assert.Equal(t, []string{"svar_write", "svar_read", "svar_read", "svar_read"}, names(idx.Occurrences(a)))

	// N outside and inside the SUB are different variables.
	n := siteNamed(t, idx, "N", dialect.RoleDefinition, 0)
	assert.Len(t, idx.Occurrences(n), 2)
	inner := siteNamed(t, idx, "N", dialect.RoleDefinition, 1)
	assert.Len(t, idx.Occurrences(inner), 2)

	draw := siteNamed(t, idx, "DRAW", dialect.RoleReference, 0)
	assert.Equal(t, []string{"subprogram", "subprogram"}, names(idx.Occurrences(draw)))
}

func TestIndex_PositionalReferencesAreNotOccurrences(t *testing.T) {
	t.Parallel()
	_, _, idx := load(t, dialect.Xas99, "!     INC  R1\n      JMP  -!\n")

	def := siteNamed(t, idx, "!", dialect.RoleDefinition, 0)
	occ := idx.Occurrences(def)
	require.Len(t, occ, 1)
	assert.Equal(t, def.Node, occ[0].Node)
}
