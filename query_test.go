package tisym

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexedEngine indexes the given sources and returns the engine with the
// written paths keyed by file name.
func indexedEngine(t *testing.T, sources map[string]string) (*Engine, map[string]string) {
	t.Helper()
	e := newTestEngine(t)
	dir := t.TempDir()
	paths := make(map[string]string, len(sources))
	var list []string
	for name, src := range sources {
		paths[name] = writeSource(t, dir, name, src)
		list = append(list, paths[name])
	}
	require.NoError(t, e.IndexFiles(context.Background(), list))
	return e, paths
}

func TestQuery_DefinitionAt(t *testing.T) {
	e, paths := indexedEngine(t, map[string]string{"loop.a99": loopSrc})
	q := e.Query()
	path := paths["loop.a99"]
	want := Location{File: path, StartLine: 0, StartCol: 0, EndLine: 0, EndCol: 4}

	tests := []struct {
		name      string
		line, col int
		want      []Location
	}{
		{"on reference", 1, 12, []Location{want}},
		{"just past reference", 1, 15, []Location{want}},
		{"on definition", 0, 1, []Location{want}},
		{"on mnemonic", 1, 7, nil},
		{"on blank", 1, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			locs, err := q.DefinitionAt(path, tt.line, tt.col)
			require.NoError(t, err)
			assert.Equal(t, tt.want, locs)
		})
	}
}

func TestQuery_DefinitionAt_UnknownFile(t *testing.T) {
	e := newTestEngine(t)
	locs, err := e.Query().DefinitionAt(filepath.Join(t.TempDir(), "nope.a99"), 0, 0)
	require.NoError(t, err)
	assert.Nil(t, locs)
}

func TestQuery_DefinitionAt_BasicLineNumber(t *testing.T) {
	e, paths := indexedEngine(t, map[string]string{"prog.b99": basicSrc})
	locs, err := e.Query().DefinitionAt(paths["prog.b99"], 1, 7)
	require.NoError(t, err)
	require.Len(t, locs, 1)
	assert.Equal(t, Location{File: paths["prog.b99"], StartLine: 0, StartCol: 0, EndLine: 0, EndCol: 1}, locs[0])
}

func TestQuery_ReferencesTo(t *testing.T) {
	src := "LOOP  DATA 1\n      JMP  LOOP\n      B    @LOOP\n"
	e, paths := indexedEngine(t, map[string]string{"loop.a99": src})
	q := e.Query()
	path := paths["loop.a99"]

	syms, err := q.SymbolsNamed(path, "LOOP")
	require.NoError(t, err)
	require.Len(t, syms, 1)

	locs, err := q.ReferencesTo(syms[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []Location{
		{File: path, StartLine: 1, StartCol: 11, EndLine: 1, EndCol: 15},
		{File: path, StartLine: 2, StartCol: 12, EndLine: 2, EndCol: 16},
	}, locs)

	none, err := q.ReferencesTo(9999)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestQuery_SymbolsInFile(t *testing.T) {
	e, paths := indexedEngine(t, map[string]string{
		"prog.b99": "10 DEF F(X)=X*2\n20 A$=\"HI\"\n",
		"loop.a99": loopSrc,
	})
	q := e.Query()

	syms, err := q.SymbolsInFile(paths["prog.b99"])
	require.NoError(t, err)
	var names []string
	for _, s := range syms {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"10", "F", "X", "20", "A$"}, names)

	files, err := q.Files()
	require.NoError(t, err)
	assert.Len(t, files, 2)

	missing, err := q.SymbolsInFile("/no/such/file.b99")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestQuery_SymbolAt(t *testing.T) {
	e, paths := indexedEngine(t, map[string]string{"loop.a99": loopSrc})
	q := NewQueryBuilder(e.Store())
	path := paths["loop.a99"]

	fromDef, err := q.SymbolAt(path, 0, 2)
	require.NoError(t, err)
	require.NotNil(t, fromDef)
	assert.Equal(t, "LOOP", fromDef.Name)

	fromRef, err := q.SymbolAt(path, 1, 12)
	require.NoError(t, err)
	require.NotNil(t, fromRef)
	assert.Equal(t, fromDef.ID, fromRef.ID)

	none, err := q.SymbolAt(path, 1, 7)
	require.NoError(t, err)
	assert.Nil(t, none)

	missing, err := q.SymbolAt(filepath.Join(t.TempDir(), "nope.a99"), 0, 0)
	require.NoError(t, err)
	assert.Nil(t, missing)
}
