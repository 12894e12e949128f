package main

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// indexFixture writes a small project and indexes it into a fresh database.
func indexFixture(t *testing.T) (dir, dbPath string) {
	t.Helper()
	dir = t.TempDir()
	writeFile(t, dir, "loop.a99", loopSrc)
	writeFile(t, dir, "prog.b99", basicSrc)
	writeFile(t, dir, "notes.txt", "not source\n")
	dbPath = filepath.Join(t.TempDir(), "index.db")

	_, errOut, err := execute(t, "--db", dbPath, "index", dir)
	require.NoError(t, err, errOut)
	assert.Contains(t, errOut, "Database: "+dbPath)
	return dir, dbPath
}

func TestIndex_CreatesDatabase(t *testing.T) {
	_, dbPath := indexFixture(t)
	_, err := os.Stat(dbPath)
	require.NoError(t, err)
}

func TestIndex_SingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "loop.a99", loopSrc)
	dbPath := filepath.Join(t.TempDir(), "index.db")

	_, _, err := execute(t, "--db", dbPath, "index", path)
	require.NoError(t, err)

	out, _, err := execute(t, "--db", dbPath, "--format", "json", "query", "files")
	require.NoError(t, err)
	env := decode[[]CLIFile](t, out)
	require.Len(t, env.Results, 1)
	assert.Equal(t, path, env.Results[0].Path)
	assert.Equal(t, "xas99", env.Results[0].Dialect)
	assert.NotEmpty(t, env.Results[0].Snapshot)
}

func TestIndex_Force(t *testing.T) {
	dir, dbPath := indexFixture(t)

	_, errOut, err := execute(t, "--db", dbPath, "index", "--force", dir)
	require.NoError(t, err)
	assert.Contains(t, errOut, "Cleared database")
}

func TestIndex_MissingPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	_, _, err := execute(t, "--db", dbPath, "index", filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path not found")
}

func TestQuery_Files(t *testing.T) {
	dir, dbPath := indexFixture(t)

	out, _, err := execute(t, "--db", dbPath, "--format", "json", "query", "files")
	require.NoError(t, err)
	env := decode[[]CLIFile](t, out)
	require.Len(t, env.Results, 2)
	assert.Equal(t, filepath.Join(dir, "loop.a99"), env.Results[0].Path)
	assert.Equal(t, filepath.Join(dir, "prog.b99"), env.Results[1].Path)
	assert.Equal(t, 3, env.Results[0].LineCount)
}

func TestQuery_Symbols(t *testing.T) {
	dir, dbPath := indexFixture(t)

	out, _, err := execute(t, "--db", dbPath, "--format", "json", "query", "symbols", filepath.Join(dir, "prog.b99"))
	require.NoError(t, err)
	env := decode[[]CLISymbol](t, out)
	require.Len(t, env.Results, 3)

	names := make([]string, len(env.Results))
	for i, s := range env.Results {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"1", "X", "2"}, names)
	assert.True(t, env.Results[0].Restricted)
	assert.Equal(t, "line_number", env.Results[0].Kind)
}

func TestQuery_Symbols_Text(t *testing.T) {
	dir, dbPath := indexFixture(t)

	out, _, err := execute(t, "--db", dbPath, "--format", "text", "query", "symbols", filepath.Join(dir, "loop.a99"))
	require.NoError(t, err)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "LOOP")
	assert.Contains(t, out, "label")
}

func TestQuery_Definition(t *testing.T) {
	dir, dbPath := indexFixture(t)
	path := filepath.Join(dir, "loop.a99")

	out, _, err := execute(t, "--db", dbPath, "--format", "json", "query", "definition", path, "1", "12")
	require.NoError(t, err)
	env := decode[[]CLILocation](t, out)
	require.Len(t, env.Results, 1)
	loc := env.Results[0]
	assert.Equal(t, path, loc.File)
	assert.Equal(t, [4]int{0, 0, 0, 4}, [4]int{loc.StartLine, loc.StartCol, loc.EndLine, loc.EndCol})
	require.NotNil(t, loc.SymbolID)
}

func TestQuery_Definition_Unresolved(t *testing.T) {
	dir, dbPath := indexFixture(t)

	out, _, err := execute(t, "--db", dbPath, "--format", "json", "query", "definition", filepath.Join(dir, "loop.a99"), "1", "7")
	require.NoError(t, err)
	env := decode[[]CLILocation](t, out)
	assert.Empty(t, env.Results)
}

func TestQuery_References_ByPositionAndSymbol(t *testing.T) {
	dir, dbPath := indexFixture(t)
	path := filepath.Join(dir, "loop.a99")

	out, _, err := execute(t, "--db", dbPath, "--format", "json", "query", "references", path, "0", "0")
	require.NoError(t, err)
	byPos := decode[[]CLILocation](t, out)
	require.Len(t, byPos.Results, 1)
	assert.Equal(t, 1, byPos.Results[0].StartLine)
	assert.Equal(t, 11, byPos.Results[0].StartCol)
	require.NotNil(t, byPos.Results[0].SymbolID)

	id := strconv.FormatInt(*byPos.Results[0].SymbolID, 10)
	out, _, err = execute(t, "--db", dbPath, "--format", "json", "query", "references", "--symbol", id)
	require.NoError(t, err)
	bySym := decode[[]CLILocation](t, out)
	assert.Equal(t, byPos.Results, bySym.Results)
}

func TestQuery_ErrorCases(t *testing.T) {
	dir, dbPath := indexFixture(t)
	path := filepath.Join(dir, "loop.a99")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"references without target", []string{"query", "references"}, "requires either"},
		{"references at blank", []string{"query", "references", path, "1", "0"}, "no symbol found"},
		{"definition bad col", []string{"query", "definition", path, "1", "x"}, "invalid col"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--db", dbPath, "--format", "json"}, tt.args...)
			out, _, err := execute(t, args...)
			require.Error(t, err)
			env := decode[any](t, out)
			assert.Contains(t, env.Error, tt.want)
		})
	}
}

func TestQuery_MissingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "missing.db")
	out, _, err := execute(t, "--db", dbPath, "--format", "json", "query", "files")
	require.Error(t, err)
	env := decode[any](t, out)
	assert.Contains(t, env.Error, "database not found")
}
