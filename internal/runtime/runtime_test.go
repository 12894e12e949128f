package runtime

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/tisym"
)

const (
	loopSrc  = "LOOP  DATA 1\n      JMP  LOOP\n"
	localSrc = "!     INC  R0\n      JMP  -!\n"
)

// loadDoc parses src as the named dialect.
func loadDoc(t *testing.T, name, src, dialectName string) *tisym.Document {
	t.Helper()
	doc, err := tisym.Load(name, []byte(src), dialectName)
	require.NoError(t, err)
	return doc
}

// --- Document host function tests ---

func TestRunSource_Globals(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(loadDoc(t, "loop.a99", loopSrc, "xas99"), "")
	script := `
assert(file_name == "loop.a99", 'unexpected file_name {file_name}')
assert(dialect == "xas99", 'unexpected dialect {dialect}')
assert(source() == want, "source mismatch")
`
	err := rt.RunSource(context.Background(), script, map[string]any{"want": loopSrc})
	require.NoError(t, err)
}

func TestRunSource_SiteLists(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(loadDoc(t, "loop.a99", loopSrc, "xas99"), "")
	script := `
assert(len(sites()) == 2, 'expected 2 sites, got {len(sites())}')

defs := definitions()
assert(len(defs) == 1, 'expected 1 definition, got {len(defs)}')
d := defs[0]
assert(d["name"] == "LOOP", "definition name")
assert(d["role"] == "definition", "definition role")
assert(d["definition"], "definition flag")
assert(!d["restricted"], "LOOP is renameable")
assert(d["line"] == 0 && d["col"] == 0, "definition position")

refs := references()
assert(len(refs) == 1, 'expected 1 reference, got {len(refs)}')
assert(refs[0]["line"] == 1 && refs[0]["col"] == 11, "reference position")
assert(refs[0]["file"] == "loop.a99", "reference file")
assert(refs[0]["position"] == "loop.a99:1:11", "reference position string")
assert(node_text(refs[0]["ident"]) == "LOOP", "reference text")

assert(len(definitions_named("LOOP")) == 1, "definitions_named LOOP")
assert(len(definitions_named("NOPE")) == 0, "definitions_named NOPE")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_Resolve(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(loadDoc(t, "loop.a99", loopSrc, "xas99"), "")
	script := `
ref := site_at(1, 11)
assert(ref != nil, "no site at 1:11")
target := resolve(ref)
assert(target["name"] == "LOOP", "resolved name")
assert(target["node"] == definitions()[0]["node"], "resolved node")

assert(site_at(0, 6) == nil, "mnemonic is not a site")
assert(site_at(9, 0) == nil, "out of range position")
assert(len(occurrences(target)) == 2, "occurrences")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_ResolveUnresolved(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(loadDoc(t, "jmp.a99", "      JMP  NOWHERE\n", "xas99"), "")
	script := `
refs := references()
assert(len(refs) == 1, "one reference")
assert(resolve(refs[0]) == nil, "unresolved reference resolves to nil")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestRunSource_Rename(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, "loop.a99", loopSrc, "xas99")
	rt := NewRuntime(doc, "")
	script := `
n := rename(definitions()[0], "START")
assert(n == 2, 'expected 2 sites renamed, got {n}')
assert(definitions()[0]["name"] == "START", "index rebuilt after rename")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
	assert.Equal(t, "START  DATA 1\n      JMP  START\n", doc.Text())
}

func TestRunSource_RenameBasic(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, "prog.b99", "1 X=1\n2 PRINT X\n", "xbas99")
	rt := NewRuntime(doc, "")
	script := `
x := definitions_named("X")[0]
assert(rename(x["node"], "Y") == 2, "X renamed twice")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
	assert.Equal(t, "1 Y=1\n2 PRINT Y\n", doc.Text())
}

func TestRunSource_RenameRejected(t *testing.T) {
	t.Parallel()

	doc := loadDoc(t, "local.a99", localSrc, "xas99")
	rt := NewRuntime(doc, "")

	err := rt.RunSource(context.Background(), `rename(definitions()[0], "X")`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "restricted symbol")
	assert.Equal(t, localSrc, doc.Text())
}

func TestRunSource_BadNode(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(loadDoc(t, "loop.a99", loopSrc, "xas99"), "")

	tests := []struct {
		name   string
		script string
		want   string
	}{
		{"out of range", `resolve(100000)`, "out of range"},
		{"zero", `resolve(0)`, "out of range"},
		{"wrong type", `resolve("LOOP")`, "expected int"},
		{"map without node", `resolve({"name": "LOOP"})`, "no node"},
		{"arg count", `rename(1)`, "rename"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := rt.RunSource(context.Background(), tt.script, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRunSource_Diagnostics(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(loadDoc(t, "loop.a99", loopSrc, "xas99"), "")
	require.NoError(t, rt.RunSource(context.Background(), `assert(len(diagnostics()) == 0, "clean source")`, nil))
}

func TestRunSource_Log(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	rt := NewRuntime(nil, "", WithLogger(logger))

	script := `
log.info("first")
log.warn("second")
log.error("third")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))

	out := buf.String()
	assert.Contains(t, out, "level=INFO msg=first source=script")
	assert.Contains(t, out, "level=WARN msg=second source=script")
	assert.Contains(t, out, "level=ERROR msg=third source=script")
}

func TestRunSource_NoDocument(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "")
	err := rt.RunSource(context.Background(), `definitions()`, nil)
	require.Error(t, err)
}

// --- Script loading tests ---

func TestRunScript_LoadsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.risor"), []byte(`result := 1 + 1`), 0o644))

	rt := NewRuntime(nil, dir)
	require.NoError(t, rt.RunScript(context.Background(), "test.risor", nil))
}

func TestRunScript_MissingFile(t *testing.T) {
	rt := NewRuntime(nil, t.TempDir())
	err := rt.RunScript(context.Background(), "nonexistent.risor", nil)
	require.Error(t, err)
}

func TestRunScript_RenamesDocument(t *testing.T) {
	dir := t.TempDir()
	script := `
for _, d := range definitions() {
	if d["name"] == "LOOP" {
		rename(d, "AGAIN")
	}
}
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rename.risor"), []byte(script), 0o644))

	doc := loadDoc(t, "loop.a99", loopSrc, "xas99")
	rt := NewRuntime(doc, dir)
	require.NoError(t, rt.RunScript(context.Background(), "rename.risor", nil))
	assert.Equal(t, 2, rt.Renamed())
	assert.Equal(t, "AGAIN  DATA 1\n      JMP  AGAIN\n", doc.Text())
}

func TestLoadScript(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "test.risor")
	content := `x := 42`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rt := NewRuntime(nil, dir)
	got, err := rt.LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFSFS(t *testing.T) {
	t.Parallel()

	content := `x := 42`
	mapFS := fstest.MapFS{
		"rename/labels.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))
	got, err := rt.LoadScript("rename/labels.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestLoadScript_FromFSFS_NotFound(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "", WithRuntimeFS(fstest.MapFS{}))
	_, err := rt.LoadScript("nonexistent.risor")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "from fs")
}

func TestLoadScript_FromFSFS_StripsLeadingSeparator(t *testing.T) {
	t.Parallel()

	content := `y := 99`
	mapFS := fstest.MapFS{
		"rename/labels.risor": &fstest.MapFile{Data: []byte(content)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))
	got, err := rt.LoadScript("/rename/labels.risor")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

// --- Importer wiring tests ---

func TestImport_FSImporter(t *testing.T) {
	// FSImporter resolves "lib_helpers" as "lib_helpers.risor" at the FS root.
	mapFS := fstest.MapFS{
		"lib_helpers.risor": &fstest.MapFile{Data: []byte(`
func greet(name) {
	return "hello " + name
}
`)},
	}

	rt := NewRuntime(nil, "", WithRuntimeFS(mapFS))
	script := `
import lib_helpers

msg := lib_helpers.greet("world")
assert(msg == "hello world", 'expected "hello world", got ' + msg)
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_LocalImporter(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "math_utils.risor"), []byte(`
func double(x) {
	return x * 2
}
`), 0o644))

	rt := NewRuntime(nil, dir)
	script := `
import math_utils

result := math_utils.double(21)
assert(result == 42, 'expected 42, got {result}')
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
}

func TestImport_GlobalsAvailableInImportedModules(t *testing.T) {
	mapFS := fstest.MapFS{
		"labels.risor": &fstest.MapFile{Data: []byte(`
func rename_all(from, to) {
	for _, d := range definitions_named(from) {
		rename(d, to)
	}
}
`)},
	}

	doc := loadDoc(t, "loop.a99", loopSrc, "xas99")
	rt := NewRuntime(doc, "", WithRuntimeFS(mapFS))
	script := `
import labels
labels.rename_all("LOOP", "TOP")
`
	require.NoError(t, rt.RunSource(context.Background(), script, nil))
	assert.Equal(t, "TOP  DATA 1\n      JMP  TOP\n", doc.Text())
}

func TestNewRuntime_Defaults(t *testing.T) {
	t.Parallel()

	rt := NewRuntime(nil, "/some/dir")
	require.NotNil(t, rt)
	assert.Nil(t, rt.fsys)
	assert.Equal(t, "/some/dir", rt.scriptsDir)
	assert.NotNil(t, rt.logger)
}
