package runtime

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/risor-io/risor"
	"github.com/risor-io/risor/importer"

	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/symbols"
	"github.com/jward/tisym/internal/syntax"
)

// Document is the loaded source a script works on.
type Document interface {
	Name() string
	Rules() *dialect.Rules
	Tree() *syntax.Tree
	Index() *symbols.Index
	RenameSymbol(node syntax.NodeID, newName string) (int, error)
}

// Runtime embeds a Risor VM and exposes symbol queries and rename over one
// document to scripts.
type Runtime struct {
	doc        Document
	scriptsDir string
	fsys       fs.FS
	logger     *slog.Logger
	renamed    int
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithRuntimeFS configures the Runtime to load scripts from an fs.FS
// instead of from disk. Import statements resolve against the same FS.
func WithRuntimeFS(fsys fs.FS) RuntimeOption {
	return func(r *Runtime) {
		r.fsys = fsys
	}
}

// WithLogger routes script log.* calls to l.
func WithLogger(l *slog.Logger) RuntimeOption {
	return func(r *Runtime) {
		r.logger = l
	}
}

// NewRuntime creates a Runtime over doc that loads scripts from scriptsDir.
func NewRuntime(doc Document, scriptsDir string, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		doc:        doc,
		scriptsDir: scriptsDir,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunScript loads and executes a Risor script with all standard globals
// plus any extra globals provided by the caller.
func (r *Runtime) RunScript(ctx context.Context, scriptPath string, extraGlobals map[string]any) error {
	src, err := r.LoadScript(scriptPath)
	if err != nil {
		return err
	}
	return r.eval(ctx, src, scriptPath, extraGlobals)
}

// Renamed returns the number of sites renamed by the scripts run so far.
func (r *Runtime) Renamed() int { return r.renamed }

// RunSource executes Risor source code directly with all standard globals
// plus any extra globals.
func (r *Runtime) RunSource(ctx context.Context, source string, extraGlobals map[string]any) error {
	return r.eval(ctx, source, "<inline>", extraGlobals)
}

func (r *Runtime) eval(ctx context.Context, source, label string, extraGlobals map[string]any) error {
	globals := r.buildGlobals(extraGlobals)

	var opts []risor.Option
	for name, val := range globals {
		opts = append(opts, risor.WithGlobal(name, val))
	}
	if imp := r.buildImporter(globals); imp != nil {
		opts = append(opts, risor.WithImporter(imp))
	}

	r.logger.Debug("script start", slog.String("script", label))
	if _, err := risor.Eval(ctx, source, opts...); err != nil {
		return fmt.Errorf("runtime: script %s: %w", label, err)
	}
	return nil
}

// buildImporter returns a Risor importer for the Runtime's script source,
// or nil if neither an fs.FS nor a scripts directory is configured.
func (r *Runtime) buildImporter(globals map[string]any) importer.Importer {
	globalNames := make([]string, 0, len(globals))
	for name := range globals {
		globalNames = append(globalNames, name)
	}

	if r.fsys != nil {
		return importer.NewFSImporter(importer.FSImporterOptions{
			GlobalNames: globalNames,
			SourceFS:    r.fsys,
			Extensions:  []string{".risor"},
		})
	}
	if r.scriptsDir != "" {
		return importer.NewLocalImporter(importer.LocalImporterOptions{
			GlobalNames: globalNames,
			SourceDir:   r.scriptsDir,
			Extensions:  []string{".risor"},
		})
	}
	return nil
}

// LoadScript reads a .risor file and returns its source code. Relative
// paths are taken from the fs.FS when one is configured, otherwise from
// scriptsDir.
func (r *Runtime) LoadScript(path string) (string, error) {
	if r.fsys != nil {
		fsPath := strings.TrimPrefix(filepath.ToSlash(path), "/")
		data, err := fs.ReadFile(r.fsys, fsPath)
		if err != nil {
			return "", fmt.Errorf("runtime: loading script %s from fs: %w", fsPath, err)
		}
		return string(data), nil
	}

	fullPath := path
	if !filepath.IsAbs(path) {
		fullPath = filepath.Join(r.scriptsDir, path)
	}
	data, err := os.ReadFile(fullPath)
	if err != nil {
		return "", fmt.Errorf("runtime: loading script %s: %w", fullPath, err)
	}
	return string(data), nil
}

// buildGlobals constructs the full set of globals exposed to scripts.
func (r *Runtime) buildGlobals(extra map[string]any) map[string]any {
	globals := map[string]any{
		"log": makeLogModule(r.logger),
	}

	// Scripts without a document still get logging and imports.
	if r.doc != nil {
		globals["file_name"] = r.doc.Name()
		globals["dialect"] = r.doc.Rules().Name
		globals["sites"] = makeSitesFn(r.doc, "sites", (*symbols.Index).Sites)
		globals["definitions"] = makeSitesFn(r.doc, "definitions", (*symbols.Index).Definitions)
		globals["references"] = makeSitesFn(r.doc, "references", (*symbols.Index).References)
		globals["definitions_named"] = makeDefinitionsNamedFn(r.doc)
		globals["site_at"] = makeSiteAtFn(r.doc)
		globals["resolve"] = makeResolveFn(r.doc)
		globals["occurrences"] = makeOccurrencesFn(r.doc)
		globals["rename"] = makeRenameFn(r)
		globals["node_text"] = makeNodeTextFn(r.doc)
		globals["source"] = makeSourceFn(r.doc)
		globals["diagnostics"] = makeDiagnosticsFn(r.doc)
	}

	for k, v := range extra {
		globals[k] = v
	}
	return globals
}
