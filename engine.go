package tisym

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/discover"
	"github.com/jward/tisym/internal/store"
	"github.com/jward/tisym/internal/syntax"
)

// GrammarVersion changes whenever a grammar or site table changes in a way
// that invalidates stored symbol tables.
const GrammarVersion = "1"

const grammarKey = "grammar_version"

// Engine orchestrates per-file symbol tables: file discovery, change
// detection, parallel extraction and query access.
type Engine struct {
	store *store.Store
	opts  options
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("tisym: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("tisym: migrate: %w", err)
	}
	return &Engine{store: s, opts: newOptions(opts)}, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// grammarHash identifies the registered dialects, their sites and fragment
// templates.
func grammarHash() string {
	var b strings.Builder
	fmt.Fprintf(&b, "version:%s\n", GrammarVersion)
	for _, name := range dialect.Names() {
		r, _ := dialect.Lookup(name)
		fmt.Fprintf(&b, "dialect:%s\n", name)
		kinds := make([]string, 0, len(r.Sites))
		for k := range r.Sites {
			kinds = append(kinds, string(k))
		}
		sort.Strings(kinds)
		for _, k := range kinds {
			site := r.Sites[syntax.Kind(k)]
			fmt.Fprintf(&b, "site:%s:%s:%s:%s:%q\n", k, site.Role, site.Kind, site.Ident, r.Fragments[syntax.Kind(k)])
		}
	}
	return store.ContentHash([]byte(b.String()))
}

// GrammarChanged reports whether the stored symbol tables were built by a
// different grammar. Returns true on a fresh database. When true, the next
// IndexFiles reindexes every file it is given.
func (e *Engine) GrammarChanged() bool {
	stored, err := e.store.GetMetadata(grammarKey)
	if err != nil || stored == "" {
		return true
	}
	return stored != grammarHash()
}

func (e *Engine) storeGrammarHash() error {
	return e.store.SetMetadata(grammarKey, grammarHash())
}

// IndexFiles indexes the given file paths. Unsupported files are skipped,
// as are files whose content hash is unchanged (unless the grammar
// changed). Each file is parsed and resolved on its own; errors on one file
// do not stop the others.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	force := e.GrammarChanged()
	if err := e.indexFilesParallel(ctx, paths, force); err != nil {
		return err
	}
	return e.storeGrammarHash()
}

// IndexDirectory discovers supported files under root, honouring
// .gitignore, indexes them and drops stored files under root that no
// longer exist.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	entries, err := discover.Files(root, e.dialectName)
	if err != nil {
		return fmt.Errorf("tisym: discover %s: %w", root, err)
	}
	paths := make([]string, len(entries))
	for i, entry := range entries {
		paths[i] = filepath.Join(root, entry.Path)
	}
	if err := e.prune(root, paths); err != nil {
		return err
	}
	return e.IndexFiles(ctx, paths)
}

// prune deletes stored files below root that are not in paths.
func (e *Engine) prune(root string, paths []string) error {
	keep := make(map[string]bool, len(paths))
	for _, p := range paths {
		keep[filepath.Clean(p)] = true
	}
	files, err := e.store.Files()
	if err != nil {
		return fmt.Errorf("tisym: list files: %w", err)
	}
	prefix := filepath.Clean(root) + string(filepath.Separator)
	for _, f := range files {
		if keep[f.Path] || !strings.HasPrefix(f.Path, prefix) {
			continue
		}
		if err := e.store.DeleteFile(f.ID); err != nil {
			return fmt.Errorf("tisym: prune %s: %w", f.Path, err)
		}
		e.opts.logger.Info("file pruned", slog.String("file", f.Path))
	}
	return nil
}

// dialectName maps path to a dialect by extension. A WithDialect option
// acts as a filter here: files of other dialects are skipped.
func (e *Engine) dialectName(path string) (string, bool) {
	o := e.opts
	o.dialect = ""
	r, err := o.rulesFor(path)
	if err != nil {
		return "", false
	}
	if e.opts.dialect != "" && r.Name != e.opts.dialect {
		return "", false
	}
	return r.Name, true
}
