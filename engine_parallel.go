package tisym

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jward/tisym/internal/dialect"
	"github.com/jward/tisym/internal/store"
	"github.com/jward/tisym/internal/symbols"
)

// workItem holds everything a parallel extraction worker needs.
type workItem struct {
	path   string
	src    []byte
	rules  *dialect.Rules
	fileID int64
	batch  *store.BatchedStore
}

type extractResult struct {
	item workItem
	err  error
}

// indexFilesParallel indexes files using a three-phase pipeline:
//
//	Phase A (serial):   Hash check, delete old data, prepare file records.
//	Phase B (parallel): Parse, index and resolve via a bounded errgroup.
//	Phase C (serial):   Commit each file's batch to SQLite as it arrives.
func (e *Engine) indexFilesParallel(ctx context.Context, paths []string, force bool) error {
	snapshot := uuid.NewString()
	start := time.Now()

	// ---- Phase A: Serial file preparation ----
	var items []workItem
	var errs []error
	for _, path := range paths {
		item, skip, err := e.prepareFile(path, snapshot, force)
		if err != nil {
			errs = append(errs, fmt.Errorf("prepare %s: %w", path, err))
			continue
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	// ---- Phase B: Parallel extraction ----
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers(len(items)))
	resultCh := make(chan extractResult, len(items))

	go func() {
		for _, item := range items {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					resultCh <- extractResult{item: item, err: err}
					return err
				}
				resultCh <- extractResult{item: item, err: e.extractFile(item)}
				return nil
			})
		}
		g.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	committed := 0
	for res := range resultCh {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("extract %s: %w", res.item.path, res.err))
			e.dropFile(res.item)
			continue
		}
		if err := e.store.CommitBatch(res.item.batch); err != nil {
			errs = append(errs, fmt.Errorf("commit %s: %w", res.item.path, err))
			e.dropFile(res.item)
			continue
		}
		committed++
	}

	e.opts.logger.Info("indexing complete",
		slog.String("snapshot", snapshot),
		slog.Int("files", len(paths)),
		slog.Int("indexed", committed),
		slog.Int("errors", len(errs)),
		slog.Duration("elapsed", time.Since(start)))

	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) workers(items int) int {
	n := e.opts.workers
	if n <= 0 && e.opts.cfg != nil {
		n = e.opts.cfg.Workers
	}
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return max(1, min(n, items))
}

// prepareFile does Phase A work for a single file: hash check, cleanup, file
// record. skip=true means the file is unchanged or unsupported.
func (e *Engine) prepareFile(path, snapshot string, force bool) (workItem, bool, error) {
	path = filepath.Clean(path)
	name, ok := e.dialectName(path)
	if !ok {
		return workItem{}, true, nil
	}
	rules, _ := dialect.Lookup(name)

	content, err := os.ReadFile(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("read file: %w", err)
	}
	hash := store.ContentHash(content)

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return workItem{}, false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash && !force {
		e.opts.logger.Debug("file unchanged", slog.String("file", path))
		return workItem{}, true, nil
	}
	if existing != nil {
		if err := e.store.DeleteFile(existing.ID); err != nil {
			return workItem{}, false, fmt.Errorf("delete old data: %w", err)
		}
	}

	// Insert new file record (real ID assigned by SQLite).
	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Dialect:     rules.Name,
		Hash:        hash,
		Snapshot:    snapshot,
		LineCount:   bytes.Count(content, []byte{'\n'}) + 1,
		LastIndexed: time.Now(),
	})
	if err != nil {
		return workItem{}, false, fmt.Errorf("insert file: %w", err)
	}

	return workItem{
		path:   path,
		src:    content,
		rules:  rules,
		fileID: fileID,
		batch:  store.NewBatchedStore(e.store),
	}, false, nil
}

// dropFile removes the record of a file whose extraction failed so the next
// run retries it.
func (e *Engine) dropFile(item workItem) {
	if err := e.store.DeleteFile(item.fileID); err != nil {
		e.opts.logger.Warn("drop file failed",
			slog.String("file", item.path),
			slog.String("error", err.Error()))
	}
}

// extractFile parses one file, builds its symbol index and writes
// definitions, references and resolutions into the item's batch.
func (e *Engine) extractFile(item workItem) error {
	t := item.rules.Parse(item.path, item.src)
	idx := symbols.Build(t, item.rules, symbols.WithLogger(e.opts.logger))
	return writeSymbolTable(item.batch, item.fileID, idx)
}

// writeSymbolTable stores every site of idx. Definitions go first so that
// references can point at them, including forward references.
func writeSymbolTable(ds store.DataStore, fileID int64, idx *symbols.Index) error {
	t := idx.Tree()
	lines := newLineIndex(t.String())
	span := func(s symbols.Site) (sl, sc, el, ec int) {
		sp := t.Span(s.Ident)
		sl, sc = lines.position(sp.Start)
		el, ec = lines.position(sp.End)
		return
	}

	defIDs := make(map[int]int64) // Site.Order -> symbol id
	for _, s := range idx.Definitions() {
		sl, sc, el, ec := span(s)
		sym := &store.Symbol{
			FileID:        fileID,
			Name:          s.Name,
			Kind:          string(s.Kind),
			Production:    string(t.Kind(s.Node)),
			Restricted:    s.Restricted,
			Scope:         int64(s.Scope),
			SignatureHash: store.ComputeSignatureHash(s.Name, string(s.Kind), string(t.Kind(s.Node)), s.Scope != symbols.FileScope),
			StartLine:     sl, StartCol: sc, EndLine: el, EndCol: ec,
		}
		id, err := ds.InsertSymbol(sym)
		if err != nil {
			return fmt.Errorf("symbol %s: %w", s.Name, err)
		}
		defIDs[s.Order] = id
	}

	rules := idx.Rules()
	for _, s := range idx.References() {
		sl, sc, el, ec := span(s)
		ref := &store.Reference{
			FileID:     fileID,
			Name:       s.Name,
			Kind:       string(s.Kind),
			Production: string(t.Kind(s.Node)),
			Restricted: s.Restricted,
			Scope:      int64(s.Scope),
			StartLine:  sl, StartCol: sc, EndLine: el, EndCol: ec,
		}
		refID, err := ds.InsertReference(ref)
		if err != nil {
			return fmt.Errorf("reference %s: %w", s.Name, err)
		}

		target, ok := symbols.Resolve(idx, s.Node)
		if !ok {
			continue
		}
		kind := store.ResolvedByName
		if rules.Positional != nil {
			if _, positional := rules.Positional(t, s.Node, s.Name); positional {
				kind = store.ResolvedByPosition
			}
		}
		rr := &store.ResolvedReference{ReferenceID: refID, TargetSymbolID: defIDs[target.Order], ResolutionKind: kind}
		if _, err := ds.InsertResolvedReference(rr); err != nil {
			return fmt.Errorf("resolve %s: %w", s.Name, err)
		}
	}
	return nil
}
