package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/risor-io/risor/object"

	"github.com/jward/tisym/internal/symbols"
	"github.com/jward/tisym/internal/syntax"
)

// Sites cross into Risor as maps:
//
//	{name, kind, role, definition, restricted, node, ident, scope, line, col,
//	 file, position}
//
// node is the handle every other host function accepts, either bare or as
// the whole site map. line and col are 0-based; position is "file:line:col".
func siteObject(idx *symbols.Index, s symbols.Site) object.Object {
	t := idx.Tree()
	line, col := t.Position(t.Span(s.Ident).Start)
	return object.NewMap(map[string]object.Object{
		"name":       object.NewString(symbols.DisplayName(s)),
		"kind":       object.NewString(string(s.Kind)),
		"role":       object.NewString(s.Role.String()),
		"definition": object.NewBool(s.IsDefinition()),
		"restricted": object.NewBool(s.Restricted),
		"node":       object.NewInt(int64(s.Node)),
		"ident":      object.NewInt(int64(s.Ident)),
		"scope":      object.NewInt(int64(s.Scope)),
		"line":       object.NewInt(int64(line)),
		"col":        object.NewInt(int64(col)),
		"file":       object.NewString(symbols.DisplayLocation(idx, s)),
		"position":   object.NewString(symbols.DisplayPosition(idx, s)),
	})
}

func sitesToList(idx *symbols.Index, sites []symbols.Site) object.Object {
	items := make([]object.Object, 0, len(sites))
	for _, s := range sites {
		items = append(items, siteObject(idx, s))
	}
	return object.NewList(items)
}

// makeSitesFn creates a no-argument host function listing the sites list
// selects from the current index.
//
// sites() → []site
func makeSitesFn(doc Document, name string, list func(*symbols.Index) []symbols.Site) *object.Builtin {
	return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError(name, 0, len(args))
		}
		idx := doc.Index()
		return sitesToList(idx, list(idx))
	})
}

// definitions_named(name) → []site
func makeDefinitionsNamedFn(doc Document) *object.Builtin {
	return object.NewBuiltin("definitions_named", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("definitions_named", 1, len(args))
		}
		name, err := toString(args[0])
		if err != nil {
			return object.Errorf("definitions_named: %v", err)
		}
		idx := doc.Index()
		return sitesToList(idx, idx.DefinitionsNamed(name))
	})
}

// makeSiteAtFn creates "site_at", the positional entry point for scripts.
//
// site_at(line, col) → site or nil
func makeSiteAtFn(doc Document) *object.Builtin {
	return object.NewBuiltin("site_at", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("site_at", 2, len(args))
		}
		line, err := toInt64(args[0])
		if err != nil {
			return object.Errorf("site_at: line: %v", err)
		}
		col, err := toInt64(args[1])
		if err != nil {
			return object.Errorf("site_at: col: %v", err)
		}
		t := doc.Tree()
		off, ok := t.Offset(int(line), int(col))
		if !ok {
			return object.Nil
		}
		idx := doc.Index()
		s, ok := idx.SiteAt(t.LeafAt(off))
		if !ok {
			return object.Nil
		}
		return siteObject(idx, s)
	})
}

// makeResolveFn creates "resolve". Unresolved references return nil.
//
// resolve(node) → site or nil
func makeResolveFn(doc Document) *object.Builtin {
	return object.NewBuiltin("resolve", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("resolve", 1, len(args))
		}
		t := doc.Tree()
		node, err := toNode(t, args[0])
		if err != nil {
			return object.Errorf("resolve: %v", err)
		}
		idx := doc.Index()
		def, ok := symbols.Resolve(idx, node)
		if !ok {
			return object.Nil
		}
		return siteObject(idx, def)
	})
}

// occurrences(node) → []site
func makeOccurrencesFn(doc Document) *object.Builtin {
	return object.NewBuiltin("occurrences", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("occurrences", 1, len(args))
		}
		t := doc.Tree()
		node, err := toNode(t, args[0])
		if err != nil {
			return object.Errorf("occurrences: %v", err)
		}
		idx := doc.Index()
		s, ok := idx.SiteAt(node)
		if !ok {
			return object.NewList([]object.Object{})
		}
		return sitesToList(idx, idx.Occurrences(s))
	})
}

// makeRenameFn creates "rename". A rejected rename is a script error and
// leaves the document unchanged. Node handles taken before a rename stay
// valid; site maps should be fetched again since positions move.
//
// rename(node, new_name) → int
func makeRenameFn(r *Runtime) *object.Builtin {
	return object.NewBuiltin("rename", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 2 {
			return object.NewArgsError("rename", 2, len(args))
		}
		node, err := toNode(r.doc.Tree(), args[0])
		if err != nil {
			return object.Errorf("rename: %v", err)
		}
		newName, err := toString(args[1])
		if err != nil {
			return object.Errorf("rename: %v", err)
		}
		n, err := r.doc.RenameSymbol(node, newName)
		if err != nil {
			return object.Errorf("rename: %v", err)
		}
		r.renamed += n
		r.logger.Debug("script rename",
			slog.String("file", r.doc.Name()),
			slog.String("name", newName),
			slog.Int("sites", n))
		return object.NewInt(int64(n))
	})
}

// makeNodeTextFn creates "node_text", the source text under a node without
// its leading trivia.
//
// node_text(node) → string
func makeNodeTextFn(doc Document) *object.Builtin {
	return object.NewBuiltin("node_text", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 1 {
			return object.NewArgsError("node_text", 1, len(args))
		}
		t := doc.Tree()
		node, err := toNode(t, args[0])
		if err != nil {
			return object.Errorf("node_text: %v", err)
		}
		return object.NewString(t.Text(node))
	})
}

// source() → string
func makeSourceFn(doc Document) *object.Builtin {
	return object.NewBuiltin("source", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("source", 0, len(args))
		}
		return object.NewString(doc.Tree().String())
	})
}

// diagnostics() → []string
func makeDiagnosticsFn(doc Document) *object.Builtin {
	return object.NewBuiltin("diagnostics", func(ctx context.Context, args ...object.Object) object.Object {
		if len(args) != 0 {
			return object.NewArgsError("diagnostics", 0, len(args))
		}
		diags := doc.Index().Diagnostics()
		items := make([]object.Object, 0, len(diags))
		for _, d := range diags {
			items = append(items, object.NewString(d.Error()))
		}
		return object.NewList(items)
	})
}

// makeLogModule creates the "log" module. Messages go to the runtime's
// logger tagged with the script source.
//
// log.info(msg), log.warn(msg), log.error(msg)
func makeLogModule(logger *slog.Logger) *object.Module {
	level := func(name string, lvl slog.Level) *object.Builtin {
		return object.NewBuiltin(name, func(ctx context.Context, args ...object.Object) object.Object {
			if len(args) != 1 {
				return object.NewArgsError("log."+name, 1, len(args))
			}
			msg, ok := args[0].(*object.String)
			if !ok {
				logger.Log(ctx, lvl, args[0].Inspect(), slog.String("source", "script"))
				return object.Nil
			}
			logger.Log(ctx, lvl, msg.Value(), slog.String("source", "script"))
			return object.Nil
		})
	}
	return object.NewBuiltinsModule("log", map[string]object.Object{
		"info":  level("info", slog.LevelInfo),
		"warn":  level("warn", slog.LevelWarn),
		"error": level("error", slog.LevelError),
	})
}
