package tisym

import (
	"fmt"
	"path/filepath"

	"github.com/jward/tisym/internal/store"
)

// QueryBuilder provides read access to the stored symbol tables.
type QueryBuilder struct {
	store *store.Store
}

// NewQueryBuilder wraps an open Store.
func NewQueryBuilder(s *Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

// Location represents a source code position range. Lines and columns are
// 0-based; EndCol is exclusive.
type Location struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// Files returns every indexed file ordered by path.
func (q *QueryBuilder) Files() ([]*File, error) {
	return q.store.Files()
}

// SymbolsInFile returns the definitions of one file in source order.
func (q *QueryBuilder) SymbolsInFile(path string) ([]*Symbol, error) {
	f, err := q.store.FileByPath(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("symbols in file: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	return q.store.SymbolsByFile(f.ID)
}

// SymbolsNamed returns the definitions called name in one file.
func (q *QueryBuilder) SymbolsNamed(path, name string) ([]*Symbol, error) {
	f, err := q.store.FileByPath(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("symbols named: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	return q.store.SymbolsByName(f.ID, name)
}

// DefinitionAt finds the definition of the identifier at the given
// position. A definition resolves to itself; a reference is followed
// through its stored resolution. Unresolved positions return no locations.
func (q *QueryBuilder) DefinitionAt(path string, line, col int) ([]Location, error) {
	f, err := q.store.FileByPath(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("definition at: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}

	defs, err := q.store.SymbolsAt(f.ID, line, col)
	if err != nil {
		return nil, fmt.Errorf("definition at: query symbols: %w", err)
	}
	if len(defs) > 0 {
		return []Location{symbolLocation(f.Path, defs[0])}, nil
	}

	refs, err := q.store.ReferencesAt(f.ID, line, col)
	if err != nil {
		return nil, fmt.Errorf("definition at: query references: %w", err)
	}

	var locations []Location
	for _, ref := range refs {
		resolved, err := q.store.ResolvedReferencesByRef(ref.ID)
		if err != nil {
			return nil, fmt.Errorf("definition at: resolve ref %d: %w", ref.ID, err)
		}
		for _, rr := range resolved {
			sym, err := q.store.SymbolByID(rr.TargetSymbolID)
			if err != nil {
				return nil, fmt.Errorf("definition at: symbol location: %w", err)
			}
			if sym != nil {
				locations = append(locations, symbolLocation(f.Path, sym))
			}
		}
	}
	return locations, nil
}

// SymbolAt returns the definition of the identifier at the given position,
// following a reference through its stored resolution. It returns nil when
// nothing resolvable is there.
func (q *QueryBuilder) SymbolAt(path string, line, col int) (*Symbol, error) {
	f, err := q.store.FileByPath(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("symbol at: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}
	defs, err := q.store.SymbolsAt(f.ID, line, col)
	if err != nil {
		return nil, fmt.Errorf("symbol at: query symbols: %w", err)
	}
	if len(defs) > 0 {
		return defs[0], nil
	}
	refs, err := q.store.ReferencesAt(f.ID, line, col)
	if err != nil {
		return nil, fmt.Errorf("symbol at: query references: %w", err)
	}
	for _, ref := range refs {
		resolved, err := q.store.ResolvedReferencesByRef(ref.ID)
		if err != nil {
			return nil, fmt.Errorf("symbol at: resolve ref %d: %w", ref.ID, err)
		}
		if len(resolved) > 0 {
			return q.store.SymbolByID(resolved[0].TargetSymbolID)
		}
	}
	return nil, nil
}

// ReferencesTo finds all source locations that reference the given symbol.
func (q *QueryBuilder) ReferencesTo(symbolID int64) ([]Location, error) {
	sym, err := q.store.SymbolByID(symbolID)
	if err != nil {
		return nil, fmt.Errorf("references to: %w", err)
	}
	if sym == nil {
		return nil, nil
	}
	f, err := q.store.FileByID(sym.FileID)
	if err != nil {
		return nil, fmt.Errorf("references to: lookup file: %w", err)
	}
	if f == nil {
		return nil, nil
	}

	resolved, err := q.store.ResolvedReferencesByTarget(symbolID)
	if err != nil {
		return nil, fmt.Errorf("references to: %w", err)
	}
	ids := make([]int64, len(resolved))
	for i, rr := range resolved {
		ids[i] = rr.ReferenceID
	}
	refs, err := q.store.ReferencesByIDs(ids)
	if err != nil {
		return nil, fmt.Errorf("references to: ref location: %w", err)
	}

	locations := make([]Location, 0, len(refs))
	for _, ref := range refs {
		locations = append(locations, Location{
			File:      f.Path,
			StartLine: ref.StartLine,
			StartCol:  ref.StartCol,
			EndLine:   ref.EndLine,
			EndCol:    ref.EndCol,
		})
	}
	return locations, nil
}

func symbolLocation(path string, sym *Symbol) Location {
	return Location{
		File:      path,
		StartLine: sym.StartLine,
		StartCol:  sym.StartCol,
		EndLine:   sym.EndLine,
		EndCol:    sym.EndCol,
	}
}
