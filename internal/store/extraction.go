package store

import (
	"database/sql"
	"fmt"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, dialect, hash, snapshot, line_count, last_indexed) VALUES (?, ?, ?, ?, ?, ?)",
		f.Path, f.Dialect, f.Hash, f.Snapshot, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

const fileCols = `id, path, dialect, hash, snapshot, line_count, last_indexed`

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var hash, snapshot sql.NullString
	var lines sql.NullInt64
	if err := scanner.Scan(&f.ID, &f.Path, &f.Dialect, &hash, &snapshot, &lines, &f.LastIndexed); err != nil {
		return nil, err
	}
	f.Hash, f.Snapshot, f.LineCount = hash.String, snapshot.String, int(lines.Int64)
	return f, nil
}

func (s *Store) FileByPath(path string) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE path = ?", path))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by path: %w", err)
	}
	return f, nil
}

func (s *Store) FileByID(id int64) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file by id: %w", err)
	}
	return f, nil
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT " + fileCols + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// --- Symbol operations ---

func (s *Store) InsertSymbol(sym *Symbol) (int64, error) {
	id, err := insertSymbol(s.db, sym)
	if err != nil {
		return 0, fmt.Errorf("insert symbol: %w", err)
	}
	sym.ID = id
	return id, nil
}

// SymbolCols is the column list for symbol queries.
const SymbolCols = `id, file_id, name, kind, production, restricted, scope, signature_hash,
	start_line, start_col, end_line, end_col`

func scanSymbol(scanner interface{ Scan(...any) error }) (*Symbol, error) {
	sym := &Symbol{}
	var hash sql.NullString
	err := scanner.Scan(
		&sym.ID, &sym.FileID, &sym.Name, &sym.Kind, &sym.Production, &sym.Restricted, &sym.Scope,
		&hash, &sym.StartLine, &sym.StartCol, &sym.EndLine, &sym.EndCol,
	)
	if err != nil {
		return nil, err
	}
	sym.SignatureHash = hash.String
	return sym, nil
}

func (s *Store) querySymbols(query string, args ...any) ([]*Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var symbols []*Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// SymbolsByFile returns a file's definitions in source order.
func (s *Store) SymbolsByFile(fileID int64) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE file_id = ? ORDER BY id", fileID)
}

// SymbolsByName returns the definitions called name within one file.
func (s *Store) SymbolsByName(fileID int64, name string) ([]*Symbol, error) {
	return s.querySymbols("SELECT "+SymbolCols+" FROM symbols WHERE file_id = ? AND name = ? ORDER BY id", fileID, name)
}

func (s *Store) SymbolByID(id int64) (*Symbol, error) {
	sym, err := scanSymbol(s.db.QueryRow("SELECT "+SymbolCols+" FROM symbols WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("symbol by id: %w", err)
	}
	return sym, nil
}

// SymbolsAt returns the definitions whose identifier covers (line, col). A
// column just past the end of the identifier still matches.
func (s *Store) SymbolsAt(fileID int64, line, col int) ([]*Symbol, error) {
	return s.querySymbols(
		"SELECT "+SymbolCols+" FROM symbols WHERE file_id = ? AND "+spanCovers+" ORDER BY id",
		fileID, line, line, line, line, col, line, line, col,
	)
}

// spanCovers matches rows whose span contains (line, col); binds line, line,
// line, line, col, line, line, col.
const spanCovers = `start_line <= ? AND end_line >= ?
	AND (start_line < ? OR (start_line = ? AND start_col <= ?))
	AND (end_line > ? OR (end_line = ? AND end_col >= ?))`

// --- Reference operations ---

func (s *Store) InsertReference(ref *Reference) (int64, error) {
	id, err := insertReference(s.db, ref)
	if err != nil {
		return 0, fmt.Errorf("insert reference: %w", err)
	}
	ref.ID = id
	return id, nil
}

const referenceCols = `id, file_id, name, kind, production, restricted, scope,
	start_line, start_col, end_line, end_col`

func scanReference(scanner interface{ Scan(...any) error }) (*Reference, error) {
	ref := &Reference{}
	err := scanner.Scan(
		&ref.ID, &ref.FileID, &ref.Name, &ref.Kind, &ref.Production, &ref.Restricted, &ref.Scope,
		&ref.StartLine, &ref.StartCol, &ref.EndLine, &ref.EndCol,
	)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *Store) queryReferences(query string, args ...any) ([]*Reference, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var refs []*Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reference: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (s *Store) ReferencesByFile(fileID int64) ([]*Reference, error) {
	return s.queryReferences("SELECT "+referenceCols+" FROM references_ WHERE file_id = ? ORDER BY id", fileID)
}

// ReferencesAt returns the references whose identifier covers (line, col).
func (s *Store) ReferencesAt(fileID int64, line, col int) ([]*Reference, error) {
	return s.queryReferences(
		"SELECT "+referenceCols+" FROM references_ WHERE file_id = ? AND "+spanCovers+" ORDER BY id",
		fileID, line, line, line, line, col, line, line, col,
	)
}

// ReferencesByIDs returns the given references ordered by id.
func (s *Store) ReferencesByIDs(ids []int64) ([]*Reference, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return s.queryReferences(
		"SELECT "+referenceCols+" FROM references_ WHERE id IN ("+placeholderList(len(ids))+") ORDER BY id",
		int64sToArgs(ids)...,
	)
}
