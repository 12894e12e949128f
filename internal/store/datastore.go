package store

// DataStore receives one file's symbol table. *Store writes straight to
// SQLite; *BatchedStore buffers rows so parser goroutines never touch the
// database.
type DataStore interface {
	InsertSymbol(sym *Symbol) (int64, error)
	InsertReference(ref *Reference) (int64, error)
	InsertResolvedReference(rr *ResolvedReference) (int64, error)

	// SymbolsByFile lets a writer look up definitions it already stored.
	SymbolsByFile(fileID int64) ([]*Symbol, error)
}

var _ DataStore = (*Store)(nil)
