package store

import "fmt"

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// (AUTOINCREMENT) IDs, and the foreign keys inside the batch are rewritten
// using the fakeToReal mapping.
//
// Insert order respects FK dependencies:
//  1. Symbols (depend on file_id only, which is already real)
//  2. References (depend on file_id only)
//  3. ResolvedRefs (depend on reference_id and target_symbol_id)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)

	for _, sym := range batch.Symbols {
		realID, err := insertSymbol(tx, &sym)
		if err != nil {
			return fmt.Errorf("commit batch: symbol %q: %w", sym.Name, err)
		}
		fakeToReal[sym.ID] = realID
	}

	for _, ref := range batch.References {
		realID, err := insertReference(tx, &ref)
		if err != nil {
			return fmt.Errorf("commit batch: reference %q: %w", ref.Name, err)
		}
		fakeToReal[ref.ID] = realID
	}

	for _, rr := range batch.ResolvedRefs {
		if rr.ReferenceID < 0 {
			realID, ok := fakeToReal[rr.ReferenceID]
			if !ok {
				return fmt.Errorf("commit batch: resolved reference has reference_id=%d not in fakeToReal map", rr.ReferenceID)
			}
			rr.ReferenceID = realID
		}
		if rr.TargetSymbolID < 0 {
			realID, ok := fakeToReal[rr.TargetSymbolID]
			if !ok {
				return fmt.Errorf("commit batch: resolved reference has target_symbol_id=%d not in fakeToReal map", rr.TargetSymbolID)
			}
			rr.TargetSymbolID = realID
		}
		if _, err := insertResolvedReference(tx, &rr); err != nil {
			return fmt.Errorf("commit batch: resolved reference: %w", err)
		}
	}

	return tx.Commit()
}
