package store

import "fmt"

// Resolution kinds recorded for a resolved reference.
const (
	// ResolvedByName marks a reference matched by name, namespace and scope.
	ResolvedByName = "name"
	// ResolvedByPosition marks a local label matched to the nearest
	// definition in its direction.
	ResolvedByPosition = "positional"
)

const resolvedRefCols = `id, reference_id, target_symbol_id, resolution_kind`

// InsertResolvedReference links a stored reference to its definition.
// Unresolved references get no row.
func (s *Store) InsertResolvedReference(rr *ResolvedReference) (int64, error) {
	id, err := insertResolvedReference(s.db, rr)
	if err != nil {
		return 0, fmt.Errorf("insert resolved reference %d -> %d: %w", rr.ReferenceID, rr.TargetSymbolID, err)
	}
	rr.ID = id
	return id, nil
}

func (s *Store) queryResolvedRefs(where string, arg int64) ([]*ResolvedReference, error) {
	rows, err := s.db.Query("SELECT "+resolvedRefCols+" FROM resolved_references WHERE "+where+" ORDER BY reference_id", arg)
	if err != nil {
		return nil, fmt.Errorf("query resolved references: %w", err)
	}
	defer rows.Close()

	var out []*ResolvedReference
	for rows.Next() {
		var rr ResolvedReference
		if err := rows.Scan(&rr.ID, &rr.ReferenceID, &rr.TargetSymbolID, &rr.ResolutionKind); err != nil {
			return nil, fmt.Errorf("scan resolved reference: %w", err)
		}
		out = append(out, &rr)
	}
	return out, rows.Err()
}

// ResolvedReferencesByRef returns the resolution of one reference: a single
// row, or none when the reference is unresolved.
func (s *Store) ResolvedReferencesByRef(referenceID int64) ([]*ResolvedReference, error) {
	return s.queryResolvedRefs("reference_id = ?", referenceID)
}

// ResolvedReferencesByTarget returns every reference resolved to symbolID in
// reference order.
func (s *Store) ResolvedReferencesByTarget(symbolID int64) ([]*ResolvedReference, error) {
	return s.queryResolvedRefs("target_symbol_id = ?", symbolID)
}
