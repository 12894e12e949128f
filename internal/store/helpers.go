package store

import (
	"database/sql"
	"strings"
)

// placeholderList returns "?,?,?" for n placeholders.
func placeholderList(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// int64sToArgs converts []int64 to []any for use with database/sql.
func int64sToArgs(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

// execer is satisfied by both *sql.DB and *sql.Tx, so the insert helpers
// serve direct writes and batch commits alike.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertSymbol(db execer, sym *Symbol) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO symbols (file_id, name, kind, production, restricted, scope, signature_hash,
			start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sym.FileID, sym.Name, sym.Kind, sym.Production, sym.Restricted, sym.Scope, sym.SignatureHash,
		sym.StartLine, sym.StartCol, sym.EndLine, sym.EndCol,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertReference(db execer, ref *Reference) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO references_ (file_id, name, kind, production, restricted, scope,
			start_line, start_col, end_line, end_col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.FileID, ref.Name, ref.Kind, ref.Production, ref.Restricted, ref.Scope,
		ref.StartLine, ref.StartCol, ref.EndLine, ref.EndCol,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertResolvedReference(db execer, rr *ResolvedReference) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO resolved_references (reference_id, target_symbol_id, resolution_kind)
		 VALUES (?, ?, ?)`,
		rr.ReferenceID, rr.TargetSymbolID, rr.ResolutionKind,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
