package tisym

import (
	"github.com/jward/tisym/internal/store"
	"github.com/jward/tisym/internal/symbols"
)

// Public type aliases for internal types used in the Document and
// QueryBuilder APIs.

type Store = store.Store
type File = store.File
type Symbol = store.Symbol
type Reference = store.Reference
type ResolvedReference = store.ResolvedReference
type Site = symbols.Site
