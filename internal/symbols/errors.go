package symbols

import (
	"errors"
	"fmt"

	"github.com/jward/tisym/internal/syntax"
)

var (
	// ErrMalformedDefinition marks an identifier-bearing node that lacks its
	// identifier token. The node is left out of the index.
	ErrMalformedDefinition = errors.New("no definition identifier")

	// ErrRenameRejected is the parent of every rename refusal. A rejected
	// rename leaves the tree untouched.
	ErrRenameRejected = errors.New("rename rejected")

	ErrNoIdentifier = fmt.Errorf("%w: no identifier token", ErrRenameRejected)
	ErrRestricted   = fmt.Errorf("%w: restricted symbol", ErrRenameRejected)
	ErrNotSymbol    = fmt.Errorf("%w: not a symbol site", ErrRenameRejected)
	ErrSynthesis    = fmt.Errorf("%w: name does not parse as an identifier", ErrRenameRejected)

	// ErrNameConflict refuses a rename that would make some reference
	// resolve differently: the new name is already defined or used where
	// the symbol is visible, or a parameter would capture it.
	ErrNameConflict = fmt.Errorf("%w: name already in use", ErrRenameRejected)

	// ErrStaleIndex is returned when an index is used after its tree changed.
	ErrStaleIndex = errors.New("symbols: index is stale")
)

// Diagnostic is a local problem found while building an index.
type Diagnostic struct {
	Node   syntax.NodeID
	Offset int
	Err    error
}

func (d Diagnostic) Error() string { return d.Err.Error() }
func (d Diagnostic) Unwrap() error { return d.Err }
