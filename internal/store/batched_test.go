package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchedStore_SymbolsByFile_ReturnsBufferedSymbols(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	// Phase A of parallel indexing inserts the file record directly.
	f := insertTestFile(t, s, "/loop.a99", "xas99")

	batch := NewBatchedStore(s)
	id1, err := batch.InsertSymbol(&Symbol{FileID: f.ID, Name: "LOOP", Kind: "label", Production: "labeldef"})
	require.NoError(t, err)
	assert.Negative(t, id1, "batched IDs should be negative")

	id2, err := batch.InsertSymbol(&Symbol{FileID: f.ID, Name: "DONE", Kind: "label", Production: "labeldef"})
	require.NoError(t, err)
	assert.Negative(t, id2)
	assert.NotEqual(t, id1, id2)

	syms, err := batch.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 2)
	for _, sym := range syms {
		assert.Negative(t, sym.ID, "buffered symbols should have negative IDs")
	}
}

func TestBatchedStore_SymbolsByFile_MergesWithDatabase(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/loop.a99", "xas99")
	insertTestSymbol(t, s, f.ID, "EXISTING", 0)

	batch := NewBatchedStore(s)
	_, err := batch.InsertSymbol(&Symbol{FileID: f.ID, Name: "NEW", Kind: "label", Production: "labeldef"})
	require.NoError(t, err)

	syms, err := batch.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, "EXISTING", syms[0].Name)
	assert.Equal(t, "NEW", syms[1].Name)
}

func TestCommitBatch_RemapsFakeIDs(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/loop.a99", "xas99")

	batch := NewBatchedStore(s)
	sym := &Symbol{FileID: f.ID, Name: "LOOP", Kind: "label", Production: "labeldef", EndCol: 4}
	_, err := batch.InsertSymbol(sym)
	require.NoError(t, err)
	ref := &Reference{FileID: f.ID, Name: "LOOP", Kind: "label", Production: "oplabel", StartLine: 1, StartCol: 11, EndLine: 1, EndCol: 15}
	_, err = batch.InsertReference(ref)
	require.NoError(t, err)
	_, err = batch.InsertResolvedReference(&ResolvedReference{ReferenceID: ref.ID, TargetSymbolID: sym.ID, ResolutionKind: "name"})
	require.NoError(t, err)
	assert.Equal(t, 3, batch.Len())

	require.NoError(t, s.CommitBatch(batch))

	syms, err := s.SymbolsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Positive(t, syms[0].ID)

	refs, err := s.ReferencesByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, refs, 1)

	rrs, err := s.ResolvedReferencesByRef(refs[0].ID)
	require.NoError(t, err)
	require.Len(t, rrs, 1)
	assert.Equal(t, syms[0].ID, rrs[0].TargetSymbolID)
}

func TestCommitBatch_UnknownFakeIDFails(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	batch := NewBatchedStore(s)
	_, err := batch.InsertResolvedReference(&ResolvedReference{ReferenceID: -42, TargetSymbolID: -43, ResolutionKind: "name"})
	require.NoError(t, err)

	err = s.CommitBatch(batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in fakeToReal map")
}

func TestBatchedStore_ConcurrentInserts(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "/loop.a99", "xas99")
	batch := NewBatchedStore(s)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, err := batch.InsertSymbol(&Symbol{FileID: f.ID, Name: "X", Kind: "label", Production: "labeldef"})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for _, sym := range batch.Symbols {
		assert.False(t, seen[sym.ID], "duplicate fake id %d", sym.ID)
		seen[sym.ID] = true
	}
	assert.Len(t, seen, 200)
}
