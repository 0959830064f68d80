package entrystore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

func fqn(segs ...types.NameHandle) types.FQN {
	return types.FQN{Segments: segs}
}

func TestStore_CommitEntriesAndLookupByFQN(t *testing.T) {
	s := New()
	file := types.FileHandle(1)

	b := NewBatch(file)
	b.AddEntry(types.Entry{Kind: types.EntryClass, FQN: fqn(1), Location: types.Location{File: file, Bytes: types.ByteRange{Start: 0, End: 10}}})
	ids := s.CommitEntries(b)

	require.Len(t, ids, 1)
	entries := s.EntriesByFQN(fqn(1))
	require.Len(t, entries, 1)
	assert.Equal(t, ids[0], entries[0].ID)
}

func TestStore_CommitEntriesOrdersByLocation(t *testing.T) {
	s := New()
	file := types.FileHandle(1)

	b := NewBatch(file)
	b.AddEntry(types.Entry{Kind: types.EntryClass, FQN: fqn(1), Location: types.Location{File: file, Bytes: types.ByteRange{Start: 50, End: 60}}})
	b.AddEntry(types.Entry{Kind: types.EntryClass, FQN: fqn(1), Location: types.Location{File: file, Bytes: types.ByteRange{Start: 5, End: 15}}})
	s.CommitEntries(b)

	entries := s.EntriesByFQN(fqn(1))
	require.Len(t, entries, 2)
	assert.Less(t, entries[0].Location.Bytes.Start, entries[1].Location.Bytes.Start, "entries at the same FQN must be ordered by byte offset (I2)")
}

func TestStore_RemoveFileUnresolvesDanglingReferences(t *testing.T) {
	s := New()
	defFile := types.FileHandle(1)
	useFile := types.FileHandle(2)

	b := NewBatch(defFile)
	b.AddEntry(types.Entry{Kind: types.EntryClass, FQN: fqn(1), Location: types.Location{File: defFile}})
	ids := s.CommitEntries(b)
	target := ids[0]

	rb := NewBatch(useFile)
	rb.AddReference(types.Reference{Target: target, Location: types.Location{File: useFile}, Name: "Foo"})
	s.CommitReferences(rb)

	require.Len(t, s.ReferencesTo(target), 1)

	s.RemoveFile(defFile)

	refs := s.ReferencesInFile(useFile)
	require.Len(t, refs, 1)
	assert.True(t, refs[0].Unresolved(), "removing the defining file must unresolve references into it (I4)")
}

func TestStore_RemoveFileDropsItsOwnEntries(t *testing.T) {
	s := New()
	file := types.FileHandle(1)

	b := NewBatch(file)
	b.AddEntry(types.Entry{Kind: types.EntryClass, FQN: fqn(1), Location: types.Location{File: file}})
	s.CommitEntries(b)

	require.Len(t, s.EntriesInFile(file), 1)
	s.RemoveFile(file)
	assert.Empty(t, s.EntriesInFile(file))
	assert.Empty(t, s.EntriesByFQN(fqn(1)))
}

func TestStore_CommitReferencesReplacesFilePreviousReferences(t *testing.T) {
	s := New()
	file := types.FileHandle(1)

	b1 := NewBatch(file)
	b1.AddReference(types.Reference{Name: "a", Location: types.Location{File: file}})
	b1.AddReference(types.Reference{Name: "b", Location: types.Location{File: file}})
	s.CommitReferences(b1)
	require.Len(t, s.ReferencesInFile(file), 2)

	b2 := NewBatch(file)
	b2.AddReference(types.Reference{Name: "c", Location: types.Location{File: file}})
	s.CommitReferences(b2)

	refs := s.ReferencesInFile(file)
	require.Len(t, refs, 1)
	assert.Equal(t, "c", refs[0].Name)
}

func TestStore_Stats(t *testing.T) {
	s := New()
	file := types.FileHandle(1)
	b := NewBatch(file)
	b.AddEntry(types.Entry{Kind: types.EntryClass, FQN: fqn(1), Location: types.Location{File: file}})
	s.CommitEntries(b)

	stats := s.Stats()
	assert.Equal(t, 1, stats.TotalEntries)
}
