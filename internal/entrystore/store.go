// Package entrystore implements C2: the write-ahead, append-mostly entry
// and reference database. Mutations serialize through a single writer;
// readers observe whole-batch snapshot replacements, so a reader's view of
// the by-FQN/by-name/reverse-mixin indexes is always internally consistent
// (§4.2 Concurrency contract).
package entrystore

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// snapshot is an immutable view of the store. A writer builds a new
// snapshot from the previous one (copy-on-write over the index maps; the
// entry/reference slices are copied on commit and rebuilt compactly when a
// file's entries or references are removed) and publishes it with a single
// atomic pointer swap — no reader ever observes a partially rebuilt index
// (§4.2).
type snapshot struct {
	entries    []types.Entry     // EntryID order; index i holds EntryID i+1 only until a removal compacts it
	references []types.Reference // index i holds the reference at slot i

	byFQN  map[string][]types.EntryID
	byName map[types.NameHandle][]types.EntryID
	// byMixinTarget is the reverse mixin index (owners_of): mixin target
	// FQN key -> ids of classes/modules that include/prepend/extend it.
	byMixinTarget map[string][]types.EntryID

	entriesByFile    map[types.FileHandle][]types.EntryID
	referencesByFile map[types.FileHandle][]int // slot indices into references

	// unresolvedByFQN supports incremental re-resolution (§4.5 step 3): for
	// each FQN key an Unresolved reference named, the set of files holding
	// that reference, so inserting a new entry at that FQN can schedule
	// exactly the files that might now resolve.
	unresolvedByFQN map[string]map[types.FileHandle]bool
}

func emptySnapshot() *snapshot {
	return &snapshot{
		byFQN:            make(map[string][]types.EntryID),
		byName:           make(map[types.NameHandle][]types.EntryID),
		byMixinTarget:    make(map[string][]types.EntryID),
		entriesByFile:    make(map[types.FileHandle][]types.EntryID),
		referencesByFile: make(map[types.FileHandle][]int),
		unresolvedByFQN:  make(map[string]map[types.FileHandle]bool),
	}
}

// Store is C2.
type Store struct {
	writeMu sync.Mutex // single-writer guard (§4.2)
	cur     atomic.Pointer[snapshot]
	nextID  uint64
}

func New() *Store {
	s := &Store{}
	s.cur.Store(emptySnapshot())
	return s
}

func entryKey(e *types.Entry) string {
	switch e.Kind {
	case types.EntryMethod:
		// Methods are keyed by owner ++ name, distinct from the owner's own
		// FQN (a class and a same-named method never collide).
		return e.Owner.Key() + "#" + fqnSegKey(e.MethodName)
	case types.EntryLocalVariable:
		return "" // locals are never looked up by FQN
	default:
		return e.FQN.Key()
	}
}

func fqnSegKey(h types.NameHandle) string {
	return string([]byte{byte(h >> 24), byte(h >> 16), byte(h >> 8), byte(h)})
}

// cloneByFQN / cloneByName / cloneByMixinTarget / cloneEntriesByFile /
// cloneReferencesByFile / cloneUnresolved perform the shallow copies a
// batch commit needs: new top-level maps pointing at existing slices where
// unaffected, new slices only for files touched by this batch.
func cloneMapSlice[K comparable](m map[K][]types.EntryID) map[K][]types.EntryID {
	out := make(map[K][]types.EntryID, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneMapInt[K comparable](m map[K][]int) map[K][]int {
	out := make(map[K][]int, len(m)+4)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneUnresolved(m map[string]map[types.FileHandle]bool) map[string]map[types.FileHandle]bool {
	out := make(map[string]map[types.FileHandle]bool, len(m)+4)
	for k, v := range m {
		inner := make(map[types.FileHandle]bool, len(v))
		for f := range v {
			inner[f] = true
		}
		out[k] = inner
	}
	return out
}

// Batch accumulates entries and references for one file (or one group of
// files discovered together) before Commit publishes them atomically. This
// is how phase A and phase B (§4.5) each produce their writes: one Batch
// per phase per file, committed once the visitor finishes that file.
type Batch struct {
	file       types.FileHandle
	entries    []types.Entry
	references []types.Reference
}

func NewBatch(file types.FileHandle) *Batch {
	return &Batch{file: file}
}

func (b *Batch) AddEntry(e types.Entry) { b.entries = append(b.entries, e) }
func (b *Batch) AddReference(r types.Reference) { b.references = append(b.references, r) }

// CommitEntries publishes a phase-A batch: it first removes any existing
// entries/references for the file (supporting re-indexing / reopening
// correction) then appends the batch's entries, assigning EntryIDs in
// discovery order (I2: "order is file-then-offset" — callers must already
// have produced entries in byte-offset order within the file).
func (s *Store) CommitEntries(b *Batch) []types.EntryID {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.cur.Load()
	next := s.removeFileLocked(prev, b.file)

	ids := make([]types.EntryID, 0, len(b.entries))
	entries := append([]types.Entry{}, next.entries...)
	byFQN := cloneMapSlice(next.byFQN)
	byName := cloneMapSlice(next.byName)
	byMixin := cloneMapSlice(next.byMixinTarget)
	entriesByFile := cloneMapSlice(next.entriesByFile)

	fileEntryIDs := append([]types.EntryID{}, entriesByFile[b.file]...)

	for _, e := range b.entries {
		s.nextID++
		id := types.EntryID(s.nextID)
		e.ID = id
		entries = append(entries, e)
		ids = append(ids, id)
		fileEntryIDs = append(fileEntryIDs, id)

		key := entryKey(&e)
		if key != "" {
			byFQN[key] = insertSorted(byFQN[key], id, entries)
		}
		if e.Kind == types.EntryMethod {
			byName[e.MethodName] = append(byName[e.MethodName], id)
		}
		for _, m := range e.Mixins() {
			mk := m.Target.Key()
			byMixin[mk] = append(byMixin[mk], id)
		}
	}
	entriesByFile[b.file] = fileEntryIDs

	published := &snapshot{
		entries:          entries,
		references:       next.references,
		byFQN:            byFQN,
		byName:           byName,
		byMixinTarget:    byMixin,
		entriesByFile:    entriesByFile,
		referencesByFile: next.referencesByFile,
		unresolvedByFQN:  next.unresolvedByFQN,
	}
	s.cur.Store(published)
	return ids
}

// CommitReferences publishes a phase-B batch for a file. It replaces the
// file's existing references (supporting incremental re-resolution, §4.5
// step 3) and updates the unresolved side index.
func (s *Store) CommitReferences(b *Batch) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.cur.Load()

	references := append([]types.Reference{}, prev.references...)
	referencesByFile := cloneMapInt(prev.referencesByFile)
	unresolved := cloneUnresolved(prev.unresolvedByFQN)

	// Drop the file's previous references first (a re-resolution pass
	// supersedes the old reference set for that file).
	if oldSlots, ok := referencesByFile[b.file]; ok {
		mark := make(map[int]bool, len(oldSlots))
		for _, i := range oldSlots {
			mark[i] = true
		}
		filtered := references[:0:0]
		remap := make(map[int]int, len(references))
		for i, r := range references {
			if mark[i] {
				continue
			}
			remap[i] = len(filtered)
			filtered = append(filtered, r)
		}
		references = filtered
		for f, slots := range referencesByFile {
			if f == b.file {
				continue
			}
			newSlots := make([]int, 0, len(slots))
			for _, i := range slots {
				if ni, ok := remap[i]; ok {
					newSlots = append(newSlots, ni)
				}
			}
			referencesByFile[f] = newSlots
		}
		for k, files := range unresolved {
			if files[b.file] {
				delete(files, b.file)
				if len(files) == 0 {
					delete(unresolved, k)
				} else {
					unresolved[k] = files
				}
			}
		}
	}

	newSlots := make([]int, 0, len(b.references))
	for _, r := range b.references {
		slot := len(references)
		references = append(references, r)
		newSlots = append(newSlots, slot)
		if r.Unresolved() && r.Name != "" {
			// Nothing is recorded here: the coordinator registers each
			// unresolved constant's FQN key via RecordUnresolved after this
			// commit.
		}
	}
	referencesByFile[b.file] = newSlots

	published := &snapshot{
		entries:          prev.entries,
		references:       references,
		byFQN:            prev.byFQN,
		byName:           prev.byName,
		byMixinTarget:    prev.byMixinTarget,
		entriesByFile:    prev.entriesByFile,
		referencesByFile: referencesByFile,
		unresolvedByFQN:  unresolved,
	}
	s.cur.Store(published)
}

// RecordUnresolved registers that file has an Unresolved reference naming
// fqnKey, so a later insert at that FQN (via NotifyNewFQN) can report which
// files need re-resolution (§4.5 step 3).
func (s *Store) RecordUnresolved(fqnKey string, file types.FileHandle) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	prev := s.cur.Load()
	unresolved := cloneUnresolved(prev.unresolvedByFQN)
	if unresolved[fqnKey] == nil {
		unresolved[fqnKey] = make(map[types.FileHandle]bool)
	}
	unresolved[fqnKey][file] = true
	next := *prev
	next.unresolvedByFQN = unresolved
	s.cur.Store(&next)
}

// FilesAwaitingFQN returns the set of files with an Unresolved reference
// that might now resolve because fqnKey was just inserted.
func (s *Store) FilesAwaitingFQN(fqnKey string) []types.FileHandle {
	snap := s.cur.Load()
	files := snap.unresolvedByFQN[fqnKey]
	out := make([]types.FileHandle, 0, len(files))
	for f := range files {
		out = append(out, f)
	}
	return out
}

// RemoveFile atomically removes every entry and reference originating in
// file (I4), preserving I3 by rewriting any surviving reference that
// pointed at a removed entry to Unresolved.
func (s *Store) RemoveFile(file types.FileHandle) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	prev := s.cur.Load()
	next := s.removeFileLocked(prev, file)
	s.cur.Store(next)
}

func (s *Store) removeFileLocked(prev *snapshot, file types.FileHandle) *snapshot {
	removedIDs := prev.entriesByFile[file]
	if len(removedIDs) == 0 && len(prev.referencesByFile[file]) == 0 {
		return prev
	}
	removedSet := make(map[types.EntryID]bool, len(removedIDs))
	for _, id := range removedIDs {
		removedSet[id] = true
	}

	entries := make([]types.Entry, 0, len(prev.entries))
	for _, e := range prev.entries {
		if removedSet[e.ID] {
			continue
		}
		entries = append(entries, e)
	}

	byFQN := make(map[string][]types.EntryID, len(prev.byFQN))
	for k, ids := range prev.byFQN {
		filtered := filterIDs(ids, removedSet)
		if len(filtered) > 0 {
			byFQN[k] = filtered
		}
	}
	byName := make(map[types.NameHandle][]types.EntryID, len(prev.byName))
	for k, ids := range prev.byName {
		filtered := filterIDs(ids, removedSet)
		if len(filtered) > 0 {
			byName[k] = filtered
		}
	}
	byMixin := make(map[string][]types.EntryID, len(prev.byMixinTarget))
	for k, ids := range prev.byMixinTarget {
		filtered := filterIDs(ids, removedSet)
		if len(filtered) > 0 {
			byMixin[k] = filtered
		}
	}
	entriesByFile := make(map[types.FileHandle][]types.EntryID, len(prev.entriesByFile))
	for f, ids := range prev.entriesByFile {
		if f == file {
			continue
		}
		entriesByFile[f] = ids
	}

	references := make([]types.Reference, 0, len(prev.references))
	removedRefSlots := make(map[int]bool, len(prev.referencesByFile[file]))
	for _, i := range prev.referencesByFile[file] {
		removedRefSlots[i] = true
	}
	for i, r := range prev.references {
		if removedRefSlots[i] {
			continue
		}
		if removedSet[r.Target] {
			r.Target = types.UnresolvedEntryID
		}
		references = append(references, r)
	}
	// Slot indices shift after filtering, so referencesByFile is rebuilt
	// from scratch against the filtered slice rather than remapped.
	referencesByFile := make(map[types.FileHandle][]int, len(prev.referencesByFile))
	for i, r := range references {
		referencesByFile[r.Location.File] = append(referencesByFile[r.Location.File], i)
	}

	unresolved := make(map[string]map[types.FileHandle]bool, len(prev.unresolvedByFQN))
	for k, files := range prev.unresolvedByFQN {
		inner := make(map[types.FileHandle]bool, len(files))
		for f := range files {
			if f == file {
				continue
			}
			inner[f] = true
		}
		if len(inner) > 0 {
			unresolved[k] = inner
		}
	}

	return &snapshot{
		entries:          entries,
		references:       references,
		byFQN:            byFQN,
		byName:           byName,
		byMixinTarget:    byMixin,
		entriesByFile:    entriesByFile,
		referencesByFile: referencesByFile,
		unresolvedByFQN:  unresolved,
	}
}

func filterIDs(ids []types.EntryID, removed map[types.EntryID]bool) []types.EntryID {
	out := ids[:0:0]
	for _, id := range ids {
		if !removed[id] {
			out = append(out, id)
		}
	}
	return out
}

// insertSorted inserts id into ids keeping (file, byte offset) order (I2),
// looking up each id's Location in entries (already appended by the time
// this runs within CommitEntries).
func insertSorted(ids []types.EntryID, id types.EntryID, entries []types.Entry) []types.EntryID {
	loc := locationOf(entries, id)
	out := append([]types.EntryID{}, ids...)
	i := sort.Search(len(out), func(i int) bool {
		return !locationOf(entries, out[i]).Less(loc)
	})
	out = append(out, 0)
	copy(out[i+1:], out[i:])
	out[i] = id
	return out
}

func locationOf(entries []types.Entry, id types.EntryID) types.Location {
	idx := int(id) - 1
	if idx >= 0 && idx < len(entries) && entries[idx].ID == id {
		return entries[idx].Location
	}
	// a removal compacts entries, after which id-1 no longer indexes id
	for _, e := range entries {
		if e.ID == id {
			return e.Location
		}
	}
	return types.Location{}
}

// EntriesByFQN returns every entry defined at fqn, ordered by (file, byte
// offset) (I2). Multiple results mean the namespace was reopened (§9).
func (s *Store) EntriesByFQN(fqn types.FQN) []types.Entry {
	snap := s.cur.Load()
	ids := snap.byFQN[fqn.Key()]
	return s.materialize(snap, ids)
}

// EntriesByOwnerAndName returns every method entry owned by owner with the
// given bare name, ordered by (file, byte offset) — multiple results mean
// the method was reopened across files (§4.6 step 2 / §9).
func (s *Store) EntriesByOwnerAndName(owner types.FQN, name types.NameHandle) []types.Entry {
	snap := s.cur.Load()
	ids := snap.byFQN[owner.Key()+"#"+fqnSegKey(name)]
	return s.materialize(snap, ids)
}

// EntriesOwnedBy returns every method entry whose Owner equals owner,
// regardless of name — unlike EntriesByOwnerAndName, which needs the
// candidate name up front, this is the enumeration C7's method completion
// needs to list every name defined directly on one link of the ancestor
// chain before ranking against a prefix (§4.7 Completion).
func (s *Store) EntriesOwnedBy(owner types.FQN) []types.Entry {
	snap := s.cur.Load()
	var out []types.Entry
	for _, e := range snap.entries {
		if e.Kind == types.EntryMethod && e.Owner.Equal(owner) {
			out = append(out, e)
		}
	}
	return out
}

// EntriesByName returns every method entry with the given bare name across
// all owners — the fast lookup entries_by_name(name) names in §4.2.
func (s *Store) EntriesByName(name types.NameHandle) []types.Entry {
	snap := s.cur.Load()
	return s.materialize(snap, snap.byName[name])
}

// OwnersOf returns every class/module entry whose MixinSet includes target
// — the reverse mixin index (§4.2 owners_of).
func (s *Store) OwnersOf(target types.FQN) []types.Entry {
	snap := s.cur.Load()
	return s.materialize(snap, snap.byMixinTarget[target.Key()])
}

// Entry returns the entry with the given id, if it still exists.
func (s *Store) Entry(id types.EntryID) (types.Entry, bool) {
	snap := s.cur.Load()
	idx := int(id) - 1
	if idx < 0 || idx >= len(snap.entries) {
		return types.Entry{}, false
	}
	e := snap.entries[idx]
	if e.ID != id {
		// entry slot was removed; a stale linear scan would be wrong, but
		// since entries are append-only and RemoveFile rebuilds the slice
		// compactly, index-by-(id-1) is only valid immediately after
		// commit. Fall back to a scan for correctness.
		for _, e2 := range snap.entries {
			if e2.ID == id {
				return e2, true
			}
		}
		return types.Entry{}, false
	}
	return e, true
}

// ReferencesTo returns every reference whose Target equals id.
func (s *Store) ReferencesTo(id types.EntryID) []types.Reference {
	snap := s.cur.Load()
	out := make([]types.Reference, 0, 4)
	for _, r := range snap.references {
		if r.Target == id {
			out = append(out, r)
		}
	}
	return out
}

// ReferencesInFile returns every reference recorded for file.
func (s *Store) ReferencesInFile(file types.FileHandle) []types.Reference {
	snap := s.cur.Load()
	slots := snap.referencesByFile[file]
	out := make([]types.Reference, 0, len(slots))
	for _, i := range slots {
		out = append(out, snap.references[i])
	}
	return out
}

// EntriesInFile returns every entry defined in file, in byte-offset order.
func (s *Store) EntriesInFile(file types.FileHandle) []types.Entry {
	snap := s.cur.Load()
	ids := snap.entriesByFile[file]
	return s.materialize(snap, ids)
}

// AllEntries returns every live entry in the store, in EntryID order. Used
// by workspace/symbol search, which has no narrower index to consult.
func (s *Store) AllEntries() []types.Entry {
	snap := s.cur.Load()
	out := make([]types.Entry, len(snap.entries))
	copy(out, snap.entries)
	return out
}

func (s *Store) materialize(snap *snapshot, ids []types.EntryID) []types.Entry {
	out := make([]types.Entry, 0, len(ids))
	for _, id := range ids {
		idx := int(id) - 1
		if idx >= 0 && idx < len(snap.entries) && snap.entries[idx].ID == id {
			out = append(out, snap.entries[idx])
			continue
		}
		for _, e := range snap.entries {
			if e.ID == id {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// Stats is a cheap, read-only snapshot of store size for health/progress
// reporting.
type Stats struct {
	TotalEntries    int
	TotalReferences int
}

func (s *Store) Stats() Stats {
	snap := s.cur.Load()
	return Stats{TotalEntries: len(snap.entries), TotalReferences: len(snap.references)}
}
