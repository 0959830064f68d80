// Package types holds the data model shared across every component of the
// indexer and resolver: interned handles, fully-qualified names, locations,
// entries, mixins and references. Nothing in this package touches the
// filesystem, the parser, or concurrency primitives — it is pure data.
package types

// FileHandle identifies an interned file URI. Stable for the process
// lifetime (see the interner contract in internal/intern).
type FileHandle uint32

// NameHandle identifies an interned identifier or FQN segment string.
type NameHandle uint32

// EntryID identifies a single Entry row in the entry store. EntryIDs are
// never reused: removing an entry does not free its id for reassignment,
// so a stale EntryID captured before a remove_file is safely distinguishable
// from any entry created afterwards.
type EntryID uint64

// ScopeID identifies a node in a document's scope tree (internal/scope).
type ScopeID uint32

// InvalidEntryID is returned by lookups that find nothing.
const InvalidEntryID EntryID = 0

// FQN is an ordered sequence of interned name segments. The empty sequence
// denotes the root namespace (I3, §3). Two FQNs are equal iff their segment
// sequences are equal; FQN is comparable via Equal, not ==, because Go slices
// are not comparable — canonical order is depth-first discovery order, which
// canonical order is enforced by whoever builds the FQN (the scope tracker),
// not by this type.
type FQN struct {
	Segments []NameHandle
}

// RootFQN is the empty, top-level namespace.
func RootFQN() FQN { return FQN{} }

// Append returns a new FQN with seg appended; the receiver is left untouched.
func (f FQN) Append(seg NameHandle) FQN {
	segs := make([]NameHandle, len(f.Segments)+1)
	copy(segs, f.Segments)
	segs[len(f.Segments)] = seg
	return FQN{Segments: segs}
}

// Parent returns the FQN with its last segment removed and ok=false if f is
// already the root.
func (f FQN) Parent() (FQN, bool) {
	if len(f.Segments) == 0 {
		return FQN{}, false
	}
	segs := make([]NameHandle, len(f.Segments)-1)
	copy(segs, f.Segments[:len(f.Segments)-1])
	return FQN{Segments: segs}, true
}

// Equal reports whether f and g name the same namespace.
func (f FQN) Equal(g FQN) bool {
	if len(f.Segments) != len(g.Segments) {
		return false
	}
	for i, s := range f.Segments {
		if g.Segments[i] != s {
			return false
		}
	}
	return true
}

// IsRoot reports whether f is the empty top-level namespace.
func (f FQN) IsRoot() bool { return len(f.Segments) == 0 }

// Key returns a comparable value suitable for use as a map key. Interned
// handles are dense uint32s so a string join over their raw values is cheap
// and collision-free (unlike joining resolved strings, which would require
// an escape for "::" appearing in a segment — handles need no escaping).
func (f FQN) Key() string {
	buf := make([]byte, 0, len(f.Segments)*5)
	for _, s := range f.Segments {
		buf = append(buf,
			byte(s>>24), byte(s>>16), byte(s>>8), byte(s), '/')
	}
	return string(buf)
}
