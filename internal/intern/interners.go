package intern

import "github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"

// Interners bundles the three tables C1 specifies: FQN segments, file URIs,
// and identifier names. Kept as separate tables (rather than one shared
// string pool) so that, for example, a file named the same as a method never
// collides, and so each table can be sized independently — segments and
// names recur across millions of references while URIs are bounded by the
// workspace's file count.
type Interners struct {
	Segments *Table[types.NameHandle]
	URIs     *Table[types.FileHandle]
	Names    *Table[types.NameHandle]
}

// New creates a fresh, empty set of interners. One instance is created at
// server startup and lives for the process lifetime (§9 Global state); no
// caller constructs a second one against the same entry store.
func New() *Interners {
	return &Interners{
		Segments: NewTable[types.NameHandle](),
		URIs:     NewTable[types.FileHandle](),
		Names:    NewTable[types.NameHandle](),
	}
}

// InternFQNPath interns each dotted/colon-delimited segment of a constant
// path (e.g. "OuterA::InnerA1") and returns the resulting FQN relative to the
// root namespace. Callers that need a qualified reference resolved relative
// to a scope should instead build FQNs incrementally via FQN.Append.
func (in *Interners) InternFQNPath(segments []string) types.FQN {
	fqn := types.RootFQN()
	for _, seg := range segments {
		fqn = fqn.Append(in.Segments.Intern(seg))
	}
	return fqn
}

// ResolveFQN renders an FQN back to its dotted textual form, e.g.
// "OuterA::InnerA1", for diagnostics and LSP symbol names.
func (in *Interners) ResolveFQN(fqn types.FQN) string {
	if fqn.IsRoot() {
		return ""
	}
	out := make([]byte, 0, len(fqn.Segments)*8)
	for i, seg := range fqn.Segments {
		if i > 0 {
			out = append(out, ':', ':')
		}
		out = append(out, in.Segments.MustResolve(seg)...)
	}
	return string(out)
}
