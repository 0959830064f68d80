package scope

import "github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"

// Tracker builds a scope tree while a visitor walks one file's AST. A new
// Tracker is created per file, per pass (the index visitor and the
// reference visitor each get their own, since they walk independently in
// phase A / phase B — §4.5).
type Tracker struct {
	stack  []*Node
	nextID types.ScopeID
	root   *Node
}

// NewTracker starts a tracker with a single File-kind root frame spanning
// the whole file (I5: the root's range is always [0, fileLen)).
func NewTracker(fileLen uint32) *Tracker {
	root := &Node{
		Kind:  KindFile,
		FQN:   types.RootFQN(),
		Range: types.ByteRange{Start: 0, End: fileLen},
	}
	return &Tracker{stack: []*Node{root}, root: root, nextID: 1}
}

// Top returns the innermost currently-open frame.
func (t *Tracker) Top() *Node { return t.stack[len(t.stack)-1] }

// CurrentFQN returns the FQN of the nearest enclosing
// Namespace/Class/SingletonClass/File frame — "current_fqn() at any point
// in the walk" (§4.3).
func (t *Tracker) CurrentFQN() types.FQN {
	for i := len(t.stack) - 1; i >= 0; i-- {
		k := t.stack[i].Kind
		if k == KindNamespace || k == KindClass || k == KindSingletonClass || k == KindFile {
			return t.stack[i].FQN
		}
	}
	return types.RootFQN()
}

// CurrentClassFQN returns the nearest enclosing Class, SingletonClass or
// Namespace frame's FQN, or the root FQN when there is none; the bool is
// always true. Used by the reference visitor as the owner of a call with
// an implicit or explicit self receiver.
func (t *Tracker) CurrentClassFQN() (types.FQN, bool) {
	for i := len(t.stack) - 1; i >= 0; i-- {
		k := t.stack[i].Kind
		if k == KindClass || k == KindSingletonClass {
			return t.stack[i].FQN, true
		}
		if k == KindNamespace {
			// a bare module body owns its own instance methods too
			return t.stack[i].FQN, true
		}
	}
	return types.RootFQN(), true
}

// InSingletonClass reports whether the top of the stack is a `class << self`
// body (a frame nested inside one, such as a block, does not count) — used
// by the index visitor to classify `def foo` directly inside such a body as
// MethodSingleton (§4.4).
func (t *Tracker) InSingletonClass() bool {
	return t.Top().Kind == KindSingletonClass
}

// Push opens a new frame as a child of the current top and returns it. The
// caller fills in FQN/Superclass only when relevant to the kind being
// pushed.
func (t *Tracker) Push(kind Kind, start uint32, fqn types.FQN, superclass types.FQN, hasSuper bool) *Node {
	n := &Node{
		ID:         t.nextID,
		Kind:       kind,
		FQN:        fqn,
		Superclass: superclass,
		HasSuper:   hasSuper,
		Range:      types.ByteRange{Start: start, End: start},
		Parent:     t.Top(),
	}
	t.nextID++
	t.Top().Children = append(t.Top().Children, n)
	t.stack = append(t.stack, n)
	return n
}

// Pop closes the current top frame, fixing its End to the given byte
// offset (I5: children's ranges are always closed before their parent's).
func (t *Tracker) Pop(end uint32) {
	n := t.Top()
	n.Range.End = end
	t.stack = t.stack[:len(t.stack)-1]
}

// Finish closes the root frame at fileLen and returns the completed scope
// tree. Call once the walk reaches the end of the file; the stack must
// contain only the root (every Push must be matched by a Pop).
func (t *Tracker) Finish(fileLen uint32) *Node {
	t.root.Range.End = fileLen
	return t.root
}
