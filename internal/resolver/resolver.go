// Package resolver implements C6: Ruby constant and method lookup against
// the entry store's current snapshot (§4.6). It takes an already-built
// scope chain (from C3/C7) and a name, and returns the set of matching
// Entry ids; it never walks the AST itself.
package resolver

import (
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/entrystore"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/intern"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/scope"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// Resolver holds a read-only reference to the entry store; it carries no
// state of its own between calls, matching §5's "C2 is the only shared
// mutable state" — every resolution reads one consistent snapshot via the
// store's query API.
type Resolver struct {
	store *entrystore.Store
	in    *intern.Interners
}

// New creates a resolver over store.
func New(store *entrystore.Store, in *intern.Interners) *Resolver {
	return &Resolver{store: store, in: in}
}

// ResolveConstant implements §4.6's constant lookup for name N observed at
// chain (innermost frame last, root first — scope.Node.ChainAt's order). A
// qualified reference should instead be resolved via ResolveQualified.
func (r *Resolver) ResolveConstant(chain []*scope.Node, leaf string) []types.EntryID {
	name, ok := r.in.Segments.Lookup(leaf)
	if !ok {
		return nil
	}

	seen := make(map[types.EntryID]bool)
	var out []types.EntryID
	add := func(fqn types.FQN) {
		for _, e := range r.store.EntriesByFQN(fqn.Append(name)) {
			if !seen[e.ID] {
				seen[e.ID] = true
				out = append(out, e.ID)
			}
		}
	}

	for _, frame := range scope.LexicalNamespaces(chain) {
		add(frame)
	}

	if cls := scope.InnermostClass(chain); cls != nil {
		r.walkSuperclassChain(cls.FQN, func(ancestorFQN types.FQN) {
			add(ancestorFQN)
		})
	}

	return out
}

// ResolveFQN resolves an already-qualified FQN directly: it checks for an
// exact entry at fqn, then falls back to searching fqn's leaf name within
// its parent namespace's ancestor chain (so a reference to an inherited
// constant written as `Child::INHERITED` still resolves). Used by the
// coordinator when a reference visitor has already computed a best-effort
// FQN and just needs it checked against the store.
func (r *Resolver) ResolveFQN(fqn types.FQN) (types.EntryID, bool) {
	if entries := r.store.EntriesByFQN(fqn); len(entries) > 0 {
		return entries[0].ID, true
	}
	parent, ok := fqn.Parent()
	if !ok || len(fqn.Segments) == 0 {
		return types.InvalidEntryID, false
	}
	leaf, ok := r.in.Segments.Resolve(fqn.Segments[len(fqn.Segments)-1])
	if !ok {
		return types.InvalidEntryID, false
	}
	ids := r.ResolveQualified(parent, leaf)
	if len(ids) == 0 {
		return types.InvalidEntryID, false
	}
	return ids[0], true
}

// ResolveQualified resolves a dotted reference A::B::N (§4.6 "a qualified
// reference skips lexical lookup and resolves A::B first, then searches N
// within it and its ancestors"). prefix is the already-resolved FQN for
// "A::B"; leaf is "N".
func (r *Resolver) ResolveQualified(prefix types.FQN, leaf string) []types.EntryID {
	name, ok := r.in.Segments.Lookup(leaf)
	if !ok {
		return nil
	}
	seen := make(map[types.EntryID]bool)
	var out []types.EntryID
	add := func(fqn types.FQN) {
		for _, e := range r.store.EntriesByFQN(fqn.Append(name)) {
			if !seen[e.ID] {
				seen[e.ID] = true
				out = append(out, e.ID)
			}
		}
	}

	add(prefix)
	r.walkSuperclassChain(prefix, add)
	return out
}

// walkSuperclassChain calls visit for prefix and every ancestor reached by
// following superclass links until the root, guarded against cycles (§4.6
// edge case: "revisiting a node is a no-op").
func (r *Resolver) walkSuperclassChain(start types.FQN, visit func(types.FQN)) {
	visited := map[string]bool{}
	cur := start
	for {
		key := cur.Key()
		if visited[key] || cur.IsRoot() {
			return
		}
		visited[key] = true

		entries := r.store.EntriesByFQN(cur)
		var next types.FQN
		found := false
		for _, e := range entries {
			if e.Kind == types.EntryClass && e.HasSuper {
				next = e.Superclass
				found = true
				break
			}
		}
		visit(cur)
		if !found {
			return
		}
		cur = next
	}
}

// singletonFlag distinguishes MethodLookup's instance vs. singleton walk.
type singletonFlag bool

const (
	instanceMethods singletonFlag = false
	singletonMethod singletonFlag = true
)

// ResolveMethod implements §4.6's method lookup: builds the ancestor chain
// of class/module owner and returns every matching entry along it, in chain
// order (method reopening across files surfaces as multiple entries).
func (r *Resolver) ResolveMethod(owner types.FQN, methodName string, singleton bool) []types.EntryID {
	name, ok := r.in.Names.Lookup(methodName)
	if !ok {
		return nil
	}
	flag := instanceMethods
	if singleton {
		flag = singletonMethod
	}

	var out []types.EntryID
	visited := map[string]bool{}
	r.walkAncestorChain(owner, flag, visited, func(link types.FQN, s singletonFlag) {
		wantKind := types.MethodInstance
		if s == singletonMethod {
			wantKind = types.MethodSingleton
		}
		for _, e := range r.store.EntriesByOwnerAndName(link, name) {
			if e.Kind == types.EntryMethod && e.MethodKind == wantKind {
				out = append(out, e.ID)
			}
		}
	})
	return out
}

// EnumerateMethods walks owner's ancestor chain the same way ResolveMethod
// does, but returns every method entry along it regardless of name — the
// candidate list completion needs before it can rank each name against a
// prefix (§4.7 Completion), since ResolveMethod requires the name up front.
func (r *Resolver) EnumerateMethods(owner types.FQN, singleton bool) []types.EntryID {
	flag := instanceMethods
	if singleton {
		flag = singletonMethod
	}

	var out []types.EntryID
	visited := map[string]bool{}
	r.walkAncestorChain(owner, flag, visited, func(link types.FQN, s singletonFlag) {
		wantKind := types.MethodInstance
		if s == singletonMethod {
			wantKind = types.MethodSingleton
		}
		for _, e := range r.store.EntriesOwnedBy(link) {
			if e.MethodKind == wantKind {
				out = append(out, e.ID)
			}
		}
	})
	return out
}

// walkAncestorChain enumerates the ancestor chain per §4.6 step 1:
// Prepends (reverse order) → self → Includes (reverse order) →
// superclass's chain. For singleton lookup the chain is the Extends
// (reverse order, each walked on its instance side), then the owner's own
// singleton methods, then the superclass's singleton chain (a class's
// singleton methods are, in effect, the instance methods of its singleton
// class, which Ruby builds from Extend the same way a normal class builds
// from Include).
func (r *Resolver) walkAncestorChain(owner types.FQN, flag singletonFlag, visited map[string]bool, visit func(types.FQN, singletonFlag)) {
	key := owner.Key() + "#" + boolKey(flag)
	if visited[key] {
		return
	}
	visited[key] = true

	entries := r.store.EntriesByFQN(owner)
	var mixins types.MixinSet
	var superclass types.FQN
	hasSuper := false
	for _, e := range entries {
		if e.Kind == types.EntryClass || e.Kind == types.EntryModule {
			mixins = append(mixins, e.Mixins()...)
			if e.Kind == types.EntryClass {
				superclass = e.Superclass
				hasSuper = e.HasSuper
			}
		}
	}

	if flag == singletonMethod {
		for i := len(mixins) - 1; i >= 0; i-- {
			if mixins[i].Mode == types.MixinExtend {
				r.walkAncestorChain(mixins[i].Target, instanceMethods, visited, visit)
			}
		}
		visit(owner, singletonMethod)
		if hasSuper {
			r.walkAncestorChain(superclass, singletonMethod, visited, visit)
		}
		return
	}

	for i := len(mixins) - 1; i >= 0; i-- {
		if mixins[i].Mode == types.MixinPrepend {
			r.walkAncestorChain(mixins[i].Target, instanceMethods, visited, visit)
		}
	}
	visit(owner, instanceMethods)
	for i := len(mixins) - 1; i >= 0; i-- {
		if mixins[i].Mode == types.MixinInclude {
			r.walkAncestorChain(mixins[i].Target, instanceMethods, visited, visit)
		}
	}
	if hasSuper {
		r.walkAncestorChain(superclass, instanceMethods, visited, visit)
	}
}

func boolKey(f singletonFlag) string {
	if f == singletonMethod {
		return "s"
	}
	return "i"
}
