package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/entrystore"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/intern"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/scope"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// fixture bundles a store/interners pair and the FQN-building helpers the
// tests below share. Each add* helper commits under a fresh file handle,
// since CommitEntries replaces everything a file committed before.
type fixture struct {
	store *entrystore.Store
	in    *intern.Interners
	file  types.FileHandle
}

func newFixture() *fixture {
	return &fixture{store: entrystore.New(), in: intern.New(), file: types.FileHandle(1)}
}

func (f *fixture) nextFile() types.FileHandle {
	f.file++
	return f.file
}

func (f *fixture) fqn(segs ...string) types.FQN {
	return f.in.InternFQNPath(segs)
}

func (f *fixture) addClass(fqn types.FQN, superclass types.FQN, hasSuper bool, mixins types.MixinSet) types.EntryID {
	file := f.nextFile()
	b := entrystore.NewBatch(file)
	b.AddEntry(types.Entry{Kind: types.EntryClass, FQN: fqn, Superclass: superclass, HasSuper: hasSuper, ClassMixins: mixins, Location: types.Location{File: file}})
	ids := f.store.CommitEntries(b)
	return ids[0]
}

func (f *fixture) addModule(fqn types.FQN, mixins types.MixinSet) types.EntryID {
	file := f.nextFile()
	b := entrystore.NewBatch(file)
	b.AddEntry(types.Entry{Kind: types.EntryModule, FQN: fqn, ModuleMixins: mixins, Location: types.Location{File: file}})
	ids := f.store.CommitEntries(b)
	return ids[0]
}

func (f *fixture) addMethod(owner types.FQN, name string, kind types.MethodKind) types.EntryID {
	file := f.nextFile()
	b := entrystore.NewBatch(file)
	b.AddEntry(types.Entry{Kind: types.EntryMethod, Owner: owner, MethodName: f.in.Names.Intern(name), MethodKind: kind, Location: types.Location{File: file}})
	ids := f.store.CommitEntries(b)
	return ids[0]
}

func (f *fixture) addConstant(fqn types.FQN) types.EntryID {
	file := f.nextFile()
	b := entrystore.NewBatch(file)
	b.AddEntry(types.Entry{Kind: types.EntryConstant, FQN: fqn, HasValue: true, Location: types.Location{File: file}})
	ids := f.store.CommitEntries(b)
	return ids[0]
}

// Scenario: a method defined only on an included module is found by walking
// a class's ancestor chain (§8 "shared-module method resolution").
func TestResolveMethod_SharedModuleMethod(t *testing.T) {
	f := newFixture()
	mod := f.fqn("Greetable")
	cls := f.fqn("Person")
	f.addModule(mod, nil)
	helper := f.addMethod(mod, "greet", types.MethodInstance)
	f.addClass(cls, types.FQN{}, false, types.MixinSet{{Target: mod, Mode: types.MixinInclude}})

	res := New(f.store, f.in)
	ids := res.ResolveMethod(cls, "greet", false)
	require.Len(t, ids, 1)
	assert.Equal(t, helper, ids[0])
}

// Scenario: a prepended module's method shadows the class's own
// same-named method (§8 "prepend priority").
func TestResolveMethod_PrependTakesPriorityOverSelf(t *testing.T) {
	f := newFixture()
	mod := f.fqn("Logging")
	cls := f.fqn("Service")
	prepended := f.addMethod(mod, "call", types.MethodInstance)
	f.addModule(mod, nil)
	f.addClass(cls, types.FQN{}, false, types.MixinSet{{Target: mod, Mode: types.MixinPrepend}})
	own := f.addMethod(cls, "call", types.MethodInstance)

	res := New(f.store, f.in)
	ids := res.ResolveMethod(cls, "call", false)
	require.Len(t, ids, 2)
	assert.Equal(t, prepended, ids[0], "prepended module's method must be first in ancestor order")
	assert.Equal(t, own, ids[1])
}

// Scenario: included modules are searched after self but before the
// superclass, and in reverse declaration order among themselves.
func TestResolveMethod_IncludeOrderIsReversedAndAfterSelf(t *testing.T) {
	f := newFixture()
	first := f.fqn("First")
	second := f.fqn("Second")
	cls := f.fqn("Widget")
	firstHelper := f.addMethod(first, "helper", types.MethodInstance)
	secondHelper := f.addMethod(second, "helper", types.MethodInstance)
	f.addModule(first, nil)
	f.addModule(second, nil)
	f.addClass(cls, types.FQN{}, false, types.MixinSet{
		{Target: first, Mode: types.MixinInclude},
		{Target: second, Mode: types.MixinInclude},
	})

	res := New(f.store, f.in)
	ids := res.ResolveMethod(cls, "helper", false)
	require.Len(t, ids, 2)
	assert.Equal(t, secondHelper, ids[0], "later include wins first in the ancestor chain")
	assert.Equal(t, firstHelper, ids[1])
}

// Scenario: reopening a class across files surfaces every definition, in
// (file, offset) order (§8 "reopening").
func TestResolveMethod_ReopenedClassSurfacesEveryDefinition(t *testing.T) {
	f := newFixture()
	cls := f.fqn("Account")

	b1 := entrystore.NewBatch(types.FileHandle(1))
	b1.AddEntry(types.Entry{Kind: types.EntryMethod, Owner: cls, MethodName: f.in.Names.Intern("balance"), MethodKind: types.MethodInstance, Location: types.Location{File: types.FileHandle(1), Bytes: types.ByteRange{Start: 10, End: 20}}})
	firstIDs := f.store.CommitEntries(b1)

	b2 := entrystore.NewBatch(types.FileHandle(2))
	b2.AddEntry(types.Entry{Kind: types.EntryMethod, Owner: cls, MethodName: f.in.Names.Intern("balance"), MethodKind: types.MethodInstance, Location: types.Location{File: types.FileHandle(2), Bytes: types.ByteRange{Start: 5, End: 15}}})
	secondIDs := f.store.CommitEntries(b2)

	res := New(f.store, f.in)
	ids := res.ResolveMethod(cls, "balance", false)
	require.Len(t, ids, 2)
	assert.ElementsMatch(t, []types.EntryID{firstIDs[0], secondIDs[0]}, ids)
}

// Scenario: a cyclic mixin graph (A includes B, B includes A) must not
// infinite-loop; each link is visited at most once (§4.6 edge case).
func TestResolveMethod_CyclicMixinDoesNotLoop(t *testing.T) {
	f := newFixture()
	a := f.fqn("A")
	b := f.fqn("B")
	f.addModule(a, types.MixinSet{{Target: b, Mode: types.MixinInclude}})
	bMethod := f.addMethod(b, "shared", types.MethodInstance)
	f.addModule(b, types.MixinSet{{Target: a, Mode: types.MixinInclude}})

	res := New(f.store, f.in)
	ids := res.ResolveMethod(a, "shared", false)
	require.Len(t, ids, 1)
	assert.Equal(t, bMethod, ids[0])
}

// Scenario: a class method defined via `def self.foo` resolves only through
// the singleton lookup, not the instance one.
func TestResolveMethod_SingletonVsInstanceAreDistinctNamespaces(t *testing.T) {
	f := newFixture()
	cls := f.fqn("Factory")
	singleton := f.addMethod(cls, "build", types.MethodSingleton)

	res := New(f.store, f.in)
	assert.Empty(t, res.ResolveMethod(cls, "build", false))
	ids := res.ResolveMethod(cls, "build", true)
	require.Len(t, ids, 1)
	assert.Equal(t, singleton, ids[0])
}

// Scenario: extend contributes to the singleton chain the same way include
// contributes to the instance chain.
func TestResolveMethod_ExtendFeedsSingletonChain(t *testing.T) {
	f := newFixture()
	mod := f.fqn("ClassMethods")
	cls := f.fqn("Model")
	classMethod := f.addMethod(mod, "find", types.MethodInstance)
	f.addModule(mod, nil)
	f.addClass(cls, types.FQN{}, false, types.MixinSet{{Target: mod, Mode: types.MixinExtend}})

	res := New(f.store, f.in)
	ids := res.ResolveMethod(cls, "find", true)
	require.Len(t, ids, 1)
	assert.Equal(t, classMethod, ids[0])
}

func TestEnumerateMethods_ListsEveryNameAlongAncestorChain(t *testing.T) {
	f := newFixture()
	mod := f.fqn("Helpers")
	cls := f.fqn("Widget")
	f.addMethod(mod, "a", types.MethodInstance)
	f.addModule(mod, nil)
	f.addClass(cls, types.FQN{}, false, types.MixinSet{{Target: mod, Mode: types.MixinInclude}})
	f.addMethod(cls, "b", types.MethodInstance)

	res := New(f.store, f.in)
	ids := res.EnumerateMethods(cls, false)
	assert.Len(t, ids, 2)
}

// Scenario: a constant defined in an enclosing namespace is visible from a
// nested class body without being qualified (§8 "nested constant lookup").
func TestResolveConstant_NestedLookupFindsEnclosingNamespaceConstant(t *testing.T) {
	f := newFixture()
	outer := f.fqn("Outer")
	inner := f.fqn("Outer", "Inner")
	target := f.fqn("Outer", "VERSION")
	constID := f.addConstant(target)

	tracker := scope.NewTracker(100)
	tracker.Push(scope.KindNamespace, 0, outer, types.FQN{}, false)
	tracker.Push(scope.KindClass, 10, inner, types.FQN{}, false)
	chain := []*scope.Node{tracker.Top().Parent, tracker.Top()}

	res := New(f.store, f.in)
	ids := res.ResolveConstant(chain, "VERSION")
	require.Len(t, ids, 1)
	assert.Equal(t, constID, ids[0])
}

// Scenario: an inherited constant is reachable through the innermost class's
// superclass chain even when no lexical frame names it directly.
func TestResolveConstant_InheritedThroughSuperclass(t *testing.T) {
	f := newFixture()
	base := f.fqn("Base")
	derived := f.fqn("Derived")
	target := f.fqn("Base", "LIMIT")
	constID := f.addConstant(target)
	f.addClass(derived, base, true, nil)

	tracker := scope.NewTracker(100)
	tracker.Push(scope.KindClass, 0, derived, base, true)
	chain := []*scope.Node{tracker.Top()}

	res := New(f.store, f.in)
	ids := res.ResolveConstant(chain, "LIMIT")
	require.Len(t, ids, 1)
	assert.Equal(t, constID, ids[0])
}

func TestResolveFQN_FallsBackToParentAncestorChain(t *testing.T) {
	f := newFixture()
	base := f.fqn("Base")
	derived := f.fqn("Derived")
	target := f.fqn("Base", "LIMIT")
	constID := f.addConstant(target)
	f.addClass(derived, base, true, nil)

	res := New(f.store, f.in)
	id, ok := res.ResolveFQN(f.fqn("Derived", "LIMIT"))
	require.True(t, ok)
	assert.Equal(t, constID, id)
}

func TestResolveQualified_SearchesPrefixThenItsAncestors(t *testing.T) {
	f := newFixture()
	base := f.fqn("Base")
	derived := f.fqn("Derived")
	target := f.fqn("Base", "LIMIT")
	constID := f.addConstant(target)
	f.addClass(derived, base, true, nil)

	res := New(f.store, f.in)
	ids := res.ResolveQualified(derived, "LIMIT")
	require.Len(t, ids, 1)
	assert.Equal(t, constID, ids[0])
}
