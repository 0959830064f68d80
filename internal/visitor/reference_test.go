package visitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/entrystore"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/intern"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/parser"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/resolver"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// runPhases parses source, runs phase A, commits it, then runs phase B
// against a fresh resolver over the same store — the same two-phase
// choreography the coordinator drives, condensed to one file for testing.
func runPhases(t *testing.T, source string) (*entrystore.Store, *intern.Interners, *entrystore.Batch) {
	t.Helper()
	par, err := parser.New()
	require.NoError(t, err)

	tree, err := par.Parse([]byte(source))
	require.NoError(t, err)

	in := intern.New()
	file := types.FileHandle(1)
	lines := document.NewLineIndex([]byte(source))

	store := entrystore.New()
	iv := NewIndexVisitor(in, tree, file, lines)
	_, batch := iv.Run()
	store.CommitEntries(batch)

	res := resolver.New(store, in)
	rv := NewReferenceVisitor(in, tree, file, lines)
	refBatch := rv.Run(res.ResolveFQN, res.ResolveMethod)
	store.CommitReferences(refBatch)

	return store, in, refBatch
}

// Scenario: an implicit-self call to a method defined only on an included
// module resolves to that module's method entry (§8 "shared-module method
// resolution").
func TestReferenceVisitor_ResolvesCallThroughIncludedModule(t *testing.T) {
	src := `
module Greetable
  def greet
    "hi"
  end
end

class Person
  include Greetable

  def say_hello
    greet
  end
end
`
	store, in, _ := runPhases(t, src)

	greetName, ok := in.Names.Lookup("greet")
	require.True(t, ok)
	entries := store.EntriesByName(greetName)
	require.Len(t, entries, 1)
	def := entries[0]

	refs := store.ReferencesTo(def.ID)
	require.Len(t, refs, 1, "the call site inside say_hello must resolve to the module's method entry")
	assert.Equal(t, types.RefMethodCall, refs[0].Kind)
}

// Scenario: an explicit `self.` call to a class (singleton) method resolves
// through the singleton chain, not the instance one.
func TestReferenceVisitor_ResolvesExplicitSelfCallToSingletonMethod(t *testing.T) {
	src := `
class Widget
  def self.build
    new
  end

  def self.make
    self.build
  end
end
`
	store, in, _ := runPhases(t, src)

	buildName, ok := in.Names.Lookup("build")
	require.True(t, ok)
	entries := store.EntriesByName(buildName)
	require.Len(t, entries, 1)

	refs := store.ReferencesTo(entries[0].ID)
	require.Len(t, refs, 1)
}

// Scenario: a call whose receiver is a qualified constant resolves against
// that constant's own singleton chain (qualified method call).
func TestReferenceVisitor_ResolvesQualifiedReceiverCall(t *testing.T) {
	src := `
class Logger
  def self.info(msg)
  end
end

class App
  def run
    Logger.info("starting")
  end
end
`
	store, in, _ := runPhases(t, src)

	infoName, ok := in.Names.Lookup("info")
	require.True(t, ok)
	entries := store.EntriesByName(infoName)
	require.Len(t, entries, 1)

	refs := store.ReferencesTo(entries[0].ID)
	require.Len(t, refs, 1)
}

// Scenario: a call through a local variable receiver can't be statically
// typed and must stay unresolved rather than guessing.
func TestReferenceVisitor_LeavesLocalReceiverCallUnresolved(t *testing.T) {
	src := `
class Thing
  def run(other)
    other.process
  end
end
`
	store, _, _ := runPhases(t, src)

	var calls []types.Reference
	for _, r := range store.ReferencesInFile(types.FileHandle(1)) {
		if r.Kind == types.RefMethodCall && r.Name == "process" {
			calls = append(calls, r)
		}
	}
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Unresolved())
}

// Scenario: a prepended module's method is the one a plain self-call
// resolves to, shadowing the class's own same-named method (prepend
// priority).
func TestReferenceVisitor_PrependShadowsOwnMethodAtCallSite(t *testing.T) {
	src := `
module Loud
  def speak
    super.upcase
  end
end

class Animal
  prepend Loud

  def speak
    "..."
  end

  def announce
    speak
  end
end
`
	store, in, _ := runPhases(t, src)

	speakName, ok := in.Names.Lookup("speak")
	require.True(t, ok)
	entries := store.EntriesByName(speakName)
	require.Len(t, entries, 2)

	var preppedID types.EntryID
	for _, e := range entries {
		if e.Owner.Equal(entries[0].Owner) && in.ResolveFQN(e.Owner) == "Loud" {
			preppedID = e.ID
		}
	}
	require.NotZero(t, preppedID)

	refs := store.ReferencesTo(preppedID)
	require.Len(t, refs, 1, "announce's bare `speak` call must resolve to the prepended module's method")
}

// Scenario: a mixin's target constant is resolved as a constant reference,
// not double-recorded as a method call.
func TestReferenceVisitor_MixinTargetResolvesAsConstantNotMethodCall(t *testing.T) {
	src := `
module Sharable
end

class Doc
  include Sharable
end
`
	store, in, _ := runPhases(t, src)

	sharableName, ok := in.Segments.Lookup("Sharable")
	require.True(t, ok)
	_ = sharableName

	var constRefs, callRefs int
	for _, r := range store.ReferencesInFile(types.FileHandle(1)) {
		if r.Name == "Sharable" && r.Kind == types.RefConstantRead {
			constRefs++
		}
		if r.Name == "include" {
			callRefs++
		}
	}
	assert.Equal(t, 1, constRefs)
	assert.Equal(t, 0, callRefs, "the include verb itself is not recorded as a method-call reference")
}
