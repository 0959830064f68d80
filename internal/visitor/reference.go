package visitor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/entrystore"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/intern"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/parser"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/scope"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// ReferenceVisitor is phase B of C4/§4.5: it walks the same file a second
// time, independently of the index visitor (its own scope.Tracker, not a
// shared one — §4.5 "phase A and phase B are independent walks"), and emits
// Reference entries for every constant read/write, method call, local
// variable use, and mixin use site. Targets are resolved by the caller via
// the resolver (C6) before being committed; this visitor only records the
// raw use site plus enough context (the lexical FQN at that point) for the
// resolver to work with.
type ReferenceVisitor struct {
	in    *intern.Interners
	tree  *parser.Tree
	file  types.FileHandle
	lines *document.LineIndex

	tracker *scope.Tracker
	batch   *entrystore.Batch

	// selfClassLevel tracks, parallel to tracker's frame stack, whether
	// `self` at the current point refers to the enclosing class/module
	// object itself (true) or to an instance of it (false). scope.Kind has
	// no frame distinct from KindMethod for a `def self.foo` body, so this
	// stack is the only place that distinction is recorded; it never needs
	// to agree with the index visitor's phase-A tracker (§4.5: independent
	// walks), only to answer `self`'s ancestor-chain singleton flag here.
	selfClassLevel []bool

	// Unresolved carries, for every reference this walk could not resolve
	// immediately (a qualified constant whose prefix isn't known yet), the
	// FQN key the coordinator should watch (§4.5 step 3: "record the
	// prefix FQN so that a future phase A run can trigger re-resolution").
	Unresolved []UnresolvedRef
}

// UnresolvedRef carries the FQN key an unresolved constant reference is
// waiting on.
type UnresolvedRef struct {
	FQNKey string
}

// ResolveConstantFunc resolves a fully-qualified constant reference to its
// defining entry, per C6's ancestor-chain search.
type ResolveConstantFunc func(fqn types.FQN) (types.EntryID, bool)

// ResolveMethodFunc resolves a method call against an owner's ancestor
// chain, mirroring resolver.Resolver.ResolveMethod's signature exactly so
// the coordinator can pass that method directly.
type ResolveMethodFunc func(owner types.FQN, name string, singleton bool) []types.EntryID

// NewReferenceVisitor creates a phase B visitor for one file.
func NewReferenceVisitor(in *intern.Interners, tree *parser.Tree, file types.FileHandle, lines *document.LineIndex) *ReferenceVisitor {
	return &ReferenceVisitor{in: in, tree: tree, file: file, lines: lines}
}

// Run walks the file and returns the batch of references ready to commit.
// resolveConstant and resolveMethod are supplied by the caller (the
// coordinator, wired to C6) so this package has no import dependency on the
// resolver — the visitor only needs a best-effort FQN/owner to hand it.
func (v *ReferenceVisitor) Run(resolveConstant ResolveConstantFunc, resolveMethod ResolveMethodFunc) *entrystore.Batch {
	fileLen := uint32(len(v.tree.Source()))
	v.tracker = scope.NewTracker(fileLen)
	v.batch = entrystore.NewBatch(v.file)
	v.selfClassLevel = []bool{false}

	root := v.tree.RootNode()
	v.visitNode(root, resolveConstant, resolveMethod)

	return v.batch
}

func (v *ReferenceVisitor) pushSelf(classLevel bool) {
	v.selfClassLevel = append(v.selfClassLevel, classLevel)
}

func (v *ReferenceVisitor) popSelf() {
	v.selfClassLevel = v.selfClassLevel[:len(v.selfClassLevel)-1]
}

func (v *ReferenceVisitor) currentSelfIsClassLevel() bool {
	return v.selfClassLevel[len(v.selfClassLevel)-1]
}

func (v *ReferenceVisitor) visitChildren(n *tree_sitter.Node, resolveConstant ResolveConstantFunc, resolveMethod ResolveMethodFunc) {
	for _, c := range namedChildren(n) {
		v.visitNode(c, resolveConstant, resolveMethod)
	}
}

func (v *ReferenceVisitor) visitNode(n *tree_sitter.Node, resolveConstant ResolveConstantFunc, resolveMethod ResolveMethodFunc) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "class":
		v.withNamespaceFrame(n, scope.KindClass, resolveConstant, resolveMethod)
	case "module":
		v.withNamespaceFrame(n, scope.KindNamespace, resolveConstant, resolveMethod)
	case "singleton_class":
		v.tracker.Push(scope.KindSingletonClass, uint32(n.StartByte()), v.tracker.CurrentFQN(), types.FQN{}, false)
		v.pushSelf(true)
		if body := n.ChildByFieldName("body"); body != nil {
			v.visitChildren(body, resolveConstant, resolveMethod)
		}
		v.popSelf()
		v.tracker.Pop(uint32(n.EndByte()))
	case "method":
		v.visitConstantIn(n.ChildByFieldName("parameters"), resolveConstant, resolveMethod)
		v.tracker.Push(scope.KindMethod, uint32(n.StartByte()), v.tracker.CurrentFQN(), types.FQN{}, false)
		v.pushSelf(false)
		if body := n.ChildByFieldName("body"); body != nil {
			v.visitChildren(body, resolveConstant, resolveMethod)
		}
		v.popSelf()
		v.tracker.Pop(uint32(n.EndByte()))
	case "singleton_method":
		v.tracker.Push(scope.KindMethod, uint32(n.StartByte()), v.tracker.CurrentFQN(), types.FQN{}, false)
		v.pushSelf(true)
		if body := n.ChildByFieldName("body"); body != nil {
			v.visitChildren(body, resolveConstant, resolveMethod)
		}
		v.popSelf()
		v.tracker.Pop(uint32(n.EndByte()))
	case "do_block", "block":
		v.tracker.Push(scope.KindBlock, uint32(n.StartByte()), v.tracker.CurrentFQN(), types.FQN{}, false)
		v.pushSelf(v.currentSelfIsClassLevel())
		v.visitChildren(n, resolveConstant, resolveMethod)
		v.popSelf()
		v.tracker.Pop(uint32(n.EndByte()))
	case "constant", "scope_resolution":
		v.visitConstantRef(n, resolveConstant)
	case "call", "command":
		v.visitCallRef(n, resolveConstant, resolveMethod)
	case "assignment":
		v.visitAssignmentRef(n, resolveConstant, resolveMethod)
	case "identifier":
		v.visitIdentifierRef(n)
	default:
		v.visitChildren(n, resolveConstant, resolveMethod)
	}
}

func (v *ReferenceVisitor) withNamespaceFrame(n *tree_sitter.Node, kind scope.Kind, resolveConstant ResolveConstantFunc, resolveMethod ResolveMethodFunc) {
	nameNode := n.ChildByFieldName("name")
	fqn := v.tracker.CurrentFQN()
	if nameNode != nil {
		if path, ok := parseConstantPath(nameNode, v.tree); ok {
			fqn = path.toFQN(v.in, v.tracker.CurrentFQN())
		}
		// the class/module header's own name is a definition, not a use
		// site, so it is intentionally not recorded as a Reference here.
		if superNode := n.ChildByFieldName("superclass"); superNode != nil {
			if superExpr := firstNamedChild(superNode); superExpr != nil {
				v.visitConstantRef(superExpr, resolveConstant)
			}
		}
	}
	v.tracker.Push(kind, uint32(n.StartByte()), fqn, types.FQN{}, false)
	v.pushSelf(true)
	if body := n.ChildByFieldName("body"); body != nil {
		v.visitChildren(body, resolveConstant, resolveMethod)
	}
	v.popSelf()
	v.tracker.Pop(uint32(n.EndByte()))
}

func (v *ReferenceVisitor) visitConstantIn(n *tree_sitter.Node, resolveConstant ResolveConstantFunc, resolveMethod ResolveMethodFunc) {
	if n == nil {
		return
	}
	for _, c := range namedChildren(n) {
		v.visitNode(c, resolveConstant, resolveMethod)
	}
}

func (v *ReferenceVisitor) visitConstantRef(n *tree_sitter.Node, resolveConstant ResolveConstantFunc) {
	path, ok := parseConstantPath(n, v.tree)
	if !ok {
		return
	}
	fqn := path.toFQN(v.in, v.tracker.CurrentFQN())
	ref := types.Reference{
		Location: nodeLocation(v.file, n, v.lines),
		Kind:     types.RefConstantRead,
		Name:     path.leafName(),
		Target:   types.UnresolvedEntryID,
	}
	if resolveConstant != nil {
		if id, ok := resolveConstant(fqn); ok {
			ref.Target = id
		} else {
			v.Unresolved = append(v.Unresolved, UnresolvedRef{FQNKey: fqn.Key()})
		}
	}
	v.batch.AddReference(ref)
}

// callOwner computes the ancestor-chain owner FQN and singleton flag for a
// method call's receiver, mirroring query.Projector.resolveCursor's
// no-receiver case and extending it to the other statically-typeable
// receiver shapes: implicit/explicit self and a bare constant. Any other
// receiver (a local, an ivar, a chained call) can't be typed without runtime
// information, so the caller leaves the reference unresolved, same as the
// rest of §4.6's static-only scope.
//
// The singleton flag for a (implicit or explicit) self receiver is not just
// "inside a `class << self` body" (tracker.InSingletonClass) — self is also
// the class object itself inside a `def self.foo` body, so the call must
// resolve through the singleton chain there too. selfClassLevel tracks that
// distinction, since scope.Kind has no frame for it.
func (v *ReferenceVisitor) callOwner(receiver *tree_sitter.Node, resolveConstant ResolveConstantFunc) (owner types.FQN, singleton bool, ok bool) {
	if receiver == nil || receiver.Kind() == "self" {
		owner, _ = v.tracker.CurrentClassFQN()
		return owner, v.tracker.InSingletonClass() || v.currentSelfIsClassLevel(), true
	}
	if receiver.Kind() == "constant" || receiver.Kind() == "scope_resolution" {
		path, ok := parseConstantPath(receiver, v.tree)
		if !ok {
			return types.FQN{}, false, false
		}
		return path.toFQN(v.in, v.tracker.CurrentFQN()), true, true
	}
	return types.FQN{}, false, false
}

func (v *ReferenceVisitor) visitCallRef(n *tree_sitter.Node, resolveConstant ResolveConstantFunc, resolveMethod ResolveMethodFunc) {
	methodNode := n.ChildByFieldName("method")
	if methodNode == nil {
		return
	}
	name := v.tree.Text(methodNode)
	receiver := n.ChildByFieldName("receiver")
	if receiver != nil {
		v.visitNode(receiver, resolveConstant, resolveMethod)
	}

	if _, isMixin := mixinVerbs[name]; isMixin {
		// mixin targets are indexed structurally on the class/module Entry
		// (§3 MixinSet); recording them again here as plain method-call
		// references would double count the same use site. The constant
		// naming the mixin target is still resolved as a normal constant
		// reference above via visitConstantRef.
		if argsNode := n.ChildByFieldName("arguments"); argsNode != nil {
			for _, c := range namedChildren(argsNode) {
				v.visitConstantRef(c, resolveConstant)
			}
		}
		return
	}

	ref := types.Reference{
		Location: nodeLocation(v.file, methodNode, v.lines),
		Kind:     types.RefMethodCall,
		Name:     name,
		Target:   types.UnresolvedEntryID,
	}
	if resolveMethod != nil {
		if owner, singleton, ok := v.callOwner(receiver, resolveConstant); ok {
			if ids := resolveMethod(owner, name, singleton); len(ids) > 0 {
				ref.Target = ids[0]
			}
		}
	}
	v.batch.AddReference(ref)

	if argsNode := n.ChildByFieldName("arguments"); argsNode != nil {
		v.visitChildren(argsNode, resolveConstant, resolveMethod)
	}
	if blockNode := n.ChildByFieldName("block"); blockNode != nil {
		v.visitNode(blockNode, resolveConstant, resolveMethod)
	}
}

func (v *ReferenceVisitor) visitAssignmentRef(n *tree_sitter.Node, resolveConstant ResolveConstantFunc, resolveMethod ResolveMethodFunc) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left != nil {
		switch left.Kind() {
		case "constant":
			path, _ := parseConstantPath(left, v.tree)
			fqn := path.toFQN(v.in, v.tracker.CurrentFQN())
			ref := types.Reference{
				Location: nodeLocation(v.file, left, v.lines),
				Kind:     types.RefConstantWrite,
				Name:     path.leafName(),
				Target:   types.UnresolvedEntryID,
			}
			if resolveConstant != nil {
				if id, ok := resolveConstant(fqn); ok {
					ref.Target = id
				}
			}
			v.batch.AddReference(ref)
		case "identifier":
			v.batch.AddReference(types.Reference{
				Location: nodeLocation(v.file, left, v.lines),
				Kind:     types.RefLocalWrite,
				Name:     v.tree.Text(left),
				Target:   types.UnresolvedEntryID,
			})
		}
	}
	if right != nil {
		v.visitNode(right, resolveConstant, resolveMethod)
	}
}

func (v *ReferenceVisitor) visitIdentifierRef(n *tree_sitter.Node) {
	v.batch.AddReference(types.Reference{
		Location: nodeLocation(v.file, n, v.lines),
		Kind:     types.RefLocalRead,
		Name:     v.tree.Text(n),
		Target:   types.UnresolvedEntryID,
	})
}
