package visitor

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/entrystore"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/intern"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/parser"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/scope"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// pendingNamespace accumulates the mixins declared directly in a
// class/module body while the walk is inside it, so the finished Entry can
// carry its MixinSet in textual declaration order (§3 MixinSet, §4.4).
type pendingNamespace struct {
	fqn        types.FQN
	superclass types.FQN
	hasSuper   bool
	mixins     types.MixinSet
	start      uint32
	node       *tree_sitter.Node
	isModule   bool
}

// IndexVisitor is the index visitor of C4: it walks one file's AST,
// emitting Entry writes for every class/module/method/constant/local
// definition into an entrystore.Batch, guided by the scope tracker (C3).
type IndexVisitor struct {
	in    *intern.Interners
	tree  *parser.Tree
	file  types.FileHandle
	lines *document.LineIndex

	tracker    *scope.Tracker
	classStack []*pendingNamespace
	batch      *entrystore.Batch

	// localDepth counts the Block frames open at the current point of the
	// walk; it is raised and lowered around each block and not otherwise
	// read.
	localDepth int
}

// NewIndexVisitor creates a visitor for one file.
func NewIndexVisitor(in *intern.Interners, tree *parser.Tree, file types.FileHandle, lines *document.LineIndex) *IndexVisitor {
	return &IndexVisitor{in: in, tree: tree, file: file, lines: lines}
}

// Run walks the file and returns the finished scope tree plus the batch of
// entries ready to commit to the entry store.
func (v *IndexVisitor) Run() (*scope.Node, *entrystore.Batch) {
	fileLen := uint32(len(v.tree.Source()))
	v.tracker = scope.NewTracker(fileLen)
	v.batch = entrystore.NewBatch(v.file)

	root := v.tree.RootNode()
	v.visitChildren(root)

	return v.tracker.Finish(fileLen), v.batch
}

func (v *IndexVisitor) visitChildren(n *tree_sitter.Node) {
	for _, c := range namedChildren(n) {
		v.visitNode(c)
	}
}

func (v *IndexVisitor) visitNode(n *tree_sitter.Node) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "class":
		v.visitClass(n)
	case "module":
		v.visitModule(n)
	case "singleton_class":
		v.visitSingletonClass(n)
	case "method":
		v.visitMethod(n)
	case "singleton_method":
		v.visitSingletonMethod(n)
	case "call", "command":
		v.visitCallOrCommand(n)
		v.visitChildren(n) // descend into arguments/blocks for nested defs
	case "assignment":
		v.visitAssignment(n)
	case "do_block", "block":
		v.localDepth++
		v.tracker.Push(scope.KindBlock, uint32(n.StartByte()), v.tracker.CurrentFQN(), types.FQN{}, false)
		v.visitChildren(n)
		v.tracker.Pop(uint32(n.EndByte()))
		v.localDepth--
	default:
		v.visitChildren(n)
	}
}

func (v *IndexVisitor) currentRelative() types.FQN {
	return v.tracker.CurrentFQN()
}

func (v *IndexVisitor) visitClass(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		v.visitChildren(n)
		return
	}
	path, ok := parseConstantPath(nameNode, v.tree)
	if !ok {
		v.visitChildren(n)
		return
	}
	fqn := path.toFQN(v.in, v.currentRelative())

	pn := &pendingNamespace{fqn: fqn, start: uint32(n.StartByte()), node: n}
	if superNode := n.ChildByFieldName("superclass"); superNode != nil {
		if superExpr := firstNamedChild(superNode); superExpr != nil {
			if sp, ok := parseConstantPath(superExpr, v.tree); ok {
				pn.superclass = sp.toFQN(v.in, v.currentRelative())
				pn.hasSuper = true
			}
		}
	}

	v.classStack = append(v.classStack, pn)
	v.tracker.Push(scope.KindClass, uint32(n.StartByte()), fqn, pn.superclass, pn.hasSuper)

	if body := n.ChildByFieldName("body"); body != nil {
		v.visitChildren(body)
	}

	v.tracker.Pop(uint32(n.EndByte()))
	v.classStack = v.classStack[:len(v.classStack)-1]

	v.batch.AddEntry(types.Entry{
		Kind:        types.EntryClass,
		FQN:         fqn,
		Location:    nodeLocation(v.file, n, v.lines),
		ContentHash: contentHash(v.tree.Text(n)),
		Superclass:  pn.superclass,
		HasSuper:    pn.hasSuper,
		ClassMixins: pn.mixins,
	})
}

func (v *IndexVisitor) visitModule(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		v.visitChildren(n)
		return
	}
	path, ok := parseConstantPath(nameNode, v.tree)
	if !ok {
		v.visitChildren(n)
		return
	}
	fqn := path.toFQN(v.in, v.currentRelative())

	pn := &pendingNamespace{fqn: fqn, start: uint32(n.StartByte()), node: n, isModule: true}
	v.classStack = append(v.classStack, pn)
	v.tracker.Push(scope.KindNamespace, uint32(n.StartByte()), fqn, types.FQN{}, false)

	if body := n.ChildByFieldName("body"); body != nil {
		v.visitChildren(body)
	}

	v.tracker.Pop(uint32(n.EndByte()))
	v.classStack = v.classStack[:len(v.classStack)-1]

	v.batch.AddEntry(types.Entry{
		Kind:         types.EntryModule,
		FQN:          fqn,
		Location:     nodeLocation(v.file, n, v.lines),
		ContentHash:  contentHash(v.tree.Text(n)),
		ModuleMixins: pn.mixins,
	})
}

func (v *IndexVisitor) visitSingletonClass(n *tree_sitter.Node) {
	// `class << self` inherits the enclosing class's FQN rather than
	// minting its own: method lookup distinguishes instance/singleton
	// paths instead of modeling a separate namespace (§9 Singleton
	// classes).
	v.tracker.Push(scope.KindSingletonClass, uint32(n.StartByte()), v.currentRelative(), types.FQN{}, false)
	if body := n.ChildByFieldName("body"); body != nil {
		v.visitChildren(body)
	}
	v.tracker.Pop(uint32(n.EndByte()))
}

func (v *IndexVisitor) visitMethod(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	owner := v.currentRelative()
	kind := types.MethodInstance
	if v.tracker.InSingletonClass() {
		kind = types.MethodSingleton
	}

	params := v.collectParams(n.ChildByFieldName("parameters"))
	entry := types.Entry{
		Kind:        types.EntryMethod,
		Location:    nodeLocation(v.file, n, v.lines),
		ContentHash: contentHash(v.tree.Text(n)),
		MethodName:  v.in.Names.Intern(v.tree.Text(nameNode)),
		Owner:       owner,
		MethodKind:  kind,
		Visibility:  types.VisibilityPublic,
		Params:      params,
	}
	v.batch.AddEntry(entry)

	v.tracker.Push(scope.KindMethod, uint32(n.StartByte()), owner, types.FQN{}, false)
	if body := n.ChildByFieldName("body"); body != nil {
		v.visitChildren(body)
	}
	v.tracker.Pop(uint32(n.EndByte()))
}

func (v *IndexVisitor) visitSingletonMethod(n *tree_sitter.Node) {
	nameNode := n.ChildByFieldName("name")
	objNode := n.ChildByFieldName("object")
	if nameNode == nil || objNode == nil {
		return
	}
	if objNode.Kind() != "self" {
		// `def obj.foo` on an arbitrary receiver can't be owned by a
		// static FQN; out of static reach, same spirit as §9
		// Metaprogramming.
		if body := n.ChildByFieldName("body"); body != nil {
			v.visitChildren(body)
		}
		return
	}
	owner := v.currentRelative()
	params := v.collectParams(n.ChildByFieldName("parameters"))
	v.batch.AddEntry(types.Entry{
		Kind:        types.EntryMethod,
		Location:    nodeLocation(v.file, n, v.lines),
		ContentHash: contentHash(v.tree.Text(n)),
		MethodName:  v.in.Names.Intern(v.tree.Text(nameNode)),
		Owner:       owner,
		MethodKind:  types.MethodSingleton,
		Visibility:  types.VisibilityPublic,
		Params:      params,
	})

	v.tracker.Push(scope.KindMethod, uint32(n.StartByte()), owner, types.FQN{}, false)
	if body := n.ChildByFieldName("body"); body != nil {
		v.visitChildren(body)
	}
	v.tracker.Pop(uint32(n.EndByte()))
}

func (v *IndexVisitor) collectParams(paramsNode *tree_sitter.Node) []types.Param {
	if paramsNode == nil {
		return nil
	}
	var out []types.Param
	for _, c := range namedChildren(paramsNode) {
		p := types.Param{Name: v.tree.Text(c)}
		switch c.Kind() {
		case "identifier":
			p.Kind = types.ParamRequired
		case "optional_parameter":
			p.Kind = types.ParamOptional
			if nameNode := c.ChildByFieldName("name"); nameNode != nil {
				p.Name = v.tree.Text(nameNode)
			}
			if valNode := c.ChildByFieldName("value"); valNode != nil {
				p.Default = v.tree.Text(valNode)
			}
		case "splat_parameter":
			p.Kind = types.ParamRest
		case "hash_splat_parameter":
			p.Kind = types.ParamKeyrest
		case "block_parameter":
			p.Kind = types.ParamBlock
		case "keyword_parameter":
			p.Kind = types.ParamKeyword
			if nameNode := c.ChildByFieldName("name"); nameNode != nil {
				p.Name = v.tree.Text(nameNode)
			}
			if valNode := c.ChildByFieldName("value"); valNode != nil {
				p.Kind = types.ParamKeywordOpt
				p.Default = v.tree.Text(valNode)
			}
		default:
			p.Kind = types.ParamRequired
		}
		out = append(out, p)
	}
	return out
}

var mixinVerbs = map[string]types.MixinMode{
	"include": types.MixinInclude,
	"prepend": types.MixinPrepend,
	"extend":  types.MixinExtend,
}

func (v *IndexVisitor) visitCallOrCommand(n *tree_sitter.Node) {
	methodNode := n.ChildByFieldName("method")
	if methodNode == nil || methodNode.Kind() != "identifier" {
		return
	}
	verb := strings.TrimSpace(v.tree.Text(methodNode))
	mode, ok := mixinVerbs[verb]
	if !ok || len(v.classStack) == 0 {
		return
	}
	argsNode := n.ChildByFieldName("arguments")
	if argsNode == nil {
		return
	}
	top := v.classStack[len(v.classStack)-1]
	for _, c := range namedChildren(argsNode) {
		path, ok := parseConstantPath(c, v.tree)
		if !ok {
			continue
		}
		target := path.toFQN(v.in, v.currentRelative())
		top.mixins = append(top.mixins, types.Mixin{Target: target, Mode: mode})
	}
}

func (v *IndexVisitor) visitAssignment(n *tree_sitter.Node) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil {
		return
	}
	switch left.Kind() {
	case "constant":
		fqn := v.currentRelative().Append(v.in.Segments.Intern(v.tree.Text(left)))
		e := types.Entry{
			Kind:        types.EntryConstant,
			FQN:         fqn,
			Location:    nodeLocation(v.file, n, v.lines),
			ContentHash: contentHash(v.tree.Text(n)),
		}
		if right != nil {
			e.HasValue = true
			e.ValueRepr = truncate(v.tree.Text(right), 200)
		}
		v.batch.AddEntry(e)
	case "identifier":
		v.batch.AddEntry(types.Entry{
			Kind:        types.EntryLocalVariable,
			Location:    nodeLocation(v.file, n, v.lines),
			ContentHash: contentHash(v.tree.Text(n)),
			MethodName:  v.in.Names.Intern(v.tree.Text(left)),
			ScopeID:     v.tracker.Top().ID,
		})
	}
	if right != nil {
		v.visitNode(right)
	}
}

func firstNamedChild(n *tree_sitter.Node) *tree_sitter.Node {
	if n.NamedChildCount() == 0 {
		return nil
	}
	return n.NamedChild(0)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
