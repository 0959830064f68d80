package query

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/parser"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/scope"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// Identifier is the result of §4.7 step 2: the AST node under the cursor,
// classified enough for the resolver to be called correctly.
type Identifier struct {
	Node      *tree_sitter.Node
	Text      string
	IsConstant bool
	Receiver  *tree_sitter.Node // set when the identifier is a method call with an explicit receiver
	Range     types.ByteRange
}

// IdentifierAt runs the identifier visitor: a scoped walk that stops at the
// first (innermost) AST node whose byte range contains offset and which is
// one of the kinds a query can act on (constant, scope_resolution,
// identifier, call/command method name). Returns ok=false if the cursor
// sits on punctuation/whitespace with no actionable node.
func IdentifierAt(tree *parser.Tree, offset uint32) (Identifier, bool) {
	root := tree.RootNode()
	return findIdentifier(tree, root, offset)
}

func findIdentifier(tree *parser.Tree, n *tree_sitter.Node, offset uint32) (Identifier, bool) {
	if uint32(n.StartByte()) > offset || offset > uint32(n.EndByte()) {
		return Identifier{}, false
	}

	count := int(n.NamedChildCount())
	for i := 0; i < count; i++ {
		c := n.NamedChild(uint(i))
		if c == nil {
			continue
		}
		if uint32(c.StartByte()) <= offset && offset <= uint32(c.EndByte()) {
			if id, ok := findIdentifier(tree, c, offset); ok {
				return id, true
			}
		}
	}

	switch n.Kind() {
	case "constant":
		return Identifier{Node: n, Text: tree.Text(n), IsConstant: true, Range: nodeRangeOf(n)}, true
	case "scope_resolution":
		return Identifier{Node: n, Text: tree.Text(n), IsConstant: true, Range: nodeRangeOf(n)}, true
	case "identifier":
		return Identifier{Node: n, Text: tree.Text(n), Range: nodeRangeOf(n)}, true
	case "call", "command":
		if m := n.ChildByFieldName("method"); m != nil && uint32(m.StartByte()) <= offset && offset <= uint32(m.EndByte()) {
			return Identifier{Node: m, Text: tree.Text(m), Receiver: n.ChildByFieldName("receiver"), Range: nodeRangeOf(m)}, true
		}
	}
	return Identifier{}, false
}

func nodeRangeOf(n *tree_sitter.Node) types.ByteRange {
	return types.ByteRange{Start: uint32(n.StartByte()), End: uint32(n.EndByte())}
}

// ScopeChainAt resolves the scope chain for offset against doc's cached
// scope tree (populated by the index visitor at the last (re)index).
func ScopeChainAt(doc *document.Document, offset uint32) []*scope.Node {
	root, ok := doc.ScopeRoot.(*scope.Node)
	if !ok || root == nil {
		return nil
	}
	return root.ChainAt(offset)
}
