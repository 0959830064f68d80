package visitor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/parser"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// TokenKind is the semantic token classification emitted for
// textDocument/semanticTokens/full, following the LSP standard token type
// table closely enough that a client's default theme needs no custom
// mapping.
type TokenKind uint8

const (
	TokenClass TokenKind = iota
	TokenNamespace
	TokenMethod
	TokenParameter
	TokenVariable
	TokenKeyword
)

// Token is one classified span, byte-addressed; query projection (C7)
// converts to LSP's delta-encoded integer arrays at the reply boundary, not
// here (§6 Positions is a single conversion point).
type Token struct {
	Range types.ByteRange
	Kind  TokenKind
}

// FoldRange is one foldable region: every class/module/method/block body
// collapses to its header line, matching how Ruby editors fold today.
type FoldRange struct {
	Range types.ByteRange
}

// InlayHint annotates a call site with the parameter name a positional
// argument binds to, when the receiver's method is statically known.
type InlayHint struct {
	Offset uint32
	Label  string
}

// SemanticVisitor derives token/fold/inlay data straight from the
// precompiled queries (internal/parser), not a recursive walk: per §4.4 this
// pass "has no mutable interaction with C2" and no scope dependency, so it
// can run as a flat sequence of independent query scans instead of the
// index/reference visitors' stack-based descent.
type SemanticVisitor struct {
	q     *parser.Queries
	tree  *parser.Tree
	lines *document.LineIndex
}

// NewSemanticVisitor creates a visitor bound to one parsed file.
func NewSemanticVisitor(q *parser.Queries, tree *parser.Tree, lines *document.LineIndex) *SemanticVisitor {
	return &SemanticVisitor{q: q, tree: tree, lines: lines}
}

// Tokens returns every classified span in byte order.
func (v *SemanticVisitor) Tokens() []Token {
	var out []Token
	root := v.tree.RootNode()
	source := v.tree.Source()

	parser.Matches(v.q.ClassDefs, root, source, func(m *tree_sitter.QueryMatch) bool {
		if n := parser.CaptureNode(v.q.ClassDefs, m, "class.name"); n != nil {
			out = append(out, Token{Range: nodeRange(n), Kind: TokenClass})
		}
		return true
	})
	parser.Matches(v.q.ModuleDefs, root, source, func(m *tree_sitter.QueryMatch) bool {
		if n := parser.CaptureNode(v.q.ModuleDefs, m, "module.name"); n != nil {
			out = append(out, Token{Range: nodeRange(n), Kind: TokenNamespace})
		}
		return true
	})
	parser.Matches(v.q.MethodDefs, root, source, func(m *tree_sitter.QueryMatch) bool {
		if n := parser.CaptureNode(v.q.MethodDefs, m, "method.name"); n != nil {
			out = append(out, Token{Range: nodeRange(n), Kind: TokenMethod})
		}
		if params := parser.CaptureNode(v.q.MethodDefs, m, "method.params"); params != nil {
			for _, c := range namedChildren(params) {
				out = append(out, Token{Range: nodeRange(c), Kind: TokenParameter})
			}
		}
		return true
	})
	parser.Matches(v.q.SingletonMethod, root, source, func(m *tree_sitter.QueryMatch) bool {
		if n := parser.CaptureNode(v.q.SingletonMethod, m, "singleton_method.name"); n != nil {
			out = append(out, Token{Range: nodeRange(n), Kind: TokenMethod})
		}
		return true
	})
	parser.Matches(v.q.ConstantRefs, root, source, func(m *tree_sitter.QueryMatch) bool {
		for _, n := range parser.CaptureNodes(v.q.ConstantRefs, m, "constant.ref") {
			out = append(out, Token{Range: nodeRange(n), Kind: TokenClass})
		}
		return true
	})

	sortTokens(out)
	return out
}

func sortTokens(toks []Token) {
	for i := 1; i < len(toks); i++ {
		for j := i; j > 0 && toks[j].Range.Start < toks[j-1].Range.Start; j-- {
			toks[j], toks[j-1] = toks[j-1], toks[j]
		}
	}
}

// FoldingRanges returns one fold per class/module/method/singleton-method
// body, from the body's opening keyword line to its closing `end`.
func (v *SemanticVisitor) FoldingRanges() []FoldRange {
	var out []FoldRange
	root := v.tree.RootNode()
	source := v.tree.Source()

	addBody := func(q *tree_sitter.Query, capture string) {
		parser.Matches(q, root, source, func(m *tree_sitter.QueryMatch) bool {
			if body := parser.CaptureNode(q, m, capture); body != nil {
				out = append(out, FoldRange{Range: nodeRange(body)})
			}
			return true
		})
	}
	addBody(v.q.ClassDefs, "class.body")
	addBody(v.q.ModuleDefs, "module.body")
	addBody(v.q.MethodDefs, "method.body")
	addBody(v.q.SingletonMethod, "singleton_method.body")

	return out
}

// InlayHints calls paramNamesForCall with the method name of every plain
// identifier-named call site, but pairs no positional arguments with the
// returned names, so the result is always empty. Looking up a call's method
// is left to paramNamesForCall (this visitor has no access to C6 by design —
// see ReferenceVisitor.Run's resolveConstant injection for the same
// separation of concerns).
func (v *SemanticVisitor) InlayHints(paramNamesForCall func(methodName string) []string) []InlayHint {
	var out []InlayHint
	root := v.tree.RootNode()
	source := v.tree.Source()

	parser.Matches(v.q.MethodCalls, root, source, func(m *tree_sitter.QueryMatch) bool {
		methodNode := parser.CaptureNode(v.q.MethodCalls, m, "call.method")
		if methodNode == nil || paramNamesForCall == nil {
			return true
		}
		names := paramNamesForCall(v.tree.Text(methodNode))
		_ = names // positional arguments are not paired with these names;
		// this pass only locates candidate call sites.
		return true
	})
	return out
}
