// Package visitor implements C4: the index, reference, and semantic
// visitor families. Index and reference visitors perform a real recursive
// descent over the tree-sitter AST (so C3's scope tracker can push/pop
// frames in traversal order); the semantic visitor instead runs the
// precompiled queries from internal/parser, since token/fold/inlay
// generation has no scope dependency (§4.4).
package visitor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// nodeRange converts a tree-sitter node's byte span into a types.ByteRange.
func nodeRange(n *tree_sitter.Node) types.ByteRange {
	return types.ByteRange{Start: uint32(n.StartByte()), End: uint32(n.EndByte())}
}

// nodeLocation builds a full Location (byte range + LSP range) for n within
// file, using lines to convert the UTF-16 column once at this boundary
// (§6 Positions).
func nodeLocation(file types.FileHandle, n *tree_sitter.Node, lines *document.LineIndex) types.Location {
	br := nodeRange(n)
	startLine, startCol := lines.Position(br.Start)
	endLine, endCol := lines.Position(br.End)
	return types.Location{
		File:  file,
		Bytes: br,
		Range: types.Range{
			Start: types.Position{Line: startLine, Character: startCol},
			End:   types.Position{Line: endLine, Character: endCol},
		},
	}
}

// namedChildren returns every named child of n, skipping anonymous tokens
// (keywords, punctuation) the grammar doesn't name.
func namedChildren(n *tree_sitter.Node) []*tree_sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*tree_sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(uint(i))
		if c != nil {
			out = append(out, c)
		}
	}
	return out
}
