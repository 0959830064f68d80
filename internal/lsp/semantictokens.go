package lsp

import (
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/visitor"
)

// semanticTokenTypes is the legend textDocument/semanticTokens/full's
// client-side highlighter indexes into; order defines the tokenType integer
// each visitor.TokenKind encodes to below.
var semanticTokenTypes = []string{"class", "namespace", "method", "parameter", "variable", "keyword"}

func tokenTypeIndex(k visitor.TokenKind) uint32 {
	switch k {
	case visitor.TokenClass:
		return 0
	case visitor.TokenNamespace:
		return 1
	case visitor.TokenMethod:
		return 2
	case visitor.TokenParameter:
		return 3
	case visitor.TokenVariable:
		return 4
	case visitor.TokenKeyword:
		return 5
	default:
		return 4
	}
}

// encodeSemanticTokens delta-encodes tokens per the LSP spec's 5-integers-
// per-token scheme (deltaLine, deltaStartChar, length, tokenType,
// tokenModifiers). This arithmetic is hand-rolled rather than drawn from a
// library: no repo in the retrieval pack implements an LSP semantic-tokens
// encoder, and the scheme is a half-dozen lines of delta bookkeeping, not a
// concern worth a dependency.
func encodeSemanticTokens(tokens []visitor.Token, lines *document.LineIndex) []uint32 {
	data := make([]uint32, 0, len(tokens)*5)
	var prevLine, prevChar uint32

	for _, t := range tokens {
		startLine, startChar := lines.Position(t.Range.Start)
		_, endChar := lines.Position(t.Range.End)
		length := t.Range.End - t.Range.Start
		if endChar >= startChar {
			length = endChar - startChar
		}

		deltaLine := startLine - prevLine
		deltaChar := startChar
		if deltaLine == 0 {
			deltaChar = startChar - prevChar
		}

		data = append(data, deltaLine, deltaChar, length, tokenTypeIndex(t.Kind), 0)
		prevLine, prevChar = startLine, startChar
	}
	return data
}
