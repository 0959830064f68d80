package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/visitor"
)

func TestEncodeSemanticTokens_SingleToken(t *testing.T) {
	text := []byte("class Foo\nend\n")
	lines := document.NewLineIndex(text)

	tokens := []visitor.Token{
		{Range: types.ByteRange{Start: 6, End: 9}, Kind: visitor.TokenClass},
	}

	data := encodeSemanticTokens(tokens, lines)
	assert.Equal(t, []uint32{0, 6, 3, 0, 0}, data)
}

func TestEncodeSemanticTokens_DeltaEncodesAcrossLines(t *testing.T) {
	text := []byte("class Foo\n  def bar\n  end\nend\n")
	lines := document.NewLineIndex(text)

	tokens := []visitor.Token{
		{Range: types.ByteRange{Start: 6, End: 9}, Kind: visitor.TokenClass},   // line 0, col 6, len 3
		{Range: types.ByteRange{Start: 16, End: 19}, Kind: visitor.TokenMethod}, // line 1, col 6, len 3
	}

	data := encodeSemanticTokens(tokens, lines)
	// token 1: deltaLine=0, deltaChar=6(abs), length=3, type=class(0)
	// token 2: deltaLine=1, deltaChar=6(abs since new line), length=3, type=method(2)
	assert.Equal(t, []uint32{0, 6, 3, 0, 0, 1, 6, 3, 2, 0}, data)
}

func TestEncodeSemanticTokens_Empty(t *testing.T) {
	lines := document.NewLineIndex([]byte(""))
	data := encodeSemanticTokens(nil, lines)
	assert.Empty(t, data)
}

func TestTokenTypeIndex_UnknownFallsBackToVariable(t *testing.T) {
	assert.Equal(t, uint32(4), tokenTypeIndex(visitor.TokenKind(255)))
}
