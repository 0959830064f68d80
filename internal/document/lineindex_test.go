package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLineIndex_PositionASCII(t *testing.T) {
	li := NewLineIndex([]byte("def foo\n  bar\nend\n"))

	line, col := li.Position(0)
	assert.Equal(t, uint32(0), line)
	assert.Equal(t, uint32(0), col)

	// offset 8 is the start of line 1 ("  bar")
	line, col = li.Position(8)
	assert.Equal(t, uint32(1), line)
	assert.Equal(t, uint32(0), col)

	// offset 10 is two chars into "  bar"
	line, col = li.Position(10)
	assert.Equal(t, uint32(1), line)
	assert.Equal(t, uint32(2), col)
}

func TestLineIndex_OffsetRoundTrip(t *testing.T) {
	text := []byte("class Foo\n  def bar\n  end\nend\n")
	li := NewLineIndex(text)

	for _, off := range []uint32{0, 6, 10, 13, 25, uint32(len(text))} {
		line, col := li.Position(off)
		back := li.Offset(line, col)
		assert.Equal(t, off, back, "round-tripping offset %d through Position/Offset must be lossless", off)
	}
}

func TestLineIndex_ClampsOutOfRangeOffset(t *testing.T) {
	li := NewLineIndex([]byte("abc"))
	line, col := li.Position(999)
	assert.Equal(t, uint32(0), line)
	assert.Equal(t, uint32(3), col)
}

func TestLineIndex_NonASCIIColumns(t *testing.T) {
	// "résumé" — the accented letters are each a single UTF-16 code unit but
	// multiple UTF-8 bytes, so byte offset must diverge from UTF-16 column.
	text := []byte("résumé = 1\n")
	li := NewLineIndex(text)

	// "résumé" is 6 runes -> 6 UTF-16 units, but more than 6 bytes in UTF-8.
	line, col := li.Position(uint32(len("résumé")))
	assert.Equal(t, uint32(0), line)
	assert.Equal(t, uint32(6), col)

	// Converting back must land on the same byte offset.
	assert.Equal(t, uint32(len("résumé")), li.Offset(0, 6))
}

func TestLineIndex_AstralPlaneCountsAsTwoUnits(t *testing.T) {
	// U+1F600 (😀) is outside the BMP and requires a UTF-16 surrogate pair.
	text := []byte("😀x\n")
	li := NewLineIndex(text)

	_, col := li.Position(uint32(len("😀")))
	assert.Equal(t, uint32(2), col, "an astral-plane rune must count as two UTF-16 units")
}

func TestLineIndex_OffsetPastEndOfLineClampsToLineEnd(t *testing.T) {
	li := NewLineIndex([]byte("ab\ncd\n"))
	assert.Equal(t, uint32(2), li.Offset(0, 99), "a column past the end of a line clamps to the line's end")
}

func TestLineIndex_OffsetPastLastLineClampsToDocEnd(t *testing.T) {
	text := []byte("ab\n")
	li := NewLineIndex(text)
	assert.Equal(t, uint32(len(text)), li.Offset(99, 0))
}

func TestUtf16Units(t *testing.T) {
	assert.Equal(t, 6, utf16Units("résumé"))
	assert.Equal(t, 2, utf16Units("😀"))
}
