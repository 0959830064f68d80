// Package document implements C8: the document cache. It holds open
// document text keyed by URI with monotonically increasing versions, and
// converts between byte offsets (used internally and by the parser) and
// LSP's zero-based line/UTF-16-column positions (§6 Positions).
package document

import "unicode/utf16"

// LineIndex provides O(log n) byte-offset <-> Position conversion for a
// single document snapshot, grounded on the teacher's zero-allocation
// LineScanner idea but pre-computing offsets once per version instead of
// rescanning per query, since C7 issues many position lookups against the
// same document version.
type LineIndex struct {
	text        []byte
	lineStarts  []uint32 // byte offset of the start of each line
}

// NewLineIndex scans text once, recording the byte offset of every line
// start (including line 0).
func NewLineIndex(text []byte) *LineIndex {
	starts := make([]uint32, 1, 64)
	starts[0] = 0
	for i, b := range text {
		if b == '\n' {
			starts = append(starts, uint32(i+1))
		}
	}
	return &LineIndex{text: text, lineStarts: starts}
}

// Len returns the document length in bytes.
func (li *LineIndex) Len() uint32 { return uint32(len(li.text)) }

// lineOf returns the zero-based line containing byte offset off.
func (li *LineIndex) lineOf(off uint32) uint32 {
	lo, hi := 0, len(li.lineStarts)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if li.lineStarts[mid] <= off {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return uint32(lo)
}

// Position converts a byte offset into a zero-based (line, UTF-16 column)
// pair, per the LSP contract (§6 Positions): the source is byte-addressed
// internally, and UTF-16 conversion happens exactly once, at this boundary.
func (li *LineIndex) Position(off uint32) (line, utf16col uint32) {
	if off > li.Len() {
		off = li.Len()
	}
	line = li.lineOf(off)
	lineStart := li.lineStarts[line]
	utf16col = utf16Len(li.text[lineStart:off])
	return line, utf16col
}

// Offset converts a zero-based (line, UTF-16 column) pair back into a byte
// offset, used when an editor sends a position (e.g. a cursor position for
// a query) and the indexer needs the corresponding byte offset to query the
// entry store / AST. A column past the end of a line clamps to the line's
// end, before its newline.
func (li *LineIndex) Offset(line, utf16col uint32) uint32 {
	if int(line) >= len(li.lineStarts) {
		return li.Len()
	}
	lineStart := li.lineStarts[line]
	var lineEnd uint32
	if int(line)+1 < len(li.lineStarts) {
		lineEnd = li.lineStarts[line+1]
	} else {
		lineEnd = li.Len()
	}
	if lineEnd > lineStart && li.text[lineEnd-1] == '\n' {
		lineEnd--
	}
	return byteOffsetForUTF16Col(li.text[lineStart:lineEnd], utf16col) + lineStart
}

// utf16Len returns the number of UTF-16 code units b would occupy once
// decoded as UTF-8 and re-encoded as UTF-16 — the unit LSP positions are
// expressed in.
func utf16Len(b []byte) uint32 {
	var n uint32
	for _, r := range string(b) {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// byteOffsetForUTF16Col walks line (a byte slice, possibly including its
// trailing newline) counting UTF-16 units until col is reached, returning
// the corresponding byte offset relative to the start of line.
func byteOffsetForUTF16Col(line []byte, col uint32) uint32 {
	var units uint32
	for i, r := range string(line) {
		if units >= col {
			return uint32(i)
		}
		if r > 0xFFFF {
			units += 2
		} else {
			units++
		}
	}
	return uint32(len(line))
}

// utf16Units is exposed for the rare caller that needs to re-derive a
// UTF-16 unit count for an arbitrary string fragment (e.g. rendering an
// inlay hint position that isn't anchored to a line start).
func utf16Units(s string) int {
	return len(utf16.Encode([]rune(s)))
}
