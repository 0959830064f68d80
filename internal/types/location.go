package types

// ByteRange is a half-open [Start, End) span of byte offsets within a file.
type ByteRange struct {
	Start uint32
	End   uint32
}

// Contains reports whether offset lies within the half-open range.
func (r ByteRange) Contains(offset uint32) bool {
	return offset >= r.Start && offset < r.End
}

// Len returns the number of bytes spanned.
func (r ByteRange) Len() uint32 { return r.End - r.Start }

// Position is a zero-based LSP position: Line is a zero-based line number,
// Character is a zero-based UTF-16 code unit offset within that line (the
// LSP wire contract, §6). Conversion from byte offsets happens once, at the
// query-projection boundary (internal/query), never deep in the resolver.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

// Range is a half-open [Start, End) span expressed in LSP positions.
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location pins a ByteRange to a file and pre-computes its LSP Range so
// query projection never has to re-scan a document to answer a single
// goto-definition request.
type Location struct {
	File  FileHandle
	Bytes ByteRange
	Range Range
}

// Less orders locations by (file, byte offset), the order I2 requires for
// entries_by_fqn and the order entries_by_name must also respect so that
// reopening resolves deterministically.
func (l Location) Less(o Location) bool {
	if l.File != o.File {
		return l.File < o.File
	}
	return l.Bytes.Start < o.Bytes.Start
}
