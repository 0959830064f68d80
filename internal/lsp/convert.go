package lsp

import (
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// offsetOf converts a wire Position (UTF-16 line/character, §6 Positions)
// to a byte offset into doc's text using its cached LineIndex.
func offsetOf(doc *document.Document, pos types.Position) uint32 {
	return doc.Lines.Offset(pos.Line, pos.Character)
}

// locationOf converts an internal types.Location to its wire form, resolving
// the file handle back to a URI through the interner.
func (s *Server) locationOf(loc types.Location) Location {
	path, _ := s.in.URIs.Resolve(loc.File)
	return Location{URI: URIFromPath(path), Range: loc.Range}
}

func (s *Server) locationsOf(locs []types.Location) []Location {
	out := make([]Location, 0, len(locs))
	for _, l := range locs {
		out = append(out, s.locationOf(l))
	}
	return out
}
