package lsp

import (
	"context"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/logging"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// DiagnosticSeverity mirrors the LSP enum; only the value this server emits
// is named.
type DiagnosticSeverity int

const DiagnosticSeverityError DiagnosticSeverity = 1

type Diagnostic struct {
	Range    types.Range        `json:"range"`
	Severity DiagnosticSeverity `json:"severity"`
	Source   string             `json:"source"`
	Message  string             `json:"message"`
}

type PublishDiagnosticsParams struct {
	URI         DocumentURI  `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// publishDiagnosticsFor builds and sends textDocument/publishDiagnostics for
// one file once phase B has run over it, surfacing every reference the
// resolver could not match (§7 unresolved constant/method diagnostics). It
// is wired as the coordinator's DiagnosticsHook (server.go), so it only ever
// fires after a file's phase-B batch is committed — never during phase A.
// Grounded on progressNotifier (progress.go): the same conn.Notify push
// pattern, for the other server-initiated notification this server sends.
func (s *Server) publishDiagnosticsFor(handle types.FileHandle) {
	if s.conn == nil {
		return
	}
	path, ok := s.in.URIs.Resolve(handle)
	if !ok {
		return
	}

	var diags []Diagnostic
	for _, r := range s.store.ReferencesInFile(handle) {
		if !isDiagnosable(r.Kind) || !r.Unresolved() {
			continue
		}
		diags = append(diags, Diagnostic{
			Range:    r.Location.Range,
			Severity: DiagnosticSeverityError,
			Source:   "ruby-fast-lsp",
			Message:  "unresolved reference: " + r.Name,
		})
	}

	params := PublishDiagnosticsParams{URI: URIFromPath(path), Diagnostics: diags}
	if err := s.conn.Notify(context.Background(), "textDocument/publishDiagnostics", params); err != nil {
		logging.Warnf("lsp: publishDiagnostics notify: %v", err)
	}
}

// isDiagnosable reports whether kind is ever actually resolved against the
// entry store, i.e. whether Unresolved() on a reference of this kind means
// "name not found" rather than "not the kind of reference store lookup
// tracks" — local reads/writes never carry a store target at all (§4.3:
// locals resolve lexically, not through C6), so they would otherwise flood
// every method body with a false diagnostic per variable use.
func isDiagnosable(k types.ReferenceKind) bool {
	switch k {
	case types.RefConstantRead, types.RefConstantWrite, types.RefMethodCall, types.RefMixinUse:
		return true
	default:
		return false
	}
}
