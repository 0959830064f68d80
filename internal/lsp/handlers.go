package lsp

import (
	"context"
	"encoding/json"
	"os"
	"regexp"
	"strings"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/config"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	rlsperrors "github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/errors"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/indexing"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/logging"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/query"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/stubs"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/version"
)

func unmarshal(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// mergeConfig implements the documented override chain (file <
// initializationOptions), per config.InitializationOptions's doc comment.
func mergeConfig(root string, rawOpts json.RawMessage) (*config.Config, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, &rlsperrors.ConfigError{Path: root, Underlying: err}
	}
	var opts config.InitializationOptions
	if err := unmarshal(rawOpts, &opts); err == nil {
		cfg.ApplyInitializationOptions(opts)
	}
	return cfg, nil
}

func cfgRubyVersion(cfg *config.Config) config.RubyVersion {
	return config.RubyVersion(cfg.Ruby.Version)
}

func indexingNewWatcher(s *Server, root string, debounceMs int) (*indexing.Watcher, error) {
	return indexing.NewWatcher(s.coord, root, debounceMs)
}

// handleInitialize implements the initialize handshake (§6): loads
// .rubylsp.toml from rootUri, layers initializationOptions over it, resolves
// the stub-set version, then kicks off a full workspace index reporting
// progress over `$/progress`. Grounded on the ruby-lsp-go reference server's
// HandleInitialize for the capabilities-map shape, and on the teacher's
// mcpCommand for doing the heavy lifting (index construction) inside the
// handshake rather than lazily on first request.
func (s *Server) handleInitialize(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p InitializeParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, &rlsperrors.ProtocolError{Method: "initialize", Code: -32602, Message: err.Error()}
	}

	root := p.RootURI.Filename()
	cfg, err := mergeConfig(root, p.InitializationOptions)
	if err != nil {
		return nil, err
	}
	s.cfg = cfg
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))

	rubyVersion := stubs.ResolveVersion(root, cfgRubyVersion(cfg))
	stubsPath := cfg.Ruby.StubsPath

	progress := s.progress
	go func() {
		if err := s.coord.IndexWorkspace(ctx, stubsPath, rubyVersion, progress.Report); err != nil {
			logging.Errorf("lsp: workspace index failed: %v", err)
		}
		if cfg.Index.WatchMode {
			w, err := indexingNewWatcher(s, root, cfg.Index.WatchDebounceMs)
			if err != nil {
				logging.Warnf("lsp: watcher init failed: %v", err)
				return
			}
			s.watcher = w
			w.Run(ctx)
		}
	}()

	return InitializeResult{
		Capabilities: map[string]interface{}{
			"textDocumentSync": 1, // Full
			"definitionProvider": true,
			"referencesProvider": true,
			"completionProvider": map[string]interface{}{
				"resolveProvider":   true,
				"triggerCharacters": []string{".", ":"},
			},
			"documentSymbolProvider":    true,
			"workspaceSymbolProvider":   true,
			"semanticTokensProvider": map[string]interface{}{
				"legend": SemanticTokensLegend{
					TokenTypes:     semanticTokenTypes,
					TokenModifiers: []string{},
				},
				"full": true,
			},
			"foldingRangeProvider": true,
			"inlayHintProvider":    true,
			"codeLensProvider":     map[string]interface{}{"resolveProvider": false},
			"documentOnTypeFormattingProvider": map[string]interface{}{
				"firstTriggerCharacter": "\n",
			},
			"documentHighlightProvider": true,
		},
		ServerInfo: ServerInfo{Name: "ruby-fast-lsp", Version: version.Version},
	}, nil
}

func (s *Server) handleShutdown(ctx context.Context) (interface{}, error) {
	s.shutdownRequested = true
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	return nil, nil
}

func (s *Server) handleExit() {
	code := 0
	if !s.shutdownRequested {
		code = 1
	}
	os.Exit(code)
}

func (s *Server) handleDidOpen(ctx context.Context, raw json.RawMessage) error {
	var p DidOpenTextDocumentParams
	if err := unmarshal(raw, &p); err != nil {
		return err
	}
	path := p.TextDocument.URI.Filename()
	handle := types.FileHandle(s.in.URIs.Intern(path))
	doc := s.docs.Open(string(p.TextDocument.URI), handle, p.TextDocument.Version, []byte(p.TextDocument.Text))
	return s.coord.IndexDocument(ctx, doc)
}

func (s *Server) handleDidChange(ctx context.Context, raw json.RawMessage) error {
	var p DidChangeTextDocumentParams
	if err := unmarshal(raw, &p); err != nil {
		return err
	}
	if len(p.ContentChanges) == 0 {
		return nil
	}
	// Full-document sync only (§9 Positions / server capability
	// "textDocumentSync: Full"): the last entry always holds the complete
	// new text.
	text := p.ContentChanges[len(p.ContentChanges)-1].Text
	doc := s.docs.Update(string(p.TextDocument.URI), p.TextDocument.Version, []byte(text))
	if doc == nil {
		return nil
	}
	return s.coord.IndexDocument(ctx, doc)
}

func (s *Server) handleDidClose(ctx context.Context, raw json.RawMessage) error {
	var p DidCloseTextDocumentParams
	if err := unmarshal(raw, &p); err != nil {
		return err
	}
	s.docs.Close(string(p.TextDocument.URI))
	return nil
}

func (s *Server) handleDidSave(ctx context.Context, raw json.RawMessage) error {
	// The on-disk reindex is driven by the filesystem watcher (§4.5); an
	// editor save is already reflected via didChange, so didSave is a no-op
	// beyond acknowledging the notification.
	return nil
}

func (s *Server) getDoc(uri DocumentURI) (*document.Document, bool) {
	return s.docs.Get(string(uri))
}

func (s *Server) handleDefinition(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p DefinitionParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	doc, ok := s.getDoc(p.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	offset := offsetOf(doc, p.Position)
	return s.locationsOf(s.proj.Definition(doc, offset)), nil
}

func (s *Server) handleReferences(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p ReferenceParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	doc, ok := s.getDoc(p.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	offset := offsetOf(doc, p.Position)
	return s.locationsOf(s.proj.References(doc, offset, p.Context.IncludeDeclaration)), nil
}

var wordPattern = regexp.MustCompile(`[A-Za-z0-9_]+$`)

func wordBefore(text []byte, offset uint32) string {
	if offset > uint32(len(text)) {
		offset = uint32(len(text))
	}
	return wordPattern.FindString(string(text[:offset]))
}

func (s *Server) handleCompletion(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p CompletionParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	doc, ok := s.getDoc(p.TextDocument.URI)
	if !ok {
		return CompletionList{}, nil
	}
	offset := offsetOf(doc, p.Position)
	prefix := wordBefore(doc.Text, offset)

	items := s.proj.Completion(doc, offset, prefix)
	out := make([]CompletionItem, 0, len(items))
	for _, it := range items {
		out = append(out, CompletionItem{Label: it.Label, Kind: completionKindOf(it.Kind)})
	}
	return CompletionList{IsIncomplete: false, Items: out}, nil
}

func completionKindOf(k query.CompletionKind) CompletionItemKind {
	switch k {
	case query.CompletionConstant:
		return CompletionItemKindClass
	case query.CompletionMethod:
		return CompletionItemKindMethod
	default:
		return CompletionItemKindVariable
	}
}

// handleCompletionResolve returns the item unmodified: no detail or
// documentation is added, so a resolved item carries the same label and
// kind that Completion returned (§4.7 notes resolve as optional-enrichment
// only).
func (s *Server) handleCompletionResolve(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p CompletionItemResolveParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p.CompletionItem, nil
}

func (s *Server) handleDocumentSymbol(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p DocumentSymbolParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	doc, ok := s.getDoc(p.TextDocument.URI)
	if !ok {
		return []DocumentSymbol{}, nil
	}
	return convertSymbols(s.proj.DocumentSymbols(doc)), nil
}

func convertSymbols(in []query.DocumentSymbol) []DocumentSymbol {
	out := make([]DocumentSymbol, 0, len(in))
	for _, sym := range in {
		out = append(out, DocumentSymbol{
			Name:           sym.Name,
			Kind:           symbolKindOf(sym.Kind),
			Range:          sym.Range,
			SelectionRange: sym.Range,
			Children:       convertSymbols(sym.Children),
		})
	}
	return out
}

func symbolKindOf(k types.EntryKind) SymbolKind {
	switch k {
	case types.EntryClass:
		return SymbolKindClass
	case types.EntryModule:
		return SymbolKindModule
	case types.EntryMethod:
		return SymbolKindMethod
	default:
		return SymbolKindVariable
	}
}

func (s *Server) handleSemanticTokensFull(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p SemanticTokensParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	doc, ok := s.getDoc(p.TextDocument.URI)
	if !ok {
		return SemanticTokens{Data: []uint32{}}, nil
	}
	tokens, err := s.proj.SemanticTokens(doc)
	if err != nil {
		return nil, err
	}
	return SemanticTokens{Data: encodeSemanticTokens(tokens, doc.Lines)}, nil
}

func (s *Server) handleFoldingRange(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p FoldingRangeParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	doc, ok := s.getDoc(p.TextDocument.URI)
	if !ok {
		return []FoldingRange{}, nil
	}
	ranges, err := s.proj.FoldingRanges(doc)
	if err != nil {
		return nil, err
	}
	out := make([]FoldingRange, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, FoldingRange{
			StartLine: r.Start.Line, StartCharacter: r.Start.Character,
			EndLine: r.End.Line, EndCharacter: r.End.Character,
		})
	}
	return out, nil
}

func (s *Server) handleInlayHint(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p InlayHintParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	doc, ok := s.getDoc(p.TextDocument.URI)
	if !ok {
		return []InlayHint{}, nil
	}
	hints, err := s.proj.InlayHints(doc)
	if err != nil {
		return nil, err
	}
	out := make([]InlayHint, 0, len(hints))
	for _, h := range hints {
		line, col := doc.Lines.Position(h.Offset)
		out = append(out, InlayHint{Position: types.Position{Line: line, Character: col}, Label: h.Label + ":"})
	}
	return out, nil
}

func (s *Server) handleCodeLens(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p CodeLensParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	doc, ok := s.getDoc(p.TextDocument.URI)
	if !ok {
		return []CodeLens{}, nil
	}
	lenses := s.proj.CodeLenses(doc)
	out := make([]CodeLens, 0, len(lenses))
	for _, l := range lenses {
		out = append(out, CodeLens{Range: l.Range, Command: Command{Title: l.Title, Command: ""}})
	}
	return out, nil
}

func (s *Server) handleDocumentHighlight(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p DocumentHighlightParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	doc, ok := s.getDoc(p.TextDocument.URI)
	if !ok {
		return []DocumentHighlight{}, nil
	}
	offset := offsetOf(doc, p.Position)
	ranges := s.proj.DocumentHighlight(doc, offset)
	out := make([]DocumentHighlight, 0, len(ranges))
	for _, r := range ranges {
		out = append(out, DocumentHighlight{Range: r})
	}
	return out, nil
}

var blockOpener = regexp.MustCompile(`^\s*(def|class|module|if|unless|while|until|case|begin|do\b.*|.*\bdo)\b`)
var indentOf = regexp.MustCompile(`^\s*`)

// handleOnTypeFormatting auto-closes Ruby's `end` keyword: triggered on a
// newline typed after a line that opens a block (def/class/module/
// if/unless/while/until/case/begin, or a trailing `do`), it inserts a
// matching `end` on the following line. This is a heuristic, not a full
// indentation engine — no pack repo implements Ruby-aware auto-closing, so
// the rule stays intentionally narrow rather than guessing at a library.
func (s *Server) handleOnTypeFormatting(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p DocumentOnTypeFormattingParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.Ch != "\n" {
		return []TextEdit{}, nil
	}
	doc, ok := s.getDoc(p.TextDocument.URI)
	if !ok {
		return []TextEdit{}, nil
	}
	lineStart := doc.Lines.Offset(p.Position.Line, 0)
	offset := offsetOf(doc, p.Position)
	if offset < lineStart || offset > uint32(len(doc.Text)) {
		return []TextEdit{}, nil
	}
	prevLineNo := p.Position.Line
	if prevLineNo == 0 {
		return []TextEdit{}, nil
	}
	prevStart := doc.Lines.Offset(prevLineNo-1, 0)
	prevLine := string(doc.Text[prevStart:lineStart])
	trimmed := strings.TrimRight(prevLine, "\r\n")
	if !blockOpener.MatchString(trimmed) {
		return []TextEdit{}, nil
	}
	indent := indentOf.FindString(trimmed)
	at := types.Position{Line: p.Position.Line, Character: 0}
	return []TextEdit{{
		Range:   types.Range{Start: at, End: at},
		NewText: indent + "end\n",
	}}, nil
}

func (s *Server) handleWorkspaceSymbol(ctx context.Context, raw json.RawMessage) (interface{}, error) {
	var p WorkspaceSymbolParams
	if err := unmarshal(raw, &p); err != nil {
		return nil, err
	}
	matches := s.proj.WorkspaceSymbols(p.Query)
	out := make([]SymbolInformation, 0, len(matches))
	for _, m := range matches {
		out = append(out, SymbolInformation{
			Name:     m.Name,
			Kind:     symbolKindOf(m.Kind),
			Location: s.locationOf(m.Location),
		})
	}
	return out, nil
}

func (s *Server) handleDidChangeConfiguration(ctx context.Context, raw json.RawMessage) error {
	var p DidChangeConfigurationParams
	if err := unmarshal(raw, &p); err != nil {
		return err
	}
	var opts struct {
		RubyLsp struct {
			LogLevel string `json:"logLevel"`
		} `json:"rubyLsp"`
	}
	if err := unmarshal(p.Settings, &opts); err == nil && opts.RubyLsp.LogLevel != "" {
		s.cfg.LogLevel = opts.RubyLsp.LogLevel
		logging.SetLevel(logging.ParseLevel(opts.RubyLsp.LogLevel))
	}
	return nil
}

// handleDidChangeWatchedFiles implements the supplemented
// workspace/didChangeWatchedFiles: when the client (rather than this
// server's own fsnotify watcher) reports a change, reindex or remove exactly
// as the watcher would (§4.5). Editors that disable the server-side watcher
// via client capabilities rely on this path exclusively.
func (s *Server) handleDidChangeWatchedFiles(ctx context.Context, raw json.RawMessage) error {
	var p DidChangeWatchedFilesParams
	if err := unmarshal(raw, &p); err != nil {
		return err
	}
	for _, ev := range p.Changes {
		path := ev.URI.Filename()
		handle := types.FileHandle(s.in.URIs.Intern(path))
		if ev.Type == FileChangeDeleted {
			s.store.RemoveFile(handle)
			continue
		}
		source, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := s.coord.ReindexFile(ctx, handle, path, source); err != nil {
			logging.Warnf("lsp: reindex %s: %v", path, err)
		}
	}
	return nil
}
