// Package query implements C7: translates cursor-position LSP requests into
// resolver queries and shapes the results back into LSP-ready values (§4.7).
package query

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/entrystore"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/intern"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/parser"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/resolver"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/scope"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// Projector is C7. It holds read-only handles to the store, interners, and
// resolver; every method call re-reads the store's current snapshot, never
// caching results across calls (§5: "reads always observe a single
// consistent version").
type Projector struct {
	store *entrystore.Store
	in    *intern.Interners
	res   *resolver.Resolver
	par   *parser.Parser
}

// New creates a Projector.
func New(store *entrystore.Store, in *intern.Interners, res *resolver.Resolver, par *parser.Parser) *Projector {
	return &Projector{store: store, in: in, res: res, par: par}
}

// cursorContext bundles the result of §4.7 steps 1-3 shared by every
// request kind below.
type cursorContext struct {
	ident Identifier
	chain []*scope.Node
	ids   []types.EntryID
}

func (p *Projector) resolveCursor(doc *document.Document, offset uint32) (cursorContext, bool) {
	tree, err := p.par.Parse(doc.Text)
	if err != nil {
		return cursorContext{}, false
	}
	defer tree.Close()

	ident, ok := IdentifierAt(tree, offset)
	if !ok {
		return cursorContext{}, false
	}
	chain := ScopeChainAt(doc, offset)

	var ids []types.EntryID
	if ident.IsConstant {
		ids = p.res.ResolveConstant(chain, ident.Text)
	} else if ident.Receiver == nil {
		ownerFQN := types.RootFQN()
		if owner := scope.InnermostClass(chain); owner != nil {
			ownerFQN = owner.FQN
		}
		ids = p.res.ResolveMethod(ownerFQN, ident.Text, false)
	}
	return cursorContext{ident: ident, chain: chain, ids: ids}, true
}

// Definition implements textDocument/definition (§4.7 "list of locations
// from the returned entry set").
func (p *Projector) Definition(doc *document.Document, offset uint32) []types.Location {
	cc, ok := p.resolveCursor(doc, offset)
	if !ok {
		return nil
	}
	return p.locationsOf(cc.ids)
}

func (p *Projector) locationsOf(ids []types.EntryID) []types.Location {
	var out []types.Location
	for _, id := range ids {
		if e, ok := p.store.Entry(id); ok {
			out = append(out, e.Location)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// References implements textDocument/references: union over the resolved
// entry ids of every reference whose target matches, plus the defining
// locations (§4.7 "plus the defining locations").
func (p *Projector) References(doc *document.Document, offset uint32, includeDeclaration bool) []types.Location {
	cc, ok := p.resolveCursor(doc, offset)
	if !ok {
		return nil
	}
	var out []types.Location
	if includeDeclaration {
		out = append(out, p.locationsOf(cc.ids)...)
	}
	for _, id := range cc.ids {
		for _, r := range p.store.ReferencesTo(id) {
			out = append(out, r.Location)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// CompletionKind distinguishes a completion candidate's origin, used for
// LSP's completionItemKind mapping by the transport layer.
type CompletionKind uint8

const (
	CompletionLocal CompletionKind = iota
	CompletionConstant
	CompletionMethod
)

// CompletionItem is one ranked completion candidate (§4.7 Completion).
type CompletionItem struct {
	Label string
	Kind  CompletionKind
	tier  int // 0=exact prefix, 1=camel-initials, 2=subsequence; lower wins
	fqnLen int
}

// Completion implements §4.7's three-source completion: in-scope locals,
// constants under the scope chain, and (if a receiver is present) methods
// along its ancestor chain. Ranking: exact prefix, then camelCase-initials,
// then subsequence; ties broken by shorter FQN.
func (p *Projector) Completion(doc *document.Document, offset uint32, prefix string) []CompletionItem {
	tree, err := p.par.Parse(doc.Text)
	if err != nil {
		return nil
	}
	defer tree.Close()

	chain := ScopeChainAt(doc, offset)

	var items []CompletionItem
	for _, local := range doc.Locals {
		name := p.in.Names.MustResolve(local.MethodName)
		if tier, ok := matchTier(prefix, name); ok {
			items = append(items, CompletionItem{Label: name, Kind: CompletionLocal, tier: tier})
		}
	}

	for _, ns := range scope.LexicalNamespaces(chain) {
		for _, e := range p.store.EntriesInFile(doc.Handle) {
			if !sameParent(e.FQN, ns) {
				continue
			}
			name := p.in.Segments.MustResolve(e.FQN.Segments[len(e.FQN.Segments)-1])
			if tier, ok := matchTier(prefix, name); ok {
				items = append(items, CompletionItem{Label: name, Kind: CompletionConstant, tier: tier, fqnLen: len(e.FQN.Segments)})
			}
		}
	}

	if cls := scope.InnermostClass(chain); cls != nil {
		for _, id := range p.res.EnumerateMethods(cls.FQN, false) {
			if e, ok := p.store.Entry(id); ok {
				name := p.in.Names.MustResolve(e.MethodName)
				if tier, ok := matchTier(prefix, name); ok {
					items = append(items, CompletionItem{Label: name, Kind: CompletionMethod, tier: tier})
				}
			}
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].tier != items[j].tier {
			return items[i].tier < items[j].tier
		}
		return items[i].fqnLen < items[j].fqnLen
	})
	return dedupeItems(items)
}

func sameParent(fqn types.FQN, parent types.FQN) bool {
	if len(fqn.Segments) != len(parent.Segments)+1 {
		return false
	}
	p, ok := fqn.Parent()
	return ok && p.Equal(parent)
}

// matchTier classifies name against prefix per §4.7's three-tier scheme
// (0 prefix, 1 camel-initials, 2 subsequence). A name that fits none of them
// but has a go-edlib Jaro-Winkler similarity above 0.85 to prefix is also
// placed in tier 2; an empty prefix matches every name at tier 2.
func matchTier(prefix, name string) (int, bool) {
	if prefix == "" {
		return 2, true
	}
	if strings.HasPrefix(name, prefix) {
		return 0, true
	}
	if matchesInitials(prefix, name) {
		return 1, true
	}
	if isSubsequence(prefix, name) {
		return 2, true
	}
	if sim, err := edlib.StringsSimilarity(prefix, name, edlib.JaroWinkler); err == nil && sim > 0.85 {
		return 2, true
	}
	return 0, false
}

func matchesInitials(prefix, name string) bool {
	var initials []byte
	for i, r := range name {
		if i == 0 || (r >= 'A' && r <= 'Z') {
			initials = append(initials, byte(r))
		}
	}
	return strings.HasPrefix(strings.ToLower(string(initials)), strings.ToLower(prefix))
}

func isSubsequence(prefix, name string) bool {
	j := 0
	for i := 0; i < len(name) && j < len(prefix); i++ {
		if name[i] == prefix[j] {
			j++
		}
	}
	return j == len(prefix)
}

func dedupeItems(items []CompletionItem) []CompletionItem {
	seen := map[string]bool{}
	out := items[:0]
	for _, it := range items {
		if seen[it.Label] {
			continue
		}
		seen[it.Label] = true
		out = append(out, it)
	}
	return out
}

// DocumentSymbol is one node of the nested symbol tree returned by
// textDocument/documentSymbol.
type DocumentSymbol struct {
	Name     string
	Kind     types.EntryKind
	Range    types.Range
	Children []DocumentSymbol
}

// DocumentSymbols implements §4.7's "single pass returning the scope tree's
// classes/modules/methods with nesting preserved".
func (p *Projector) DocumentSymbols(doc *document.Document) []DocumentSymbol {
	root, ok := doc.ScopeRoot.(*scope.Node)
	if !ok || root == nil {
		return nil
	}
	return p.symbolsUnder(root, doc.Lines)
}

func (p *Projector) symbolsUnder(n *scope.Node, lines *document.LineIndex) []DocumentSymbol {
	var out []DocumentSymbol
	for _, c := range n.Children {
		switch c.Kind {
		case scope.KindClass, scope.KindNamespace:
			kind := types.EntryModule
			if c.Kind == scope.KindClass {
				kind = types.EntryClass
			}
			out = append(out, DocumentSymbol{
				Name:     p.in.ResolveFQN(c.FQN),
				Kind:     kind,
				Range:    byteRangeToRange(c.Range, lines),
				Children: p.symbolsUnder(c, lines),
			})
		case scope.KindMethod:
			out = append(out, DocumentSymbol{
				Name:  p.in.ResolveFQN(c.FQN),
				Kind:  types.EntryMethod,
				Range: byteRangeToRange(c.Range, lines),
			})
		default:
			out = append(out, p.symbolsUnder(c, lines)...)
		}
	}
	return out
}

func byteRangeToRange(br types.ByteRange, lines *document.LineIndex) types.Range {
	startLine, startCol := lines.Position(br.Start)
	endLine, endCol := lines.Position(br.End)
	return types.Range{
		Start: types.Position{Line: startLine, Character: startCol},
		End:   types.Position{Line: endLine, Character: endCol},
	}
}

// WorkspaceSymbol is one ranked match for workspace/symbol.
type WorkspaceSymbol struct {
	Name     string
	Location types.Location
	Kind     types.EntryKind
}

const workspaceSymbolCap = 500

// WorkspaceSymbols implements §4.7's workspace symbol search: exact, then
// prefix, then camel-initials, then subsequence (ties by name), capped at
// 500.
func (p *Projector) WorkspaceSymbols(queryStr string) []WorkspaceSymbol {
	var out []WorkspaceSymbol
	ranks := map[string]int{}
	for _, e := range p.store.AllEntries() {
		if e.Kind != types.EntryClass && e.Kind != types.EntryModule && e.Kind != types.EntryMethod {
			continue
		}
		name := entryDisplayName(p.in, e)
		tier, ok := matchTier(queryStr, name)
		if queryStr != "" && !ok {
			continue
		}
		if queryStr != "" && name == queryStr {
			tier = -1
		}
		ranks[name] = tier
		out = append(out, WorkspaceSymbol{Name: name, Location: e.Location, Kind: e.Kind})
	}
	sort.Slice(out, func(i, j int) bool {
		if ri, rj := ranks[out[i].Name], ranks[out[j].Name]; ri != rj {
			return ri < rj
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > workspaceSymbolCap {
		out = out[:workspaceSymbolCap]
	}
	return out
}

func entryDisplayName(in *intern.Interners, e types.Entry) string {
	if e.Kind == types.EntryMethod {
		return in.Names.MustResolve(e.MethodName)
	}
	if len(e.FQN.Segments) == 0 {
		return ""
	}
	return in.Segments.MustResolve(e.FQN.Segments[len(e.FQN.Segments)-1])
}
