package query

import (
	"strconv"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/scope"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/visitor"
)

// SemanticTokens implements textDocument/semanticTokens/full: the
// SemanticVisitor classifies every span independently of C2/C3, so this
// method only needs to parse and delegate (§4.4).
func (p *Projector) SemanticTokens(doc *document.Document) ([]visitor.Token, error) {
	tree, err := p.par.Parse(doc.Text)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	sv := visitor.NewSemanticVisitor(p.par.Queries(), tree, doc.Lines)
	return sv.Tokens(), nil
}

// FoldingRanges implements textDocument/foldingRange.
func (p *Projector) FoldingRanges(doc *document.Document) ([]types.Range, error) {
	tree, err := p.par.Parse(doc.Text)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	sv := visitor.NewSemanticVisitor(p.par.Queries(), tree, doc.Lines)
	var out []types.Range
	for _, f := range sv.FoldingRanges() {
		out = append(out, byteRangeToRange(f.Range, doc.Lines))
	}
	return out, nil
}

// InlayHints implements textDocument/inlayHint. It hands the semantic
// visitor a lookup that yields a method's parameter names when the call
// target resolves to exactly one definition; SemanticVisitor.InlayHints
// pairs no arguments with those names, so the returned list is empty.
func (p *Projector) InlayHints(doc *document.Document) ([]visitor.InlayHint, error) {
	tree, err := p.par.Parse(doc.Text)
	if err != nil {
		return nil, err
	}
	defer tree.Close()
	sv := visitor.NewSemanticVisitor(p.par.Queries(), tree, doc.Lines)

	paramNames := func(methodName string) []string {
		chain := ScopeChainAt(doc, 0)
		owner := types.RootFQN()
		if cls := scope.InnermostClass(chain); cls != nil {
			owner = cls.FQN
		}
		ids := p.res.ResolveMethod(owner, methodName, false)
		if len(ids) != 1 {
			return nil
		}
		e, ok := p.store.Entry(ids[0])
		if !ok {
			return nil
		}
		names := make([]string, len(e.Params))
		for i, param := range e.Params {
			names[i] = param.Name
		}
		return names
	}
	return sv.InlayHints(paramNames), nil
}

// DocumentHighlight implements the supplemented textDocument/documentHighlight:
// every occurrence of the symbol under the cursor within this same document,
// both its defining locations and its reference sites, filtered to doc's
// file handle.
func (p *Projector) DocumentHighlight(doc *document.Document, offset uint32) []types.Range {
	cc, ok := p.resolveCursor(doc, offset)
	if !ok {
		return nil
	}
	var out []types.Range
	for _, id := range cc.ids {
		if e, ok := p.store.Entry(id); ok && e.Location.File == doc.Handle {
			out = append(out, e.Location.Range)
		}
		for _, r := range p.store.ReferencesTo(id) {
			if r.Location.File == doc.Handle {
				out = append(out, r.Location.Range)
			}
		}
	}
	return out
}

// CodeLensKind distinguishes the two supplemented lenses.
type CodeLensKind uint8

const (
	LensUnresolvedCount CodeLensKind = iota
	LensIncluderCount
)

// CodeLens is one rendered lens: a range (the namespace header) plus a
// human-readable title.
type CodeLens struct {
	Range types.Range
	Kind  CodeLensKind
	Title string
}

// CodeLenses implements the supplemented code-lens features: an
// unresolved-reference count per namespace, and an "N includers" count for
// modules (derived from the mixin-owner reverse index, §3 owners_of).
func (p *Projector) CodeLenses(doc *document.Document) []CodeLens {
	root, ok := doc.ScopeRoot.(*scope.Node)
	if !ok || root == nil {
		return nil
	}
	var out []CodeLens
	p.collectLenses(root, doc, &out)
	return out
}

func (p *Projector) collectLenses(n *scope.Node, doc *document.Document, out *[]CodeLens) {
	for _, c := range n.Children {
		switch c.Kind {
		case scope.KindClass, scope.KindNamespace:
			unresolved := 0
			for _, r := range p.store.ReferencesInFile(doc.Handle) {
				if r.Unresolved() && c.Range.Contains(r.Location.Bytes.Start) {
					unresolved++
				}
			}
			if unresolved > 0 {
				*out = append(*out, CodeLens{
					Range: byteRangeToRange(c.Range, doc.Lines),
					Kind:  LensUnresolvedCount,
					Title: pluralize(unresolved, "unresolved reference"),
				})
			}
			if c.Kind == scope.KindNamespace {
				includers := p.store.OwnersOf(c.FQN)
				if len(includers) > 0 {
					*out = append(*out, CodeLens{
						Range: byteRangeToRange(c.Range, doc.Lines),
						Kind:  LensIncluderCount,
						Title: pluralize(len(includers), "includer"),
					})
				}
			}
			p.collectLenses(c, doc, out)
		default:
			p.collectLenses(c, doc, out)
		}
	}
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
