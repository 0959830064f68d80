package visitor

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/intern"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// constantPath describes a (possibly qualified) constant reference as
// written in source: e.g. "Foo" is {Segments: ["Foo"], Absolute: false},
// "::Foo" is {Segments: ["Foo"], Absolute: true}, and "Foo::Bar" is
// {Segments: ["Foo", "Bar"], Absolute: false}.
type constantPath struct {
	Segments []string
	Absolute bool
}

// parseConstantPath walks a "constant" or "scope_resolution" node and
// collects its dotted segments. Any non-constant scope expression (e.g.
// `self.class::FOO`) is given up on and reported as not ok — the caller
// treats that reference as unresolved, matching §4.6's "the resolver never
// panics on bad input".
func parseConstantPath(n *tree_sitter.Node, tree interface{ Text(*tree_sitter.Node) string }) (constantPath, bool) {
	switch n.Kind() {
	case "constant":
		return constantPath{Segments: []string{tree.Text(n)}}, true
	case "scope_resolution":
		nameNode := n.ChildByFieldName("name")
		if nameNode == nil || nameNode.Kind() != "constant" {
			return constantPath{}, false
		}
		scopeNode := n.ChildByFieldName("scope")
		if scopeNode == nil {
			// "::Foo" — absolute reference to the top-level namespace.
			return constantPath{Segments: []string{tree.Text(nameNode)}, Absolute: true}, true
		}
		prefix, ok := parseConstantPath(scopeNode, tree)
		if !ok {
			return constantPath{}, false
		}
		prefix.Segments = append(prefix.Segments, tree.Text(nameNode))
		return prefix, true
	default:
		return constantPath{}, false
	}
}

// toFQN resolves a constantPath to a best-effort FQN under the interners,
// per §4.4's "best-effort; unresolved references are permitted here and
// fixed up when phase 2 runs": an absolute path is interned as-is from the
// root; a relative path is appended to relativeTo. True lexical
// disambiguation among several possible bindings is the resolver's job
// (§4.6), not the visitor's.
func (p constantPath) toFQN(in *intern.Interners, relativeTo types.FQN) types.FQN {
	base := types.RootFQN()
	if !p.Absolute {
		base = relativeTo
	}
	for _, seg := range p.Segments {
		base = base.Append(in.Segments.Intern(seg))
	}
	return base
}

// leafName returns the last segment of the path, the bare name a reference
// ultimately resolves as a Constant entry under some namespace.
func (p constantPath) leafName() string {
	if len(p.Segments) == 0 {
		return ""
	}
	return p.Segments[len(p.Segments)-1]
}
