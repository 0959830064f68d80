// Package parser wraps tree-sitter's Ruby grammar as the pure
// `source -> tree` collaborator spec.md §1 treats as external: this package
// owns no symbol semantics, only byte-offset-addressed syntax trees and the
// pre-compiled queries the visitors use to find the nodes they care about.
// Grounded on the teacher's internal/parser package (one *tree_sitter.Parser
// and one set of precompiled *tree_sitter.Query per language), reduced to a
// single language.
package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_ruby "github.com/tree-sitter-grammars/tree-sitter-ruby/bindings/go"
)

// Tree wraps a parsed tree-sitter tree together with the source bytes it was
// parsed from, so callers never need to pass both around separately.
type Tree struct {
	source []byte
	tree   *tree_sitter.Tree
}

// Source returns the exact bytes the tree was parsed from.
func (t *Tree) Source() []byte { return t.source }

// RootNode returns the tree's root node (a "program" node).
func (t *Tree) RootNode() *tree_sitter.Node {
	root := t.tree.RootNode()
	return &root
}

// Text returns the source text spanned by n.
func (t *Tree) Text(n *tree_sitter.Node) string {
	return string(t.source[n.StartByte():n.EndByte()])
}

// Close releases the underlying tree-sitter tree. Call once a file's
// visitors have finished with it.
func (t *Tree) Close() {
	if t.tree != nil {
		t.tree.Close()
	}
}

// Parser parses Ruby source into Trees and exposes the precompiled queries
// the semantic visitor runs against them. One Parser is shared read-only
// across worker goroutines for queries, but tree_sitter.Parser itself is
// not safe for concurrent Parse calls, so each Parse call borrows one from
// an internal pool (checkout) and returns it afterwards (checkin), mirroring
// the teacher's per-worker parser instances, which avoid lock contention on
// the hot parse path.
type Parser struct {
	language *tree_sitter.Language
	queries  *Queries

	mu      sync.Mutex
	pool    []*tree_sitter.Parser
}

// New creates a Parser with the Ruby grammar and every precompiled query
// loaded.
func New() (*Parser, error) {
	lang := tree_sitter.NewLanguage(tree_sitter_ruby.Language())
	queries, err := compileQueries(lang)
	if err != nil {
		return nil, fmt.Errorf("compiling ruby queries: %w", err)
	}
	return &Parser{language: lang, queries: queries}, nil
}

// Queries exposes the precompiled queries for visitors to run.
func (p *Parser) Queries() *Queries { return p.queries }

// checkout borrows a *tree_sitter.Parser from the pool, creating one if the
// pool is empty. put returns it afterward. This is a simple free-list, not
// a sync.Pool, because tree-sitter parsers are expensive enough to want a
// bounded, inspectable pool rather than GC-reclaimed ones.
func (p *Parser) checkout() (*tree_sitter.Parser, error) {
	p.mu.Lock()
	if n := len(p.pool); n > 0 {
		ts := p.pool[n-1]
		p.pool = p.pool[:n-1]
		p.mu.Unlock()
		return ts, nil
	}
	p.mu.Unlock()

	ts := tree_sitter.NewParser()
	if err := ts.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("setting ruby language: %w", err)
	}
	return ts, nil
}

func (p *Parser) checkin(ts *tree_sitter.Parser) {
	p.mu.Lock()
	p.pool = append(p.pool, ts)
	p.mu.Unlock()
}

// Parse parses source and returns a Tree. Syntax errors do not fail the
// call: tree-sitter always returns a best-effort tree with ERROR nodes
// marking the unparseable spans (§7 "Index and reference visitors continue
// past the error subtree").
func (p *Parser) Parse(source []byte) (*Tree, error) {
	ts, err := p.checkout()
	if err != nil {
		return nil, err
	}
	defer p.checkin(ts)

	tree := ts.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("ruby parse returned no tree")
	}
	return &Tree{source: source, tree: tree}, nil
}

// HasSyntaxError reports whether n (or any descendant) is a tree-sitter
// ERROR/MISSING node.
func HasSyntaxError(n *tree_sitter.Node) bool {
	return n.HasError()
}
