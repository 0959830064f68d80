package parser

import (
	"fmt"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Queries bundles the precompiled tree-sitter queries the semantic visitor
// runs over a Ruby tree (the index and reference visitors walk the tree
// directly instead), grounded on the teacher's
// per-language query sets in internal/parser/parser_language_setup.go —
// one query per construct instead of one enormous query, so a visitor can
// run only the captures it needs (the semantic visitor, for instance, never
// runs MixinCalls).
type Queries struct {
	ClassDefs       *tree_sitter.Query // class Foo < Bar ... end
	ModuleDefs      *tree_sitter.Query // module Foo ... end
	SingletonClass  *tree_sitter.Query // class << self ... end
	MethodDefs      *tree_sitter.Query // def foo(...) ... end
	SingletonMethod *tree_sitter.Query // def self.foo(...) ... end / def obj.foo
	MixinCalls      *tree_sitter.Query // include/prepend/extend Target
	ConstantRefs    *tree_sitter.Query // bare and scoped constant reads
	MethodCalls     *tree_sitter.Query // receiver.method / bare method calls
	Assignments     *tree_sitter.Query // constant and local-variable writes
}

func compileQueries(lang *tree_sitter.Language) (*Queries, error) {
	mk := func(name, src string) (*tree_sitter.Query, error) {
		q, qerr := tree_sitter.NewQuery(lang, src)
		if qerr != nil {
			return nil, fmt.Errorf("query %s: %w", name, qerr)
		}
		return q, nil
	}

	q := &Queries{}
	var err error

	if q.ClassDefs, err = mk("class_defs", `
		(class
		  name: [(constant) (scope_resolution)] @class.name
		  superclass: (superclass [(constant) (scope_resolution)] @class.superclass)?
		  body: (body_statement)? @class.body) @class.def
	`); err != nil {
		return nil, err
	}

	if q.ModuleDefs, err = mk("module_defs", `
		(module
		  name: [(constant) (scope_resolution)] @module.name
		  body: (body_statement)? @module.body) @module.def
	`); err != nil {
		return nil, err
	}

	if q.SingletonClass, err = mk("singleton_class", `
		(singleton_class
		  value: (self) @singleton_class.receiver
		  body: (body_statement)? @singleton_class.body) @singleton_class.def
	`); err != nil {
		return nil, err
	}

	if q.MethodDefs, err = mk("method_defs", `
		(method
		  name: (_) @method.name
		  parameters: (method_parameters)? @method.params
		  body: (body_statement)? @method.body) @method.def
	`); err != nil {
		return nil, err
	}

	if q.SingletonMethod, err = mk("singleton_method", `
		(singleton_method
		  object: (_) @singleton_method.object
		  name: (_) @singleton_method.name
		  parameters: (method_parameters)? @singleton_method.params
		  body: (body_statement)? @singleton_method.body) @singleton_method.def
	`); err != nil {
		return nil, err
	}

	if q.MixinCalls, err = mk("mixin_calls", `
		[
		  (call
		    method: (identifier) @mixin.verb
		    arguments: (argument_list [(constant) (scope_resolution)] @mixin.target))
		  (command
		    method: (identifier) @mixin.verb
		    arguments: (command_argument_list [(constant) (scope_resolution)] @mixin.target))
		] @mixin.call
		(#match? @mixin.verb "^(include|prepend|extend)$")
	`); err != nil {
		return nil, err
	}

	if q.ConstantRefs, err = mk("constant_refs", `
		[
		  (constant) @constant.ref
		  (scope_resolution scope: (_)? name: (constant) @constant.ref) @constant.qualified
		]
	`); err != nil {
		return nil, err
	}

	if q.MethodCalls, err = mk("method_calls", `
		[
		  (call receiver: (_)? @call.receiver method: (identifier) @call.method)
		  (command method: (identifier) @call.method)
		  (identifier) @call.bare
		]
	`); err != nil {
		return nil, err
	}

	if q.Assignments, err = mk("assignments", `
		[
		  (assignment left: (constant) @assign.constant right: (_) @assign.value)
		  (assignment left: (identifier) @assign.local right: (_) @assign.value)
		]
	`); err != nil {
		return nil, err
	}

	return q, nil
}

// Matches runs q against root's tree and invokes fn for every match,
// stopping early if fn returns false. A fresh QueryCursor is created per
// call: cursors are cheap and not safe to share across concurrent queries.
func Matches(q *tree_sitter.Query, root *tree_sitter.Node, source []byte, fn func(m *tree_sitter.QueryMatch) bool) {
	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()
	matches := cursor.Matches(q, root, source)
	for {
		m := matches.Next()
		if m == nil {
			return
		}
		if !fn(m) {
			return
		}
	}
}

// CaptureNode returns the first node captured under captureName in m, or
// nil if the query has no such capture in this match.
func CaptureNode(q *tree_sitter.Query, m *tree_sitter.QueryMatch, captureName string) *tree_sitter.Node {
	for _, c := range m.Captures {
		if q.CaptureNames()[c.Index] == captureName {
			n := c.Node
			return &n
		}
	}
	return nil
}

// CaptureNodes returns every node captured under captureName in m (a
// capture can repeat, e.g. multiple mixin targets in one argument list).
func CaptureNodes(q *tree_sitter.Query, m *tree_sitter.QueryMatch, captureName string) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for _, c := range m.Captures {
		if q.CaptureNames()[c.Index] == captureName {
			n := c.Node
			out = append(out, &n)
		}
	}
	return out
}
