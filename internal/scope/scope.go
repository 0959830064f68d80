// Package scope implements C3: the scope tracker. It maintains the stack of
// namespace/class/method/block frames during an AST walk and, once a walk
// completes, exposes a persistent scope tree that query projection (C7) can
// search at an arbitrary byte offset without re-walking the AST.
package scope

import "github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"

// Kind is a scope frame variant (§4.3).
type Kind uint8

const (
	KindFile Kind = iota
	KindNamespace
	KindClass
	KindSingletonClass
	KindMethod
	KindBlock
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindNamespace:
		return "namespace"
	case KindClass:
		return "class"
	case KindSingletonClass:
		return "singleton_class"
	case KindMethod:
		return "method"
	case KindBlock:
		return "block"
	default:
		return "unknown"
	}
}

// HardBoundary reports whether this frame kind terminates local-variable
// visibility when walking outward from an inner scope (§4.3: "Hard scope
// boundaries (method, singleton-class) terminate local-variable visibility
// when walking outward").
func (k Kind) HardBoundary() bool {
	return k == KindMethod || k == KindSingletonClass
}

// Node is one entry in a document's persistent scope tree (§3 Document:
// scope_tree). Every node's ByteRange is contained within its parent's, and
// siblings never overlap (I5).
type Node struct {
	ID       types.ScopeID
	Kind     Kind
	FQN      types.FQN // meaningful for File/Namespace/Class/SingletonClass
	Superclass types.FQN
	HasSuper bool
	Range    types.ByteRange
	Parent   *Node
	Children []*Node
}

// ChainAt returns the scope chain [root, ..., leaf] of nodes whose byte
// ranges contain offset, innermost last. Used by C7 to reconstruct the
// scope at a cursor position and by C6 as the lexical candidate source.
func (n *Node) ChainAt(offset uint32) []*Node {
	if !n.Range.Contains(offset) && !(offset == n.Range.End && n.Range.Len() == 0) {
		// offset outside this node entirely; still allow callers to probe
		// the root node even when offset == file length (EOF completion).
		if n.Parent != nil {
			return nil
		}
	}
	chain := []*Node{n}
	cur := n
	for {
		var next *Node
		for _, child := range cur.Children {
			if child.Range.Contains(offset) {
				next = child
				break
			}
		}
		// Half-open ranges miss an offset exactly at EOF; fall back to the
		// last child ending at offset so end-of-file queries still resolve
		// to the innermost scope rather than silently landing at the root.
		if next == nil && offset == cur.Range.End {
			for _, child := range cur.Children {
				if child.Range.End == offset {
					next = child
				}
			}
		}
		if next == nil {
			break
		}
		chain = append(chain, next)
		cur = next
	}
	return chain
}

// InnermostNamespace walks a chain from leaf to root and returns the
// nearest Class/Module/SingletonClass/File frame's FQN — the basis of the
// lexical candidate list in §4.6 step 1.
func InnermostNamespace(chain []*Node) *Node {
	for i := len(chain) - 1; i >= 0; i-- {
		k := chain[i].Kind
		if k == KindNamespace || k == KindClass || k == KindSingletonClass || k == KindFile {
			return chain[i]
		}
	}
	return nil
}

// InnermostClass returns the nearest enclosing Class/SingletonClass frame,
// the seed for the inheritance candidate list in §4.6 step 2.
func InnermostClass(chain []*Node) *Node {
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Kind == KindClass || chain[i].Kind == KindSingletonClass {
			return chain[i]
		}
	}
	return nil
}

// LexicalNamespaces returns every enclosing namespace/class FQN from
// innermost to outermost, the full lexical candidate seed list (§4.6 step
// 1 iterates "for each enclosing namespace frame from innermost outward").
func LexicalNamespaces(chain []*Node) []types.FQN {
	out := make([]types.FQN, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		k := chain[i].Kind
		if k == KindNamespace || k == KindClass || k == KindSingletonClass || k == KindFile {
			out = append(out, chain[i].FQN)
		}
	}
	return out
}

// InHardBoundary reports whether any frame between the leaf and the
// nearest hard boundary (inclusive) would block local-variable visibility
// from reaching an outer frame — used when deciding whether a local read
// at the leaf can see a local declared in an enclosing Block/Namespace.
func InHardBoundary(chain []*Node) bool {
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Kind.HardBoundary() {
			return true
		}
	}
	return false
}
