package query

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/config"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/document"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/entrystore"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/indexing"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/intern"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/parser"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/resolver"
	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// openDoc indexes source as an open buffer through the same coordinator
// path the LSP server uses for didOpen, so doc.ScopeRoot/doc.Locals are
// populated exactly the way Completion/Definition expect.
func openDoc(t *testing.T, source string) (*document.Document, *Projector) {
	t.Helper()
	par, err := parser.New()
	require.NoError(t, err)

	store := entrystore.New()
	in := intern.New()
	docs := document.NewCache()
	cfg := config.Default()
	coord := indexing.New(cfg, store, in, par, docs)

	handle := types.FileHandle(1)
	doc := docs.Open("file:///widget.rb", handle, 1, []byte(source))
	require.NoError(t, coord.IndexDocument(context.Background(), doc))

	res := resolver.New(store, in)
	proj := New(store, in, res, par)
	return doc, proj
}

func offsetOf(source, marker string) uint32 {
	i := strings.Index(source, marker)
	if i < 0 {
		return 0
	}
	return uint32(i)
}

// Scenario: a bare method call at the cursor resolves to its class's own
// definition, and textDocument/definition returns that location.
func TestDefinition_ResolvesBareMethodCallWithinOwnClass(t *testing.T) {
	src := `
class Widget
  def build
  end

  def make
    build
  end
end
`
	doc, proj := openDoc(t, src)
	offset := offsetOf(src, "build\n  end\nend")
	locs := proj.Definition(doc, offset)
	require.Len(t, locs, 1)
}

// Scenario: qualified constant completion (§8 "OuterB::Inner... returns
// both InnerB1 and InnerB2") — constants defined directly under an
// enclosing namespace are completion candidates from any point lexically
// nested inside it, ranked by prefix match.
func TestCompletion_ListsConstantsUnderEnclosingNamespaceByPrefix(t *testing.T) {
	src := `
module OuterB
  InnerB1 = 1
  InnerB2 = 2
  Other = 3

  class Widget
    def go
      In
    end
  end
end
`
	doc, proj := openDoc(t, src)
	offset := offsetOf(src, "In\n    end\n  end\nend")

	items := proj.Completion(doc, offset, "In")
	var labels []string
	for _, it := range items {
		labels = append(labels, it.Label)
	}
	assert.Contains(t, labels, "InnerB1")
	assert.Contains(t, labels, "InnerB2")
	assert.NotContains(t, labels, "Other", "a non-matching sibling constant must not appear")
}

// Scenario: completion on an unqualified identifier inside a class body
// surfaces that class's own methods, ranked by prefix match before
// subsequence match.
func TestCompletion_PrefixMatchRanksBeforeSubsequenceMatch(t *testing.T) {
	src := `
class Widget
  def build
  end

  def rebuild
  end

  def make
    b
  end
end
`
	doc, proj := openDoc(t, src)
	offset := offsetOf(src, "b\n  end\nend")

	items := proj.Completion(doc, offset, "b")
	require.NotEmpty(t, items)
	assert.Equal(t, "build", items[0].Label, "exact-prefix match must rank before rebuild's subsequence match")
}
