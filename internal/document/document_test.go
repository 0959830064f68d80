package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

func TestCache_OpenGetClose(t *testing.T) {
	c := NewCache()

	doc := c.Open("file:///a.rb", types.FileHandle(1), 1, []byte("x = 1\n"))
	require.NotNil(t, doc)
	assert.Equal(t, int32(1), doc.Version)
	assert.Equal(t, 1, c.Len())

	got, ok := c.Get("file:///a.rb")
	require.True(t, ok)
	assert.Same(t, doc, got)

	c.Close("file:///a.rb")
	_, ok = c.Get("file:///a.rb")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCache_UpdateBumpsVersionAndClearsDerivedState(t *testing.T) {
	c := NewCache()
	doc := c.Open("file:///a.rb", types.FileHandle(1), 1, []byte("x = 1\n"))
	doc.ScopeRoot = "placeholder"
	doc.Locals = []types.Entry{{}}

	updated := c.Update("file:///a.rb", 2, []byte("x = 2\n"))
	require.NotNil(t, updated)
	assert.Equal(t, int32(2), updated.Version)
	assert.Nil(t, updated.ScopeRoot, "Update must invalidate the previous index's scope tree")
	assert.Nil(t, updated.Locals, "Update must invalidate the previous index's local entries")
}

func TestCache_UpdateUnknownURIReturnsNil(t *testing.T) {
	c := NewCache()
	assert.Nil(t, c.Update("file:///missing.rb", 1, []byte("")))
}
