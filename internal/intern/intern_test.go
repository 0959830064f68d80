package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testHandle uint32

func TestTable_InternDeduplicates(t *testing.T) {
	tbl := NewTable[testHandle]()

	h1 := tbl.Intern("Foo")
	h2 := tbl.Intern("Bar")
	h3 := tbl.Intern("Foo")

	assert.Equal(t, h1, h3, "interning the same string twice must return the same handle")
	assert.NotEqual(t, h1, h2)
	assert.Equal(t, 2, tbl.Len())
}

func TestTable_ZeroHandleReserved(t *testing.T) {
	tbl := NewTable[testHandle]()

	h := tbl.Intern("first")
	assert.NotEqual(t, testHandle(0), h, "handle 0 is reserved as the unset sentinel")

	_, ok := tbl.Resolve(0)
	assert.False(t, ok)
}

func TestTable_Resolve(t *testing.T) {
	tbl := NewTable[testHandle]()

	h := tbl.Intern("Enumerable")
	s, ok := tbl.Resolve(h)
	require.True(t, ok)
	assert.Equal(t, "Enumerable", s)

	_, ok = tbl.Resolve(testHandle(999))
	assert.False(t, ok, "resolving an out-of-range handle must fail rather than panic")
}

func TestTable_MustResolveDegradesGracefully(t *testing.T) {
	tbl := NewTable[testHandle]()
	assert.Equal(t, "", tbl.MustResolve(testHandle(999)))
}

func TestTable_LookupDoesNotIntern(t *testing.T) {
	tbl := NewTable[testHandle]()

	_, ok := tbl.Lookup("missing")
	assert.False(t, ok)
	assert.Equal(t, 0, tbl.Len(), "Lookup must not grow the table")

	tbl.Intern("present")
	h, ok := tbl.Lookup("present")
	require.True(t, ok)
	assert.Equal(t, testHandle(1), h)
}

func TestTable_Concurrent(t *testing.T) {
	tbl := NewTable[testHandle]()
	done := make(chan testHandle, 100)

	for i := 0; i < 100; i++ {
		go func() {
			done <- tbl.Intern("shared")
		}()
	}

	first := <-done
	for i := 1; i < 100; i++ {
		assert.Equal(t, first, <-done, "concurrent Intern of the same string must agree on one handle")
	}
}
