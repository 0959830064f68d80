package lsp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelKey(t *testing.T) {
	assert.Equal(t, "abc", cancelKey("abc"))
	assert.Equal(t, "42", cancelKey(float64(42)))
	assert.Equal(t, "", cancelKey(nil))
}

func TestCancelRegistry_CancelInvokesRegisteredFunc(t *testing.T) {
	r := newCancelRegistry()

	_, cancel := context.WithCancel(context.Background())
	called := false
	r.register("1", func() { called = true; cancel() })

	r.cancel("1")
	assert.True(t, called)
}

func TestCancelRegistry_CancelUnknownIDIsNoop(t *testing.T) {
	r := newCancelRegistry()
	assert.NotPanics(t, func() { r.cancel("missing") })
}

func TestCancelRegistry_UnregisterRemovesEntry(t *testing.T) {
	r := newCancelRegistry()
	called := false
	r.register("1", func() { called = true })
	r.unregister("1")

	r.cancel("1")
	assert.False(t, called, "cancel after unregister must not invoke the stale func")
}
