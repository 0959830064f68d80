package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

func TestIndexingError_WithFileAndRecoverable(t *testing.T) {
	underlying := errors.New("disk read failed")
	err := NewIndexingError("extract", underlying).
		WithFile(types.FileHandle(3), "app/models/user.rb").
		WithRecoverable(true)

	assert.Contains(t, err.Error(), "app/models/user.rb")
	assert.Contains(t, err.Error(), "extract")
	assert.True(t, err.Recoverable)
	assert.ErrorIs(t, err, underlying)
}

func TestIndexingError_WithoutFile(t *testing.T) {
	err := NewIndexingError("extract", errors.New("boom"))
	assert.NotContains(t, err.Error(), "for ")
}

func TestParseError_Error(t *testing.T) {
	r := types.Range{Start: types.Position{Line: 4, Character: 2}}
	err := NewParseError(types.FileHandle(1), "a.rb", r, "unexpected end")

	assert.Contains(t, err.Error(), "a.rb:4:2")
	assert.Contains(t, err.Error(), "unexpected end")
}

func TestProtocolError_Error(t *testing.T) {
	err := &ProtocolError{Method: "textDocument/bogus", Code: -32601, Message: "method not found"}
	assert.Contains(t, err.Error(), "textDocument/bogus")
	assert.Contains(t, err.Error(), "-32601")
}

func TestConfigError_Unwrap(t *testing.T) {
	underlying := errors.New("no such file")
	err := &ConfigError{Path: "/tmp/x.toml", Underlying: underlying}

	assert.ErrorIs(t, err, underlying)
	assert.Contains(t, err.Error(), "/tmp/x.toml")
}
