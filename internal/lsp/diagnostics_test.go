package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rajnaveen344/ruby-fast-lsp-sub009/internal/types"
)

// isDiagnosable decides which reference kinds ever carry a meaningful
// Unresolved() state against the entry store; locals resolve lexically and
// must never surface as "unresolved reference" diagnostics (§8 scenario 6
// is about an unresolved *constant*, not every local variable read).
func TestIsDiagnosable_ExcludesLocalReadsAndWrites(t *testing.T) {
	assert.True(t, isDiagnosable(types.RefConstantRead))
	assert.True(t, isDiagnosable(types.RefConstantWrite))
	assert.True(t, isDiagnosable(types.RefMethodCall))
	assert.True(t, isDiagnosable(types.RefMixinUse))
	assert.False(t, isDiagnosable(types.RefLocalRead))
	assert.False(t, isDiagnosable(types.RefLocalWrite))
}
