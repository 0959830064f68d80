package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RecordAccumulatesPerMethod(t *testing.T) {
	r := NewRegistry()

	r.Record("textDocument/definition", 5*time.Millisecond, nil)
	r.Record("textDocument/definition", 20*time.Millisecond, nil)
	r.Record("textDocument/definition", 5*time.Millisecond, errors.New("boom"))
	r.Record("textDocument/completion", 1*time.Millisecond, nil)

	snap := r.Snapshot()
	require.Len(t, snap.Methods, 2)

	var def *MethodSnapshot
	for i := range snap.Methods {
		if snap.Methods[i].Method == "textDocument/definition" {
			def = &snap.Methods[i]
		}
	}
	require.NotNil(t, def)
	assert.Equal(t, int64(3), def.Count)
	assert.Equal(t, int64(1), def.ErrorCount)
	assert.Equal(t, int64(2), def.LatencyHisto["<10ms"])
	assert.Equal(t, int64(1), def.LatencyHisto["10-50ms"])
}

func TestRegistry_SnapshotIsASnapshotNotALiveView(t *testing.T) {
	r := NewRegistry()
	r.Record("foo", time.Millisecond, nil)

	snap := r.Snapshot()
	r.Record("foo", time.Millisecond, nil)

	assert.Equal(t, int64(1), snap.Methods[0].Count, "a prior Snapshot must not observe later Record calls")
}

func TestRegistry_SampleMemoryUpdatesGauges(t *testing.T) {
	r := NewRegistry()
	r.SampleMemory()

	snap := r.Snapshot()
	assert.GreaterOrEqual(t, snap.PeakMemory, snap.CurrentMemory)
}
