// Package metrics tracks per-method request counts, timings, and memory
// usage for the running server, grounded on the teacher's
// internal/mcp.ProfilingMetrics: the same histogram-bucketed latency/error
// tracking and periodic memory sampling, generalized here from the
// teacher's three fixed MCP operation kinds to an arbitrary LSP method name
// since §6 names over a dozen request methods rather than three tool calls.
package metrics

import (
	"runtime"
	"sync"
	"time"
)

type methodStats struct {
	Count      int64
	ErrorCount int64
	TotalTime  time.Duration
	Latency    map[string]int64
}

func newMethodStats() *methodStats {
	return &methodStats{Latency: map[string]int64{
		"<10ms": 0, "10-50ms": 0, "50-100ms": 0, "100-500ms": 0, ">500ms": 0,
	}}
}

// Registry tracks metrics for every LSP method the dispatcher serves, plus
// process-wide memory usage sampled on demand (§9: "a metrics package
// separate from logging, since counters are read by a status command while
// logs are written append-only").
type Registry struct {
	mu      sync.RWMutex
	methods map[string]*methodStats

	peakMemory    uint64
	currentMemory uint64
}

func NewRegistry() *Registry {
	return &Registry{methods: make(map[string]*methodStats)}
}

// Record adds one observation for method: how long it took and whether it
// returned an error. Call via a deferred closure around each dispatch.
func (r *Registry) Record(method string, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.methods[method]
	if !ok {
		st = newMethodStats()
		r.methods[method] = st
	}
	st.Count++
	st.TotalTime += d
	if err != nil {
		st.ErrorCount++
	}
	switch {
	case d < 10*time.Millisecond:
		st.Latency["<10ms"]++
	case d < 50*time.Millisecond:
		st.Latency["10-50ms"]++
	case d < 100*time.Millisecond:
		st.Latency["50-100ms"]++
	case d < 500*time.Millisecond:
		st.Latency["100-500ms"]++
	default:
		st.Latency[">500ms"]++
	}
}

// SampleMemory updates the current/peak memory gauges from runtime.MemStats.
// Nothing in the server calls it; the gauges change only when a caller
// samples explicitly.
func (r *Registry) SampleMemory() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.currentMemory = m.Alloc
	if m.Alloc > r.peakMemory {
		r.peakMemory = m.Alloc
	}
}

// MethodSnapshot is one method's counters at the time Snapshot was called.
type MethodSnapshot struct {
	Method       string
	Count        int64
	ErrorCount   int64
	AverageTime  time.Duration
	LatencyHisto map[string]int64
}

// Snapshot is the full registry state at one instant.
type Snapshot struct {
	Methods       []MethodSnapshot
	CurrentMemory uint64
	PeakMemory    uint64
}

func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := Snapshot{CurrentMemory: r.currentMemory, PeakMemory: r.peakMemory}
	for method, st := range r.methods {
		avg := time.Duration(0)
		if st.Count > 0 {
			avg = st.TotalTime / time.Duration(st.Count)
		}
		histo := make(map[string]int64, len(st.Latency))
		for k, v := range st.Latency {
			histo[k] = v
		}
		out.Methods = append(out.Methods, MethodSnapshot{
			Method:       method,
			Count:        st.Count,
			ErrorCount:   st.ErrorCount,
			AverageTime:  avg,
			LatencyHisto: histo,
		})
	}
	return out
}
