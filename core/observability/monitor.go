// Package observability records per-route request metrics for the serve
// loop.
package observability

import (
	"sync"
	"sync/atomic"
	"time"
)

// Monitor aggregates request counts and latencies, globally and per route
// path. Recording is lock-free on the hot path.
type Monitor struct {
	enabled atomic.Bool
	routes  sync.Map // path -> *RouteMetrics

	global struct {
		requests      atomic.Uint64
		errors        atomic.Uint64
		totalDuration atomic.Uint64
	}
}

// RouteMetrics stores per-path metrics.
type RouteMetrics struct {
	Path          string
	Count         atomic.Uint64
	Errors        atomic.Uint64
	TotalDuration atomic.Uint64
}

// NewMonitor creates an enabled monitor.
func NewMonitor() *Monitor {
	m := &Monitor{}
	m.enabled.Store(true)
	return m
}

// SetEnabled toggles recording.
func (m *Monitor) SetEnabled(enabled bool) {
	m.enabled.Store(enabled)
}

// Record logs one request-response cycle. isError marks 5xx responses.
func (m *Monitor) Record(path string, duration time.Duration, isError bool) {
	if !m.enabled.Load() {
		return
	}

	val, _ := m.routes.LoadOrStore(path, &RouteMetrics{Path: path})
	metrics := val.(*RouteMetrics)

	metrics.Count.Add(1)
	metrics.TotalDuration.Add(uint64(duration.Nanoseconds()))
	m.global.requests.Add(1)
	m.global.totalDuration.Add(uint64(duration.Nanoseconds()))

	if isError {
		metrics.Errors.Add(1)
		m.global.errors.Add(1)
	}
}

// Snapshot is a point-in-time view of the global counters.
type Snapshot struct {
	Requests   uint64
	Errors     uint64
	AvgLatency time.Duration
}

// Snapshot returns the global counters.
func (m *Monitor) Snapshot() Snapshot {
	s := Snapshot{
		Requests: m.global.requests.Load(),
		Errors:   m.global.errors.Load(),
	}
	if s.Requests > 0 {
		s.AvgLatency = time.Duration(m.global.totalDuration.Load() / s.Requests)
	}
	return s
}

// Routes calls fn for every recorded path.
func (m *Monitor) Routes(fn func(*RouteMetrics)) {
	m.routes.Range(func(_, val any) bool {
		fn(val.(*RouteMetrics))
		return true
	})
}
