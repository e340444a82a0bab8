package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

type opStats struct {
	started, running, failed atomic.Uint64
}

// Metrics holds process-wide counters served at /metrics.
type Metrics struct {
	requests, inFlight, failed, throttled atomic.Uint64

	mu      sync.Mutex
	ops     map[string]*opStats
	exports map[string]*atomic.Uint64
	start   time.Time
}

var globalMetrics = newMetrics()

func newMetrics() *Metrics {
	return &Metrics{ops: map[string]*opStats{}, exports: map[string]*atomic.Uint64{}, start: time.Now()}
}

func (m *Metrics) op(name string) *opStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.ops[name]
	if !ok {
		s = &opStats{}
		m.ops[name] = s
	}
	return s
}

// TrackOperation counts a background run (analyze, run-all, run-single).
// Call the returned func with the run's error when it finishes.
func TrackOperation(name string) func(error) {
	s := globalMetrics.op(name)
	s.started.Add(1)
	s.running.Add(1)
	return func(err error) {
		s.running.Add(^uint64(0))
		if err != nil {
			s.failed.Add(1)
		}
	}
}

// CountExport records one served report download.
func CountExport(variant string) {
	m := globalMetrics
	m.mu.Lock()
	c, ok := m.exports[variant]
	if !ok {
		c = new(atomic.Uint64)
		m.exports[variant] = c
	}
	m.mu.Unlock()
	c.Add(1)
}

func countThrottled() { globalMetrics.throttled.Add(1) }

type OperationStats struct {
	Started uint64 `json:"started"`
	Running uint64 `json:"running"`
	Failed  uint64 `json:"failed"`
}

type Snapshot struct {
	Requests struct {
		Total     uint64 `json:"total"`
		InFlight  uint64 `json:"in_flight"`
		Failed    uint64 `json:"failed"`
		Throttled uint64 `json:"throttled"`
	} `json:"requests"`
	Operations    map[string]OperationStats `json:"operations"`
	Exports       map[string]uint64         `json:"exports"`
	UptimeSeconds float64                   `json:"uptime_seconds"`
	Goroutines    int                       `json:"goroutines"`
	HeapBytes     uint64                    `json:"heap_bytes"`
	NumGC         uint32                    `json:"num_gc"`
}

// CurrentMetrics copies the counters.
func CurrentMetrics() Snapshot {
	m := globalMetrics
	var s Snapshot
	s.Requests.Total = m.requests.Load()
	s.Requests.InFlight = m.inFlight.Load()
	s.Requests.Failed = m.failed.Load()
	s.Requests.Throttled = m.throttled.Load()

	m.mu.Lock()
	s.Operations = make(map[string]OperationStats, len(m.ops))
	for name, o := range m.ops {
		s.Operations[name] = OperationStats{Started: o.started.Load(), Running: o.running.Load(), Failed: o.failed.Load()}
	}
	s.Exports = make(map[string]uint64, len(m.exports))
	for v, c := range m.exports {
		s.Exports[v] = c.Load()
	}
	m.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	s.UptimeSeconds = time.Since(m.start).Seconds()
	s.Goroutines = runtime.NumGoroutine()
	s.HeapBytes = mem.HeapAlloc
	s.NumGC = mem.NumGC
	return s
}

// MetricsMiddleware counts requests; 4xx and 5xx count as failed.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := globalMetrics
		m.requests.Add(1)
		m.inFlight.Add(1)
		defer m.inFlight.Add(^uint64(0))

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		if wrapped.statusCode >= 400 {
			m.failed.Add(1)
		}
	})
}

func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(CurrentMetrics())
}
