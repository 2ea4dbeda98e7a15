package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	requestLatency map[string]time.Duration
	errorCount     map[string]int64
	transitions    map[string]int64
	routing        map[string]int64
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Requests         map[string]int64 `json:"requests"`
	AvgLatencyMillis map[string]int64 `json:"avg_latency_ms"`
	Errors           map[string]int64 `json:"errors"`
	Transitions      map[string]int64 `json:"transitions"`
	RoutingOutcomes  map[string]int64 `json:"routing_outcomes"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:   make(map[string]int64),
		requestLatency: make(map[string]time.Duration),
		errorCount:     make(map[string]int64),
		transitions:    make(map[string]int64),
		routing:        make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestLatency[key] += duration
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordTransition counts a committed status change.
func (m *Metrics) RecordTransition(from, to string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[from+"->"+to]++
}

// RecordRouting counts routing outcomes such as "routed", "fallback" or
// "no_department".
func (m *Metrics) RecordRouting(outcome string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routing[outcome]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := Snapshot{
		Requests:         copyCounts(m.requestCount),
		AvgLatencyMillis: make(map[string]int64, len(m.requestLatency)),
		Errors:           copyCounts(m.errorCount),
		Transitions:      copyCounts(m.transitions),
		RoutingOutcomes:  copyCounts(m.routing),
	}
	for key, total := range m.requestLatency {
		if n := m.requestCount[key]; n > 0 {
			snap.AvgLatencyMillis[key] = total.Milliseconds() / n
		}
	}
	return snap
}

func copyCounts(src map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
