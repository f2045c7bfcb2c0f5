package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ParseOK                 uint64            `json:"parse_ok"`
	ParseErrors             uint64            `json:"parse_errors"`
	Dispatches              map[string]uint64 `json:"dispatches"` // "action/outcome" -> count
	DispatchDurationCount   uint64            `json:"dispatch_duration_count"`
	DispatchDurationTotalNs int64             `json:"dispatch_duration_total_ns"`
	RateLimited             uint64            `json:"rate_limited"`
	SessionsCreated         uint64            `json:"sessions_created"`
	SessionsExpired         uint64            `json:"sessions_expired"`
	DocsCacheHits           uint64            `json:"docs_cache_hits"`
	DocsCacheMisses         uint64            `json:"docs_cache_misses"`
	DocsFetchErrors         uint64            `json:"docs_fetch_errors"`
	AnalyticsQueued         uint64            `json:"analytics_queued"`
	AnalyticsDropped        uint64            `json:"analytics_dropped"`
	AnalyticsPersisted      uint64            `json:"analytics_persisted"`
	AnalyticsPersistFailed  uint64            `json:"analytics_persist_failed"`
}

// InMemoryRecorder stores metrics in memory for tests and the
// development snapshot endpoint.
type InMemoryRecorder struct {
	parseOK                 uint64
	parseErrors             uint64
	dispatchDurationCount   uint64
	dispatchDurationTotalNs int64
	rateLimited             uint64
	sessionsCreated         uint64
	sessionsExpired         uint64
	docsCacheHits           uint64
	docsCacheMisses         uint64
	docsFetchErrors         uint64
	analyticsQueued         uint64
	analyticsDropped        uint64
	analyticsPersisted      uint64
	analyticsPersistFailed  uint64

	mu         sync.Mutex
	dispatches map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{dispatches: make(map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	dispatches := make(map[string]uint64, len(m.dispatches))
	for k, v := range m.dispatches {
		dispatches[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		ParseOK:                 atomic.LoadUint64(&m.parseOK),
		ParseErrors:             atomic.LoadUint64(&m.parseErrors),
		Dispatches:              dispatches,
		DispatchDurationCount:   atomic.LoadUint64(&m.dispatchDurationCount),
		DispatchDurationTotalNs: atomic.LoadInt64(&m.dispatchDurationTotalNs),
		RateLimited:             atomic.LoadUint64(&m.rateLimited),
		SessionsCreated:         atomic.LoadUint64(&m.sessionsCreated),
		SessionsExpired:         atomic.LoadUint64(&m.sessionsExpired),
		DocsCacheHits:           atomic.LoadUint64(&m.docsCacheHits),
		DocsCacheMisses:         atomic.LoadUint64(&m.docsCacheMisses),
		DocsFetchErrors:         atomic.LoadUint64(&m.docsFetchErrors),
		AnalyticsQueued:         atomic.LoadUint64(&m.analyticsQueued),
		AnalyticsDropped:        atomic.LoadUint64(&m.analyticsDropped),
		AnalyticsPersisted:      atomic.LoadUint64(&m.analyticsPersisted),
		AnalyticsPersistFailed:  atomic.LoadUint64(&m.analyticsPersistFailed),
	}
}

// IncParse increments the parse counter for the outcome.
func (m *InMemoryRecorder) IncParse(outcome string) {
	if outcome == "ok" {
		atomic.AddUint64(&m.parseOK, 1)
		return
	}
	atomic.AddUint64(&m.parseErrors, 1)
}

// IncDispatch increments the per-action dispatch counter.
func (m *InMemoryRecorder) IncDispatch(action, outcome string) {
	m.mu.Lock()
	m.dispatches[action+"/"+outcome]++
	m.mu.Unlock()
}

// ObserveDispatchDuration records one dispatch duration.
func (m *InMemoryRecorder) ObserveDispatchDuration(duration time.Duration) {
	atomic.AddUint64(&m.dispatchDurationCount, 1)
	atomic.AddInt64(&m.dispatchDurationTotalNs, duration.Nanoseconds())
}

// IncRateLimited increments the rate-limit rejection counter.
func (m *InMemoryRecorder) IncRateLimited() {
	atomic.AddUint64(&m.rateLimited, 1)
}

// IncSessionCreated increments the session creation counter.
func (m *InMemoryRecorder) IncSessionCreated() {
	atomic.AddUint64(&m.sessionsCreated, 1)
}

// AddSessionsExpired adds to the expired-session counter.
func (m *InMemoryRecorder) AddSessionsExpired(count int) {
	if count > 0 {
		atomic.AddUint64(&m.sessionsExpired, uint64(count))
	}
}

// IncDocsCacheHit increments the documentation cache hit counter.
func (m *InMemoryRecorder) IncDocsCacheHit() {
	atomic.AddUint64(&m.docsCacheHits, 1)
}

// IncDocsCacheMiss increments the documentation cache miss counter.
func (m *InMemoryRecorder) IncDocsCacheMiss() {
	atomic.AddUint64(&m.docsCacheMisses, 1)
}

// IncDocsFetchError increments the documentation fetch error counter.
func (m *InMemoryRecorder) IncDocsFetchError() {
	atomic.AddUint64(&m.docsFetchErrors, 1)
}

// IncAnalyticsQueued increments the queued or dropped counter.
func (m *InMemoryRecorder) IncAnalyticsQueued(status string) {
	if status == "queued" {
		atomic.AddUint64(&m.analyticsQueued, 1)
		return
	}
	atomic.AddUint64(&m.analyticsDropped, 1)
}

// IncAnalyticsPersisted increments the persisted or failed counter.
func (m *InMemoryRecorder) IncAnalyticsPersisted(status string) {
	if status == "success" {
		atomic.AddUint64(&m.analyticsPersisted, 1)
		return
	}
	atomic.AddUint64(&m.analyticsPersistFailed, 1)
}
