// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the engine.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Pipeline metrics
	IncParse(outcome string) // outcome: "ok" or "error"
	IncDispatch(action, outcome string)
	ObserveDispatchDuration(duration time.Duration)
	IncRateLimited()

	// Session lifecycle metrics
	IncSessionCreated()
	AddSessionsExpired(n int)

	// Documentation cache metrics
	IncDocsCacheHit()
	IncDocsCacheMiss()
	IncDocsFetchError()

	// Analytics pipeline metrics
	IncAnalyticsQueued(status string)    // status: "queued" or "dropped"
	IncAnalyticsPersisted(status string) // status: "success" or "failed"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
