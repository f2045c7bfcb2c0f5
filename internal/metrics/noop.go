package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncParse is a no-op.
func (n *NoopRecorder) IncParse(outcome string) {}

// IncDispatch is a no-op.
func (n *NoopRecorder) IncDispatch(action, outcome string) {}

// ObserveDispatchDuration is a no-op.
func (n *NoopRecorder) ObserveDispatchDuration(duration time.Duration) {}

// IncRateLimited is a no-op.
func (n *NoopRecorder) IncRateLimited() {}

// IncSessionCreated is a no-op.
func (n *NoopRecorder) IncSessionCreated() {}

// AddSessionsExpired is a no-op.
func (n *NoopRecorder) AddSessionsExpired(count int) {}

// IncDocsCacheHit is a no-op.
func (n *NoopRecorder) IncDocsCacheHit() {}

// IncDocsCacheMiss is a no-op.
func (n *NoopRecorder) IncDocsCacheMiss() {}

// IncDocsFetchError is a no-op.
func (n *NoopRecorder) IncDocsFetchError() {}

// IncAnalyticsQueued is a no-op.
func (n *NoopRecorder) IncAnalyticsQueued(status string) {}

// IncAnalyticsPersisted is a no-op.
func (n *NoopRecorder) IncAnalyticsPersisted(status string) {}
