package model

import "time"

// RecordMetadata captures the client context of one dispatch attempt.
type RecordMetadata struct {
	UserAgent  string `json:"userAgent,omitempty"`
	IPAddress  string `json:"ipAddress,omitempty"`
	Referrer   string `json:"referrer,omitempty"`
	DeviceInfo string `json:"deviceInfo,omitempty"`
}

// AnalyticsRecord is a persisted, immutable log entry describing one
// dispatch attempt. Exactly one of Result and Error is set.
type AnalyticsRecord struct {
	ID           string         `json:"id"`
	DeepLink     *DeepLink      `json:"deepLink"`
	SessionID    string         `json:"sessionId"`
	Timestamp    time.Time      `json:"timestamp"`
	ProcessingMS float64        `json:"processingTime"`
	Result       *Result        `json:"result,omitempty"`
	Error        string         `json:"error,omitempty"`
	Metadata     RecordMetadata `json:"metadata"`
}

// Succeeded reports whether the dispatch this record describes succeeded.
func (r *AnalyticsRecord) Succeeded() bool {
	return r.Error == ""
}
