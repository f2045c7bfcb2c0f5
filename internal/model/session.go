package model

import "time"

// SessionMetadata describes where a session originated and when it was
// last touched.
type SessionMetadata struct {
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	UserAgent    string    `json:"userAgent,omitempty"`
	IPAddress    string    `json:"ipAddress,omitempty"`
	DeviceInfo   string    `json:"deviceInfo,omitempty"`
}

// SessionContext accumulates navigation state across the deep links of
// one session.
type SessionContext struct {
	CurrentShop       string   `json:"currentShop,omitempty"`
	CurrentBarber     string   `json:"currentBarber,omitempty"`
	PendingPayment    string   `json:"pendingPayment,omitempty"`
	NavigationHistory []string `json:"navigationHistory"`
}

// Session correlates a sequence of deep-link calls from the same client.
// It is exclusively owned by the session manager; callers receive a
// read/append view through the manager's methods.
type Session struct {
	ID        string          `json:"id"`
	DeepLinks []*DeepLink     `json:"deepLinks"`
	Metadata  SessionMetadata `json:"metadata"`
	Context   SessionContext  `json:"context"`
}

// Expired reports whether the session's last activity predates the cutoff.
func (s *Session) Expired(cutoff time.Time) bool {
	return s.Metadata.LastActivity.Before(cutoff)
}
