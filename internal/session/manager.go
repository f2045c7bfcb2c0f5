package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cliplink/cliplink/internal/metrics"
	"github.com/cliplink/cliplink/internal/model"
)

// AnonymousSessionID is the sentinel id used when session tracking is
// disabled. The sentinel session is never persisted.
const AnonymousSessionID = "anonymous"

// ClientMeta is the client context attached to newly created sessions.
type ClientMeta struct {
	UserAgent  string
	IPAddress  string
	DeviceInfo string
}

// Config tunes the session manager.
type Config struct {
	// Timeout is the inactivity window after which a session expires.
	Timeout time.Duration
	// SweepInterval is how often expired sessions are removed.
	SweepInterval time.Duration
	// Anonymous disables per-client sessions entirely.
	Anonymous bool
}

// Manager owns the session map: every mutation goes through it, and
// callers only ever see sessions it hands out.
type Manager struct {
	store   Store
	cfg     Config
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time

	mu       sync.Mutex
	sentinel *model.Session

	stop chan struct{}
	done chan struct{}
}

// NewManager creates a session manager over the given store.
func NewManager(store Store, cfg Config, logger *slog.Logger, recorder metrics.Recorder) *Manager {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	m := &Manager{
		store:   store,
		cfg:     cfg,
		logger:  logger.With("component", "session.manager"),
		metrics: recorder,
		now:     time.Now,
	}
	m.sentinel = m.newSession(AnonymousSessionID, ClientMeta{})
	return m
}

// Get returns the live session for the id, creating a fresh one when
// the id is empty, unknown, or expired. Last activity is refreshed on
// every return.
func (m *Manager) Get(ctx context.Context, id string, meta ClientMeta) (*model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	if m.cfg.Anonymous {
		m.sentinel.Metadata.LastActivity = now
		return m.sentinel, nil
	}

	if id != "" {
		sess, ok, err := m.store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			if !sess.Expired(now.Add(-m.cfg.Timeout)) {
				sess.Metadata.LastActivity = now
				if err := m.store.Put(ctx, sess); err != nil {
					return nil, err
				}
				return sess, nil
			}
			// Expired: discard and fall through to a fresh session.
			if err := m.store.Delete(ctx, id); err != nil {
				m.logger.Warn("failed to delete expired session", "session_id", id, "error", err)
			}
			m.metrics.AddSessionsExpired(1)
		}
	}

	sess := m.newSession(NewID(now), meta)
	if err := m.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	m.metrics.IncSessionCreated()
	m.logger.Debug("session created", "session_id", sess.ID)
	return sess, nil
}

// Track appends the deep link to the session and folds its parameters
// into the session context: shop/barber params update the current
// selection, payment links set the pending payment, and every link's
// URL lands in the navigation history.
func (m *Manager) Track(ctx context.Context, sessionID string, dl *model.DeepLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	var sess *model.Session
	if m.cfg.Anonymous || sessionID == AnonymousSessionID {
		sess = m.sentinel
	} else {
		stored, ok, err := m.store.Get(ctx, sessionID)
		if err != nil {
			return err
		}
		if !ok {
			// The session vanished between Get and Track (sweep or store
			// eviction); recreate it so the link is not lost.
			stored = m.newSession(sessionID, ClientMeta{})
		}
		sess = stored
	}

	sess.DeepLinks = append(sess.DeepLinks, dl)
	sess.Metadata.LastActivity = now

	if shop := dl.Params.Get("shop"); shop != "" {
		sess.Context.CurrentShop = shop
	}
	if barber := dl.Params.Get("barber"); barber != "" {
		sess.Context.CurrentBarber = barber
	}
	if dl.Action == model.ActionPayment {
		sess.Context.PendingPayment = dl.OriginalURL
	}
	sess.Context.NavigationHistory = append(sess.Context.NavigationHistory, dl.OriginalURL)

	if sess == m.sentinel {
		return nil
	}
	return m.store.Put(ctx, sess)
}

// Stats reports session counts, re-evaluating expiry at call time.
func (m *Manager) Stats(ctx context.Context) (Stats, error) {
	return m.store.Stats(ctx, m.now().Add(-m.cfg.Timeout))
}

// Timeout returns the configured inactivity window.
func (m *Manager) Timeout() time.Duration {
	return m.cfg.Timeout
}

// Start launches the periodic sweep of expired sessions.
func (m *Manager) Start() {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})
	go m.sweepLoop()
}

// Shutdown stops the sweep loop.
func (m *Manager) Shutdown(ctx context.Context) error {
	if m.stop == nil {
		return nil
	}
	close(m.stop)
	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) sweepLoop() {
	defer close(m.done)
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			removed, err := m.store.Sweep(ctx, m.now().Add(-m.cfg.Timeout))
			cancel()
			if err != nil {
				m.logger.Warn("session sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				m.metrics.AddSessionsExpired(removed)
				m.logger.Debug("session sweep", "removed", removed)
			}
		}
	}
}

func (m *Manager) newSession(id string, meta ClientMeta) *model.Session {
	now := m.now()
	return &model.Session{
		ID: id,
		Metadata: model.SessionMetadata{
			CreatedAt:    now,
			LastActivity: now,
			UserAgent:    meta.UserAgent,
			IPAddress:    meta.IPAddress,
			DeviceInfo:   meta.DeviceInfo,
		},
		Context: model.SessionContext{NavigationHistory: []string{}},
	}
}
