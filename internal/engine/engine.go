package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/cliplink/cliplink/internal/analytics"
	"github.com/cliplink/cliplink/internal/deeplink"
	"github.com/cliplink/cliplink/internal/docs"
	"github.com/cliplink/cliplink/internal/metrics"
	"github.com/cliplink/cliplink/internal/model"
	"github.com/cliplink/cliplink/internal/ratelimit"
	"github.com/cliplink/cliplink/internal/session"
)

// Documentation looks up best-effort help content for a link. A nil
// page means none is available.
type Documentation interface {
	ForDeepLink(ctx context.Context, dl *model.DeepLink) *model.WikiPage
}

// Request is one deep-link resolution call.
type Request struct {
	URL       string
	SessionID string
	Meta      session.ClientMeta
	Referrer  string
}

// Resolution is the composite outcome of a resolved deep link.
type Resolution struct {
	DeepLink      *model.DeepLink `json:"deepLink"`
	Result        *model.Result   `json:"result"`
	SessionID     string          `json:"sessionId"`
	Documentation *model.WikiPage `json:"documentation,omitempty"`
	AnalyticsID   string          `json:"analyticsId"`
}

// Engine is the composition root: it threads a raw URL through
// parsing, validation, rate limiting, session tracking, documentation
// lookup, dispatch and analytics capture.
type Engine struct {
	scheme     string
	dispatcher *Dispatcher
	limiter    ratelimit.Limiter
	sessions   *session.Manager
	docs       Documentation
	pipeline   *analytics.Pipeline
	logger     *slog.Logger
	metrics    metrics.Recorder
	now        func() time.Time
}

// New creates an engine. All collaborators are required; pass a
// documentation cache backed by a failing fetcher rather than nil to
// disable enrichment.
func New(scheme string, dispatcher *Dispatcher, limiter ratelimit.Limiter, sessions *session.Manager, documentation Documentation, pipeline *analytics.Pipeline, logger *slog.Logger, recorder metrics.Recorder) *Engine {
	if scheme == "" {
		scheme = deeplink.DefaultScheme
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Engine{
		scheme:     scheme,
		dispatcher: dispatcher,
		limiter:    limiter,
		sessions:   sessions,
		docs:       documentation,
		pipeline:   pipeline,
		logger:     logger.With("component", "engine"),
		metrics:    recorder,
		now:        time.Now,
	}
}

// Resolve runs the full pipeline for one raw deep-link URL.
//
// Parse, validation and rate-limit failures return before any handler
// side effect. Session and documentation failures degrade gracefully.
// Dispatch failures are recorded to analytics and then returned.
func (e *Engine) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	dl, err := deeplink.Parse(req.URL, e.scheme)
	if err != nil {
		e.metrics.IncParse("error")
		return nil, err
	}
	e.metrics.IncParse("ok")

	params, err := deeplink.ValidateForAction(dl)
	if err != nil {
		return nil, err
	}

	decision, err := e.limiter.Allow(ctx, e.identifier(req))
	if err != nil {
		// Limiter backends fail open; an error here is unexpected.
		e.logger.Warn("rate limiter error", "error", err)
		decision.Allowed = true
	}
	if !decision.Allowed {
		e.metrics.IncRateLimited()
		return nil, &ratelimit.LimitError{Identifier: e.identifier(req), RetryAfter: decision.RetryAfter}
	}

	sessionID := e.trackSession(ctx, req, dl)

	doc := e.docs.ForDeepLink(ctx, dl)

	start := e.now()
	result, dispatchErr := e.dispatcher.Dispatch(ctx, dl, params)
	e.metrics.ObserveDispatchDuration(e.now().Sub(start))

	outcome := "success"
	if dispatchErr != nil {
		outcome = "error"
	}
	e.metrics.IncDispatch(string(dl.Action), outcome)

	rec := e.pipeline.Record(dl, sessionID, model.RecordMetadata{
		UserAgent:  req.Meta.UserAgent,
		IPAddress:  req.Meta.IPAddress,
		Referrer:   req.Referrer,
		DeviceInfo: req.Meta.DeviceInfo,
	}, start, result, dispatchErr)

	if dispatchErr != nil {
		return nil, dispatchErr
	}

	return &Resolution{
		DeepLink:      dl,
		Result:        result,
		SessionID:     sessionID,
		Documentation: doc,
		AnalyticsID:   rec.ID,
	}, nil
}

// Sessions exposes the session manager for the host's stats surface.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Analytics exposes the pipeline for the host's summary surface.
func (e *Engine) Analytics() *analytics.Pipeline {
	return e.pipeline
}

// identifier picks the rate-limit key: session id when present,
// client address otherwise.
func (e *Engine) identifier(req Request) string {
	if req.SessionID != "" {
		return req.SessionID
	}
	if req.Meta.IPAddress != "" {
		return req.Meta.IPAddress
	}
	return session.AnonymousSessionID
}

// trackSession resolves the session and appends the link to it.
// Failures here never abort the call.
func (e *Engine) trackSession(ctx context.Context, req Request, dl *model.DeepLink) string {
	sess, err := e.sessions.Get(ctx, req.SessionID, req.Meta)
	if err != nil {
		e.logger.Warn("session lookup failed", "session_id", req.SessionID, "error", err)
		return session.AnonymousSessionID
	}
	if err := e.sessions.Track(ctx, sess.ID, dl); err != nil {
		e.logger.Warn("session tracking failed", "session_id", sess.ID, "error", err)
	}
	return sess.ID
}

var _ Documentation = (*docs.Cache)(nil)
