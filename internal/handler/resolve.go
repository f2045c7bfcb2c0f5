package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/cliplink/cliplink/internal/deeplink"
	"github.com/cliplink/cliplink/internal/engine"
	"github.com/cliplink/cliplink/internal/payment"
	"github.com/cliplink/cliplink/internal/ratelimit"
	"github.com/cliplink/cliplink/internal/session"
)

// SessionCookie carries the session id between resolve calls.
const SessionCookie = "cliplink_session"

// ResolveHandler serves deep-link resolution.
type ResolveHandler struct {
	engine *engine.Engine
	logger *slog.Logger
}

// NewResolveHandler creates a ResolveHandler.
func NewResolveHandler(eng *engine.Engine, logger *slog.Logger) *ResolveHandler {
	return &ResolveHandler{
		engine: eng,
		logger: logger.With("component", "handler.resolve"),
	}
}

// resolveRequest is the POST body for a resolution call.
type resolveRequest struct {
	URL        string `json:"url"`
	SessionID  string `json:"sessionId,omitempty"`
	DeviceInfo string `json:"deviceInfo,omitempty"`
}

// Resolve handles a deep-link resolution request.
//
// POST /api/v1/deeplinks/resolve   {"url": "app://payment?amount=45"}
// GET  /api/v1/deeplinks/resolve?url=app%3A%2F%2Fpayment%3Famount%3D45
//
// The session id is taken from the request body, the X-Session-Id
// header, or the session cookie, in that order. The resolved session id
// is echoed back in both the X-Session-Id header and the cookie.
func (h *ResolveHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var body resolveRequest
	if r.Method == http.MethodGet {
		body.URL = r.URL.Query().Get("url")
		body.SessionID = r.URL.Query().Get("sessionId")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", "request body must be JSON with a url field")
			return
		}
	}
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, "MISSING_URL", "url is required")
		return
	}

	req := engine.Request{
		URL:       body.URL,
		SessionID: h.sessionID(r, body),
		Referrer:  r.Referer(),
		Meta: session.ClientMeta{
			UserAgent:  r.UserAgent(),
			IPAddress:  clientIP(r),
			DeviceInfo: deviceInfo(r, body),
		},
	}

	resolution, err := h.engine.Resolve(r.Context(), req)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}

	h.setSession(w, resolution.SessionID)
	writeJSON(w, http.StatusOK, resolution)
}

// writeResolveError maps the engine's error taxonomy onto HTTP status
// codes.
func (h *ResolveHandler) writeResolveError(w http.ResponseWriter, err error) {
	var (
		parseErr   *deeplink.ParseError
		validErr   *deeplink.ValidationError
		handlerErr *deeplink.HandlerError
		limitErr   *ratelimit.LimitError
		gatewayErr *payment.GatewayError
	)

	switch {
	case errors.As(err, &parseErr):
		writeError(w, http.StatusBadRequest, "PARSE_ERROR", parseErr.Error())
	case errors.As(err, &validErr):
		writeFieldError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", validErr.Error(), validErr.Field)
	case errors.As(err, &handlerErr):
		writeError(w, http.StatusUnprocessableEntity, "HANDLER_ERROR", handlerErr.Error())
	case errors.As(err, &limitErr):
		seconds := int(math.Ceil(limitErr.RetryAfter.Seconds()))
		if seconds < 1 {
			seconds = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(seconds))
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests, retry later")
	case errors.As(err, &gatewayErr):
		h.logger.Error("payment gateway failure", "error", err)
		writeError(w, http.StatusBadGateway, "PAYMENT_GATEWAY_ERROR", "payment could not be created")
	default:
		h.logger.Error("resolve failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func (h *ResolveHandler) sessionID(r *http.Request, body resolveRequest) string {
	if body.SessionID != "" {
		return body.SessionID
	}
	if id := r.Header.Get("X-Session-Id"); id != "" {
		return id
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		return cookie.Value
	}
	return ""
}

func (h *ResolveHandler) setSession(w http.ResponseWriter, id string) {
	if id == "" || id == session.AnonymousSessionID {
		return
	}
	w.Header().Set("X-Session-Id", id)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(h.engine.Sessions().Timeout().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func deviceInfo(r *http.Request, body resolveRequest) string {
	if body.DeviceInfo != "" {
		return body.DeviceInfo
	}
	return r.Header.Get("X-Device-Info")
}

// clientIP strips the port from RemoteAddr. RealIP middleware has
// already substituted forwarded addresses where trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
