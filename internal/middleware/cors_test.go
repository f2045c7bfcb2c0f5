package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name           string
		allowedOrigins []string
		requestOrigin  string
		method         string
		wantStatus     int
		wantHeader     string
	}{
		{
			name:           "no origins configured blocks all",
			allowedOrigins: []string{},
			requestOrigin:  "https://app.cliplink.dev",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantHeader:     "", // No CORS header
		},
		{
			name:           "allowed origin gets header",
			allowedOrigins: []string{"https://app.cliplink.dev"},
			requestOrigin:  "https://app.cliplink.dev",
			method:         http.MethodPost,
			wantStatus:     http.StatusOK,
			wantHeader:     "https://app.cliplink.dev",
		},
		{
			name:           "disallowed origin blocked on preflight",
			allowedOrigins: []string{"https://app.cliplink.dev"},
			requestOrigin:  "https://evil.com",
			method:         http.MethodOptions,
			wantStatus:     http.StatusForbidden,
			wantHeader:     "",
		},
		{
			name:           "preflight returns no content",
			allowedOrigins: []string{"https://app.cliplink.dev"},
			requestOrigin:  "https://app.cliplink.dev",
			method:         http.MethodOptions,
			wantStatus:     http.StatusNoContent,
			wantHeader:     "https://app.cliplink.dev",
		},
		{
			name:           "case insensitive origin match",
			allowedOrigins: []string{"HTTPS://APP.CLIPLINK.DEV"},
			requestOrigin:  "https://app.cliplink.dev",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantHeader:     "https://app.cliplink.dev",
		},
		{
			name:           "wildcard subdomain matches",
			allowedOrigins: []string{"*.cliplink.dev"},
			requestOrigin:  "https://staging.cliplink.dev",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantHeader:     "https://staging.cliplink.dev",
		},
		{
			name:           "wildcard does not match partial domain",
			allowedOrigins: []string{"*.cliplink.dev"},
			requestOrigin:  "https://evilcliplink.dev",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantHeader:     "",
		},
		{
			name:           "no origin header skips CORS",
			allowedOrigins: []string{"https://app.cliplink.dev"},
			requestOrigin:  "",
			method:         http.MethodGet,
			wantStatus:     http.StatusOK,
			wantHeader:     "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultCORSConfig()
			cfg.AllowedOrigins = tt.allowedOrigins

			handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/", nil)
			if tt.requestOrigin != "" {
				req.Header.Set("Origin", tt.requestOrigin)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			got := rec.Header().Get("Access-Control-Allow-Origin")
			if got != tt.wantHeader {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantHeader)
			}
		})
	}
}

// The defaults must let resolve clients send the session and device
// headers and read back the session id and rate-limit hint.
func TestCORSDefaultHeaderSets(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.cliplink.dev"}

	handler := CORS(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/v1/deeplinks/resolve", nil)
	preflight.Header.Set("Origin", "https://app.cliplink.dev")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, preflight)

	allowHeaders := rec.Header().Get("Access-Control-Allow-Headers")
	for _, want := range []string{"Content-Type", "X-Session-Id", "X-Device-Info"} {
		if !strings.Contains(allowHeaders, want) {
			t.Errorf("Access-Control-Allow-Headers = %q, missing %q", allowHeaders, want)
		}
	}
	if got := rec.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Access-Control-Allow-Methods = %q, missing POST", got)
	}
	if got := rec.Header().Get("Access-Control-Max-Age"); got == "" {
		t.Error("Access-Control-Max-Age not set on preflight")
	}

	get := httptest.NewRequest(http.MethodGet, "/api/v1/deeplinks/resolve", nil)
	get.Header.Set("Origin", "https://app.cliplink.dev")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, get)

	exposed := rec.Header().Get("Access-Control-Expose-Headers")
	for _, want := range []string{"X-Session-Id", "Retry-After", "X-Request-ID"} {
		if !strings.Contains(exposed, want) {
			t.Errorf("Access-Control-Expose-Headers = %q, missing %q", exposed, want)
		}
	}
}
