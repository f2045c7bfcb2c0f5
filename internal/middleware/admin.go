package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/cliplink/cliplink/internal/auth"
)

// AdminAuth guards operator endpoints (analytics summary, session
// stats) with a single bearer token verified against an Argon2id hash.
// An empty hash disables the endpoints entirely.
func AdminAuth(tokenHash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				http.Error(w, `{"error":{"code":"NOT_FOUND","message":"Not found"}}`, http.StatusNotFound)
				return
			}

			token, ok := bearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}

			valid, err := auth.VerifyToken(token, tokenHash)
			if err != nil {
				logger.Error("admin token hash is malformed",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("error", err),
				)
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			if !valid {
				logger.Warn("admin auth rejected",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.String("remote_addr", r.RemoteAddr),
				)
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
	http.Error(w, `{"error":{"code":"UNAUTHORIZED","message":"Invalid or missing admin token"}}`, http.StatusUnauthorized)
}
