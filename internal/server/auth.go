package server

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/studyloop/mentor-go/internal/logging"
)

// authMiddleware enforces Bearer token authentication on the API routes.
// An empty apiKey disables auth entirely — the middleware passes everything
// through and the server logs a single startup warning instead of one per
// request.
//
// Protected routes must supply:
//
//	Authorization: Bearer <apiKey>
//
// Rejections carry a WWW-Authenticate: Bearer challenge and the handlers'
// JSON error shape. The presented token value is never logged.
func authMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch token := bearerToken(r); {
		case token == "":
			deny(w, r, `Bearer realm="mentor"`, "authorization required")
		case token != apiKey:
			deny(w, r, `Bearer realm="mentor" error="invalid_token"`, "invalid token")
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// deny rejects an unauthenticated request with a 401 and the given challenge.
func deny(w http.ResponseWriter, r *http.Request, challenge, msg string) {
	logging.FromContext(r.Context()).Warn("auth: request rejected",
		slog.String("path", r.URL.Path),
		slog.String("reason", msg),
	)
	w.Header().Set("WWW-Authenticate", challenge)
	writeError(w, r, http.StatusUnauthorized, msg)
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns an empty string if the header is absent or malformed.
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
