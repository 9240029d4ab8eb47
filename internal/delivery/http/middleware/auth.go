package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	h "partyreminders/internal/delivery/http/helpers"
	"partyreminders/internal/domain"
)

type contextKey string

const callerKey contextKey = "caller"

// SetCaller returns a context carrying the authenticated caller subject.
func SetCaller(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, callerKey, subject)
}

// CallerFromContext returns the authenticated caller subject, if present.
func CallerFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(callerKey).(string)
	return s, ok
}

// RequireAuth returns a wrapper that validates the Bearer credential and sets the caller in the request context.
// If the credential is missing or rejected, it responds with 401 and does not call next.
func RequireAuth(verifier domain.TokenVerifier, logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if auth == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing authorization header")
				return
			}
			const prefix = "Bearer "
			if !strings.HasPrefix(auth, prefix) {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid authorization format")
				return
			}
			token := strings.TrimSpace(auth[len(prefix):])
			if token == "" {
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "missing token")
				return
			}
			subject, err := verifier.Verify(token)
			if err != nil {
				logger.WarnContext(r.Context(), "rejected trigger credential", "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()))
				h.WriteJSONError(w, http.StatusUnauthorized, h.ErrCodeUnauthorized, "invalid or expired token")
				return
			}
			r = r.WithContext(SetCaller(r.Context(), subject))
			next(w, r)
		}
	}
}
