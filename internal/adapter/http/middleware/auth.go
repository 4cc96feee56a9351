package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iho/fintrack/internal/domain"
	"github.com/iho/fintrack/internal/infrastructure/auth"
	"github.com/iho/fintrack/internal/infrastructure/metrics"
)

// ContextKey is the type for context keys
type ContextKey string

const (
	// IdentityContextKey is the context key for the authenticated identity
	IdentityContextKey ContextKey = "identity"

	// UserIDHeader carries the identity when token authentication is disabled.
	UserIDHeader = "X-User-ID"
)

// Auth failure reasons.
const (
	reasonMissingHeader = "missing_header"
	reasonMalformed     = "malformed_header"
	reasonExpired       = "expired_token"
	reasonInvalid       = "invalid_token"
)

// TokenVerifier validates bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware requires a valid bearer token and stores its identity in the context.
func AuthMiddleware(verifier TokenVerifier, m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				rejectAuth(w, m, reasonMissingHeader, "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				rejectAuth(w, m, reasonMalformed, "invalid authorization header format")
				return
			}

			claims, err := verifier.Verify(parts[1])
			if err != nil {
				reason := reasonInvalid
				if errors.Is(err, domain.ErrExpiredToken) {
					reason = reasonExpired
				}
				rejectAuth(w, m, reason, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.Identity())))
		})
	}
}

// HeaderIdentity trusts the X-User-ID header. Development only.
func HeaderIdentity(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(UserIDHeader))
			if userID == "" {
				rejectAuth(w, m, reasonMissingHeader, "missing "+UserIDHeader+" header")
				return
			}

			identity := domain.Identity{UserID: userID}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

// IdentityFromContext extracts the authenticated identity from context
func IdentityFromContext(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(domain.Identity)
	if !ok || identity.IsZero() {
		return domain.Identity{}, false
	}
	return identity, true
}

func rejectAuth(w http.ResponseWriter, m *metrics.Metrics, reason, message string) {
	if m != nil {
		m.AuthFailures.WithLabelValues(reason).Inc()
	}
	writeError(w, http.StatusUnauthorized, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
