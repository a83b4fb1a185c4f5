package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/keramika/internal/auth"
	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/store"
)

type contextKey string

const claimsKey contextKey = "claims"

// sessionClaims validates the session cookie of r. It returns nil when the
// cookie is missing, forged, expired or revoked.
func sessionClaims(r *http.Request, secret string, s *kv.Store) *auth.Claims {
	cookie, err := r.Cookie(auth.SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := auth.ValidateToken(secret, cookie.Value)
	if err != nil {
		return nil
	}
	revoked, err := store.IsSessionRevoked(r.Context(), s, claims.ID)
	if err != nil {
		slog.Error("failed to check session revocation", "error", err)
		return nil
	}
	if revoked {
		return nil
	}
	return claims
}

// SessionMiddleware requires a valid admin session cookie and adds its
// claims to the request context.
func SessionMiddleware(secret string, s *kv.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := sessionClaims(r, secret, s)
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetClaims retrieves the session claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
			"remote", r.RemoteAddr,
		)
	})
}
