package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/keramika/internal/auth"
	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/store"
)

// AuthHandler handles the admin session endpoints.
type AuthHandler struct {
	KV            *kv.Store
	SessionSecret string
	PasswordHash  string
	CookieSecure  bool
}

type loginRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Password == "" {
		jsonError(w, http.StatusBadRequest, "Password is required")
		return
	}

	if !auth.CheckPassword(h.PasswordHash, req.Password) {
		slog.Warn("login failed", "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "Invalid password")
		return
	}

	token, claims, err := auth.GenerateToken(h.SessionSecret, h.KV.Now())
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	slog.Info("admin logged in", "remote", r.RemoteAddr)
	expires := claims.ExpiresAt.Time
	jsonResponse(w, http.StatusOK, sessionResponse{Authenticated: true, ExpiresAt: &expires})
}

// Logout handles POST /api/auth/logout. The current token is revoked so a
// copied cookie stops working too.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if claims := sessionClaims(r, h.SessionSecret, h.KV); claims != nil {
		if err := store.RevokeSession(r.Context(), h.KV, claims.ID, claims.ExpiresAt.Time); err != nil {
			slog.Error("failed to revoke session", "error", err)
			jsonError(w, http.StatusInternalServerError, "failed to log out")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
	jsonSuccess(w)
}

// Session handles GET /api/auth/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r, h.SessionSecret, h.KV)
	if claims == nil {
		jsonResponse(w, http.StatusOK, sessionResponse{})
		return
	}
	expires := claims.ExpiresAt.Time
	jsonResponse(w, http.StatusOK, sessionResponse{Authenticated: true, ExpiresAt: &expires})
}
