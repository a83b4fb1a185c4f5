package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/erazemk/keramika/internal/cache"
	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
	"github.com/erazemk/keramika/internal/store"
)

const settingsCacheKey = "settings"

// SettingsHandler handles the site settings endpoints. Public reads go
// through Cache; admin writes invalidate it.
type SettingsHandler struct {
	KV    *kv.Store
	Cache *cache.TTL[string, model.Settings]
}

// Public handles GET /api/settings.
func (h *SettingsHandler) Public(w http.ResponseWriter, r *http.Request) {
	if s, ok := h.Cache.Get(settingsCacheKey); ok {
		jsonResponse(w, http.StatusOK, s)
		return
	}

	s, _, err := store.GetSettings(r.Context(), h.KV)
	if err != nil {
		slog.Error("failed to load settings, serving defaults", "error", err)
		jsonResponse(w, http.StatusOK, model.DefaultSettings().Public())
		return
	}
	public := s.Public()
	h.Cache.Set(settingsCacheKey, public)
	jsonResponse(w, http.StatusOK, public)
}

// Get handles GET /api/admin/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, _, err := store.GetSettings(r.Context(), h.KV)
	if err != nil {
		writeFailure(w, err, "failed to load settings")
		return
	}
	jsonResponse(w, http.StatusOK, s)
}

// Update handles PUT /api/admin/settings. Fields absent from the body keep
// their stored values.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil || !json.Valid(body) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := store.UpdateSettings(r.Context(), h.KV, func(s *model.Settings) error {
		if err := json.Unmarshal(body, s); err != nil {
			return &model.ValidationError{Message: "invalid request body"}
		}
		return s.Validate()
	})
	if err != nil {
		writeFailure(w, err, "failed to save settings")
		return
	}
	h.Cache.Invalidate(settingsCacheKey)

	slog.Info("settings updated")
	jsonResponse(w, http.StatusOK, updated)
}
