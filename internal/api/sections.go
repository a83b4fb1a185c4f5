package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
	"github.com/erazemk/keramika/internal/store"
)

// SectionsHandler handles the homepage section layout. The layout's store
// version is exposed as its ETag.
type SectionsHandler struct {
	KV *kv.Store
}

// List handles GET /api/homepage-sections.
func (h *SectionsHandler) List(w http.ResponseWriter, r *http.Request) {
	sections, version, err := store.GetSections(r.Context(), h.KV)
	if err != nil {
		slog.Error("failed to load homepage sections, serving defaults", "error", err)
		sections, version = model.DefaultSections(), 0
	}
	setETag(w, version)
	jsonResponse(w, http.StatusOK, emptyIfNil(sections))
}

// Replace handles PUT /api/homepage-sections.
func (h *SectionsHandler) Replace(w http.ResponseWriter, r *http.Request) {
	ifVersion, ok := parseIfMatch(r.Header.Get("If-Match"))
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid If-Match header")
		return
	}

	var sections []model.HomepageSection
	if err := decodeJSON(w, r, &sections); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, version, err := store.ReplaceSections(r.Context(), h.KV, sections, ifVersion)
	if err != nil {
		if ifVersion != store.AnyVersion && errors.Is(err, kv.ErrConflict) {
			jsonError(w, http.StatusPreconditionFailed, "homepage sections were changed by someone else")
			return
		}
		writeFailure(w, err, "failed to save homepage sections")
		return
	}
	setETag(w, version)
	jsonResponse(w, http.StatusOK, emptyIfNil(saved))
}

// Patch handles PATCH /api/homepage-sections.
func (h *SectionsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	var patches []model.SectionPatch
	if err := decodeJSON(w, r, &patches); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	saved, version, err := store.PatchSections(r.Context(), h.KV, patches)
	if err != nil {
		writeFailure(w, err, "failed to save homepage sections")
		return
	}
	setETag(w, version)
	jsonResponse(w, http.StatusOK, emptyIfNil(saved))
}

func setETag(w http.ResponseWriter, version int64) {
	w.Header().Set("ETag", strconv.Quote(strconv.FormatInt(version, 10)))
}

// parseIfMatch returns the version required by an If-Match header value,
// or store.AnyVersion when the header is absent or "*".
func parseIfMatch(header string) (int64, bool) {
	header = strings.TrimSpace(header)
	if header == "" || header == "*" {
		return store.AnyVersion, true
	}
	header = strings.TrimPrefix(header, "W/")
	header = strings.Trim(header, `"`)
	v, err := strconv.ParseInt(header, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
