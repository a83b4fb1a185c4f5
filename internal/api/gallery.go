package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
	"github.com/erazemk/keramika/internal/store"
)

// GalleryHandler handles the social media gallery.
type GalleryHandler struct {
	KV *kv.Store
}

// List handles GET /api/gallery and GET /api/admin/gallery.
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	posts, err := store.ListGalleryPosts(r.Context(), h.KV)
	if err != nil {
		slog.Error("failed to list gallery posts", "error", err)
		posts = nil
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(posts))
}

// Create handles POST /api/admin/gallery.
func (h *GalleryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.GalleryInput
	if err := decodeJSON(w, r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		writeFailure(w, err, "failed to create gallery post")
		return
	}

	post, err := store.CreateGalleryPost(r.Context(), h.KV, in)
	if err != nil {
		writeFailure(w, err, "failed to create gallery post")
		return
	}
	jsonResponse(w, http.StatusCreated, post)
}

// Delete handles DELETE /api/admin/gallery/{id}.
func (h *GalleryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteGalleryPost(r.Context(), h.KV, r.PathValue("id")); err != nil {
		writeFailure(w, err, "failed to delete gallery post")
		return
	}
	jsonSuccess(w)
}
