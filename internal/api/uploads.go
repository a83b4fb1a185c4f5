package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/keramika/internal/imaging"
	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/media"
	"github.com/erazemk/keramika/internal/store"
)

// multipartOverhead leaves room for the form framing around the file.
const multipartOverhead = 1 << 20

// UploadsHandler handles image uploads.
type UploadsHandler struct {
	KV    *kv.Store
	Media media.Store
}

// Upload handles POST /api/upload.
func (h *UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, imaging.MaxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "file too large (max 10 MB)")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		jsonError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	img, err := imaging.Process(file)
	switch {
	case errors.Is(err, imaging.ErrTooLarge):
		jsonError(w, http.StatusRequestEntityTooLarge, "file too large (max 10 MB)")
		return
	case errors.Is(err, imaging.ErrUnsupported):
		jsonError(w, http.StatusBadRequest, "only JPEG and PNG images are supported")
		return
	case err != nil:
		slog.Warn("failed to process upload", "error", err)
		jsonError(w, http.StatusBadRequest, "invalid image")
		return
	}

	stored, err := h.Media.Save(r.Context(), img)
	if err != nil {
		slog.Error("failed to store upload", "error", err)
		jsonError(w, http.StatusInternalServerError, "Upload failed")
		return
	}

	slog.Info("image uploaded", "id", stored.ID, "width", img.Width, "height", img.Height)
	jsonResponse(w, http.StatusOK, stored)
}

// Get handles GET /api/uploads/{id} for images kept in the database.
func (h *UploadsHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := store.GetUpload(r.Context(), h.KV, r.PathValue("id"))
	if err != nil {
		writeFailure(w, err, "failed to get upload")
		return
	}
	if u == nil {
		jsonError(w, http.StatusNotFound, "Upload not found")
		return
	}

	w.Header().Set("Content-Type", u.MIME)
	w.Header().Set("Content-Length", strconv.Itoa(len(u.Data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.WriteHeader(http.StatusOK)
	w.Write(u.Data)
}
