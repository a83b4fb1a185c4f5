package api

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/store"
)

// MessagesHandler handles the admin inbox of confirmed contact messages.
type MessagesHandler struct {
	KV *kv.Store
}

type repliedRequest struct {
	Replied *bool `json:"replied"`
}

// List handles GET /api/admin/messages.
func (h *MessagesHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := store.ListContactSubmissions(r.Context(), h.KV)
	if err != nil {
		slog.Error("failed to list contact submissions", "error", err)
		subs = nil
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(subs))
}

// SetReplied handles PATCH /api/admin/messages/{id}.
func (h *MessagesHandler) SetReplied(w http.ResponseWriter, r *http.Request) {
	var req repliedRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Replied == nil {
		jsonError(w, http.StatusBadRequest, "replied is required")
		return
	}

	sub, err := store.SetContactReplied(r.Context(), h.KV, r.PathValue("id"), *req.Replied)
	if err != nil {
		writeFailure(w, err, "failed to update message")
		return
	}
	if sub == nil {
		jsonError(w, http.StatusNotFound, "Message not found")
		return
	}
	jsonResponse(w, http.StatusOK, sub)
}

// Delete handles DELETE /api/admin/messages/{id}.
func (h *MessagesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteContactSubmission(r.Context(), h.KV, r.PathValue("id")); err != nil {
		writeFailure(w, err, "failed to delete message")
		return
	}
	jsonSuccess(w)
}
