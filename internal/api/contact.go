package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"reflect"

	"github.com/gorilla/schema"

	"github.com/erazemk/keramika/internal/contact"
	"github.com/erazemk/keramika/internal/model"
)

// ContactHandler handles the contact form and its confirmation link.
type ContactHandler struct {
	Contact *contact.Service
	forms   *schema.Decoder
}

// NewContactHandler returns a handler accepting JSON and form bodies.
func NewContactHandler(svc *contact.Service) *ContactHandler {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.RegisterConverter(model.Locale(""), func(s string) reflect.Value {
		return reflect.ValueOf(model.Locale(s))
	})
	return &ContactHandler{Contact: svc, forms: d}
}

// Submit handles POST /api/contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contact.Request
	if err := h.decode(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Locale == "" {
		req.Locale = requestLocale(r)
	}

	p, err := h.Contact.Submit(r.Context(), req)
	switch {
	case errors.Is(err, contact.ErrInvalid):
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("contact submission failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "Failed to send confirmation email")
		return
	}

	slog.Info("contact submission pending confirmation", "locale", p.Locale)
	jsonResponse(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Please check your email to confirm your message",
	})
}

// Confirm handles POST /api/confirm-contact/{token}.
func (h *ContactHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	p, err := h.Contact.Confirm(r.Context(), r.PathValue("token"))
	switch {
	case errors.Is(err, contact.ErrInvalidToken):
		jsonError(w, http.StatusBadRequest, "Link expired or invalid")
		return
	case err != nil:
		writeFailure(w, err, "failed to confirm message")
		return
	}

	slog.Info("contact submission confirmed", "id", p.Token)
	jsonSuccess(w)
}

// decode reads a JSON or form encoded request into req.
func (h *ContactHandler) decode(w http.ResponseWriter, r *http.Request, req *contact.Request) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return err
		}
		return h.forms.Decode(req, r.PostForm)
	default:
		return decodeJSON(w, r, req)
	}
}
