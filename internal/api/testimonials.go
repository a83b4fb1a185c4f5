package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
	"github.com/erazemk/keramika/internal/store"
	"github.com/erazemk/keramika/internal/translate"
)

// TestimonialsHandler handles testimonial endpoints.
type TestimonialsHandler struct {
	KV        *kv.Store
	Translate *translate.Pipeline
}

// List handles GET /api/testimonials.
func (h *TestimonialsHandler) List(w http.ResponseWriter, r *http.Request) {
	locale := requestLocale(r)
	testimonials, err := store.ListTestimonials(r.Context(), h.KV, queryBool(r, "visible"))
	if err != nil {
		slog.Error("failed to list testimonials", "error", err)
		testimonials = nil
	}
	for i := range testimonials {
		testimonials[i] = testimonials[i].Localized(locale)
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(testimonials))
}

// Get handles GET /api/testimonials/{id}.
func (h *TestimonialsHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := store.GetTestimonial(r.Context(), h.KV, r.PathValue("id"))
	if err != nil {
		writeFailure(w, err, "failed to get testimonial")
		return
	}
	if t == nil {
		jsonError(w, http.StatusNotFound, "Testimonial not found")
		return
	}
	jsonResponse(w, http.StatusOK, t.Localized(requestLocale(r)))
}

// Create handles POST /api/testimonials.
func (h *TestimonialsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.TestimonialInput
	if err := decodeJSON(w, r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		writeFailure(w, err, "failed to create testimonial")
		return
	}

	t, changes, err := store.CreateTestimonial(r.Context(), h.KV, in)
	if err != nil {
		writeFailure(w, err, "failed to create testimonial")
		return
	}
	h.schedule(t.ID, changes)

	jsonResponse(w, http.StatusCreated, h.latest(r.Context(), t))
}

// Update handles PUT /api/testimonials/{id}.
func (h *TestimonialsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.TestimonialPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		writeFailure(w, err, "failed to update testimonial")
		return
	}

	t, changes, err := store.UpdateTestimonial(r.Context(), h.KV, r.PathValue("id"), patch)
	if err != nil {
		writeFailure(w, err, "failed to update testimonial")
		return
	}
	if t == nil {
		jsonError(w, http.StatusNotFound, "Testimonial not found")
		return
	}
	h.schedule(t.ID, changes)

	jsonResponse(w, http.StatusOK, h.latest(r.Context(), t))
}

// Delete handles DELETE /api/testimonials/{id}.
func (h *TestimonialsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := store.DeleteTestimonial(r.Context(), h.KV, r.PathValue("id")); err != nil {
		writeFailure(w, err, "failed to delete testimonial")
		return
	}
	jsonSuccess(w)
}

func (h *TestimonialsHandler) schedule(id string, changes []model.TextChange) {
	h.Translate.Schedule("translate testimonial "+id, changes, func(ctx context.Context, texts []model.TranslatedText) error {
		return store.ApplyTestimonialTranslations(ctx, h.KV, id, texts)
	})
}

func (h *TestimonialsHandler) latest(ctx context.Context, t *model.Testimonial) *model.Testimonial {
	if fresh, err := store.GetTestimonial(ctx, h.KV, t.ID); err == nil && fresh != nil {
		return fresh
	}
	return t
}
