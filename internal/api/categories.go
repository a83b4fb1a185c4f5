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

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	KV        *kv.Store
	Translate *translate.Pipeline
}

// List handles GET /api/categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := model.CategoryFilter{
		Visible: queryBool(r, "visible"),
		Slug:    r.URL.Query().Get("slug"),
	}
	locale := requestLocale(r)

	categories, err := store.ListCategories(r.Context(), h.KV, filter)
	if err != nil {
		slog.Error("failed to list categories", "error", err)
		categories = nil
	}
	for i := range categories {
		categories[i] = categories[i].Localized(locale)
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(categories))
}

// Get handles GET /api/categories/{id}.
func (h *CategoriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := store.GetCategory(r.Context(), h.KV, r.PathValue("id"))
	if err != nil {
		writeFailure(w, err, "failed to get category")
		return
	}
	if c == nil {
		jsonError(w, http.StatusNotFound, "Category not found")
		return
	}
	jsonResponse(w, http.StatusOK, c.Localized(requestLocale(r)))
}

// Create handles POST /api/categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		writeFailure(w, err, "failed to create category")
		return
	}

	c, changes, err := store.CreateCategory(r.Context(), h.KV, in)
	if err != nil {
		writeFailure(w, err, "failed to create category")
		return
	}
	h.schedule(c.ID, changes)

	slog.Info("category created", "id", c.ID, "slug", c.Slug)
	jsonResponse(w, http.StatusCreated, h.latest(r.Context(), c))
}

// Update handles PUT /api/categories/{id}.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.CategoryPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		writeFailure(w, err, "failed to update category")
		return
	}

	c, changes, err := store.UpdateCategory(r.Context(), h.KV, r.PathValue("id"), patch)
	if err != nil {
		writeFailure(w, err, "failed to update category")
		return
	}
	if c == nil {
		jsonError(w, http.StatusNotFound, "Category not found")
		return
	}
	h.schedule(c.ID, changes)

	jsonResponse(w, http.StatusOK, h.latest(r.Context(), c))
}

// Delete handles DELETE /api/categories/{id}. Products keep their
// categoryId.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := store.DeleteCategory(r.Context(), h.KV, id); err != nil {
		writeFailure(w, err, "failed to delete category")
		return
	}
	slog.Info("category deleted", "id", id)
	jsonSuccess(w)
}

func (h *CategoriesHandler) schedule(id string, changes []model.TextChange) {
	h.Translate.Schedule("translate category "+id, changes, func(ctx context.Context, texts []model.TranslatedText) error {
		return store.ApplyCategoryTranslations(ctx, h.KV, id, texts)
	})
}

func (h *CategoriesHandler) latest(ctx context.Context, c *model.Category) *model.Category {
	if fresh, err := store.GetCategory(ctx, h.KV, c.ID); err == nil && fresh != nil {
		return fresh
	}
	return c
}

// queryBool parses an optional true/false query parameter.
func queryBool(r *http.Request, name string) *bool {
	var v bool
	switch r.URL.Query().Get(name) {
	case "true":
		v = true
	case "false":
		v = false
	default:
		return nil
	}
	return &v
}
