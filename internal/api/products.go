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

// ProductsHandler handles product endpoints.
type ProductsHandler struct {
	KV        *kv.Store
	Translate *translate.Pipeline
}

// List handles GET /api/products.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ProductFilter{
		CategoryID:   q.Get("categoryId"),
		Availability: q.Get("availability"),
		Featured:     q.Get("featured") == "true",
		Search:       q.Get("search"),
	}
	locale := requestLocale(r)

	products, err := store.ListProducts(r.Context(), h.KV, filter)
	if err != nil {
		slog.Error("failed to list products", "error", err)
		products = nil
	}
	for i := range products {
		products[i] = products[i].Localized(locale)
	}
	jsonResponse(w, http.StatusOK, emptyIfNil(products))
}

// Get handles GET /api/products/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := store.GetProduct(r.Context(), h.KV, r.PathValue("id"))
	if err != nil {
		writeFailure(w, err, "failed to get product")
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "Product not found")
		return
	}
	jsonResponse(w, http.StatusOK, p.Localized(requestLocale(r)))
}

// Create handles POST /api/products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in model.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		writeFailure(w, err, "failed to create product")
		return
	}

	p, changes, err := store.CreateProduct(r.Context(), h.KV, in)
	if err != nil {
		writeFailure(w, err, "failed to create product")
		return
	}
	h.schedule(p.ID, changes)

	slog.Info("product created", "id", p.ID)
	jsonResponse(w, http.StatusCreated, h.latest(r.Context(), p))
}

// Update handles PUT /api/products/{id}.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch model.ProductPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		writeFailure(w, err, "failed to update product")
		return
	}

	p, changes, err := store.UpdateProduct(r.Context(), h.KV, r.PathValue("id"), patch)
	if err != nil {
		writeFailure(w, err, "failed to update product")
		return
	}
	if p == nil {
		jsonError(w, http.StatusNotFound, "Product not found")
		return
	}
	h.schedule(p.ID, changes)

	jsonResponse(w, http.StatusOK, h.latest(r.Context(), p))
}

// Delete handles DELETE /api/products/{id}.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := store.DeleteProduct(r.Context(), h.KV, id); err != nil {
		writeFailure(w, err, "failed to delete product")
		return
	}
	slog.Info("product deleted", "id", id)
	jsonSuccess(w)
}

func (h *ProductsHandler) schedule(id string, changes []model.TextChange) {
	h.Translate.Schedule("translate product "+id, changes, func(ctx context.Context, texts []model.TranslatedText) error {
		return store.ApplyProductTranslations(ctx, h.KV, id, texts)
	})
}

// latest re-reads p so translations applied inline are part of the
// response. It falls back to p on any failure.
func (h *ProductsHandler) latest(ctx context.Context, p *model.Product) *model.Product {
	if fresh, err := store.GetProduct(ctx, h.KV, p.ID); err == nil && fresh != nil {
		return fresh
	}
	return p
}
