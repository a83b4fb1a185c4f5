package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

const productsPrefix = "products/"

// ListProducts returns products matching f, newest first.
func ListProducts(ctx context.Context, s *kv.Store, f model.ProductFilter) ([]model.Product, error) {
	all, err := listRecords[model.Product](ctx, s, productsPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	products := make([]model.Product, 0, len(all))
	for _, p := range all {
		if p.Matches(f) {
			products = append(products, p)
		}
	}
	slices.SortStableFunc(products, func(a, b model.Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return products, nil
}

// GetProduct returns a product by ID, or nil if it doesn't exist.
func GetProduct(ctx context.Context, s *kv.Store, id string) (*model.Product, error) {
	p, _, err := getRecord[model.Product](ctx, s, itemKey(productsPrefix, id))
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// CreateProduct stores a new product and returns it along with the text
// fields that need translating.
func CreateProduct(ctx context.Context, s *kv.Store, in model.ProductInput) (*model.Product, []model.TextChange, error) {
	p := model.NewProduct(in)
	p.ID = newID()
	p.CreatedAt = s.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	changes := stageText(&p.Translations, model.CatalogText{Name: p.Name, Description: p.Description})

	if err := createRecord(ctx, s, itemKey(productsPrefix, p.ID), p); err != nil {
		return nil, nil, fmt.Errorf("creating product: %w", err)
	}
	return &p, changes, nil
}

// UpdateProduct merges patch into a product. It returns nil if the product
// doesn't exist.
func UpdateProduct(ctx context.Context, s *kv.Store, id string, patch model.ProductPatch) (*model.Product, []model.TextChange, error) {
	var changes []model.TextChange
	p, err := updateRecord(ctx, s, itemKey(productsPrefix, id), func(p *model.Product) error {
		patch.Apply(p)
		p.UpdatedAt = s.Now().UTC()
		changes = stageText(&p.Translations, model.CatalogText{Name: p.Name, Description: p.Description})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("updating product: %w", err)
	}
	return p, changes, nil
}

// ApplyProductTranslations stores English text produced for a product.
// Text whose Croatian source was edited in the meantime is discarded.
func ApplyProductTranslations(ctx context.Context, s *kv.Store, id string, texts []model.TranslatedText) error {
	_, err := updateRecord(ctx, s, itemKey(productsPrefix, id), func(p *model.Product) error {
		applyText(&p.Translations, texts)
		return nil
	})
	if err != nil {
		return fmt.Errorf("applying product translations: %w", err)
	}
	return nil
}

// DeleteProduct removes a product. Deleting a missing product is not an error.
func DeleteProduct(ctx context.Context, s *kv.Store, id string) error {
	if err := s.Delete(ctx, itemKey(productsPrefix, id)); err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	return nil
}
