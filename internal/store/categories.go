package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

const categoriesPrefix = "categories/"

// ListCategories returns categories matching f sorted by order.
func ListCategories(ctx context.Context, s *kv.Store, f model.CategoryFilter) ([]model.Category, error) {
	all, err := listRecords[model.Category](ctx, s, categoriesPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	categories := make([]model.Category, 0, len(all))
	for _, c := range all {
		if c.Matches(f) {
			categories = append(categories, c)
		}
	}
	slices.SortStableFunc(categories, func(a, b model.Category) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return categories, nil
}

// GetCategory returns a category by ID, or nil if it doesn't exist.
func GetCategory(ctx context.Context, s *kv.Store, id string) (*model.Category, error) {
	c, _, err := getRecord[model.Category](ctx, s, itemKey(categoriesPrefix, id))
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}

// CreateCategory stores a new category. Without an explicit order it is
// placed after the existing categories.
func CreateCategory(ctx context.Context, s *kv.Store, in model.CategoryInput) (*model.Category, []model.TextChange, error) {
	c := model.Category{
		ID:          newID(),
		Name:        in.Name,
		Slug:        in.Slug,
		Description: in.Description,
		Image:       in.Image,
		Visible:     true,
		CreatedAt:   s.Now().UTC(),
	}
	if in.Visible != nil {
		c.Visible = *in.Visible
	}
	if in.Order != nil {
		c.Order = *in.Order
	} else {
		existing, err := s.Scan(ctx, categoriesPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("counting categories: %w", err)
		}
		c.Order = len(existing)
	}
	changes := stageText(&c.Translations, model.CatalogText{Name: c.Name, Description: c.Description})

	if err := createRecord(ctx, s, itemKey(categoriesPrefix, c.ID), c); err != nil {
		return nil, nil, fmt.Errorf("creating category: %w", err)
	}
	return &c, changes, nil
}

// UpdateCategory merges patch into a category, or returns nil if missing.
func UpdateCategory(ctx context.Context, s *kv.Store, id string, patch model.CategoryPatch) (*model.Category, []model.TextChange, error) {
	var changes []model.TextChange
	c, err := updateRecord(ctx, s, itemKey(categoriesPrefix, id), func(c *model.Category) error {
		patch.Apply(c)
		changes = stageText(&c.Translations, model.CatalogText{Name: c.Name, Description: c.Description})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("updating category: %w", err)
	}
	return c, changes, nil
}

// ApplyCategoryTranslations stores translated texts on a category.
func ApplyCategoryTranslations(ctx context.Context, s *kv.Store, id string, texts []model.TranslatedText) error {
	_, err := updateRecord(ctx, s, itemKey(categoriesPrefix, id), func(c *model.Category) error {
		applyText(&c.Translations, texts)
		return nil
	})
	if err != nil {
		return fmt.Errorf("applying category translations: %w", err)
	}
	return nil
}

// DeleteCategory removes a category. Products keep their categoryId.
func DeleteCategory(ctx context.Context, s *kv.Store, id string) error {
	if err := s.Delete(ctx, itemKey(categoriesPrefix, id)); err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	return nil
}
