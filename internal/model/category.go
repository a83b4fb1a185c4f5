package model

import (
	"strings"
	"time"
)

// Category groups products.
type Category struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	Slug         string                    `json:"slug"`
	Description  string                    `json:"description"`
	Image        string                    `json:"image,omitempty"`
	Order        int                       `json:"order"`
	Visible      bool                      `json:"visible"`
	Translations Translations[CatalogText] `json:"translations"`
	CreatedAt    time.Time                 `json:"createdAt"`
}

// Localized returns a copy with text taken from the l slot.
func (c Category) Localized(l Locale) Category {
	slot := c.Translations.Slot(l)
	c.Name = pick(slot.Name, c.Name)
	c.Description = pick(slot.Description, c.Description)
	return c
}

// CategoryFilter narrows a category listing.
type CategoryFilter struct {
	Visible *bool
	Slug    string
}

// Matches reports whether c satisfies f.
func (c *Category) Matches(f CategoryFilter) bool {
	if f.Visible != nil && c.Visible != *f.Visible {
		return false
	}
	if f.Slug != "" && c.Slug != f.Slug {
		return false
	}
	return true
}

// CategoryInput is the body of a category create request. A nil Order
// appends the category after the existing ones.
type CategoryInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Order       *int   `json:"order"`
	Visible     *bool  `json:"visible"`
}

// Validate requires a name and a non-negative order.
func (in *CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if in.Order != nil && *in.Order < 0 {
		return invalid("order", "must not be negative")
	}
	return nil
}

// CategoryPatch is the body of a category update.
type CategoryPatch struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	Image       *string `json:"image"`
	Order       *int    `json:"order"`
	Visible     *bool   `json:"visible"`
}

// Validate rejects an empty name or a negative order.
func (pt *CategoryPatch) Validate() error {
	if pt.Name != nil && strings.TrimSpace(*pt.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if pt.Order != nil && *pt.Order < 0 {
		return invalid("order", "must not be negative")
	}
	return nil
}

// Apply merges the patch into c.
func (pt *CategoryPatch) Apply(c *Category) {
	if pt.Name != nil {
		c.Name = *pt.Name
	}
	if pt.Slug != nil {
		c.Slug = *pt.Slug
	}
	if pt.Description != nil {
		c.Description = *pt.Description
	}
	if pt.Image != nil {
		c.Image = *pt.Image
	}
	if pt.Order != nil {
		c.Order = *pt.Order
	}
	if pt.Visible != nil {
		c.Visible = *pt.Visible
	}
}
