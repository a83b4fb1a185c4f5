package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Product availability values.
const (
	AvailabilityAvailable   = "available"
	AvailabilitySold        = "sold"
	AvailabilityUnavailable = "unavailable"
	AvailabilityReserved    = "reserved"
)

// ValidAvailability reports whether s is a known availability value.
func ValidAvailability(s string) bool {
	switch s {
	case AvailabilityAvailable, AvailabilitySold, AvailabilityUnavailable, AvailabilityReserved:
		return true
	}
	return false
}

// Dimensions are free-form measurements as entered by the studio.
type Dimensions struct {
	Height string `json:"height,omitempty"`
	Width  string `json:"width,omitempty"`
	Depth  string `json:"depth,omitempty"`
	Unit   string `json:"unit" default:"cm"`
}

// Product is a piece listed in the shop.
type Product struct {
	ID           string                    `json:"id"`
	Name         string                    `json:"name"`
	Description  string                    `json:"description"`
	CategoryID   string                    `json:"categoryId"`
	Images       []string                  `json:"images" default:"[]"`
	Availability string                    `json:"availability" default:"available"`
	Dimensions   Dimensions                `json:"dimensions"`
	Materials    []string                  `json:"materials" default:"[]"`
	Tags         []string                  `json:"tags" default:"[]"`
	Featured     bool                      `json:"featured"`
	Price        *float64                  `json:"price"`
	Translations Translations[CatalogText] `json:"translations"`
	CreatedAt    time.Time                 `json:"createdAt"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
}

// Localized returns a copy whose name and description come from the l slot
// when it has text.
func (p Product) Localized(l Locale) Product {
	slot := p.Translations.Slot(l)
	p.Name = pick(slot.Name, p.Name)
	p.Description = pick(slot.Description, p.Description)
	return p
}

// Matches reports whether the product satisfies f.
func (p *Product) Matches(f ProductFilter) bool {
	if f.CategoryID != "" && p.CategoryID != f.CategoryID {
		return false
	}
	if f.Availability != "" && p.Availability != f.Availability {
		return false
	}
	if f.Featured && !p.Featured {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		texts := []string{
			p.Name, p.Description,
			p.Translations.HR.Name, p.Translations.HR.Description,
			p.Translations.EN.Name, p.Translations.EN.Description,
		}
		for _, t := range texts {
			if strings.Contains(strings.ToLower(t), q) {
				return true
			}
		}
		return false
	}
	return true
}

// ProductFilter narrows a product listing. Zero values match everything.
type ProductFilter struct {
	CategoryID   string
	Availability string
	Featured     bool
	Search       string
}

// ProductInput is the body of a product create request.
type ProductInput struct {
	Name         string     `json:"name"`
	Description  string     `json:"description"`
	CategoryID   string     `json:"categoryId"`
	Images       []string   `json:"images"`
	Availability string     `json:"availability"`
	Dimensions   Dimensions `json:"dimensions"`
	Materials    []string   `json:"materials"`
	Tags         []string   `json:"tags"`
	Featured     bool       `json:"featured"`
	Price        *float64   `json:"price"`
}

// Validate checks required fields and value ranges.
func (in *ProductInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if in.Availability != "" && !ValidAvailability(in.Availability) {
		return invalid("availability", "must be one of available, sold, unavailable, reserved")
	}
	if in.Price != nil && *in.Price < 0 {
		return invalid("price", "must not be negative")
	}
	return nil
}

// NewProduct builds a product from in with defaults applied. ID and
// timestamps are left for the store to set.
func NewProduct(in ProductInput) Product {
	p := Product{
		Name:         in.Name,
		Description:  in.Description,
		CategoryID:   in.CategoryID,
		Images:       in.Images,
		Availability: in.Availability,
		Dimensions:   in.Dimensions,
		Materials:    in.Materials,
		Tags:         in.Tags,
		Featured:     in.Featured,
		Price:        in.Price,
	}
	setDefaults(&p)
	return p
}

// OptionalPrice distinguishes an absent price from an explicit null.
type OptionalPrice struct {
	Set   bool
	Value *float64
}

// UnmarshalJSON marks the price as present. A JSON null clears it.
func (o *OptionalPrice) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

// ProductPatch is the body of a product update. Nil fields are unchanged.
type ProductPatch struct {
	Name         *string       `json:"name"`
	Description  *string       `json:"description"`
	CategoryID   *string       `json:"categoryId"`
	Images       *[]string     `json:"images"`
	Availability *string       `json:"availability"`
	Dimensions   *Dimensions   `json:"dimensions"`
	Materials    *[]string     `json:"materials"`
	Tags         *[]string     `json:"tags"`
	Featured     *bool         `json:"featured"`
	Price        OptionalPrice `json:"price"`
}

// Validate checks the fields present in the patch.
func (pt *ProductPatch) Validate() error {
	if pt.Name != nil && strings.TrimSpace(*pt.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if pt.Availability != nil && !ValidAvailability(*pt.Availability) {
		return invalid("availability", "must be one of available, sold, unavailable, reserved")
	}
	if pt.Price.Value != nil && *pt.Price.Value < 0 {
		return invalid("price", "must not be negative")
	}
	return nil
}

// Apply merges the patch into p.
func (pt *ProductPatch) Apply(p *Product) {
	if pt.Name != nil {
		p.Name = *pt.Name
	}
	if pt.Description != nil {
		p.Description = *pt.Description
	}
	if pt.CategoryID != nil {
		p.CategoryID = *pt.CategoryID
	}
	if pt.Images != nil {
		p.Images = *pt.Images
	}
	if pt.Availability != nil {
		p.Availability = *pt.Availability
	}
	if pt.Dimensions != nil {
		p.Dimensions = *pt.Dimensions
	}
	if pt.Materials != nil {
		p.Materials = *pt.Materials
	}
	if pt.Tags != nil {
		p.Tags = *pt.Tags
	}
	if pt.Featured != nil {
		p.Featured = *pt.Featured
	}
	if pt.Price.Set {
		p.Price = pt.Price.Value
	}
	setDefaults(p)
}
