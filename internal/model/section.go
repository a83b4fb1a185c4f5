package model

import (
	"cmp"
	"slices"
	"strings"
)

// HomepageSection is one block of the public homepage.
type HomepageSection struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Order   int    `json:"order"`
}

// DefaultSections returns the homepage layout used until the studio saves one.
func DefaultSections() []HomepageSection {
	return []HomepageSection{
		{ID: "hero", Name: "Hero", Enabled: true, Order: 0},
		{ID: "featured-products", Name: "Featured Products", Enabled: true, Order: 1},
		{ID: "categories", Name: "Categories", Enabled: true, Order: 2},
		{ID: "social-gallery", Name: "Social Gallery", Enabled: true, Order: 3},
		{ID: "testimonials", Name: "Testimonials", Enabled: true, Order: 4},
		{ID: "contact", Name: "Contact", Enabled: true, Order: 5},
	}
}

// SortSections orders sections by Order, keeping submitted order on ties,
// and renumbers them 0..n-1.
func SortSections(sections []HomepageSection) {
	slices.SortStableFunc(sections, func(a, b HomepageSection) int {
		return cmp.Compare(a.Order, b.Order)
	})
	for i := range sections {
		sections[i].Order = i
	}
}

// ValidateSections checks that sections is an array and that every section
// has a unique non-empty id.
func ValidateSections(sections []HomepageSection) error {
	if sections == nil {
		return invalid("sections", "must be an array")
	}
	seen := make(map[string]bool, len(sections))
	for _, s := range sections {
		id := strings.TrimSpace(s.ID)
		if id == "" {
			return invalid("id", "is required")
		}
		if seen[id] {
			return invalid("id", "duplicate section "+id)
		}
		seen[id] = true
	}
	return nil
}

// SectionPatch changes one section in place.
type SectionPatch struct {
	ID      string `json:"id"`
	Enabled *bool  `json:"enabled"`
	Order   *int   `json:"order"`
}

// ApplySectionPatches applies patches to sections and renumbers them. An
// unknown id is a validation error and leaves sections untouched.
func ApplySectionPatches(sections []HomepageSection, patches []SectionPatch) ([]HomepageSection, error) {
	out := slices.Clone(sections)
	index := make(map[string]int, len(out))
	for i, s := range out {
		index[s.ID] = i
	}
	for _, p := range patches {
		i, ok := index[p.ID]
		if !ok {
			return nil, invalid("id", "unknown section "+p.ID)
		}
		if p.Enabled != nil {
			out[i].Enabled = *p.Enabled
		}
		if p.Order != nil {
			out[i].Order = *p.Order
		}
	}
	SortSections(out)
	return out, nil
}
