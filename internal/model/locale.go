package model

import (
	"maps"
	"slices"
)

// Locale is one of the translation slots.
type Locale string

// Supported locales.
const (
	LocaleHR Locale = "hr"
	LocaleEN Locale = "en"
)

// DefaultLocale is the locale content is authored in.
const DefaultLocale = LocaleHR

// ParseLocale returns the locale named by s and whether it is supported.
func ParseLocale(s string) (Locale, bool) {
	switch Locale(s) {
	case LocaleHR:
		return LocaleHR, true
	case LocaleEN:
		return LocaleEN, true
	}
	return DefaultLocale, false
}

// Translations holds the per-locale copies of an entity's text.
type Translations[T any] struct {
	HR T `json:"hr"`
	EN T `json:"en"`
}

// Slot returns a pointer to the text for l. Unknown locales map to hr.
func (t *Translations[T]) Slot(l Locale) *T {
	if l == LocaleEN {
		return &t.EN
	}
	return &t.HR
}

// TextChange is a Croatian text field whose value changed on a write.
type TextChange struct {
	Field  string
	Source string
}

// TranslatedText is the English rendering of a TextChange.
type TranslatedText struct {
	Field  string
	Source string
	Text   string
}

// CatalogText is the translatable text of products and categories.
type CatalogText struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Fields returns the text keyed by field name.
func (t CatalogText) Fields() map[string]string {
	return map[string]string{"name": t.Name, "description": t.Description}
}

// SetField sets the named field. Unknown names are ignored.
func (t *CatalogText) SetField(field, value string) {
	switch field {
	case "name":
		t.Name = value
	case "description":
		t.Description = value
	}
}

// TestimonialText is the translatable text of a testimonial.
type TestimonialText struct {
	Text string `json:"text"`
}

// Fields returns the text keyed by field name.
func (t TestimonialText) Fields() map[string]string {
	return map[string]string{"text": t.Text}
}

// SetField sets the named field. Unknown names are ignored.
func (t *TestimonialText) SetField(field, value string) {
	if field == "text" {
		t.Text = value
	}
}

// Changes lists the fields whose value differs between before and after,
// ordered by field name.
func Changes(before, after map[string]string) []TextChange {
	var changes []TextChange
	for _, field := range slices.Sorted(maps.Keys(after)) {
		if before[field] != after[field] {
			changes = append(changes, TextChange{Field: field, Source: after[field]})
		}
	}
	return changes
}

// pick returns localized when it is non-empty, otherwise fallback.
func pick(localized, fallback string) string {
	if localized != "" {
		return localized
	}
	return fallback
}
