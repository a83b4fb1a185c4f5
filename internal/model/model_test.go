package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseLocale(t *testing.T) {
	tests := []struct {
		in   string
		want Locale
		ok   bool
	}{
		{"hr", LocaleHR, true},
		{"en", LocaleEN, true},
		{"de", LocaleHR, false},
		{"", LocaleHR, false},
	}
	for _, tt := range tests {
		got, ok := ParseLocale(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseLocale(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestChanges(t *testing.T) {
	before := CatalogText{Name: "Vrč", Description: "Glineni vrč"}
	after := CatalogText{Name: "Vrč", Description: "Veliki vrč"}

	changes := Changes(before.Fields(), after.Fields())
	if len(changes) != 1 {
		t.Fatalf("expected 1 change, got %d", len(changes))
	}
	if changes[0].Field != "description" || changes[0].Source != "Veliki vrč" {
		t.Errorf("unexpected change %+v", changes[0])
	}

	changes = Changes(CatalogText{}.Fields(), after.Fields())
	if len(changes) != 2 || changes[0].Field != "description" || changes[1].Field != "name" {
		t.Errorf("expected description then name, got %+v", changes)
	}
}

func TestProductLocalized(t *testing.T) {
	p := Product{Name: "Vrč"}
	p.Translations.HR.Name = "Vrč"
	p.Translations.EN.Name = "Jug"

	if got := p.Localized(LocaleEN).Name; got != "Jug" {
		t.Errorf("expected en name 'Jug', got %q", got)
	}
	if got := p.Localized(LocaleHR).Name; got != "Vrč" {
		t.Errorf("expected hr name 'Vrč', got %q", got)
	}

	// Empty slots fall back to the stored text.
	p.Translations.EN.Name = ""
	if got := p.Localized(LocaleEN).Name; got != "Vrč" {
		t.Errorf("expected fallback 'Vrč', got %q", got)
	}
}

func TestNewProductDefaults(t *testing.T) {
	p := NewProduct(ProductInput{Name: "Zdjela"})
	if p.Availability != AvailabilityAvailable {
		t.Errorf("expected availability %q, got %q", AvailabilityAvailable, p.Availability)
	}
	if p.Dimensions.Unit != "cm" {
		t.Errorf("expected unit cm, got %q", p.Dimensions.Unit)
	}
	if p.Images == nil || p.Tags == nil || p.Materials == nil {
		t.Error("expected empty, non-nil slices")
	}
}

func TestProductPatchPrice(t *testing.T) {
	price := 40.0
	p := Product{Price: &price}

	var keep ProductPatch
	json.Unmarshal([]byte(`{"name":"Vaza"}`), &keep)
	keep.Apply(&p)
	if p.Price == nil || *p.Price != 40 {
		t.Errorf("expected price kept, got %v", p.Price)
	}

	var clear ProductPatch
	json.Unmarshal([]byte(`{"price":null}`), &clear)
	clear.Apply(&p)
	if p.Price != nil {
		t.Errorf("expected price cleared, got %v", *p.Price)
	}

	var set ProductPatch
	json.Unmarshal([]byte(`{"price":55.5}`), &set)
	set.Apply(&p)
	if p.Price == nil || *p.Price != 55.5 {
		t.Errorf("expected price 55.5, got %v", p.Price)
	}
}

func TestProductInputValidate(t *testing.T) {
	neg := -1.0
	tests := []struct {
		name    string
		in      ProductInput
		wantErr bool
	}{
		{"valid", ProductInput{Name: "Vrč"}, false},
		{"missing name", ProductInput{Name: "  "}, true},
		{"bad availability", ProductInput{Name: "Vrč", Availability: "gone"}, true},
		{"negative price", ProductInput{Name: "Vrč", Price: &neg}, true},
	}
	for _, tt := range tests {
		err := tt.in.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		var verr *ValidationError
		if err != nil && !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %T", tt.name, err)
		}
	}
}

func TestTestimonialInputDefaultRating(t *testing.T) {
	in := TestimonialInput{Name: "Ana", Text: "Prekrasno"}
	if err := in.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := in.RatingOrDefault(); got != 5 {
		t.Errorf("expected default rating 5, got %d", got)
	}

	for _, rating := range []int{0, 6, -1} {
		in = TestimonialInput{Name: "Ana", Text: "Prekrasno", Rating: &rating}
		if err := in.Validate(); err == nil {
			t.Errorf("expected error for rating %d", rating)
		}
	}

	three := 3
	in = TestimonialInput{Name: "Ana", Text: "Prekrasno", Rating: &three}
	if err := in.Validate(); err != nil || in.RatingOrDefault() != 3 {
		t.Errorf("expected rating 3 kept, got %d (%v)", in.RatingOrDefault(), err)
	}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.SiteName != "Pottery Studio" {
		t.Errorf("unexpected site name %q", s.SiteName)
	}
	if s.Tagline.EN != "Handcrafted Pottery with Love" || s.Tagline.HR == "" {
		t.Errorf("unexpected tagline %+v", s.Tagline)
	}
	if s.BusinessHours.Sunday != "Closed" {
		t.Errorf("unexpected sunday hours %q", s.BusinessHours.Sunday)
	}
}

func TestLocalizedTextUnmarshal(t *testing.T) {
	var s Settings
	if err := json.Unmarshal([]byte(`{"tagline":"Keramika","aboutText":{"hr":"O nama","en":"About us"}}`), &s); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if s.Tagline.HR != "Keramika" || s.Tagline.EN != "Keramika" {
		t.Errorf("expected plain string in both slots, got %+v", s.Tagline)
	}
	if s.AboutText.EN != "About us" {
		t.Errorf("unexpected about text %+v", s.AboutText)
	}
}

func TestSettingsPublic(t *testing.T) {
	s := Settings{SiteName: "Studio", AboutText: LocalizedText{HR: "O nama"}}
	pub := s.Public()
	if pub.Tagline.HR == "" || pub.Tagline.EN == "" {
		t.Errorf("expected default tagline, got %+v", pub.Tagline)
	}
	if pub.AboutText.EN != "O nama" {
		t.Errorf("expected en about text filled from hr, got %q", pub.AboutText.EN)
	}
}

func TestSortSections(t *testing.T) {
	sections := []HomepageSection{
		{ID: "a", Order: 5},
		{ID: "b", Order: 1},
		{ID: "c", Order: 5},
	}
	SortSections(sections)
	want := []string{"b", "a", "c"}
	for i, s := range sections {
		if s.ID != want[i] || s.Order != i {
			t.Errorf("position %d: got %s/%d, want %s/%d", i, s.ID, s.Order, want[i], i)
		}
	}
}

func TestApplySectionPatches(t *testing.T) {
	off := false
	first := -1
	out, err := ApplySectionPatches(DefaultSections(), []SectionPatch{
		{ID: "contact", Order: &first},
		{ID: "hero", Enabled: &off},
	})
	if err != nil {
		t.Fatalf("ApplySectionPatches: %v", err)
	}
	if out[0].ID != "contact" || out[0].Order != 0 {
		t.Errorf("expected contact first, got %+v", out[0])
	}
	if out[1].ID != "hero" || out[1].Enabled {
		t.Errorf("expected disabled hero second, got %+v", out[1])
	}

	if _, err := ApplySectionPatches(DefaultSections(), []SectionPatch{{ID: "nope"}}); err == nil {
		t.Error("expected error for unknown section")
	}
}

func TestValidateSections(t *testing.T) {
	if err := ValidateSections(DefaultSections()); err != nil {
		t.Errorf("defaults should be valid: %v", err)
	}
	dup := []HomepageSection{{ID: "hero"}, {ID: "hero"}}
	if err := ValidateSections(dup); err == nil {
		t.Error("expected error for duplicate ids")
	}
	if err := ValidateSections(nil); err == nil {
		t.Error("expected error for missing array")
	}
	if err := ValidateSections([]HomepageSection{}); err != nil {
		t.Errorf("empty layout should be valid: %v", err)
	}
}
