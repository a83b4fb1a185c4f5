package model

import (
	"strings"
	"time"
)

// Testimonial is a customer quote shown on the homepage.
type Testimonial struct {
	ID           string                        `json:"id"`
	Name         string                        `json:"name"`
	Location     string                        `json:"location,omitempty"`
	Text         string                        `json:"text"`
	Rating       int                           `json:"rating"`
	Image        string                        `json:"image,omitempty"`
	Order        int                           `json:"order"`
	Visible      bool                          `json:"visible"`
	Translations Translations[TestimonialText] `json:"translations"`
	CreatedAt    time.Time                     `json:"createdAt"`
}

// Localized returns t with its text in locale l, falling back to the
// original.
func (t Testimonial) Localized(l Locale) Testimonial {
	t.Text = pick(t.Translations.Slot(l).Text, t.Text)
	return t
}

// DefaultRating is stored when a testimonial is created without a rating.
const DefaultRating = 5

// TestimonialInput is the body of a testimonial create request.
type TestimonialInput struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Text     string `json:"text"`
	Rating   *int   `json:"rating"`
	Image    string `json:"image"`
	Order    *int   `json:"order"`
	Visible  *bool  `json:"visible"`
}

// Validate checks the input. An absent rating is allowed, an explicit one
// must be in range.
func (in *TestimonialInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return invalid("name", "is required")
	}
	if strings.TrimSpace(in.Text) == "" {
		return invalid("text", "is required")
	}
	if in.Rating != nil && (*in.Rating < 1 || *in.Rating > 5) {
		return invalid("rating", "must be between 1 and 5")
	}
	return nil
}

// RatingOrDefault returns the requested rating, or DefaultRating when none
// was given.
func (in *TestimonialInput) RatingOrDefault() int {
	if in.Rating == nil {
		return DefaultRating
	}
	return *in.Rating
}

// TestimonialPatch is the body of a testimonial update.
type TestimonialPatch struct {
	Name     *string `json:"name"`
	Location *string `json:"location"`
	Text     *string `json:"text"`
	Rating   *int    `json:"rating"`
	Image    *string `json:"image"`
	Order    *int    `json:"order"`
	Visible  *bool   `json:"visible"`
}

// Validate rejects empty names and texts and out of range ratings.
func (pt *TestimonialPatch) Validate() error {
	if pt.Name != nil && strings.TrimSpace(*pt.Name) == "" {
		return invalid("name", "must not be empty")
	}
	if pt.Text != nil && strings.TrimSpace(*pt.Text) == "" {
		return invalid("text", "must not be empty")
	}
	if pt.Rating != nil && (*pt.Rating < 1 || *pt.Rating > 5) {
		return invalid("rating", "must be between 1 and 5")
	}
	return nil
}

// Apply copies the set fields of pt onto t.
func (pt *TestimonialPatch) Apply(t *Testimonial) {
	if pt.Name != nil {
		t.Name = *pt.Name
	}
	if pt.Location != nil {
		t.Location = *pt.Location
	}
	if pt.Text != nil {
		t.Text = *pt.Text
	}
	if pt.Rating != nil {
		t.Rating = *pt.Rating
	}
	if pt.Image != nil {
		t.Image = *pt.Image
	}
	if pt.Order != nil {
		t.Order = *pt.Order
	}
	if pt.Visible != nil {
		t.Visible = *pt.Visible
	}
}
