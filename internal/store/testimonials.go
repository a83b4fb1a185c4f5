package store

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

const testimonialsPrefix = "testimonials/"

// ListTestimonials returns testimonials sorted by order. A non-nil visible
// keeps only testimonials with that visibility.
func ListTestimonials(ctx context.Context, s *kv.Store, visible *bool) ([]model.Testimonial, error) {
	all, err := listRecords[model.Testimonial](ctx, s, testimonialsPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing testimonials: %w", err)
	}

	testimonials := make([]model.Testimonial, 0, len(all))
	for _, t := range all {
		if visible == nil || t.Visible == *visible {
			testimonials = append(testimonials, t)
		}
	}
	slices.SortStableFunc(testimonials, func(a, b model.Testimonial) int {
		if c := cmp.Compare(a.Order, b.Order); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return testimonials, nil
}

// GetTestimonial returns the testimonial with id, or nil if there is none.
func GetTestimonial(ctx context.Context, s *kv.Store, id string) (*model.Testimonial, error) {
	t, _, err := getRecord[model.Testimonial](ctx, s, itemKey(testimonialsPrefix, id))
	if err != nil {
		return nil, fmt.Errorf("getting testimonial: %w", err)
	}
	return t, nil
}

// CreateTestimonial stores a validated testimonial input.
func CreateTestimonial(ctx context.Context, s *kv.Store, in model.TestimonialInput) (*model.Testimonial, []model.TextChange, error) {
	t := model.Testimonial{
		ID:        newID(),
		Name:      in.Name,
		Location:  in.Location,
		Text:      in.Text,
		Rating:    in.RatingOrDefault(),
		Image:     in.Image,
		Visible:   true,
		CreatedAt: s.Now().UTC(),
	}
	if in.Visible != nil {
		t.Visible = *in.Visible
	}
	if in.Order != nil {
		t.Order = *in.Order
	} else {
		existing, err := s.Scan(ctx, testimonialsPrefix)
		if err != nil {
			return nil, nil, fmt.Errorf("counting testimonials: %w", err)
		}
		t.Order = len(existing)
	}
	changes := stageText(&t.Translations, model.TestimonialText{Text: t.Text})

	if err := createRecord(ctx, s, itemKey(testimonialsPrefix, t.ID), t); err != nil {
		return nil, nil, fmt.Errorf("creating testimonial: %w", err)
	}
	return &t, changes, nil
}

// UpdateTestimonial applies patch to a testimonial and reports which
// translatable texts changed. It returns nil if the testimonial does not exist.
func UpdateTestimonial(ctx context.Context, s *kv.Store, id string, patch model.TestimonialPatch) (*model.Testimonial, []model.TextChange, error) {
	var changes []model.TextChange
	t, err := updateRecord(ctx, s, itemKey(testimonialsPrefix, id), func(t *model.Testimonial) error {
		patch.Apply(t)
		changes = stageText(&t.Translations, model.TestimonialText{Text: t.Text})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("updating testimonial: %w", err)
	}
	return t, changes, nil
}

// ApplyTestimonialTranslations stores translated texts on a testimonial.
func ApplyTestimonialTranslations(ctx context.Context, s *kv.Store, id string, texts []model.TranslatedText) error {
	_, err := updateRecord(ctx, s, itemKey(testimonialsPrefix, id), func(t *model.Testimonial) error {
		applyText(&t.Translations, texts)
		return nil
	})
	if err != nil {
		return fmt.Errorf("applying testimonial translations: %w", err)
	}
	return nil
}

// DeleteTestimonial removes a testimonial. Unknown ids are not an error.
func DeleteTestimonial(ctx context.Context, s *kv.Store, id string) error {
	if err := s.Delete(ctx, itemKey(testimonialsPrefix, id)); err != nil {
		return fmt.Errorf("deleting testimonial: %w", err)
	}
	return nil
}
