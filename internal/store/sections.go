package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

const sectionsKey = "homepage_sections"

// AnyVersion skips the version check in ReplaceSections.
const AnyVersion int64 = -1

// GetSections returns the homepage sections sorted by order and the
// version they were stored at. Version 0 means the defaults are in use.
// A stored null also yields the defaults, at its own version.
func GetSections(ctx context.Context, s *kv.Store) ([]model.HomepageSection, int64, error) {
	var sections []model.HomepageSection
	version, err := s.GetJSON(ctx, sectionsKey, &sections)
	if errors.Is(err, kv.ErrNotFound) {
		return model.DefaultSections(), 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("getting homepage sections: %w", err)
	}
	if sections == nil {
		return model.DefaultSections(), version, nil
	}
	model.SortSections(sections)
	return sections, version, nil
}

// ReplaceSections stores sections as the new homepage layout. Unless
// ifVersion is AnyVersion, the stored version must match it or
// ErrConflict is returned.
func ReplaceSections(ctx context.Context, s *kv.Store, sections []model.HomepageSection, ifVersion int64) ([]model.HomepageSection, int64, error) {
	if err := model.ValidateSections(sections); err != nil {
		return nil, 0, err
	}
	model.SortSections(sections)

	var version int64
	var err error
	if ifVersion == AnyVersion {
		version, err = s.SetJSON(ctx, sectionsKey, sections, 0)
	} else {
		version, err = s.SetJSONIfVersion(ctx, sectionsKey, sections, ifVersion, 0)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("saving homepage sections: %w", err)
	}
	return sections, version, nil
}

// PatchSections applies per-section changes to the current layout.
func PatchSections(ctx context.Context, s *kv.Store, patches []model.SectionPatch) ([]model.HomepageSection, int64, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		current, version, err := GetSections(ctx, s)
		if err != nil {
			return nil, 0, err
		}
		sections, err := model.ApplySectionPatches(current, patches)
		if err != nil {
			return nil, 0, err
		}
		newVersion, err := s.SetJSONIfVersion(ctx, sectionsKey, sections, version, 0)
		if errors.Is(err, kv.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("saving homepage sections: %w", err)
		}
		return sections, newVersion, nil
	}
	return nil, 0, fmt.Errorf("saving homepage sections: %w", ErrConflict)
}
