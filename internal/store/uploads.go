package store

import (
	"context"
	"fmt"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

const uploadsPrefix = "upload/"

// SaveUpload stores an uploaded image.
func SaveUpload(ctx context.Context, s *kv.Store, u model.Upload) error {
	if err := createRecord(ctx, s, itemKey(uploadsPrefix, u.ID), u); err != nil {
		return fmt.Errorf("saving upload: %w", err)
	}
	return nil
}

// GetUpload returns an uploaded image, or nil if it doesn't exist.
func GetUpload(ctx context.Context, s *kv.Store, id string) (*model.Upload, error) {
	u, _, err := getRecord[model.Upload](ctx, s, itemKey(uploadsPrefix, id))
	if err != nil {
		return nil, fmt.Errorf("getting upload: %w", err)
	}
	return u, nil
}
