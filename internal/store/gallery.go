package store

import (
	"context"
	"fmt"
	"slices"

	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
)

const galleryPrefix = "gallery_posts/"

// ListGalleryPosts returns gallery posts, newest first.
func ListGalleryPosts(ctx context.Context, s *kv.Store) ([]model.GalleryPost, error) {
	posts, err := listRecords[model.GalleryPost](ctx, s, galleryPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing gallery posts: %w", err)
	}
	slices.SortStableFunc(posts, func(a, b model.GalleryPost) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return posts, nil
}

// CreateGalleryPost stores a validated gallery post.
func CreateGalleryPost(ctx context.Context, s *kv.Store, in model.GalleryInput) (*model.GalleryPost, error) {
	p := model.GalleryPost{
		ID:        newID(),
		ImageURL:  in.ImageURL,
		Caption:   in.Caption,
		PostURL:   in.PostURL,
		CreatedAt: s.Now().UTC(),
	}
	if err := createRecord(ctx, s, itemKey(galleryPrefix, p.ID), p); err != nil {
		return nil, fmt.Errorf("creating gallery post: %w", err)
	}
	return &p, nil
}

// DeleteGalleryPost removes a gallery post. Unknown ids are not an error.
func DeleteGalleryPost(ctx context.Context, s *kv.Store, id string) error {
	if err := s.Delete(ctx, itemKey(galleryPrefix, id)); err != nil {
		return fmt.Errorf("deleting gallery post: %w", err)
	}
	return nil
}
