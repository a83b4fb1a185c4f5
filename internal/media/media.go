// Package media stores processed product images.
package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"

	"github.com/erazemk/keramika/internal/imaging"
	"github.com/erazemk/keramika/internal/kv"
	"github.com/erazemk/keramika/internal/model"
	"github.com/erazemk/keramika/internal/store"
)

// Stored describes where an image ended up.
type Stored struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Store persists processed images.
type Store interface {
	Save(ctx context.Context, img *imaging.Result) (Stored, error)
}

// KVStore keeps images in the kv store. They are served by the API under
// URLPrefix.
type KVStore struct {
	KV        *kv.Store
	URLPrefix string
}

// NewKVStore returns a store serving images from /api/uploads/.
func NewKVStore(s *kv.Store) *KVStore {
	return &KVStore{KV: s, URLPrefix: "/api/uploads/"}
}

// Save stores the encoded image in the database and returns its serving URL.
func (s *KVStore) Save(ctx context.Context, img *imaging.Result) (Stored, error) {
	u := model.Upload{
		ID:        uuid.NewString(),
		MIME:      img.MIME,
		Data:      img.Data,
		CreatedAt: s.KV.Now().UTC(),
	}
	if err := store.SaveUpload(ctx, s.KV, u); err != nil {
		return Stored{}, err
	}
	return Stored{ID: u.ID, URL: s.URLPrefix + u.ID}, nil
}

// Cloudinary uploads images to a Cloudinary account.
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	Folder string
}

// NewCloudinary configures a client from a cloudinary:// URL.
func NewCloudinary(url, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromURL(url)
	if err != nil {
		return nil, fmt.Errorf("configuring cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, Folder: folder}, nil
}

// Save uploads the encoded image and returns its secure Cloudinary URL.
func (c *Cloudinary) Save(ctx context.Context, img *imaging.Result) (Stored, error) {
	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(img.Data), uploader.UploadParams{
		Folder: c.Folder,
	})
	if err != nil {
		return Stored{}, fmt.Errorf("uploading to cloudinary: %w", err)
	}
	if res.Error.Message != "" {
		return Stored{}, fmt.Errorf("uploading to cloudinary: %s", res.Error.Message)
	}
	return Stored{ID: res.PublicID, URL: res.SecureURL}, nil
}
