package model

import (
	"strings"
	"time"
)

// GalleryPost links a social media post shown in the homepage gallery.
type GalleryPost struct {
	ID        string    `json:"id"`
	ImageURL  string    `json:"imageUrl"`
	Caption   string    `json:"caption,omitempty"`
	PostURL   string    `json:"postUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// GalleryInput is the body of a gallery create request.
type GalleryInput struct {
	ImageURL string `json:"imageUrl"`
	Caption  string `json:"caption"`
	PostURL  string `json:"postUrl"`
}

// Validate requires an image URL.
func (in *GalleryInput) Validate() error {
	if strings.TrimSpace(in.ImageURL) == "" {
		return invalid("imageUrl", "is required")
	}
	return nil
}

// Upload is an image stored in the database by the local media backend.
type Upload struct {
	ID        string    `json:"id"`
	MIME      string    `json:"mime"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"createdAt"`
}
