package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"order-board/internal/models"
	"order-board/internal/port"
)

var ErrEmptyImage = errors.New("image upload has no content")

// NewImageName returns a random blob name that keeps the original extension.
func NewImageName(original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	if ext == "." {
		ext = ""
	}
	return uuid.NewString() + ext
}

// ImageUploader stores picked files in the blob store.
type ImageUploader struct {
	blobs port.BlobStore
}

func NewImageUploader(blobs port.BlobStore) *ImageUploader {
	return &ImageUploader{blobs: blobs}
}

// Upload stores the file under a fresh random name and returns the path
// to keep in image_path.
func (u *ImageUploader) Upload(ctx context.Context, file models.ImageUpload) (string, error) {
	if file.Body == nil {
		return "", fmt.Errorf("%q: %w", file.Filename, ErrEmptyImage)
	}
	path, err := u.blobs.Upload(ctx, NewImageName(file.Filename), file.ContentType, file.Body)
	if err != nil {
		return "", fmt.Errorf("blobs.Upload: %w", err)
	}
	return path, nil
}

func (u *ImageUploader) ResolveURL(path string) string {
	if path == "" {
		return ""
	}
	return u.blobs.ResolveURL(path)
}
