// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"time"

	"inkwell/internal/models"
)

// ImageRepoStub is an in-memory image repository implementation for tests.
type ImageRepoStub struct {
	items  map[string]*models.Image
	nextID uint
}

// NewImageRepoStub creates an in-memory image repository stub for tests.
func NewImageRepoStub() *ImageRepoStub {
	return &ImageRepoStub{items: make(map[string]*models.Image), nextID: 1}
}

// Create stores image metadata in-memory.
func (s *ImageRepoStub) Create(_ context.Context, img *models.Image) error {
	if _, exists := s.items[img.ObjectKey]; exists {
		return models.NewConflictError("Image already uploaded")
	}
	if img.ID == 0 {
		img.ID = s.nextID
		s.nextID++
	}
	img.CreatedAt = time.Now().UTC()
	s.items[img.ObjectKey] = img
	return nil
}

// GetByObjectKey fetches an image by its content-addressed key.
func (s *ImageRepoStub) GetByObjectKey(_ context.Context, key string) (*models.Image, error) {
	item, ok := s.items[key]
	if !ok {
		return nil, models.NewNotFoundError("Image", key)
	}
	return item, nil
}

// ListByUser returns the stored images for a user, ignoring paging.
func (s *ImageRepoStub) ListByUser(_ context.Context, userID uint, _, _ int) ([]models.Image, error) {
	var images []models.Image
	for _, item := range s.items {
		if item.UserID == userID {
			images = append(images, *item)
		}
	}
	return images, nil
}

// Delete removes an image record by ID.
func (s *ImageRepoStub) Delete(_ context.Context, id uint) error {
	for key, item := range s.items {
		if item.ID == id {
			delete(s.items, key)
			return nil
		}
	}
	return models.NewNotFoundError("Image", id)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
