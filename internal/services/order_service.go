package services

import (
	"context"
	"fmt"
	"log"

	"order-board/internal/models"
	"order-board/internal/port"
)

// OrderService runs the order lifecycle over whichever storage backend was
// configured at startup.
type OrderService struct {
	storage port.Storage
	images  *ImageUploader
}

func NewOrderService(storage port.Storage) *OrderService {
	return &OrderService{
		storage: storage,
		images:  NewImageUploader(storage),
	}
}

func (s *OrderService) List(ctx context.Context) ([]models.Order, error) {
	orders, err := s.storage.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.List: %w", err)
	}
	for i := range orders {
		s.resolve(&orders[i])
	}
	return orders, nil
}

func (s *OrderService) Get(ctx context.Context, id string) (models.Order, error) {
	order, err := s.storage.Get(ctx, id)
	if err != nil {
		return models.Order{}, fmt.Errorf("storage.Get: %w", err)
	}
	s.resolve(&order)
	return order, nil
}

// Create uploads the optional image first; a failed upload aborts before any
// record is written.
func (s *OrderService) Create(ctx context.Context, draft models.OrderDraft, image *models.ImageUpload) (models.Order, error) {
	if err := draft.Validate(); err != nil {
		return models.Order{}, err
	}

	if image != nil {
		path, err := s.images.Upload(ctx, *image)
		if err != nil {
			return models.Order{}, fmt.Errorf("upload image: %w", err)
		}
		draft.ImagePath = &path
	}

	order, err := s.storage.Create(ctx, draft)
	if err != nil {
		if draft.ImagePath != nil {
			s.removeBlob(ctx, *draft.ImagePath)
		}
		return models.Order{}, fmt.Errorf("storage.Create: %w", err)
	}

	s.resolve(&order)
	return order, nil
}

// Update merges patch into the stored record. A replacement image is uploaded
// before the record changes; the previous blob is removed afterwards.
func (s *OrderService) Update(ctx context.Context, id string, patch models.OrderPatch, image *models.ImageUpload) (models.Order, error) {
	if err := patch.Validate(); err != nil {
		return models.Order{}, err
	}

	var previous *string
	if image != nil {
		current, err := s.storage.Get(ctx, id)
		if err != nil {
			return models.Order{}, fmt.Errorf("storage.Get: %w", err)
		}
		previous = current.ImagePath

		path, err := s.images.Upload(ctx, *image)
		if err != nil {
			return models.Order{}, fmt.Errorf("upload image: %w", err)
		}
		patch.ImagePath = &path
	}

	order, err := s.storage.Update(ctx, id, patch)
	if err != nil {
		if image != nil {
			s.removeBlob(ctx, *patch.ImagePath)
		}
		return models.Order{}, fmt.Errorf("storage.Update: %w", err)
	}

	if previous != nil && *previous != "" && (order.ImagePath == nil || *order.ImagePath != *previous) {
		s.removeBlob(ctx, *previous)
	}

	s.resolve(&order)
	return order, nil
}

// Delete removes the record, then its blob. A blob that cannot be removed is
// logged and left behind.
func (s *OrderService) Delete(ctx context.Context, id string) error {
	removed, err := s.storage.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("storage.Delete: %w", err)
	}
	if removed.HasImage() {
		s.removeBlob(ctx, *removed.ImagePath)
	}
	return nil
}

func (s *OrderService) resolve(order *models.Order) {
	if order.HasImage() {
		order.ImageURL = s.images.ResolveURL(*order.ImagePath)
	}
}

func (s *OrderService) removeBlob(ctx context.Context, path string) {
	if err := s.storage.Remove(ctx, path); err != nil {
		log.Printf("Warning: failed to remove image %s: %v", path, err)
	}
}
