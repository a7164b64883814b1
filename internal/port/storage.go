package port

import (
	"context"
	"errors"
	"io"

	"order-board/internal/models"
)

var ErrNotFound = errors.New("order not found")

type OrderStore interface {
	List(ctx context.Context) ([]models.Order, error)
	Get(ctx context.Context, id string) (models.Order, error)

	Create(ctx context.Context, draft models.OrderDraft) (models.Order, error)
	Update(ctx context.Context, id string, patch models.OrderPatch) (models.Order, error)

	// Delete returns the removed record so the caller can clean up its blob.
	Delete(ctx context.Context, id string) (models.Order, error)
}

type BlobStore interface {
	Upload(ctx context.Context, name, contentType string, data io.Reader) (string, error)
	Remove(ctx context.Context, path string) error
	Exists(ctx context.Context, path string) (bool, error)
	ResolveURL(path string) string
}

// Storage is everything the order service needs from a backend.
type Storage interface {
	OrderStore
	BlobStore
}
