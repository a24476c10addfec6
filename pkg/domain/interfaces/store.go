package interfaces

import (
	"context"
	"io"

	"github.com/secmon-lab/plantops/pkg/domain/model"
)

// BlobStore is the abstract persistence medium: opaque bytes under string keys.
// Get returns an error wrapping model.ErrNotFound when the key is absent.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
	io.Closer
}

// PlantRepository is the durable keyed collection of plants.
// Every mutation is all-or-nothing; a partially applied write is never observable.
type PlantRepository interface {
	// List returns every plant in store order. Unreadable data yields an empty list, not an error.
	List(ctx context.Context) ([]*model.Plant, error)

	// Get returns the plant or an error wrapping model.ErrNotFound
	Get(ctx context.Context, id model.PlantID) (*model.Plant, error)

	// Upsert replaces the plant with equal ID, or appends it
	Upsert(ctx context.Context, plant *model.Plant) error

	// Delete removes the plant. Deleting an absent ID is a no-op.
	Delete(ctx context.Context, id model.PlantID) error

	// Update applies fn to the stored plant and commits the result as one write.
	// If fn returns an error nothing is written.
	Update(ctx context.Context, id model.PlantID, fn func(p *model.Plant) error) (*model.Plant, error)
}

// ImageRepository stores observation photos by content address
type ImageRepository interface {
	Put(ctx context.Context, img model.Image) (model.ImageRef, error)
	Get(ctx context.Context, ref model.ImageRef) (*model.Image, error)
}
