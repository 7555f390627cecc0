package repositories

import (
	"context"

	"github.com/SscSPs/fx_rates_pipeline/internal/core/domain"
)

// ObjectStore persists staged files by path.
type ObjectStore interface {
	Put(ctx context.Context, path string, data []byte, contentType string) error
	// Get returns ErrMissingFile when path does not exist.
	Get(ctx context.Context, path string) ([]byte, error)
	// List returns objects under prefix, most recently updated first.
	List(ctx context.Context, prefix string) ([]domain.ObjectInfo, error)
	// Delete removes path. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}
