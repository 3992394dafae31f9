package driving

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// CollectionService manages vector collections and the documents in them.
type CollectionService interface {
	// List returns all collections, sorted by name.
	List(ctx context.Context) ([]domain.CollectionStats, error)

	// Stats returns point count and dimensions for a collection.
	// Unknown collections return domain.ErrNotFound.
	Stats(ctx context.Context, name string) (*domain.CollectionStats, error)

	// Documents returns one summary per distinct document in a collection.
	Documents(ctx context.Context, name string) ([]domain.DocumentSummary, error)

	// DeleteDocument removes every point belonging to a document.
	// Deleting an absent document is a no-op.
	DeleteDocument(ctx context.Context, collection, documentID string) error

	// Reset drops a collection and recreates it empty with the same
	// dimensions.
	Reset(ctx context.Context, name string) error

	// Drop removes a collection entirely.
	Drop(ctx context.Context, name string) error
}
