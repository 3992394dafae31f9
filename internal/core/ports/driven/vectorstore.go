package driven

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// ScoredPoint is a stored point plus its similarity to a query vector.
type ScoredPoint struct {
	// Point is the stored point. Implementations may omit the vector
	// in search results; the payload fields are always populated.
	Point domain.Point

	// Score is the cosine similarity in [-1, 1].
	Score float64
}

// VectorStore persists embedded points and answers nearest-neighbour
// queries. There are two interchangeable backends - a networked
// postgres/pgvector store and an embedded sqlite store - selected once
// at process start. Everything above this port is backend-agnostic.
//
// Upsert is idempotent per point id: writing a point whose id already
// exists overwrites it. Under concurrent writers the store guarantees
// last-writer-wins per point, nothing more; a failed multi-point upsert
// may leave a partial write, which callers must tolerate.
type VectorStore interface {
	// EnsureCollection creates the collection if it does not exist.
	// Existing collections with a different dimensionality return
	// domain.ErrDimensionMismatch.
	EnsureCollection(ctx context.Context, name string, dimensions int) error

	// Upsert writes points into the collection in one call.
	Upsert(ctx context.Context, collection string, points []domain.Point) error

	// Search returns up to limit points ranked by cosine similarity,
	// strictly non-increasing, ties broken by insertion order.
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]ScoredPoint, error)

	// Scroll pages through a collection's points in insertion order.
	// offset is the number of points to skip. Used by migration.
	Scroll(ctx context.Context, collection string, offset, limit int) ([]domain.Point, error)

	// DeleteDocument removes every point belonging to a document.
	DeleteDocument(ctx context.Context, collection, documentID string) error

	// ListDocuments summarises the documents present in a collection.
	ListDocuments(ctx context.Context, collection string) ([]domain.DocumentSummary, error)

	// Stats describes a collection. Unknown names return domain.ErrNotFound.
	Stats(ctx context.Context, collection string) (*domain.CollectionStats, error)

	// ListCollections returns all collection names, sorted.
	ListCollections(ctx context.Context) ([]string, error)

	// DropCollection removes a collection and all its points.
	DropCollection(ctx context.Context, name string) error

	// Close releases the underlying connection or file handle.
	Close() error
}
