package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
	"github.com/custodia-labs/quarry/internal/logger"
)

// Ensure CollectionService implements the interface.
var _ driving.CollectionService = (*CollectionService)(nil)

// CollectionService manages vector collections and the documents in them.
type CollectionService struct {
	store driven.VectorStore
}

// NewCollectionService creates a collection service.
func NewCollectionService(store driven.VectorStore) *CollectionService {
	return &CollectionService{store: store}
}

// List returns stats for all collections, sorted by name.
func (s *CollectionService) List(ctx context.Context) ([]domain.CollectionStats, error) {
	names, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}

	stats := make([]domain.CollectionStats, 0, len(names))
	for _, name := range names {
		st, err := s.store.Stats(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("stats for %s: %w", name, err)
		}
		stats = append(stats, *st)
	}
	return stats, nil
}

// Stats returns point count and dimensions for a collection.
func (s *CollectionService) Stats(ctx context.Context, name string) (*domain.CollectionStats, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	return s.store.Stats(ctx, name)
}

// Documents returns one summary per distinct document in a collection.
func (s *CollectionService) Documents(ctx context.Context, name string) ([]domain.DocumentSummary, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	return s.store.ListDocuments(ctx, name)
}

// DeleteDocument removes every point belonging to a document.
func (s *CollectionService) DeleteDocument(ctx context.Context, collection, documentID string) error {
	if strings.TrimSpace(documentID) == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if err := s.store.DeleteDocument(ctx, collection, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	logger.Info("Deleted document %s from %s", documentID, collection)
	return nil
}

// Reset drops a collection and recreates it empty with the same
// dimensions.
func (s *CollectionService) Reset(ctx context.Context, name string) error {
	stats, err := s.store.Stats(ctx, name)
	if err != nil {
		return fmt.Errorf("stats for %s: %w", name, err)
	}
	if err := s.store.DropCollection(ctx, name); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	if err := s.store.EnsureCollection(ctx, name, stats.Dimensions); err != nil {
		return fmt.Errorf("recreate %s: %w", name, err)
	}
	logger.Info("Reset collection %s (%d points removed)", name, stats.Points)
	return nil
}

// Drop removes a collection entirely.
func (s *CollectionService) Drop(ctx context.Context, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	if err := s.store.DropCollection(ctx, name); err != nil {
		return fmt.Errorf("drop %s: %w", name, err)
	}
	logger.Info("Dropped collection %s", name)
	return nil
}
