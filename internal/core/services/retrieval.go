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

// Ensure SearchService implements the interface.
var _ driving.SearchService = (*SearchService)(nil)

// SearchConfig holds retrieval configuration.
type SearchConfig struct {
	// Collection is the default collection to search.
	Collection string

	// TopK is the default result limit.
	TopK int

	// Threshold is the minimum cosine similarity a result must reach.
	// Scores are in [-1, 1]; results below the threshold are dropped
	// before the caller sees them.
	Threshold float64
}

// SearchService provides semantic search over ingested documents.
//
// Queries are embedded through the same embedding service as ingestion,
// which keeps query vectors in the same space as stored points. The
// relevance threshold is applied here, not in the store, so both store
// backends filter identically.
type SearchService struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
	cfg      SearchConfig
}

// NewSearchService creates a search service.
func NewSearchService(embedder driven.EmbeddingService, store driven.VectorStore, cfg SearchConfig) *SearchService {
	defaults := domain.DefaultAppSettings()
	if cfg.Collection == "" {
		cfg.Collection = defaults.Ingest.Collection
	}
	if cfg.TopK <= 0 {
		cfg.TopK = defaults.Retrieval.TopK
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = defaults.Retrieval.Threshold
	}
	return &SearchService{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

// Threshold returns the relevance threshold the service applies.
func (s *SearchService) Threshold() float64 {
	return s.cfg.Threshold
}

// Search embeds the query and returns the passages nearest to it.
// An empty result is a valid outcome, not an error.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search Execution")

	query = strings.TrimSpace(query)
	if query == "" {
		logger.Debug("Empty query, returning no results")
		return []domain.SearchResult{}, nil
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	collection := opts.Collection
	if collection == "" {
		collection = s.cfg.Collection
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = s.cfg.TopK
	}
	logger.Debug("Query: %q, collection: %s, limit: %d", query, collection, limit)

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored, err := s.store.Search(ctx, collection, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", collection, err)
	}
	logger.Debug("Raw results: %d", len(scored))

	// The store ranks by similarity descending, so filtering keeps a
	// prefix and the order is preserved.
	results := make([]domain.SearchResult, 0, len(scored))
	for _, sp := range scored {
		if sp.Score < s.cfg.Threshold {
			continue
		}
		results = append(results, domain.SearchResult{
			PointID:    sp.Point.ID,
			DocumentID: sp.Point.DocumentID,
			Filename:   sp.Point.Filename,
			ChunkIndex: sp.Point.ChunkIndex,
			Text:       sp.Point.Text,
			TokenCount: sp.Point.TokenCount,
			Score:      sp.Score,
		})
	}

	logger.Info("Results above threshold %.2f: %d", s.cfg.Threshold, len(results))
	return results, nil
}
