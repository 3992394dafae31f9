package driving

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// SearchService provides semantic search over ingested documents.
type SearchService interface {
	// Search embeds the query and returns the passages nearest to it,
	// best first. Results below the configured relevance threshold are
	// filtered out; an empty slice is a valid outcome, not an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
