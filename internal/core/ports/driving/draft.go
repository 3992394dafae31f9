package driving

import (
	"context"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// DraftService produces grounded drafts from ingested material.
type DraftService interface {
	// Draft searches the collection with the request's keywords and asks
	// the generation model to compose from the surviving passages. When
	// no passage clears the relevance threshold the draft comes back
	// refused without the model being called at all.
	Draft(ctx context.Context, req domain.DraftRequest) (*domain.Draft, error)
}
