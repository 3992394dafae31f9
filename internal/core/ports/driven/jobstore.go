package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// JobStore persists ingestion jobs.
//
// The store is injected into the ingestion orchestrator rather than
// living as process-global state, so concurrent pipelines and tests can
// each own their table. Implementations must be safe for concurrent
// use; jobs are stored and returned by value so callers never share
// mutable state through the store.
type JobStore interface {
	// Save stores or replaces a job snapshot.
	Save(ctx context.Context, job domain.IngestJob) error

	// Get retrieves a job by id. Unknown ids return domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.IngestJob, error)

	// List returns all jobs, newest first.
	List(ctx context.Context) ([]domain.IngestJob, error)

	// Delete removes a job by id. Unknown ids return domain.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// PurgeOlderThan removes terminal jobs whose last update is older
	// than the given age, returning how many were removed. Running
	// jobs are never purged.
	PurgeOlderThan(ctx context.Context, age time.Duration) (int, error)
}
