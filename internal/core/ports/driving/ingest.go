package driving

import (
	"context"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// IngestOrchestrator coordinates the document ingestion pipeline.
//
// Ingestion is asynchronous: Submit returns a job id immediately and the
// pipeline runs in the background. Callers observe progress by polling
// Job with the returned id. There is no cancellation and no retry; a
// failed job is resubmitted as a new job.
type IngestOrchestrator interface {
	// Submit queues a document for ingestion and returns the job id.
	// The submission is validated synchronously (non-empty filename and
	// content); everything after that happens in the background.
	Submit(ctx context.Context, sub domain.Submission) (string, error)

	// SubmitPath reads a file from disk and submits it. Directories are
	// walked recursively, submitting one job per supported file; the
	// returned slice holds the job ids in walk order.
	SubmitPath(ctx context.Context, path, collection string) ([]string, error)

	// Job returns the current snapshot of a job.
	// Unknown ids return domain.ErrNotFound.
	Job(ctx context.Context, id string) (*domain.IngestJob, error)

	// Jobs returns all known jobs, newest first.
	Jobs(ctx context.Context) ([]domain.IngestJob, error)

	// Wait blocks until the job reaches a terminal state or the context
	// is cancelled, polling at the given interval. Returns the final
	// snapshot; a job in the error state is not itself an error.
	Wait(ctx context.Context, id string, interval time.Duration) (*domain.IngestJob, error)

	// Purge removes terminal jobs older than the given age and returns
	// how many were removed.
	Purge(ctx context.Context, age time.Duration) (int, error)
}
