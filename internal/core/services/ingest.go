package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
	"github.com/custodia-labs/quarry/internal/logger"
)

// Ensure IngestOrchestrator implements the interface.
var _ driving.IngestOrchestrator = (*IngestOrchestrator)(nil)

// pointNamespace is the UUIDv5 namespace for point identifiers.
// Fixed so that the same document id and chunk index always derive the
// same point id, which is what makes re-ingestion overwrite in place.
var pointNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// PointID derives the deterministic point identifier for one passage.
func PointID(documentID string, chunkIndex int) string {
	name := fmt.Sprintf("%s:%d", documentID, chunkIndex)
	return uuid.NewSHA1(pointNamespace, []byte(name)).String()
}

// IngestConfig holds the orchestrator's pipeline configuration.
type IngestConfig struct {
	// Collection is the default target collection.
	Collection string

	// MinChars is the extraction quality gate: local results shorter
	// than this trigger the cloud fallback.
	MinChars int
}

// IngestOrchestrator runs the document ingestion state machine.
//
// Submit validates synchronously, then the pipeline - extract, chunk,
// embed, inject - runs on its own goroutine while the caller polls the
// job by id. Each job is sequential internally; jobs from different
// documents run concurrently without shared mutable state beyond the
// vector store.
type IngestOrchestrator struct {
	jobStore driven.JobStore
	registry driven.ExtractorRegistry
	fallback driven.TextExtractor
	splitter driven.Splitter
	embedder driven.EmbeddingService
	store    driven.VectorStore
	cfg      IngestConfig
}

// NewIngestOrchestrator creates an ingestion orchestrator.
// The fallback extractor is optional: when nil, a local extraction that
// fails or misses the quality gate fails the job instead of escalating.
func NewIngestOrchestrator(
	jobStore driven.JobStore,
	registry driven.ExtractorRegistry,
	fallback driven.TextExtractor,
	splitter driven.Splitter,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	cfg IngestConfig,
) *IngestOrchestrator {
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultAppSettings().Ingest.Collection
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = domain.DefaultAppSettings().Ingest.MinChars
	}
	return &IngestOrchestrator{
		jobStore: jobStore,
		registry: registry,
		fallback: fallback,
		splitter: splitter,
		embedder: embedder,
		store:    store,
		cfg:      cfg,
	}
}

// Submit queues a document for ingestion and returns the job id.
func (o *IngestOrchestrator) Submit(ctx context.Context, sub domain.Submission) (string, error) {
	if strings.TrimSpace(sub.Filename) == "" {
		return "", fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if len(sub.Data) == 0 {
		return "", fmt.Errorf("%w: document is empty", domain.ErrInvalidInput)
	}
	if o.embedder == nil {
		return "", domain.ErrEmbeddingUnavailable
	}
	if sub.Collection == "" {
		sub.Collection = o.cfg.Collection
	}

	job := domain.NewIngestJob(uuid.NewString(), sub.Filename, sub.Collection)
	if err := o.jobStore.Save(ctx, *job); err != nil {
		return "", fmt.Errorf("save job: %w", err)
	}

	logger.Info("Queued %s as job %s", sub.Filename, job.ID)

	// The pipeline outlives the submitting request, so it runs under
	// its own context. There is no cancellation mid-job.
	go o.run(context.Background(), job, &sub)

	return job.ID, nil
}

// SubmitPath reads a file or directory from disk and submits it.
func (o *IngestOrchestrator) SubmitPath(ctx context.Context, path, collection string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		id, err := o.submitFile(ctx, path, collection)
		if err != nil {
			return nil, err
		}
		return []string{id}, nil
	}

	var ids []string
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		// Skip unsupported files silently: a directory scan is
		// expected to contain formats quarry cannot ingest.
		if _, err := o.registry.Lookup(d.Name()); err != nil {
			return nil
		}
		id, err := o.submitFile(ctx, p, collection)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		return nil
	})
	if walkErr != nil {
		return ids, fmt.Errorf("walk %s: %w", path, walkErr)
	}
	return ids, nil
}

// submitFile reads one file and submits it for ingestion.
func (o *IngestOrchestrator) submitFile(ctx context.Context, path, collection string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return o.Submit(ctx, domain.Submission{
		Filename:   filepath.Base(path),
		Data:       data,
		Collection: collection,
	})
}

// Job returns the current snapshot of a job.
func (o *IngestOrchestrator) Job(ctx context.Context, id string) (*domain.IngestJob, error) {
	return o.jobStore.Get(ctx, id)
}

// Jobs returns all known jobs, newest first.
func (o *IngestOrchestrator) Jobs(ctx context.Context) ([]domain.IngestJob, error) {
	return o.jobStore.List(ctx)
}

// Wait polls the job until it reaches a terminal state.
func (o *IngestOrchestrator) Wait(ctx context.Context, id string, interval time.Duration) (*domain.IngestJob, error) {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := o.jobStore.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.State.Terminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Purge removes terminal jobs older than the given age.
func (o *IngestOrchestrator) Purge(ctx context.Context, age time.Duration) (int, error) {
	return o.jobStore.PurgeOlderThan(ctx, age)
}

// run executes the pipeline states for one job.
// Any stage failure halts the job, records the cause and transitions it
// to the error state; nothing continues on partial data.
func (o *IngestOrchestrator) run(ctx context.Context, job *domain.IngestJob, sub *domain.Submission) {
	logger.Section("Ingest " + job.Filename)

	// 1. EXTRACT
	if err := o.advance(ctx, job, domain.StateExtracting); err != nil {
		return
	}
	extraction, err := o.extract(ctx, job, sub)
	if err != nil {
		o.fail(ctx, job, err)
		return
	}
	job.PageCount = extraction.PageCount
	job.Title = extraction.Title
	job.Author = extraction.Author

	// 2. CHUNK
	if err := o.advance(ctx, job, domain.StateChunking); err != nil {
		return
	}
	passages, err := o.splitter.Split(extraction.Text)
	if err != nil {
		o.fail(ctx, job, fmt.Errorf("%w: %w", domain.ErrChunkingFailed, err))
		return
	}
	if len(passages) == 0 {
		o.fail(ctx, job, fmt.Errorf("%w: no passages produced", domain.ErrChunkingFailed))
		return
	}
	job.PassageCount = len(passages)
	for _, p := range passages {
		job.TokenCount += p.TokenCount
	}
	logger.Debug("Split into %d passages, %d tokens", job.PassageCount, job.TokenCount)

	// 3. EMBED
	if err := o.advance(ctx, job, domain.StateEmbedding); err != nil {
		return
	}
	vectors, err := o.embedAll(ctx, passages)
	if err != nil {
		o.fail(ctx, job, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err))
		return
	}

	// 4. INJECT
	if err := o.advance(ctx, job, domain.StateInjecting); err != nil {
		return
	}
	points := o.buildPoints(job, passages, vectors)
	if err := o.inject(ctx, job.Collection, points); err != nil {
		o.fail(ctx, job, fmt.Errorf("%w: %w", domain.ErrStorageFailed, err))
		return
	}
	job.PointCount = len(points)

	// 5. DONE
	if err := o.advance(ctx, job, domain.StateCompleted); err != nil {
		return
	}
	logger.Info("Job %s completed: %d points in %s", job.ID, job.PointCount, job.Collection)
}

// extract runs the local extractor and, when it fails or misses the
// quality gate, the cloud fallback. The method used is recorded on the
// job.
func (o *IngestOrchestrator) extract(
	ctx context.Context, job *domain.IngestJob, sub *domain.Submission,
) (*domain.Extraction, error) {
	extraction, localErr := o.extractLocal(ctx, sub)
	if localErr == nil {
		job.Method = domain.MethodLocal
		return extraction, nil
	}

	if o.fallback == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, localErr)
	}

	logger.Warn("Local extraction of %s failed (%v), trying cloud fallback", sub.Filename, localErr)

	extraction, cloudErr := o.fallback.Extract(ctx, sub)
	if cloudErr != nil {
		return nil, fmt.Errorf("%w: local: %w; cloud: %w", domain.ErrExtractionFailed, localErr, cloudErr)
	}
	job.Method = domain.MethodCloudFallback
	return extraction, nil
}

// extractLocal runs the registered extractor and applies the quality gate.
func (o *IngestOrchestrator) extractLocal(ctx context.Context, sub *domain.Submission) (*domain.Extraction, error) {
	extractor, err := o.registry.Lookup(sub.Filename)
	if err != nil {
		return nil, err
	}

	extraction, err := extractor.Extract(ctx, sub)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", extractor.Name(), err)
	}
	if extraction.CharCount() < o.cfg.MinChars {
		return nil, fmt.Errorf("%w: %d chars, need %d",
			domain.ErrLowQualityExtraction, extraction.CharCount(), o.cfg.MinChars)
	}
	return extraction, nil
}

// embedAll embeds every passage, one provider call per batch of at most
// MaxBatchSize, reassembling vectors in passage order. A failed batch
// fails the whole operation; there is no passage-level partial success.
func (o *IngestOrchestrator) embedAll(ctx context.Context, passages []domain.Passage) ([][]float32, error) {
	batchSize := o.embedder.MaxBatchSize()
	if batchSize <= 0 {
		batchSize = 1
	}

	vectors := make([][]float32, 0, len(passages))
	for start := 0; start < len(passages); start += batchSize {
		end := start + batchSize
		if end > len(passages) {
			end = len(passages)
		}

		texts := make([]string, 0, end-start)
		for _, p := range passages[start:end] {
			texts = append(texts, p.Text)
		}

		batch, err := o.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("batch starting at passage %d: %w", start, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("batch starting at passage %d: got %d vectors for %d texts",
				start, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// buildPoints pairs passages with their vectors under deterministic ids.
func (o *IngestOrchestrator) buildPoints(
	job *domain.IngestJob, passages []domain.Passage, vectors [][]float32,
) []domain.Point {
	points := make([]domain.Point, 0, len(passages))
	for i, p := range passages {
		points = append(points, domain.Point{
			ID:         PointID(job.DocumentID, p.Index),
			DocumentID: job.DocumentID,
			Filename:   job.Filename,
			ChunkIndex: p.Index,
			Text:       p.Text,
			TokenCount: p.TokenCount,
			Vector:     vectors[i],
		})
	}
	return points
}

// inject upserts the points into the job's collection, creating it on
// first use.
func (o *IngestOrchestrator) inject(ctx context.Context, collection string, points []domain.Point) error {
	if err := o.store.EnsureCollection(ctx, collection, o.embedder.Dimensions()); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	if err := o.store.Upsert(ctx, collection, points); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// advance transitions the job and persists the snapshot.
func (o *IngestOrchestrator) advance(ctx context.Context, job *domain.IngestJob, target domain.JobState) error {
	if err := job.Transition(target); err != nil {
		o.fail(ctx, job, fmt.Errorf("transition %s -> %s: %w", job.State, target, err))
		return err
	}
	logger.Stage(job.ID, job.State)
	if err := o.jobStore.Save(ctx, *job); err != nil {
		o.fail(ctx, job, fmt.Errorf("save job: %w", err))
		return err
	}
	return nil
}

// fail moves the job to the error state and persists it.
func (o *IngestOrchestrator) fail(ctx context.Context, job *domain.IngestJob, cause error) {
	if errors.Is(cause, context.Canceled) {
		logger.Warn("Job %s interrupted: %v", job.ID, cause)
	} else {
		logger.Warn("Job %s failed: %v", job.ID, cause)
	}
	job.Fail(cause)
	if err := o.jobStore.Save(ctx, *job); err != nil {
		logger.Warn("Failed to record job %s failure: %v", job.ID, err)
	}
}
