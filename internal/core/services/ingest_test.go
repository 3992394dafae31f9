package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/adapters/driven/jobstore/memory"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// ingestFixture bundles an orchestrator with its mocks.
type ingestFixture struct {
	orchestrator *IngestOrchestrator
	jobStore     *memory.JobStore
	local        *mockExtractor
	fallback     *mockExtractor
	splitter     *mockSplitter
	embedder     *mockEmbedder
	store        *mockVectorStore
}

func newIngestFixture(withFallback bool) *ingestFixture {
	f := &ingestFixture{
		jobStore: memory.NewJobStore(),
		local: &mockExtractor{
			name:       "pdf",
			extraction: &domain.Extraction{Text: longText(500), PageCount: 3},
		},
		fallback: &mockExtractor{
			name:       "llamaparse",
			extraction: &domain.Extraction{Text: longText(800), PageCount: 3},
		},
		splitter: &mockSplitter{passages: nPassages(1)},
		embedder: &mockEmbedder{},
		store:    newMockVectorStore(),
	}

	var fallback driven.TextExtractor
	if withFallback {
		fallback = f.fallback
	}
	f.orchestrator = NewIngestOrchestrator(
		f.jobStore,
		&mockRegistry{extractor: f.local},
		fallback,
		f.splitter,
		f.embedder,
		f.store,
		IngestConfig{Collection: "knowledge", MinChars: 100},
	)
	return f
}

// waitDone polls until the job reaches a terminal state.
func waitDone(t *testing.T, f *ingestFixture, id string) *domain.IngestJob {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := f.orchestrator.Wait(ctx, id, 5*time.Millisecond)
	require.NoError(t, err)
	return job
}

func TestIngest_SubmitReturnsImmediately(t *testing.T) {
	f := newIngestFixture(false)

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "report.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// The job exists as soon as Submit returns, whatever state the
	// background pipeline has reached.
	job, err := f.orchestrator.Job(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "report.pdf", job.Filename)
}

func TestIngest_SubmitValidation(t *testing.T) {
	f := newIngestFixture(false)
	ctx := context.Background()

	_, err := f.orchestrator.Submit(ctx, domain.Submission{Data: []byte("x")})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	_, err = f.orchestrator.Submit(ctx, domain.Submission{Filename: "a.pdf"})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestIngest_CompletesWithStats(t *testing.T) {
	f := newIngestFixture(false)
	f.splitter.passages = nPassages(4)

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "report.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)

	job := waitDone(t, f, id)
	assert.Equal(t, domain.StateCompleted, job.State)
	assert.Equal(t, domain.MethodLocal, job.Method)
	assert.Equal(t, 4, job.PassageCount)
	assert.Equal(t, 4, job.TokenCount)
	assert.Equal(t, 4, job.PointCount)
	assert.Equal(t, 3, job.PageCount)
	assert.NotNil(t, job.CompletedAt)

	stats, err := f.store.Stats(context.Background(), "knowledge")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Points)
}

func TestIngest_QualityGateBoundary(t *testing.T) {
	// Exactly 100 characters passes the gate: one chunk, one point,
	// completed with the local method.
	f := newIngestFixture(true)
	f.local.extraction = &domain.Extraction{Text: longText(100)}

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "short.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)

	job := waitDone(t, f, id)
	assert.Equal(t, domain.StateCompleted, job.State)
	assert.Equal(t, domain.MethodLocal, job.Method)
	assert.Equal(t, 1, job.PassageCount)
	assert.Equal(t, 0, f.fallback.calls)
}

func TestIngest_CloudFallbackOnLowQuality(t *testing.T) {
	// 40 characters misses the gate; the cloud result is what gets
	// chunked and the method records the fallback.
	f := newIngestFixture(true)
	f.local.extraction = &domain.Extraction{Text: longText(40)}

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "scanned.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)

	job := waitDone(t, f, id)
	assert.Equal(t, domain.StateCompleted, job.State)
	assert.Equal(t, domain.MethodCloudFallback, job.Method)
	assert.Equal(t, 1, f.local.calls)
	assert.Equal(t, 1, f.fallback.calls)
}

func TestIngest_CloudFallbackOnLocalError(t *testing.T) {
	f := newIngestFixture(true)
	f.local.err = errors.New("malformed xref table")

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "broken.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)

	job := waitDone(t, f, id)
	assert.Equal(t, domain.StateCompleted, job.State)
	assert.Equal(t, domain.MethodCloudFallback, job.Method)
}

func TestIngest_BothExtractionsFail(t *testing.T) {
	f := newIngestFixture(true)
	f.local.err = errors.New("malformed xref table")
	f.fallback.err = errors.New("parse job failed")

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "broken.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)

	job := waitDone(t, f, id)
	assert.Equal(t, domain.StateError, job.State)
	assert.Contains(t, job.Error, "extraction failed")
	assert.Contains(t, job.Error, "parse job failed")
}

func TestIngest_NoFallbackConfigured(t *testing.T) {
	f := newIngestFixture(false)
	f.local.extraction = &domain.Extraction{Text: longText(40)}

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "short.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)

	job := waitDone(t, f, id)
	assert.Equal(t, domain.StateError, job.State)
	assert.Contains(t, job.Error, "quality threshold")
}

func TestIngest_EmptyChunkOutputFailsJob(t *testing.T) {
	f := newIngestFixture(false)
	f.splitter.passages = nil

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "report.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)

	job := waitDone(t, f, id)
	assert.Equal(t, domain.StateError, job.State)
	assert.Contains(t, job.Error, "chunking failed")
}

func TestIngest_EmbeddingFailureFailsWholeJob(t *testing.T) {
	f := newIngestFixture(false)
	f.splitter.passages = nPassages(10)
	f.embedder.batchErr = errors.New("rate limited")

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "report.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)

	job := waitDone(t, f, id)
	assert.Equal(t, domain.StateError, job.State)
	assert.Contains(t, job.Error, "embedding failed")

	// No partial success: nothing was written to the store.
	_, err = f.store.Stats(context.Background(), "knowledge")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestIngest_StorageFailureFailsJob(t *testing.T) {
	f := newIngestFixture(false)
	f.store.upsertErr = errors.New("connection refused")

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "report.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)

	job := waitDone(t, f, id)
	assert.Equal(t, domain.StateError, job.State)
	assert.Contains(t, job.Error, "vector storage failed")
}

func TestIngest_BatchPartitioning(t *testing.T) {
	// 250 passages against a batch cap of 100 means exactly three
	// provider calls of 100, 100 and 50, reassembled in order.
	f := newIngestFixture(false)
	f.splitter.passages = nPassages(250)

	id, err := f.orchestrator.Submit(context.Background(), domain.Submission{
		Filename: "big.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)

	job := waitDone(t, f, id)
	require.Equal(t, domain.StateCompleted, job.State)
	assert.Equal(t, []int{100, 100, 50}, f.embedder.batchSizes)

	// Each mock vector tags its global embedding order; scrolling the
	// store back must show vector i on chunk index i.
	points, err := f.store.Scroll(context.Background(), "knowledge", 0, 250)
	require.NoError(t, err)
	require.Len(t, points, 250)
	for i, p := range points {
		assert.Equal(t, i, p.ChunkIndex)
		assert.Equal(t, float32(i), p.Vector[0])
	}
}

func TestIngest_ReingestionIsIdempotent(t *testing.T) {
	f := newIngestFixture(false)
	f.splitter.passages = nPassages(5)
	ctx := context.Background()

	first, err := f.orchestrator.Submit(ctx, domain.Submission{
		Filename: "report.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)
	waitDone(t, f, first)

	second, err := f.orchestrator.Submit(ctx, domain.Submission{
		Filename: "report.pdf",
		Data:     []byte("%PDF"),
	})
	require.NoError(t, err)
	job := waitDone(t, f, second)
	require.Equal(t, domain.StateCompleted, job.State)

	// Same document, same chunk indices, same point ids: the second
	// run overwrites instead of duplicating.
	stats, err := f.store.Stats(ctx, "knowledge")
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Points)
}

func TestIngest_UnknownJobID(t *testing.T) {
	f := newIngestFixture(false)

	_, err := f.orchestrator.Job(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestIngest_JobsNewestFirst(t *testing.T) {
	f := newIngestFixture(false)
	ctx := context.Background()

	a, err := f.orchestrator.Submit(ctx, domain.Submission{Filename: "a.pdf", Data: []byte("x")})
	require.NoError(t, err)
	waitDone(t, f, a)
	b, err := f.orchestrator.Submit(ctx, domain.Submission{Filename: "b.pdf", Data: []byte("x")})
	require.NoError(t, err)
	waitDone(t, f, b)

	jobs, err := f.orchestrator.Jobs(ctx)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
}

func TestPointID_Deterministic(t *testing.T) {
	docID := domain.DocumentID("report.pdf")

	assert.Equal(t, PointID(docID, 0), PointID(docID, 0))
	assert.NotEqual(t, PointID(docID, 0), PointID(docID, 1))
	assert.NotEqual(t, PointID(docID, 0), PointID(domain.DocumentID("other.pdf"), 0))
}
