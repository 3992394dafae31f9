package cli

import (
	"context"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	results []domain.SearchResult
	err     error
}

func (m *mockSearchService) Search(
	_ context.Context,
	_ string,
	_ domain.SearchOptions,
) ([]domain.SearchResult, error) {
	return m.results, m.err
}

// mockDraftService is a mock implementation of driving.DraftService.
type mockDraftService struct {
	draft *domain.Draft
	err   error
}

func (m *mockDraftService) Draft(_ context.Context, _ domain.DraftRequest) (*domain.Draft, error) {
	return m.draft, m.err
}

// mockIngestOrchestrator is a mock implementation of driving.IngestOrchestrator.
type mockIngestOrchestrator struct {
	submitIDs []string
	job       *domain.IngestJob
	jobs      []domain.IngestJob
	purged    int
	err       error
}

func (m *mockIngestOrchestrator) Submit(_ context.Context, _ domain.Submission) (string, error) {
	if len(m.submitIDs) > 0 {
		return m.submitIDs[0], m.err
	}
	return "", m.err
}

func (m *mockIngestOrchestrator) SubmitPath(_ context.Context, _, _ string) ([]string, error) {
	return m.submitIDs, m.err
}

func (m *mockIngestOrchestrator) Job(_ context.Context, _ string) (*domain.IngestJob, error) {
	return m.job, m.err
}

func (m *mockIngestOrchestrator) Jobs(_ context.Context) ([]domain.IngestJob, error) {
	return m.jobs, m.err
}

func (m *mockIngestOrchestrator) Wait(
	_ context.Context,
	_ string,
	_ time.Duration,
) (*domain.IngestJob, error) {
	return m.job, m.err
}

func (m *mockIngestOrchestrator) Purge(_ context.Context, _ time.Duration) (int, error) {
	return m.purged, m.err
}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	collections []domain.CollectionStats
	stats       *domain.CollectionStats
	documents   []domain.DocumentSummary
	deleted     []string
	resets      []string
	drops       []string
	err         error
}

func (m *mockCollectionService) List(_ context.Context) ([]domain.CollectionStats, error) {
	return m.collections, m.err
}

func (m *mockCollectionService) Stats(_ context.Context, _ string) (*domain.CollectionStats, error) {
	return m.stats, m.err
}

func (m *mockCollectionService) Documents(_ context.Context, _ string) ([]domain.DocumentSummary, error) {
	return m.documents, m.err
}

func (m *mockCollectionService) DeleteDocument(_ context.Context, _, documentID string) error {
	m.deleted = append(m.deleted, documentID)
	return m.err
}

func (m *mockCollectionService) Reset(_ context.Context, name string) error {
	m.resets = append(m.resets, name)
	return m.err
}

func (m *mockCollectionService) Drop(_ context.Context, name string) error {
	m.drops = append(m.drops, name)
	return m.err
}

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    *domain.AppSettings
	validateErr error
	err         error
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	return m.settings, m.err
}

func (m *mockSettingsService) Save(_ *domain.AppSettings) error {
	return m.err
}

func (m *mockSettingsService) SetEmbeddingProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetGenerationProvider(_ domain.AIProvider, _, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetStoreBackend(_ domain.VectorBackend, _ string) error {
	return m.err
}

func (m *mockSettingsService) SetParserAPIKey(_ string) error {
	return m.err
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.validateErr
}

func (m *mockSettingsService) ValidateGenerationConfig() error {
	return m.validateErr
}

// mockVectorStore is a mock implementation of driven.VectorStore.
type mockVectorStore struct {
	err error
}

func (m *mockVectorStore) EnsureCollection(_ context.Context, _ string, _ int) error {
	return m.err
}

func (m *mockVectorStore) Upsert(_ context.Context, _ string, _ []domain.Point) error {
	return m.err
}

func (m *mockVectorStore) Search(
	_ context.Context,
	_ string,
	_ []float32,
	_ int,
) ([]driven.ScoredPoint, error) {
	return nil, m.err
}

func (m *mockVectorStore) Scroll(_ context.Context, _ string, _, _ int) ([]domain.Point, error) {
	return nil, m.err
}

func (m *mockVectorStore) DeleteDocument(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockVectorStore) ListDocuments(_ context.Context, _ string) ([]domain.DocumentSummary, error) {
	return nil, m.err
}

func (m *mockVectorStore) Stats(_ context.Context, _ string) (*domain.CollectionStats, error) {
	return nil, m.err
}

func (m *mockVectorStore) ListCollections(_ context.Context) ([]string, error) {
	return nil, m.err
}

func (m *mockVectorStore) DropCollection(_ context.Context, _ string) error {
	return m.err
}

func (m *mockVectorStore) Close() error {
	return m.err
}

// mockMigrateService is a mock implementation of driving.MigrateService.
type mockMigrateService struct {
	report *driving.MigrateReport
	err    error
}

func (m *mockMigrateService) Migrate(_ context.Context, _ string) (*driving.MigrateReport, error) {
	return m.report, m.err
}

// setupTestServices installs mock services into the package vars and
// returns a cleanup that restores the previous wiring.
func setupTestServices() func() {
	oldSettingsService := settingsService
	oldSearch := searchService
	oldDraft := draftService
	oldIngest := ingestOrchestrator
	oldCollection := collectionService
	oldStore := vectorStore
	oldAppSettings := appSettings

	searchService = &mockSearchService{
		results: []domain.SearchResult{
			{
				PointID:    "pt-1",
				DocumentID: "doc_abc",
				Filename:   "report.pdf",
				ChunkIndex: 0,
				Text:       "This quarter revenue grew by twelve percent.",
				Score:      0.91,
			},
		},
	}
	draftService = &mockDraftService{
		draft: &domain.Draft{
			Content:   "Drafted content.",
			Threshold: 0.30,
			Model:     "llama3.2",
			Sources: []domain.SearchResult{
				{Filename: "report.pdf", ChunkIndex: 0, Score: 0.91},
			},
		},
	}
	completed := &domain.IngestJob{
		ID:           "job-1",
		Filename:     "report.pdf",
		Collection:   "knowledge",
		DocumentID:   "doc_abc",
		State:        domain.StateCompleted,
		Method:       domain.MethodLocal,
		PassageCount: 4,
		TokenCount:   3200,
		PointCount:   4,
		CreatedAt:    time.Now().UTC(),
	}
	ingestOrchestrator = &mockIngestOrchestrator{
		submitIDs: []string{"job-1"},
		job:       completed,
		jobs:      []domain.IngestJob{*completed},
	}
	collectionService = &mockCollectionService{
		collections: []domain.CollectionStats{
			{Name: "knowledge", Points: 42, Dimensions: 768},
		},
		stats: &domain.CollectionStats{Name: "knowledge", Points: 42, Dimensions: 768},
		documents: []domain.DocumentSummary{
			{DocumentID: "doc_abc", Filename: "report.pdf", Passages: 4},
		},
	}
	vectorStore = &mockVectorStore{}
	defaults := domain.DefaultAppSettings()
	appSettings = &defaults
	settingsService = &mockSettingsService{settings: &defaults}

	return func() {
		settingsService = oldSettingsService
		searchService = oldSearch
		draftService = oldDraft
		ingestOrchestrator = oldIngest
		collectionService = oldCollection
		vectorStore = oldStore
		appSettings = oldAppSettings
	}
}
