package tui

import (
	"context"
	"time"

	"github.com/custodia-labs/quarry/internal/core/domain"
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

// mockIngestOrchestrator is a mock implementation of driving.IngestOrchestrator.
type mockIngestOrchestrator struct {
	job  *domain.IngestJob
	jobs []domain.IngestJob
	err  error
}

func (m *mockIngestOrchestrator) Submit(_ context.Context, _ domain.Submission) (string, error) {
	return "", m.err
}

func (m *mockIngestOrchestrator) SubmitPath(_ context.Context, _, _ string) ([]string, error) {
	return nil, m.err
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
	return 0, m.err
}

// mockCollectionService is a mock implementation of driving.CollectionService.
type mockCollectionService struct {
	collections []domain.CollectionStats
	err         error
}

func (m *mockCollectionService) List(_ context.Context) ([]domain.CollectionStats, error) {
	return m.collections, m.err
}

func (m *mockCollectionService) Stats(_ context.Context, _ string) (*domain.CollectionStats, error) {
	return nil, m.err
}

func (m *mockCollectionService) Documents(_ context.Context, _ string) ([]domain.DocumentSummary, error) {
	return nil, m.err
}

func (m *mockCollectionService) DeleteDocument(_ context.Context, _, _ string) error {
	return m.err
}

func (m *mockCollectionService) Reset(_ context.Context, _ string) error {
	return m.err
}

func (m *mockCollectionService) Drop(_ context.Context, _ string) error {
	return m.err
}
