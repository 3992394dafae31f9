package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// --- Shared mock implementations for service tests ---

// mockExtractor implements driven.TextExtractor.
type mockExtractor struct {
	name       string
	extraction *domain.Extraction
	err        error
	calls      int
}

func (m *mockExtractor) Extract(_ context.Context, _ *domain.Submission) (*domain.Extraction, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.extraction, nil
}

func (m *mockExtractor) Name() string { return m.name }

// mockRegistry implements driven.ExtractorRegistry, serving one
// extractor for every filename unless lookupErr is set.
type mockRegistry struct {
	extractor driven.TextExtractor
	lookupErr error
}

func (m *mockRegistry) Lookup(_ string) (driven.TextExtractor, error) {
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	return m.extractor, nil
}

func (m *mockRegistry) Supported() []string { return []string{".pdf", ".txt"} }

// mockSplitter implements driven.Splitter with a fixed passage list.
type mockSplitter struct {
	passages []domain.Passage
	err      error
}

func (m *mockSplitter) Split(_ string) ([]domain.Passage, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.passages, nil
}

// nPassages builds n single-token passages for batching tests.
func nPassages(n int) []domain.Passage {
	passages := make([]domain.Passage, n)
	for i := range passages {
		passages[i] = domain.Passage{
			Index:      i,
			Text:       fmt.Sprintf("passage %d", i),
			TokenCount: 1,
			CharCount:  len(fmt.Sprintf("passage %d", i)),
		}
	}
	return passages
}

// mockEmbedder implements driven.EmbeddingService. Each embedded text
// receives a distinct vector tagging its global submission order, so
// tests can verify order-preserving reassembly across batches.
type mockEmbedder struct {
	mu         sync.Mutex
	batchSizes []int
	count      int
	maxBatch   int
	dims       int
	queryVec   []float32
	embedErr   error
	batchErr   error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.queryVec != nil {
		return m.queryVec, nil
	}
	return []float32{1, 0}, nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	m.batchSizes = append(m.batchSizes, len(texts))
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(m.count), 1}
		m.count++
	}
	return vectors, nil
}

func (m *mockEmbedder) MaxBatchSize() int {
	if m.maxBatch > 0 {
		return m.maxBatch
	}
	return 100
}

func (m *mockEmbedder) Dimensions() int {
	if m.dims > 0 {
		return m.dims
	}
	return 2
}

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockVectorStore implements driven.VectorStore in memory, preserving
// insertion order per collection the way the real backends do.
type mockVectorStore struct {
	mu          sync.Mutex
	collections map[string]*mockCollection
	upsertErr   error
	searchErr   error
}

type mockCollection struct {
	dims  int
	order []string
	byID  map[string]domain.Point
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{
		collections: make(map[string]*mockCollection),
	}
}

func (m *mockVectorStore) EnsureCollection(_ context.Context, name string, dims int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.collections[name]; ok {
		if c.dims != dims {
			return domain.ErrDimensionMismatch
		}
		return nil
	}
	m.collections[name] = &mockCollection{
		dims: dims,
		byID: make(map[string]domain.Point),
	}
	return nil
}

func (m *mockVectorStore) Upsert(_ context.Context, collection string, points []domain.Point) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return m.upsertErr
	}
	c, ok := m.collections[collection]
	if !ok {
		return domain.ErrNotFound
	}
	for _, p := range points {
		if _, exists := c.byID[p.ID]; !exists {
			c.order = append(c.order, p.ID)
		}
		c.byID[p.ID] = p
	}
	return nil
}

func (m *mockVectorStore) Search(
	_ context.Context, collection string, vector []float32, limit int,
) ([]driven.ScoredPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	c, ok := m.collections[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}

	scored := make([]driven.ScoredPoint, 0, len(c.order))
	for _, id := range c.order {
		p := c.byID[id]
		scored = append(scored, driven.ScoredPoint{Point: p, Score: cosine(vector, p.Vector)})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (m *mockVectorStore) Scroll(_ context.Context, collection string, offset, limit int) ([]domain.Point, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if offset >= len(c.order) {
		return nil, nil
	}
	end := offset + limit
	if end > len(c.order) {
		end = len(c.order)
	}
	points := make([]domain.Point, 0, end-offset)
	for _, id := range c.order[offset:end] {
		points = append(points, c.byID[id])
	}
	return points, nil
}

func (m *mockVectorStore) DeleteDocument(_ context.Context, collection, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return domain.ErrNotFound
	}
	kept := c.order[:0]
	for _, id := range c.order {
		if c.byID[id].DocumentID == documentID {
			delete(c.byID, id)
			continue
		}
		kept = append(kept, id)
	}
	c.order = kept
	return nil
}

func (m *mockVectorStore) ListDocuments(_ context.Context, collection string) ([]domain.DocumentSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}
	counts := make(map[string]*domain.DocumentSummary)
	var docs []string
	for _, id := range c.order {
		p := c.byID[id]
		if _, ok := counts[p.DocumentID]; !ok {
			counts[p.DocumentID] = &domain.DocumentSummary{
				DocumentID: p.DocumentID,
				Filename:   p.Filename,
			}
			docs = append(docs, p.DocumentID)
		}
		counts[p.DocumentID].Passages++
	}
	summaries := make([]domain.DocumentSummary, 0, len(docs))
	for _, doc := range docs {
		summaries = append(summaries, *counts[doc])
	}
	return summaries, nil
}

func (m *mockVectorStore) Stats(_ context.Context, collection string) (*domain.CollectionStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.collections[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.CollectionStats{
		Name:       collection,
		Points:     int64(len(c.order)),
		Dimensions: c.dims,
	}, nil
}

func (m *mockVectorStore) ListCollections(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockVectorStore) DropCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.collections[name]; !ok {
		return domain.ErrNotFound
	}
	delete(m.collections, name)
	return nil
}

func (m *mockVectorStore) Close() error { return nil }

// cosine computes cosine similarity between two vectors.
func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return -1
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// mockGenerator implements driven.GenerationService.
type mockGenerator struct {
	response string
	err      error
	calls    int
	lastReq  driven.CompletionRequest
}

func (m *mockGenerator) Complete(_ context.Context, req driven.CompletionRequest) (string, error) {
	m.calls++
	m.lastReq = req
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockGenerator) ModelName() string { return "mock-gen" }

func (m *mockGenerator) Ping(_ context.Context) error { return nil }

func (m *mockGenerator) Close() error { return nil }

// mockConfigStore implements driven.ConfigStore over a map.
type mockConfigStore struct {
	values map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	if v, ok := m.values[key].(string); ok {
		return v
	}
	return ""
}

func (m *mockConfigStore) GetInt(key string) int {
	switch v := m.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	default:
		return 0
	}
}

func (m *mockConfigStore) GetFloat64(key string) float64 {
	switch v := m.values[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func (m *mockConfigStore) GetBool(key string) bool {
	if v, ok := m.values[key].(bool); ok {
		return v
	}
	return false
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error { return nil }

func (m *mockConfigStore) Load() error { return nil }

func (m *mockConfigStore) Path() string { return "/tmp/mock-config.toml" }

// mockPromptStore implements driven.PromptStore.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if p, ok := m.prompts[name]; ok {
		return p, nil
	}
	return "", fmt.Errorf("prompt %s not found", name)
}

func (m *mockPromptStore) Reload() {}

// longText repeats a sentence until it reaches at least n characters.
func longText(n int) string {
	var b strings.Builder
	for b.Len() < n {
		b.WriteString("The quarterly report covers revenue, costs and outlook. ")
	}
	return b.String()[:n]
}
