package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

func TestExtractCollection(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{
			name:     "valid collection documents URI",
			uri:      "quarry://collections/knowledge/documents",
			expected: "knowledge",
		},
		{
			name:     "invalid prefix",
			uri:      "file://collections/knowledge/documents",
			expected: "",
		},
		{
			name:     "missing documents suffix",
			uri:      "quarry://collections/knowledge",
			expected: "",
		},
		{
			name:     "empty URI",
			uri:      "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractCollection(tt.uri)
			assert.Equal(t, tt.expected, result)
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleCollectionsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil collection service returns empty list", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://collections")
		result, err := server.handleCollectionsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns collections successfully", func(t *testing.T) {
		mockCollection := &mockCollectionService{
			collections: []domain.CollectionStats{
				{Name: "knowledge", Points: 42, Dimensions: 768},
			},
		}

		ports := &Ports{Search: &mockSearchService{}, Collection: mockCollection}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://collections")
		result, err := server.handleCollectionsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"knowledge"`)
		assert.Contains(t, result.Contents[0].Text, `"points": 42`)
		assert.Contains(t, result.Contents[0].Text, `"dimensions": 768`)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		mockCollection := &mockCollectionService{err: errors.New("store down")}

		ports := &Ports{Search: &mockSearchService{}, Collection: mockCollection}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://collections")
		_, err = server.handleCollectionsResource(ctx, req)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "store down")
	})
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil collection service returns not found", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://collections/knowledge/documents")
		_, err = server.handleDocumentsResource(ctx, req)

		require.Error(t, err)
	})

	t.Run("returns documents successfully", func(t *testing.T) {
		mockCollection := &mockCollectionService{
			documents: []domain.DocumentSummary{
				{DocumentID: "doc_abc", Filename: "report.pdf", Passages: 12},
			},
		}

		ports := &Ports{Search: &mockSearchService{}, Collection: mockCollection}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://collections/knowledge/documents")
		result, err := server.handleDocumentsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"doc_abc"`)
		assert.Contains(t, result.Contents[0].Text, `"report.pdf"`)
	})

	t.Run("malformed URI returns not found", func(t *testing.T) {
		mockCollection := &mockCollectionService{}

		ports := &Ports{Search: &mockSearchService{}, Collection: mockCollection}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://collections/knowledge")
		_, err = server.handleDocumentsResource(ctx, req)

		require.Error(t, err)
	})
}

func TestServer_handleJobsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("nil ingest returns empty list", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://jobs")
		result, err := server.handleJobsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns jobs successfully", func(t *testing.T) {
		mockIngest := &mockIngestOrchestrator{
			jobs: []domain.IngestJob{
				{ID: "job-1", Filename: "report.pdf", State: domain.StateEmbedding},
				{ID: "job-2", Filename: "notes.txt", State: domain.StateError, Error: "boom"},
			},
		}

		ports := &Ports{Search: &mockSearchService{}, Ingest: mockIngest}
		server, err := NewServer(ports)
		require.NoError(t, err)

		req := makeReadResourceRequest("quarry://jobs")
		result, err := server.handleJobsResource(ctx, req)

		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Contains(t, result.Contents[0].Text, `"job-1"`)
		assert.Contains(t, result.Contents[0].Text, `"embedding"`)
		assert.Contains(t, result.Contents[0].Text, `"boom"`)
	})
}
