package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mockSearch := &mockSearchService{
			results: []domain.SearchResult{
				{
					PointID:    "pt-1",
					DocumentID: "doc_abc",
					Filename:   "report.pdf",
					ChunkIndex: 3,
					Text:       "This is the passage",
					Score:      0.95,
				},
			},
		}

		ports := &Ports{Search: mockSearch}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := SearchInput{Query: "test", Limit: 10}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		assert.Len(t, output.Results, 1)
		assert.Equal(t, "doc_abc", output.Results[0].DocumentID)
		assert.Equal(t, "report.pdf", output.Results[0].Filename)
		assert.Equal(t, 3, output.Results[0].ChunkIndex)
		assert.Equal(t, 0.95, output.Results[0].Score)
		assert.Equal(t, "This is the passage", output.Results[0].Text)
	})

	t.Run("empty results are not an error", func(t *testing.T) {
		mockSearch := &mockSearchService{}
		ports := &Ports{Search: mockSearch}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := SearchInput{Query: "test"}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 0, output.Count)
		assert.Empty(t, output.Results)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mockSearch := &mockSearchService{
			err: errors.New("search failed"),
		}

		ports := &Ports{Search: mockSearch}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := SearchInput{Query: "test"}
		_, _, err = server.handleSearch(ctx, nil, input)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleDraft(t *testing.T) {
	ctx := context.Background()

	t.Run("returns draft with sources", func(t *testing.T) {
		mockDraft := &mockDraftService{
			draft: &domain.Draft{
				Content:   "Assembled content",
				Model:     "llama3.2",
				Threshold: 0.30,
				Sources: []domain.SearchResult{
					{DocumentID: "doc_abc", Filename: "report.pdf", Score: 0.8},
				},
			},
		}

		ports := &Ports{Search: &mockSearchService{}, Draft: mockDraft}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := DraftInput{Keywords: []string{"quarterly", "revenue"}, Instructions: "summarise"}
		_, output, err := server.handleDraft(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "Assembled content", output.Content)
		assert.False(t, output.Refused)
		assert.Equal(t, "llama3.2", output.Model)
		assert.Len(t, output.Sources, 1)
		assert.Equal(t, "doc_abc", output.Sources[0].DocumentID)
	})

	t.Run("refused draft carries no content", func(t *testing.T) {
		mockDraft := &mockDraftService{
			draft: &domain.Draft{
				Refused:   true,
				Threshold: 0.30,
			},
		}

		ports := &Ports{Search: &mockSearchService{}, Draft: mockDraft}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := DraftInput{Keywords: []string{"unrelated"}, Instructions: "summarise"}
		_, output, err := server.handleDraft(ctx, nil, input)

		require.NoError(t, err)
		assert.True(t, output.Refused)
		assert.Empty(t, output.Content)
		assert.Empty(t, output.Model)
	})

	t.Run("nil draft service returns error", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := DraftInput{Keywords: []string{"a"}}
		_, _, err = server.handleDraft(ctx, nil, input)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})
}

func TestServer_handleJobStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("returns job snapshot", func(t *testing.T) {
		mockIngest := &mockIngestOrchestrator{
			job: &domain.IngestJob{
				ID:           "job-1",
				Filename:     "report.pdf",
				Collection:   "knowledge",
				State:        domain.StateCompleted,
				Method:       domain.MethodLocal,
				PassageCount: 12,
				TokenCount:   9000,
				PointCount:   12,
			},
		}

		ports := &Ports{Search: &mockSearchService{}, Ingest: mockIngest}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := JobStatusInput{JobID: "job-1"}
		_, output, err := server.handleJobStatus(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "job-1", output.ID)
		assert.Equal(t, "completed", output.State)
		assert.Equal(t, "local", output.Method)
		assert.Equal(t, 12, output.Passages)
		assert.Equal(t, 9000, output.Tokens)
	})

	t.Run("unknown job returns error", func(t *testing.T) {
		mockIngest := &mockIngestOrchestrator{err: domain.ErrNotFound}

		ports := &Ports{Search: &mockSearchService{}, Ingest: mockIngest}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := JobStatusInput{JobID: "nope"}
		_, _, err = server.handleJobStatus(ctx, nil, input)

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("nil ingest returns error", func(t *testing.T) {
		ports := &Ports{Search: &mockSearchService{}}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := JobStatusInput{JobID: "job-1"}
		_, _, err = server.handleJobStatus(ctx, nil, input)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "not configured")
	})
}
