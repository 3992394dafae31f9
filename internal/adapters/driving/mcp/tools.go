package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string `json:"query" jsonschema:"the search query to find passages"`
	Collection string `json:"collection,omitempty" jsonschema:"collection to search (default from settings)"`
	Limit      int    `json:"limit,omitempty" jsonschema:"maximum number of results to return (default from settings)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// DraftInput is the input schema for the draft tool.
type DraftInput struct {
	Keywords     []string `json:"keywords" jsonschema:"keywords driving retrieval"`
	Instructions string   `json:"instructions" jsonschema:"directions for assembling the draft"`
	Collection   string   `json:"collection,omitempty" jsonschema:"collection to draw from (default from settings)"`
	Limit        int      `json:"limit,omitempty" jsonschema:"maximum passages to retrieve (default from settings)"`
}

// DraftOutput is the output schema for the draft tool.
type DraftOutput struct {
	Content   string               `json:"content"`
	Refused   bool                 `json:"refused"`
	Model     string               `json:"model,omitempty"`
	Threshold float64              `json:"threshold"`
	Sources   []SearchResultOutput `json:"sources,omitempty"`
}

// JobStatusInput is the input schema for the job_status tool.
type JobStatusInput struct {
	JobID string `json:"job_id" jsonschema:"the ingestion job id to inspect"`
}

// JobStatusOutput is the output schema for the job_status tool.
type JobStatusOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Collection string `json:"collection"`
	State      string `json:"state"`
	Method     string `json:"method,omitempty"`
	Error      string `json:"error,omitempty"`
	Passages   int    `json:"passages"`
	Tokens     int    `json:"tokens"`
	Points     int    `json:"points"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Semantic search over the ingested knowledge base",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft",
		Description: "Draft content assembled verbatim from relevant passages",
	}, s.handleDraft)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "job_status",
		Description: "Inspect an ingestion job by id",
	}, s.handleJobStatus)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := domain.SearchOptions{
		Collection: input.Collection,
		Limit:      input.Limit,
	}
	results, err := s.ports.Search.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: resultOutputs(results),
		Count:   len(results),
	}
	return nil, output, nil
}

// handleDraft handles the draft tool invocation.
func (s *Server) handleDraft(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DraftInput,
) (*mcp.CallToolResult, DraftOutput, error) {
	if s.ports.Draft == nil {
		return nil, DraftOutput{}, errors.New("draft service not configured")
	}

	req := domain.DraftRequest{
		Keywords:     input.Keywords,
		Instructions: input.Instructions,
		Collection:   input.Collection,
		Limit:        input.Limit,
	}
	draft, err := s.ports.Draft.Draft(ctx, req)
	if err != nil {
		return nil, DraftOutput{}, err
	}

	output := DraftOutput{
		Content:   draft.Content,
		Refused:   draft.Refused,
		Model:     draft.Model,
		Threshold: draft.Threshold,
		Sources:   resultOutputs(draft.Sources),
	}
	return nil, output, nil
}

// handleJobStatus handles the job_status tool invocation.
func (s *Server) handleJobStatus(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input JobStatusInput,
) (*mcp.CallToolResult, JobStatusOutput, error) {
	if s.ports.Ingest == nil {
		return nil, JobStatusOutput{}, errors.New("ingestion not configured")
	}

	job, err := s.ports.Ingest.Job(ctx, input.JobID)
	if err != nil {
		return nil, JobStatusOutput{}, err
	}

	output := JobStatusOutput{
		ID:         job.ID,
		Filename:   job.Filename,
		Collection: job.Collection,
		State:      job.State.String(),
		Method:     string(job.Method),
		Error:      job.Error,
		Passages:   job.PassageCount,
		Tokens:     job.TokenCount,
		Points:     job.PointCount,
	}
	return nil, output, nil
}

func resultOutputs(results []domain.SearchResult) []SearchResultOutput {
	out := make([]SearchResultOutput, len(results))
	for i := range results {
		out[i] = SearchResultOutput{
			DocumentID: results[i].DocumentID,
			Filename:   results[i].Filename,
			ChunkIndex: results[i].ChunkIndex,
			Score:      results[i].Score,
			Text:       results[i].Text,
		}
	}
	return out
}
