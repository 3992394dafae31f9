package mcp

import (
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides semantic search over the knowledge base.
	Search driving.SearchService

	// Draft produces grounded drafts. Optional; the draft tool reports
	// an error when unset.
	Draft driving.DraftService

	// Ingest exposes ingestion job status. Optional.
	Ingest driving.IngestOrchestrator

	// Collection exposes collection introspection. Optional.
	Collection driving.CollectionService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	// Draft, Ingest and Collection are optional
	return nil
}
