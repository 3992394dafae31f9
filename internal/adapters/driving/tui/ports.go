// Package tui provides an interactive terminal user interface for quarry.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides semantic search over the knowledge base.
	Search driving.SearchService

	// Ingest exposes ingestion job status.
	Ingest driving.IngestOrchestrator

	// Collection exposes collection introspection.
	Collection driving.CollectionService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(
	search driving.SearchService,
	ingest driving.IngestOrchestrator,
	collection driving.CollectionService,
) *Ports {
	return &Ports{
		Search:     search,
		Ingest:     ingest,
		Collection: collection,
	}
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	if p.Ingest == nil {
		return ErrMissingIngestOrchestrator
	}
	// Collection is optional
	return nil
}
