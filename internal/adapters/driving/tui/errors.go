package tui

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("tui: search service is required")

// ErrMissingIngestOrchestrator is returned when the ingest orchestrator is not provided.
var ErrMissingIngestOrchestrator = errors.New("tui: ingest orchestrator is required")

// ErrInvalidPorts is returned when ports validation fails.
var ErrInvalidPorts = errors.New("tui: invalid ports configuration")
