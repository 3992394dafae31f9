package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Defined(t *testing.T) {
	assert.Error(t, ErrMissingSearchService)
	assert.Error(t, ErrMissingIngestOrchestrator)
	assert.Error(t, ErrInvalidPorts)
}

func TestErrors_Messages(t *testing.T) {
	assert.Contains(t, ErrMissingSearchService.Error(), "search service")
	assert.Contains(t, ErrMissingIngestOrchestrator.Error(), "ingest orchestrator")
}

func TestErrors_Distinct(t *testing.T) {
	assert.NotEqual(t, ErrMissingSearchService, ErrMissingIngestOrchestrator)
	assert.NotEqual(t, ErrMissingSearchService, ErrInvalidPorts)
}
