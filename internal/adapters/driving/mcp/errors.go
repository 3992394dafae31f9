// Package mcp provides an MCP (Model Context Protocol) server adapter for Quarry.
// It enables AI assistants like Claude to search and draft from the local
// knowledge base.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
