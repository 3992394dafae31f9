// Package domain defines the core business entities for Quarry.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - IngestJob: The tracked lifecycle of one document's ingestion
//   - Passage: A token-bounded slice of extracted text
//   - Point: A passage plus its vector, as stored in a collection
//   - SearchResult: A scored point returned by retrieval
//   - Draft: Generated content with full source provenance
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
