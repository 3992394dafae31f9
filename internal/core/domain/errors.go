package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Unknown job and collection identifiers surface as this error,
	// never as an empty result.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// Pipeline Errors.
	//
	// Each maps to one stage of the ingestion state machine. A stage
	// failure halts the job, records the cause, and transitions it
	// to StateError.

	// ErrExtractionFailed indicates no extraction path produced usable text.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrLowQualityExtraction indicates extracted text fell below the
	// minimum-quality threshold. Triggers the cloud fallback when one
	// is configured; otherwise it becomes an ErrExtractionFailed cause.
	ErrLowQualityExtraction = errors.New("extracted text below quality threshold")

	// ErrUnsupportedFormat indicates no extractor is registered for the
	// submitted file's extension.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrChunkingFailed indicates the splitter produced no passages.
	ErrChunkingFailed = errors.New("chunking failed")

	// ErrEmbeddingFailed indicates the embedding provider rejected a batch.
	// A single failed batch fails the whole operation; there is no
	// passage-level partial success.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrStorageFailed indicates the vector store rejected a write or read.
	ErrStorageFailed = errors.New("vector storage failed")

	// Service Availability Errors.

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Both ingestion and retrieval require embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrGenerationUnavailable indicates the generation service is not configured.
	// Drafting is disabled without it; search still works.
	ErrGenerationUnavailable = errors.New("generation service unavailable")

	// Store Errors.

	// ErrDimensionMismatch indicates a vector's dimensionality does not
	// match the collection it is being written to or queried against.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrStoreClosed indicates an operation was attempted on a closed store.
	ErrStoreClosed = errors.New("store closed")
)
