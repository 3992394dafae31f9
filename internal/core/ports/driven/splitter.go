package driven

import "github.com/custodia-labs/quarry/internal/core/domain"

// Splitter breaks extracted text into ordered, token-bounded passages.
//
// The contract is strict: passages are exact substrings of the input,
// cover it completely, and adjacent passages share the configured token
// overlap. Splitting is a pure function - identical input always yields
// the identical passage sequence.
type Splitter interface {
	// Split produces the passage sequence for one document's text.
	// Empty or whitespace-only input yields an empty slice, which the
	// ingestion pipeline treats as a chunking failure.
	Split(text string) ([]domain.Passage, error)
}

// TokenCounter measures text length in model tokens.
// It is the leaf dependency shared by chunking and batching.
type TokenCounter interface {
	// Count returns the number of tokens in text.
	Count(text string) int
}
