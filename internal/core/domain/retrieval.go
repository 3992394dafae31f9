package domain

// SearchOptions configures a retrieval query.
type SearchOptions struct {
	// Collection to search. Empty means the configured default.
	Collection string

	// Limit is the maximum number of results. Zero means the
	// configured default.
	Limit int
}

// SearchResult is one scored point from a retrieval query.
// Results are ephemeral; they are ranked by similarity and never
// persisted.
type SearchResult struct {
	// PointID identifies the stored point.
	PointID string

	// DocumentID links back to the source document.
	DocumentID string

	// Filename is the source filename.
	Filename string

	// ChunkIndex is the passage's position within the document.
	ChunkIndex int

	// Text is the passage content.
	Text string

	// TokenCount is the passage length in model tokens.
	TokenCount int

	// Score is the cosine similarity to the query, in [-1, 1].
	Score float64
}

// DraftRequest asks for content drafted from the knowledge base.
type DraftRequest struct {
	// Keywords drive retrieval. They are embedded as one query string.
	Keywords []string

	// Instructions are the caller's directions for assembling the
	// draft. The extraction contract constrains how far the model may
	// follow them.
	Instructions string

	// Collection to draw from. Empty means the configured default.
	Collection string

	// Limit caps retrieved passages. Zero means the configured default.
	Limit int
}

// Draft is the outcome of a draft request: either content assembled
// verbatim from the listed sources, or a refusal when nothing relevant
// was found. Refused drafts never involved the generation model.
type Draft struct {
	// Content is the drafted text. Empty when Refused.
	Content string

	// Refused is true when no passage cleared the relevance threshold.
	Refused bool

	// Sources are the passages handed to the generation model, with
	// their scores, so the caller can audit the draft against them.
	Sources []SearchResult

	// Threshold is the relevance threshold that was applied.
	Threshold float64

	// Model is the generation model that produced Content.
	// Empty when Refused.
	Model string
}
