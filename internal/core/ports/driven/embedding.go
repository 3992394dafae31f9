package driven

import "context"

// EmbeddingService generates vector embeddings for text.
// Both ingestion and retrieval embed through the same service, which is
// what guarantees query vectors live in the same space as stored points.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, ada-002)
//   - Ollama (nomic-embed-text, mxbai-embed-large)
type EmbeddingService interface {
	// Embed generates an embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for up to MaxBatchSize texts in
	// one provider request, preserving input order. Oversized batches
	// are rejected; partitioning is the caller's responsibility.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// MaxBatchSize returns the provider's hard per-request input cap.
	// This is an external constraint, not a tunable.
	MaxBatchSize() int

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the embedding model identifier.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
