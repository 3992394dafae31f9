package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies which vector store implementation to run.
// The backend is selected once at process start; everything above the
// store port is backend-agnostic.
type VectorBackend string

// Available vector store backends.
const (
	// BackendSQLite is the embedded local store.
	BackendSQLite VectorBackend = "sqlite"

	// BackendPostgres is the networked pgvector store.
	BackendPostgres VectorBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	return b == BackendSQLite || b == BackendPostgres
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// GenerationSettings holds generation provider configuration.
type GenerationSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the generation model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string
}

// IsConfigured returns true if the generation provider is set up.
func (g GenerationSettings) IsConfigured() bool {
	if !g.Provider.IsValid() {
		return false
	}
	if g.Provider.RequiresAPIKey() && g.APIKey == "" {
		return false
	}
	return true
}

// ParserSettings holds cloud-parser fallback configuration.
// The fallback is optional; without it, low-quality local extraction
// fails the job instead of escalating.
type ParserSettings struct {
	// APIKey authenticates against the parse API.
	APIKey string

	// BaseURL overrides the default parse API endpoint.
	BaseURL string
}

// IsConfigured returns true if the cloud parser is set up.
func (p ParserSettings) IsConfigured() bool {
	return p.APIKey != ""
}

// StoreSettings holds vector store backend configuration.
type StoreSettings struct {
	// Backend selects the store implementation.
	Backend VectorBackend

	// Path is the database file location for the sqlite backend.
	// Empty means the default under the quarry config directory.
	Path string

	// DSN is the connection string for the postgres backend.
	DSN string
}

// IngestSettings holds ingestion pipeline configuration.
type IngestSettings struct {
	// Collection is the default target collection.
	Collection string

	// ChunkSize is the passage budget in tokens.
	ChunkSize int

	// ChunkOverlap is the token overlap between adjacent passages.
	ChunkOverlap int

	// MinChars is the extraction quality gate: local extractions
	// shorter than this trigger the cloud fallback.
	MinChars int
}

// RetrievalSettings holds search and drafting configuration.
type RetrievalSettings struct {
	// TopK is the default number of passages retrieved per query.
	TopK int

	// Threshold is the minimum cosine similarity a passage must reach
	// to count as relevant.
	Threshold float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// Generation holds generation provider settings.
	Generation GenerationSettings

	// Parser holds cloud-parser fallback settings.
	Parser ParserSettings

	// Store holds vector store backend settings.
	Store StoreSettings

	// Ingest holds ingestion pipeline settings.
	Ingest IngestSettings

	// Retrieval holds search and drafting settings.
	Retrieval RetrievalSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users set them up via
// `quarry settings`.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding:  EmbeddingSettings{},
		Generation: GenerationSettings{},
		Parser:     ParserSettings{},
		Store: StoreSettings{
			Backend: BackendSQLite,
		},
		Ingest: IngestSettings{
			Collection:   "knowledge",
			ChunkSize:    1000,
			ChunkOverlap: 200,
			MinChars:     100,
		},
		Retrieval: RetrievalSettings{
			TopK:      5,
			Threshold: 0.30,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllGenerationProviders returns providers that support generation.
func AllGenerationProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultGenerationModels returns default models for each generation provider.
func DefaultGenerationModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
