// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/quarry/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/quarry/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/quarry/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/quarry/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/quarry/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/quarry/internal/adapters/driven/parsing/llamaparse"
	"github.com/custodia-labs/quarry/internal/adapters/driven/vectorstore/postgres"
	"github.com/custodia-labs/quarry/internal/adapters/driven/vectorstore/sqlite"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// ValidateEmbeddingConfig validates an embedding configuration by creating a service and pinging it.
// This is intended for use in the settings flow to validate credentials on configuration.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateGenerationConfig validates a generation configuration by creating a service and pinging it.
// This is intended for use in the settings flow to validate credentials on configuration.
func ValidateGenerationConfig(settings *domain.GenerationSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateGenerationService(settings)
	if err != nil {
		return err
	}
	if svc == nil {
		return nil
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateGenerationService creates the appropriate generation service based on settings.
// Returns nil if the provider is not configured.
func CreateGenerationService(settings *domain.GenerationSettings) (driven.GenerationService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaGeneration(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIGeneration(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicGeneration(settings)

	default:
		return nil, fmt.Errorf("unsupported generation provider: %s", settings.Provider)
	}
}

// CreateCloudParser creates the cloud extraction fallback, or nil when
// no parser API key is configured.
func CreateCloudParser(settings *domain.ParserSettings) (driven.TextExtractor, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	return llamaparse.New(llamaparse.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
	})
}

// CreateVectorStore creates the configured vector store backend.
// The sqlite backend is always available; postgres needs a DSN.
func CreateVectorStore(ctx context.Context, settings *domain.StoreSettings) (driven.VectorStore, error) {
	backend := domain.BackendSQLite
	if settings != nil && settings.Backend.IsValid() {
		backend = settings.Backend
	}

	switch backend {
	case domain.BackendSQLite:
		var path string
		if settings != nil {
			path = settings.Path
		}
		return sqlite.NewStore(path)

	case domain.BackendPostgres:
		if settings == nil || settings.DSN == "" {
			return nil, fmt.Errorf("%w: postgres backend requires a connection string", domain.ErrInvalidInput)
		}
		return postgres.NewStore(ctx, settings.DSN)

	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[settings.Model]

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createOllamaGeneration creates an Ollama generation service.
func createOllamaGeneration(settings *domain.GenerationSettings) driven.GenerationService {
	return ollamallm.NewGenerationService(ollamallm.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOpenAIGeneration creates an OpenAI generation service.
func createOpenAIGeneration(settings *domain.GenerationSettings) (driven.GenerationService, error) {
	return openaillm.NewGenerationService(openaillm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createAnthropicGeneration creates an Anthropic generation service.
func createAnthropicGeneration(settings *domain.GenerationSettings) (driven.GenerationService, error) {
	return anthropicllm.NewGenerationService(anthropicllm.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
