package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider = "embedding.provider"
	keyEmbedModel    = "embedding.model"
	keyEmbedBaseURL  = "embedding.base_url"
	keyEmbedAPIKey   = "embedding.api_key"
	keyGenProvider   = "generation.provider"
	keyGenModel      = "generation.model"
	keyGenBaseURL    = "generation.base_url"
	keyGenAPIKey     = "generation.api_key"
	keyParserAPIKey  = "parser.api_key"
	keyParserBaseURL = "parser.base_url"
	keyStoreBackend  = "store.backend"
	keyStorePath     = "store.path"
	keyStoreDSN      = "store.dsn"
	keyCollection    = "ingest.collection"
	keyChunkSize     = "ingest.chunk_size"
	keyChunkOverlap  = "ingest.chunk_overlap"
	keyMinChars      = "ingest.min_chars"
	keyTopK          = "retrieval.top_k"
	keyThreshold     = "retrieval.threshold"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		Generation: domain.GenerationSettings{
			Provider: s.getProvider(keyGenProvider, defaults.Generation.Provider),
			Model:    s.getString(keyGenModel, defaults.Generation.Model),
			BaseURL:  s.configStore.GetString(keyGenBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyGenAPIKey),
		},
		Parser: domain.ParserSettings{
			APIKey:  s.configStore.GetString(keyParserAPIKey),
			BaseURL: s.configStore.GetString(keyParserBaseURL),
		},
		Store: domain.StoreSettings{
			Backend: s.getBackend(keyStoreBackend, defaults.Store.Backend),
			Path:    s.configStore.GetString(keyStorePath),
			DSN:     s.configStore.GetString(keyStoreDSN),
		},
		Ingest: domain.IngestSettings{
			Collection:   s.getString(keyCollection, defaults.Ingest.Collection),
			ChunkSize:    s.getInt(keyChunkSize, defaults.Ingest.ChunkSize),
			ChunkOverlap: s.getInt(keyChunkOverlap, defaults.Ingest.ChunkOverlap),
			MinChars:     s.getInt(keyMinChars, defaults.Ingest.MinChars),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:      s.getInt(keyTopK, defaults.Retrieval.TopK),
			Threshold: s.getFloat(keyThreshold, defaults.Retrieval.Threshold),
		},
	}

	return settings, nil
}

// Save persists application settings.
//
//nolint:gocyclo // Sequential field-by-field persistence.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if settings.Embedding.APIKey != "" {
		if err := s.configStore.Set(keyEmbedAPIKey, settings.Embedding.APIKey); err != nil {
			return fmt.Errorf("save embedding api_key: %w", err)
		}
	}

	if err := s.configStore.Set(keyGenProvider, settings.Generation.Provider.String()); err != nil {
		return fmt.Errorf("save generation provider: %w", err)
	}
	if err := s.configStore.Set(keyGenModel, settings.Generation.Model); err != nil {
		return fmt.Errorf("save generation model: %w", err)
	}
	if err := s.configStore.Set(keyGenBaseURL, settings.Generation.BaseURL); err != nil {
		return fmt.Errorf("save generation base_url: %w", err)
	}
	if settings.Generation.APIKey != "" {
		if err := s.configStore.Set(keyGenAPIKey, settings.Generation.APIKey); err != nil {
			return fmt.Errorf("save generation api_key: %w", err)
		}
	}

	if settings.Parser.APIKey != "" {
		if err := s.configStore.Set(keyParserAPIKey, settings.Parser.APIKey); err != nil {
			return fmt.Errorf("save parser api_key: %w", err)
		}
	}
	if settings.Parser.BaseURL != "" {
		if err := s.configStore.Set(keyParserBaseURL, settings.Parser.BaseURL); err != nil {
			return fmt.Errorf("save parser base_url: %w", err)
		}
	}

	if err := s.configStore.Set(keyStoreBackend, settings.Store.Backend.String()); err != nil {
		return fmt.Errorf("save store backend: %w", err)
	}
	if err := s.configStore.Set(keyStorePath, settings.Store.Path); err != nil {
		return fmt.Errorf("save store path: %w", err)
	}
	if err := s.configStore.Set(keyStoreDSN, settings.Store.DSN); err != nil {
		return fmt.Errorf("save store dsn: %w", err)
	}

	if err := s.configStore.Set(keyCollection, settings.Ingest.Collection); err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	if err := s.configStore.Set(keyChunkSize, settings.Ingest.ChunkSize); err != nil {
		return fmt.Errorf("save chunk_size: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.Ingest.ChunkOverlap); err != nil {
		return fmt.Errorf("save chunk_overlap: %w", err)
	}
	if err := s.configStore.Set(keyMinChars, settings.Ingest.MinChars); err != nil {
		return fmt.Errorf("save min_chars: %w", err)
	}

	if err := s.configStore.Set(keyTopK, settings.Retrieval.TopK); err != nil {
		return fmt.Errorf("save top_k: %w", err)
	}
	if err := s.configStore.Set(keyThreshold, settings.Retrieval.Threshold); err != nil {
		return fmt.Errorf("save threshold: %w", err)
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("provider %s requires an API key", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if model == "" {
		model = domain.DefaultEmbeddingModels()[provider]
	}

	settings.Embedding.Provider = provider
	settings.Embedding.Model = model
	settings.Embedding.APIKey = apiKey

	return s.Save(settings)
}

// SetGenerationProvider configures the generation provider.
func (s *SettingsService) SetGenerationProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid provider: %s", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("provider %s requires an API key", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	if model == "" {
		model = domain.DefaultGenerationModels()[provider]
	}

	settings.Generation.Provider = provider
	settings.Generation.Model = model
	settings.Generation.APIKey = apiKey

	return s.Save(settings)
}

// SetStoreBackend selects the vector store backend.
// For the postgres backend, location is the connection string; for the
// sqlite backend, it is the database file path (empty for the default).
func (s *SettingsService) SetStoreBackend(backend domain.VectorBackend, location string) error {
	if !backend.IsValid() {
		return fmt.Errorf("invalid backend: %s", backend)
	}
	if backend == domain.BackendPostgres && location == "" {
		return fmt.Errorf("postgres backend requires a connection string")
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Store.Backend = backend
	switch backend {
	case domain.BackendPostgres:
		settings.Store.DSN = location
	case domain.BackendSQLite:
		settings.Store.Path = location
	}

	return s.Save(settings)
}

// SetParserAPIKey configures the cloud extraction fallback.
func (s *SettingsService) SetParserAPIKey(apiKey string) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	settings.Parser.APIKey = apiKey
	return s.Save(settings)
}

// Validate checks if current settings can run the pipeline.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if !settings.Embedding.IsConfigured() {
		errs = append(errs, domain.ErrEmbeddingUnavailable)
	}
	if settings.Ingest.ChunkSize <= 0 {
		errs = append(errs, fmt.Errorf("chunk_size must be positive"))
	}
	if settings.Ingest.ChunkOverlap >= settings.Ingest.ChunkSize {
		errs = append(errs, fmt.Errorf("chunk_overlap must be smaller than chunk_size"))
	}
	if settings.Retrieval.Threshold < -1 || settings.Retrieval.Threshold > 1 {
		errs = append(errs, fmt.Errorf("threshold must be a cosine similarity in [-1, 1]"))
	}

	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateGenerationConfig validates the current generation configuration by pinging the provider.
func (s *SettingsService) ValidateGenerationConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateGeneration(&settings.Generation)
}

// getString returns a config string or the default when unset.
func (s *SettingsService) getString(key, def string) string {
	if v := s.configStore.GetString(key); v != "" {
		return v
	}
	return def
}

// getInt returns a config int or the default when unset or non-positive.
func (s *SettingsService) getInt(key string, def int) int {
	if v := s.configStore.GetInt(key); v > 0 {
		return v
	}
	return def
}

// getFloat returns a config float or the default when the key is unset.
func (s *SettingsService) getFloat(key string, def float64) float64 {
	if _, ok := s.configStore.Get(key); ok {
		return s.configStore.GetFloat64(key)
	}
	return def
}

// getProvider parses a stored provider name, falling back on invalid values.
func (s *SettingsService) getProvider(key string, def domain.AIProvider) domain.AIProvider {
	p := domain.AIProvider(s.configStore.GetString(key))
	if p.IsValid() {
		return p
	}
	return def
}

// getBackend parses a stored backend name, falling back on invalid values.
func (s *SettingsService) getBackend(key string, def domain.VectorBackend) domain.VectorBackend {
	b := domain.VectorBackend(s.configStore.GetString(key))
	if b.IsValid() {
		return b
	}
	return def
}
