package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/quarry/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure the embedding provider, generation provider,
vector store backend and cloud parser fallback.

Use subcommands to configure individual settings.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:   "embedding",
	Short: "Configure embedding provider",
	Long:  `Configure the embedding provider. Both ingestion and search require one.`,
	RunE:  runSettingsEmbedding,
}

var settingsGenerationCmd = &cobra.Command{
	Use:   "generation",
	Short: "Configure generation provider",
	Long:  `Configure the generation provider used for drafting. Search works without one.`,
	RunE:  runSettingsGeneration,
}

var settingsBackendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Select the vector store backend",
	Long: `Select where vectors are stored.

  sqlite   - embedded local database, zero setup (default)
  postgres - shared pgvector instance, needs a connection string`,
	RunE: runSettingsBackend,
}

var settingsParserCmd = &cobra.Command{
	Use:   "parser",
	Short: "Configure the cloud parser fallback",
	Long: `Configure the cloud parsing fallback used when local text
extraction fails or produces too little text. Optional; without it,
low-quality extractions fail the ingestion job instead of escalating.`,
	RunE: runSettingsParser,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsGenerationCmd)
	settingsCmd.AddCommand(settingsBackendCmd)
	settingsCmd.AddCommand(settingsParserCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	// Embedding settings
	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		if settings.Embedding.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Embedding.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.Embedding.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	// Generation settings
	cmd.Println("[Generation]")
	cmd.Printf("  Provider: %s\n", settings.Generation.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Generation.Model)
	if settings.Generation.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.Generation.BaseURL)
	}
	if settings.Generation.Provider.RequiresAPIKey() {
		if settings.Generation.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Generation.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status = "configured"
	if !settings.Generation.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	// Store settings
	cmd.Println("[Vector Store]")
	cmd.Printf("  Backend: %s\n", settings.Store.Backend)
	if settings.Store.Backend == domain.BackendSQLite && settings.Store.Path != "" {
		cmd.Printf("  Path: %s\n", settings.Store.Path)
	}
	if settings.Store.Backend == domain.BackendPostgres {
		if settings.Store.DSN != "" {
			cmd.Printf("  DSN: %s\n", maskAPIKey(settings.Store.DSN))
		} else {
			cmd.Printf("  DSN: (not set)\n")
		}
	}
	cmd.Println()

	// Parser settings
	cmd.Println("[Cloud Parser]")
	if settings.Parser.IsConfigured() {
		cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Parser.APIKey))
		cmd.Printf("  Status: configured\n")
	} else {
		cmd.Printf("  Status: not configured (low-quality extractions fail instead of escalating)\n")
	}
	cmd.Println()

	// Pipeline settings
	cmd.Println("[Ingestion]")
	cmd.Printf("  Collection: %s\n", settings.Ingest.Collection)
	cmd.Printf("  Chunk size: %d tokens (overlap %d)\n", settings.Ingest.ChunkSize, settings.Ingest.ChunkOverlap)
	cmd.Printf("  Quality gate: %d chars\n", settings.Ingest.MinChars)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Threshold: %.2f\n", settings.Retrieval.Threshold)
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'quarry settings embedding' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select Embedding Provider")
	providers := domain.AllEmbeddingProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultEmbeddingModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetEmbeddingProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

func runSettingsGeneration(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select Generation Provider")
	providers := domain.AllGenerationProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, len(providers), 1)
	selectedProvider := providers[idx-1]

	// Get model
	defaults := domain.DefaultGenerationModels()
	defaultModel := defaults[selectedProvider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	model := readLine(reader)
	if model == "" {
		model = defaultModel
	}

	// Get API key if needed
	var apiKey string
	if selectedProvider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		apiKey = readPassword()
		cmd.Println()
		if apiKey == "" {
			return errors.New("API key is required for this provider")
		}
	}

	if err := settingsService.SetGenerationProvider(selectedProvider, model, apiKey); err != nil {
		return fmt.Errorf("failed to configure generation provider: %w", err)
	}

	// Validate the configuration by pinging the service
	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateGenerationConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("generation configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Generation provider configured: %s (%s)\n", selectedProvider.Description(), model)
	return nil
}

func runSettingsBackend(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	reader := bufio.NewReader(os.Stdin)

	cmd.Println("Select Vector Store Backend")
	cmd.Println("  1. sqlite (embedded, zero setup)")
	cmd.Println("  2. postgres (shared pgvector instance)")
	cmd.Print("\nEnter choice [1]: ")
	input := readLine(reader)
	idx := parseChoice(input, 2, 1)

	if idx == 1 {
		cmd.Print("Database file path (empty for default): ")
		path := readLine(reader)
		if err := settingsService.SetStoreBackend(domain.BackendSQLite, path); err != nil {
			return fmt.Errorf("failed to set backend: %w", err)
		}
		cmd.Println("Backend set to sqlite.")
		return nil
	}

	cmd.Print("Connection string (postgres://...): ")
	dsn := readLine(reader)
	if err := settingsService.SetStoreBackend(domain.BackendPostgres, dsn); err != nil {
		return fmt.Errorf("failed to set backend: %w", err)
	}
	cmd.Println("Backend set to postgres.")
	cmd.Println("Use 'quarry migrate' to copy existing collections over.")
	return nil
}

func runSettingsParser(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	cmd.Print("Enter parser API key (empty to disable): ")
	apiKey := readPassword()
	cmd.Println()

	if err := settingsService.SetParserAPIKey(apiKey); err != nil {
		return fmt.Errorf("failed to configure parser: %w", err)
	}

	if apiKey == "" {
		cmd.Println("Cloud parser disabled.")
	} else {
		cmd.Println("Cloud parser configured.")
	}
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

//nolint:errcheck // CLI helper, error ignored for UX
func readPassword() string {
	// Try to read password without echo
	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	reader := bufio.NewReader(os.Stdin)
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
