// Package cli implements the quarry command-line interface.
// Commands are thin adapters over the driving ports; all pipeline
// behaviour lives in the core services.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/quarry/internal/adapters/driven/ai"
	"github.com/custodia-labs/quarry/internal/adapters/driven/config/file"
	jobmemory "github.com/custodia-labs/quarry/internal/adapters/driven/jobstore/memory"
	"github.com/custodia-labs/quarry/internal/chunker"
	"github.com/custodia-labs/quarry/internal/core/domain"
	"github.com/custodia-labs/quarry/internal/core/ports/driven"
	"github.com/custodia-labs/quarry/internal/core/ports/driving"
	"github.com/custodia-labs/quarry/internal/core/services"
	"github.com/custodia-labs/quarry/internal/extractors"
	"github.com/custodia-labs/quarry/internal/logger"
	"github.com/custodia-labs/quarry/internal/tokenizer"
)

// version is set at build time via ldflags.
var version = "dev"

// Services wired by initApp. Commands nil-check these so the binary
// degrades gracefully when a provider is not configured.
var (
	settingsService    driving.SettingsService
	ingestOrchestrator driving.IngestOrchestrator
	searchService      driving.SearchService
	draftService       driving.DraftService
	collectionService  driving.CollectionService

	// vectorStore is kept for the migrate command and for shutdown.
	vectorStore driven.VectorStore

	// appSettings is the snapshot the services were built from.
	appSettings *domain.AppSettings
)

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "quarry",
	Short: "Local RAG pipeline for document retrieval and grounded drafting",
	Long: `Quarry ingests documents into a vector store and retrieves from it.

Documents are extracted, split into token-bounded passages, embedded and
stored. Search returns the passages most similar to a query; draft
assembles new text strictly from retrieved passages, refusing when the
knowledge base has nothing relevant.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "verbose pipeline logging")
}

// SetVersion sets the version string reported by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute wires the application and runs the root command.
func Execute() error {
	if err := initApp(); err != nil {
		return err
	}
	defer closeApp()

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return err
}

// initApp builds the service graph from persisted settings.
// Unconfigured AI providers are not an error: the affected services stay
// nil and their commands report what is missing.
func initApp() error {
	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config store: %w", err)
	}

	settingsService = services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	appSettings = settings

	vectorStore, err = ai.CreateVectorStore(context.Background(), &settings.Store)
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}

	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: embedding provider unavailable: %v\n", err)
	}
	generator, err := ai.CreateGenerationService(&settings.Generation)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: generation provider unavailable: %v\n", err)
	}
	parser, err := ai.CreateCloudParser(&settings.Parser)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: cloud parser unavailable: %v\n", err)
	}

	counter, err := tokenizer.New()
	if err != nil {
		return fmt.Errorf("loading tokenizer: %w", err)
	}
	splitter := chunker.New(counter,
		chunker.WithChunkSize(settings.Ingest.ChunkSize),
		chunker.WithOverlap(settings.Ingest.ChunkOverlap),
	)

	registry := extractors.NewRegistry()
	extractors.RegisterDefaults(registry)

	ingestOrchestrator = services.NewIngestOrchestrator(
		jobmemory.NewJobStore(),
		registry,
		parser,
		splitter,
		embedder,
		vectorStore,
		services.IngestConfig{
			Collection: settings.Ingest.Collection,
			MinChars:   settings.Ingest.MinChars,
		},
	)

	search := services.NewSearchService(embedder, vectorStore, services.SearchConfig{
		Collection: settings.Ingest.Collection,
		TopK:       settings.Retrieval.TopK,
		Threshold:  settings.Retrieval.Threshold,
	})
	searchService = search

	draft := services.NewDraftService(search, generator)
	if promptStore, perr := file.NewPromptStore(""); perr == nil {
		draft.SetPromptStore(promptStore)
	}
	draftService = draft

	collectionService = services.NewCollectionService(vectorStore)
	return nil
}

// closeApp releases held resources.
func closeApp() {
	if vectorStore != nil {
		if err := vectorStore.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing vector store: %v\n", err)
		}
	}
}
