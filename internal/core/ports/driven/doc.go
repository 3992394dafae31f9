// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the ingestion and retrieval paths to function:
//
//   - ExtractorRegistry: Selects a local text extractor by filename
//   - Splitter: Splits extracted text into token-bounded passages
//   - TokenCounter: Measures text length in model tokens
//   - EmbeddingService: Generates vector embeddings
//   - VectorStore: Collection management, upsert, and similarity search
//   - JobStore: Ingestion job persistence
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - TextExtractor (fallback slot): Cloud parser used when local
//     extraction fails the quality gate. Without it, low-quality
//     extraction fails the job.
//   - GenerationService: Drafting is disabled without it; ingestion and
//     search are unaffected.
//   - PromptStore: Without it, services use their embedded prompt defaults.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
