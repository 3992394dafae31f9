package driven

import "context"

// GenerationService produces text from a prompt pair.
// The model is treated as an untrusted, non-deterministic function: the
// draft service constrains it through the extraction contract and
// returns its sources so callers can audit the output. Nothing in this
// port implies the output is trustworthy on its own.
//
// Implementations may include:
//   - OpenAI (gpt-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
type GenerationService interface {
	// Complete sends one system+user prompt pair and returns the
	// model's text. A single bounded request; no retries.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ModelName returns the generation model identifier.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionRequest is one generation call.
type CompletionRequest struct {
	// System carries the rule set the model must operate under.
	System string

	// Prompt carries the source material and the caller's instructions.
	Prompt string

	// MaxTokens caps the response length. Zero means the adapter default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64
}
